package taskgraph

import (
	"context"
	"strings"
)

// Func performs the work of a single task.
type Func func(executionContext context.Context) error

// ActionKind identifies the variant carried by an Action.
type ActionKind string

// Supported action kinds.
const (
	ActionKindNoOp     ActionKind = ActionKind("noop")
	ActionKindSingle   ActionKind = ActionKind("single")
	ActionKindSequence ActionKind = ActionKind("sequence")
)

// Action is the optional unit of work attached to a task.
type Action struct {
	kind     ActionKind
	function Func
	steps    []string
}

// NoOp returns an action for pure grouping tasks.
func NoOp() Action {
	return Action{kind: ActionKindNoOp}
}

// SingleAction wraps a transform function. A nil function behaves as NoOp.
func SingleAction(function Func) Action {
	if function == nil {
		return NoOp()
	}
	return Action{kind: ActionKindSingle, function: function}
}

// OrderedSequence returns an action that runs the named tasks strictly one after another.
func OrderedSequence(taskNames ...string) Action {
	steps := make([]string, 0, len(taskNames))
	for _, taskName := range taskNames {
		trimmedName := strings.TrimSpace(taskName)
		if len(trimmedName) == 0 {
			continue
		}
		steps = append(steps, trimmedName)
	}
	return Action{kind: ActionKindSequence, steps: steps}
}

// Kind reports the action variant. The zero Action is NoOp.
func (action Action) Kind() ActionKind {
	if len(action.kind) == 0 {
		return ActionKindNoOp
	}
	return action.kind
}

// Steps returns a copy of the ordered sequence for sequence actions.
func (action Action) Steps() []string {
	if len(action.steps) == 0 {
		return nil
	}
	return append([]string(nil), action.steps...)
}

// Task is a named unit of work with declared dependencies and an optional action.
type Task struct {
	Name         string
	Dependencies []string
	Action       Action
}

// TaskState is the lifecycle of a task within one run.
type TaskState string

// Task lifecycle states.
const (
	TaskStatePending   TaskState = TaskState("pending")
	TaskStateRunning   TaskState = TaskState("running")
	TaskStateCompleted TaskState = TaskState("completed")
	TaskStateFailed    TaskState = TaskState("failed")
)

// IsTerminal reports whether no further transition is possible.
func (state TaskState) IsTerminal() bool {
	return state == TaskStateCompleted || state == TaskStateFailed
}

func (task Task) clone() Task {
	cloned := task
	cloned.Dependencies = append([]string(nil), task.Dependencies...)
	cloned.Action.steps = append([]string(nil), task.Action.steps...)
	return cloned
}

// edges lists every task this task needs resolved: its dependencies followed by its sequence steps.
func (task Task) edges() []string {
	edges := make([]string, 0, len(task.Dependencies)+len(task.Action.steps))
	edges = append(edges, task.Dependencies...)
	edges = append(edges, task.Action.steps...)
	return edges
}
