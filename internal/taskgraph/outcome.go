package taskgraph

import "time"

// Outcome captures the result of one run.
type Outcome struct {
	RunID     string
	Target    string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	// Tasks lists every task of the closure: terminal tasks in completion order, then untouched tasks.
	Tasks    []TaskOutcome
	Failures []TaskFailure
}

// TaskOutcome reports the execution status of a single task.
type TaskOutcome struct {
	Name     string
	State    TaskState
	Duration time.Duration
	// Executed is false for tasks that never invoked their action.
	Executed bool
	Error    error
}

// TaskFailure captures a failure for user-facing reporting.
type TaskFailure struct {
	Name    string
	Message string
	Error   error
}

// States indexes final task states by name.
func (outcome Outcome) States() map[string]TaskState {
	states := make(map[string]TaskState, len(outcome.Tasks))
	for _, task := range outcome.Tasks {
		states[task.Name] = task.State
	}
	return states
}

// CompletionOrder lists the names of tasks that reached a terminal state, in the order they did.
func (outcome Outcome) CompletionOrder() []string {
	names := make([]string, 0, len(outcome.Tasks))
	for _, task := range outcome.Tasks {
		if task.State.IsTerminal() {
			names = append(names, task.Name)
		}
	}
	return names
}

// Count returns the number of tasks in the provided state.
func (outcome Outcome) Count(state TaskState) int {
	count := 0
	for _, task := range outcome.Tasks {
		if task.State == state {
			count++
		}
	}
	return count
}

// TargetState reports the final state of the run target.
func (outcome Outcome) TargetState() TaskState {
	for _, task := range outcome.Tasks {
		if task.Name == outcome.Target {
			return task.State
		}
	}
	return TaskStatePending
}
