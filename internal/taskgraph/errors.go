package taskgraph

import (
	"fmt"
	"strings"
)

const (
	invalidNameEmptyMessageConstant          = "task name must not be empty"
	invalidNameWhitespaceTemplateConstant    = "task name %q must not contain whitespace"
	unknownTaskTemplateConstant              = "unknown task %q"
	unknownTaskReferenceTemplateConstant     = "task %q references unknown task %q"
	unknownDefaultTaskMessageConstant        = "no task requested and no default task declared"
	cyclicDependencyTemplateConstant         = "cyclic dependency: %s"
	cyclicDependencyUnknownMessageConstant   = "cyclic dependency detected"
	cyclePathSeparatorConstant               = " → "
	actionErrorTemplateConstant              = "task %q failed: %v"
	actionErrorWithoutCauseTemplateConstant  = "task %q failed"
	deadlockTemplateConstant                 = "scheduler deadlock: no task ready while %d task(s) remain pending (%s)"
	dependencyFailedTemplateConstant         = "dependency %q failed"
	sequenceStepFailedTemplateConstant       = "sequence step %q failed"
	sequenceStepNotCompletedTemplateConstant = "sequence step %q ended in state %s"
)

// InvalidNameError reports a malformed task registration.
type InvalidNameError struct {
	Name string
}

// Error implements the error interface.
func (invalidName InvalidNameError) Error() string {
	if len(strings.TrimSpace(invalidName.Name)) == 0 {
		return invalidNameEmptyMessageConstant
	}
	return fmt.Sprintf(invalidNameWhitespaceTemplateConstant, invalidName.Name)
}

// UnknownTaskError reports a reference to a task that is not registered, either as a run target or as a dependency.
type UnknownTaskError struct {
	Name         string
	ReferencedBy string
}

// Error implements the error interface.
func (unknownTask UnknownTaskError) Error() string {
	if len(unknownTask.Name) == 0 {
		return unknownDefaultTaskMessageConstant
	}
	if len(unknownTask.ReferencedBy) > 0 {
		return fmt.Sprintf(unknownTaskReferenceTemplateConstant, unknownTask.ReferencedBy, unknownTask.Name)
	}
	return fmt.Sprintf(unknownTaskTemplateConstant, unknownTask.Name)
}

// CyclicDependencyError reports a cycle in the dependency relation. Cycle starts and ends with the same task.
type CyclicDependencyError struct {
	Cycle []string
}

// Error implements the error interface.
func (cyclicDependency CyclicDependencyError) Error() string {
	if len(cyclicDependency.Cycle) == 0 {
		return cyclicDependencyUnknownMessageConstant
	}
	return fmt.Sprintf(cyclicDependencyTemplateConstant, strings.Join(cyclicDependency.Cycle, cyclePathSeparatorConstant))
}

// ActionError reports that a task's action failed, or that the task could not run because something it needed failed.
type ActionError struct {
	Task  string
	Cause error
}

// Error implements the error interface.
func (actionError ActionError) Error() string {
	if actionError.Cause == nil {
		return fmt.Sprintf(actionErrorWithoutCauseTemplateConstant, actionError.Task)
	}
	return fmt.Sprintf(actionErrorTemplateConstant, actionError.Task, actionError.Cause)
}

// Unwrap exposes the underlying adapter failure.
func (actionError ActionError) Unwrap() error {
	return actionError.Cause
}

// DeadlockError reports that the scheduler stopped making progress while work remained.
type DeadlockError struct {
	Pending []string
}

// Error implements the error interface.
func (deadlock DeadlockError) Error() string {
	return fmt.Sprintf(deadlockTemplateConstant, len(deadlock.Pending), strings.Join(deadlock.Pending, ", "))
}

// DependencyFailedError is recorded on tasks that never ran because a dependency failed.
type DependencyFailedError struct {
	Dependency string
}

// Error implements the error interface.
func (dependencyFailed DependencyFailedError) Error() string {
	return fmt.Sprintf(dependencyFailedTemplateConstant, dependencyFailed.Dependency)
}

type runFailureError struct {
	message string
	cause   error
}

func (failure runFailureError) Error() string {
	return failure.message
}

func (failure runFailureError) Unwrap() error {
	return failure.cause
}
