package taskgraph

import (
	"time"

	"go.uber.org/zap"
)

const (
	taskStartedEventConstant   = "task_started"
	taskCompletedEventConstant = "task_completed"
	taskFailedEventConstant    = "task_failed"
	taskFieldConstant          = "task"
	durationFieldConstant      = "duration"
	skippedFieldConstant       = "skipped"
)

// Observer receives task lifecycle notifications. Calls arrive only from the scheduler goroutine, one at a time.
type Observer interface {
	TaskStarted(name string)
	TaskFinished(name string, state TaskState, executed bool, duration time.Duration, err error)
}

type loggingObserver struct {
	logger *zap.Logger
}

// NewLoggingObserver reports task lifecycle events through the provided logger.
func NewLoggingObserver(logger *zap.Logger) Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return loggingObserver{logger: logger}
}

func (observer loggingObserver) TaskStarted(name string) {
	observer.logger.Debug(taskStartedEventConstant, zap.String(taskFieldConstant, name))
}

func (observer loggingObserver) TaskFinished(name string, state TaskState, executed bool, duration time.Duration, err error) {
	if state == TaskStateCompleted {
		observer.logger.Info(taskCompletedEventConstant, zap.String(taskFieldConstant, name), zap.Duration(durationFieldConstant, duration))
		return
	}
	observer.logger.Error(
		taskFailedEventConstant,
		zap.String(taskFieldConstant, name),
		zap.Bool(skippedFieldConstant, !executed),
		zap.Duration(durationFieldConstant, duration),
		zap.Error(err),
	)
}
