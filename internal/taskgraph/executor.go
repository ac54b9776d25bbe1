package taskgraph

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	runStartedEventConstant       = "task_graph_run_started"
	runCompletedEventConstant     = "task_graph_run_completed"
	runDeadlockEventConstant      = "task_graph_deadlock"
	runIdentifierFieldConstant    = "run_id"
	runTargetFieldConstant        = "target"
	runTaskCountFieldConstant     = "task_count"
	runFailureCountFieldConstant  = "failure_count"
	runPendingFieldConstant       = "pending"
	runRegistryMissingMessage     = "task graph executor requires a registry"
	runAdditionalFailuresTemplate = "%s (and %d more failures)"
	minimumParallelismConstant    = 1
)

var errRegistryMissing = errors.New(runRegistryMissingMessage)

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger used for run-level diagnostics and, unless WithObserver is given, task events.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(executor *Executor) {
		if logger != nil {
			executor.logger = logger
		}
	}
}

// WithParallelism bounds the number of single actions running at once. Values below one are raised to one.
func WithParallelism(parallelism int) ExecutorOption {
	return func(executor *Executor) {
		if parallelism < minimumParallelismConstant {
			parallelism = minimumParallelismConstant
		}
		executor.parallelism = parallelism
	}
}

// WithObserver replaces the default logging observer.
func WithObserver(observer Observer) ExecutorOption {
	return func(executor *Executor) {
		executor.observer = observer
	}
}

// Executor runs tasks from a Registry.
type Executor struct {
	registry    *Registry
	logger      *zap.Logger
	parallelism int
	observer    Observer
}

// NewExecutor constructs an Executor for the provided registry.
func NewExecutor(registry *Registry, options ...ExecutorOption) *Executor {
	executor := &Executor{
		registry:    registry,
		logger:      zap.NewNop(),
		parallelism: runtime.NumCPU(),
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	if executor.observer == nil {
		executor.observer = NewLoggingObserver(executor.logger)
	}
	return executor
}

// Run executes target after validating its closure. A blank target runs the registry default.
// The returned error is nil only when every task the run reached completed.
func (executor *Executor) Run(executionContext context.Context, target string) (Outcome, error) {
	outcome := Outcome{
		RunID:     uuid.NewString(),
		Target:    target,
		StartTime: time.Now(),
	}
	if executor == nil || executor.registry == nil {
		return outcome, errRegistryMissing
	}
	if executionContext == nil {
		executionContext = context.Background()
	}

	closure, validationError := Validate(executor.registry, target)
	if validationError != nil {
		outcome.EndTime = time.Now()
		outcome.Duration = outcome.EndTime.Sub(outcome.StartTime)
		return outcome, validationError
	}
	outcome.Target = closure.Target

	executor.logger.Info(
		runStartedEventConstant,
		zap.String(runIdentifierFieldConstant, outcome.RunID),
		zap.String(runTargetFieldConstant, closure.Target),
		zap.Int(runTaskCountFieldConstant, len(closure.Order)),
	)

	state := newRunState(executionContext, closure, executor.parallelism, executor.observer)
	schedulerError := state.execute()

	outcome.Tasks = state.taskOutcomes()
	outcome.Failures = state.failures()
	outcome.EndTime = time.Now()
	outcome.Duration = outcome.EndTime.Sub(outcome.StartTime)

	executor.logger.Info(
		runCompletedEventConstant,
		zap.String(runIdentifierFieldConstant, outcome.RunID),
		zap.String(runTargetFieldConstant, closure.Target),
		zap.Int(runFailureCountFieldConstant, len(outcome.Failures)),
		zap.Duration(durationFieldConstant, outcome.Duration),
	)

	if schedulerError != nil {
		var deadlock DeadlockError
		if errors.As(schedulerError, &deadlock) {
			executor.logger.Error(runDeadlockEventConstant, zap.Strings(runPendingFieldConstant, deadlock.Pending))
		}
		return outcome, schedulerError
	}
	return outcome, summarizeFailures(outcome.Failures)
}

func summarizeFailures(failures []TaskFailure) error {
	if len(failures) == 0 {
		return nil
	}

	message := failures[0].Message
	for _, failure := range failures {
		var dependencyFailed DependencyFailedError
		if !errors.As(failure.Error, &dependencyFailed) {
			message = failure.Message
			break
		}
	}
	if len(failures) > 1 {
		message = fmt.Sprintf(runAdditionalFailuresTemplate, message, len(failures)-1)
	}

	causes := make([]error, 0, len(failures))
	for _, failure := range failures {
		causes = append(causes, failure.Error)
	}
	return runFailureError{message: message, cause: errors.Join(causes...)}
}

type runEventKind int

const (
	runEventFinished runEventKind = iota
	runEventRequest
)

type runEvent struct {
	kind     runEventKind
	name     string
	single   bool
	err      error
	duration time.Duration
	reply    chan TaskState
}

type taskRecord struct {
	state    TaskState
	executed bool
	duration time.Duration
	err      error
	waiters  []chan TaskState
}

// runState is owned by the scheduler goroutine. Workers talk to it only through events.
type runState struct {
	executionContext context.Context
	closure          Closure
	observer         Observer
	parallelism      int
	records          map[string]*taskRecord
	wanted           map[string]struct{}
	completionOrder  []string
	events           chan runEvent
	inFlight         int
	runningSingles   int
	cancelCause      error
	workers          sync.WaitGroup
}

func newRunState(executionContext context.Context, closure Closure, parallelism int, observer Observer) *runState {
	if parallelism < minimumParallelismConstant {
		parallelism = minimumParallelismConstant
	}
	records := make(map[string]*taskRecord, len(closure.Order))
	for _, name := range closure.Order {
		records[name] = &taskRecord{state: TaskStatePending}
	}
	return &runState{
		executionContext: executionContext,
		closure:          closure,
		observer:         observer,
		parallelism:      parallelism,
		records:          records,
		wanted:           make(map[string]struct{}, len(closure.Order)),
		events:           make(chan runEvent),
	}
}

func (state *runState) execute() error {
	state.want(state.closure.Target)
	cancellation := state.executionContext.Done()

	for {
		state.dispatchReady()

		if state.inFlight == 0 {
			pending := state.pendingWanted()
			if len(pending) == 0 {
				break
			}
			deadlock := DeadlockError{Pending: pending}
			for _, name := range pending {
				state.finishWithoutExecution(name, deadlock)
			}
			state.workers.Wait()
			return deadlock
		}

		select {
		case event := <-state.events:
			state.handle(event)
		case <-cancellation:
			cancellation = nil
			state.cancel(state.executionContext.Err())
		}
	}

	state.workers.Wait()
	return nil
}

// want marks name and its transitive dependencies as required by this run. Sequence steps are requested lazily.
func (state *runState) want(name string) {
	if _, alreadyWanted := state.wanted[name]; alreadyWanted {
		return
	}
	task, exists := state.closure.Tasks[name]
	if !exists {
		return
	}
	state.wanted[name] = struct{}{}
	for _, dependency := range task.Dependencies {
		state.want(dependency)
	}
}

func (state *runState) pendingWanted() []string {
	pending := make([]string, 0)
	for _, name := range state.closure.Order {
		if _, isWanted := state.wanted[name]; !isWanted {
			continue
		}
		if state.records[name].state == TaskStatePending {
			pending = append(pending, name)
		}
	}
	return pending
}

// dispatchReady starts every wanted task whose dependencies completed and fails those whose dependencies failed.
// closure.Order lists dependencies first, so one pass settles transitive failures; the loop repeats after inline completions.
func (state *runState) dispatchReady() {
	if state.cancelCause == nil && state.executionContext.Err() != nil {
		state.cancel(state.executionContext.Err())
	}
	for progressed := true; progressed; {
		progressed = false
		for _, name := range state.closure.Order {
			if _, isWanted := state.wanted[name]; !isWanted {
				continue
			}
			record := state.records[name]
			if record.state != TaskStatePending {
				continue
			}
			if state.cancelCause != nil {
				state.finishWithoutExecution(name, state.cancelCause)
				progressed = true
				continue
			}

			task := state.closure.Tasks[name]
			ready := true
			failedDependency := ""
			for _, dependency := range task.Dependencies {
				dependencyState := state.records[dependency].state
				if dependencyState == TaskStateFailed {
					failedDependency = dependency
					break
				}
				if dependencyState != TaskStateCompleted {
					ready = false
				}
			}
			if len(failedDependency) > 0 {
				state.finishWithoutExecution(name, DependencyFailedError{Dependency: failedDependency})
				progressed = true
				continue
			}
			if !ready {
				continue
			}
			if state.start(task) {
				progressed = true
			}
		}
	}
}

// start transitions task to running. It reports true when the task finished inline.
func (state *runState) start(task Task) bool {
	action := task.Action
	if action.Kind() == ActionKindSingle && state.runningSingles >= state.parallelism {
		return false
	}

	record := state.records[task.Name]
	record.state = TaskStateRunning
	state.observer.TaskStarted(task.Name)

	switch action.Kind() {
	case ActionKindSingle:
		state.inFlight++
		state.runningSingles++
		state.workers.Add(1)
		go state.runSingle(task.Name, action.function)
		return false
	case ActionKindSequence:
		state.inFlight++
		state.workers.Add(1)
		go state.runSequence(task.Name, action.Steps())
		return false
	default:
		record.executed = true
		state.finish(task.Name, TaskStateCompleted, nil)
		return true
	}
}

func (state *runState) runSingle(name string, function Func) {
	defer state.workers.Done()
	startTime := time.Now()
	actionError := function(state.executionContext)
	state.events <- runEvent{
		kind:     runEventFinished,
		name:     name,
		single:   true,
		err:      actionError,
		duration: time.Since(startTime),
	}
}

func (state *runState) runSequence(name string, steps []string) {
	defer state.workers.Done()
	startTime := time.Now()
	var sequenceError error
	for _, step := range steps {
		reply := make(chan TaskState, 1)
		state.events <- runEvent{kind: runEventRequest, name: step, reply: reply}
		stepState := <-reply
		if stepState == TaskStateCompleted {
			continue
		}
		if stepState == TaskStateFailed {
			sequenceError = fmt.Errorf(sequenceStepFailedTemplateConstant, step)
		} else {
			sequenceError = fmt.Errorf(sequenceStepNotCompletedTemplateConstant, step, stepState)
		}
		break
	}
	state.events <- runEvent{
		kind:     runEventFinished,
		name:     name,
		err:      sequenceError,
		duration: time.Since(startTime),
	}
}

func (state *runState) handle(event runEvent) {
	switch event.kind {
	case runEventFinished:
		state.inFlight--
		if event.single {
			state.runningSingles--
		}
		record := state.records[event.name]
		record.executed = true
		record.duration = event.duration
		if event.err != nil {
			state.finish(event.name, TaskStateFailed, event.err)
			return
		}
		state.finish(event.name, TaskStateCompleted, nil)
	case runEventRequest:
		record, exists := state.records[event.name]
		if !exists {
			event.reply <- TaskStateFailed
			return
		}
		if record.state.IsTerminal() {
			event.reply <- record.state
			return
		}
		record.waiters = append(record.waiters, event.reply)
		state.want(event.name)
	}
}

func (state *runState) cancel(cause error) {
	if cause == nil {
		cause = context.Canceled
	}
	state.cancelCause = cause
}

func (state *runState) finishWithoutExecution(name string, cause error) {
	state.finish(name, TaskStateFailed, cause)
}

func (state *runState) finish(name string, finalState TaskState, cause error) {
	record := state.records[name]
	record.state = finalState
	if cause != nil {
		record.err = ActionError{Task: name, Cause: cause}
	}
	state.completionOrder = append(state.completionOrder, name)
	for _, waiter := range record.waiters {
		waiter <- finalState
	}
	record.waiters = nil
	state.observer.TaskFinished(name, finalState, record.executed, record.duration, record.err)
}

func (state *runState) taskOutcomes() []TaskOutcome {
	outcomes := make([]TaskOutcome, 0, len(state.closure.Order))
	reported := make(map[string]struct{}, len(state.closure.Order))
	appendOutcome := func(name string) {
		if _, alreadyReported := reported[name]; alreadyReported {
			return
		}
		reported[name] = struct{}{}
		record := state.records[name]
		outcomes = append(outcomes, TaskOutcome{
			Name:     name,
			State:    record.state,
			Duration: record.duration,
			Executed: record.executed,
			Error:    record.err,
		})
	}
	for _, name := range state.completionOrder {
		appendOutcome(name)
	}
	for _, name := range state.closure.Order {
		appendOutcome(name)
	}
	return outcomes
}

func (state *runState) failures() []TaskFailure {
	failures := make([]TaskFailure, 0)
	for _, name := range state.completionOrder {
		record := state.records[name]
		if record.state != TaskStateFailed || record.err == nil {
			continue
		}
		failures = append(failures, TaskFailure{
			Name:    name,
			Message: record.err.Error(),
			Error:   record.err,
		})
	}
	return failures
}
