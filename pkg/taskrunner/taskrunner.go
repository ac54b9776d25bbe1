package taskrunner

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/wpforge/internal/taskgraph"
)

// Executor runs a target task and everything it depends on.
type Executor interface {
	Run(ctx context.Context, target string) (taskgraph.Outcome, error)
}

// Factory constructs an Executor given runner dependencies.
type Factory func(Dependencies) Executor

// Dependencies are the collaborators a runner needs.
type Dependencies struct {
	Registry       *taskgraph.Registry
	Logger         *zap.Logger
	Parallelism    int
	Observer       taskgraph.Observer
	Output         io.Writer
	Errors         io.Writer
	DisableSummary bool
}

// Resolve returns either the provided factory result or a default task graph executor,
// wrapped so a summary line is printed after every run.
func Resolve(factory Factory, dependencies Dependencies) Executor {
	var base Executor
	if factory != nil {
		base = factory(dependencies)
	}
	if base == nil {
		base = newGraphExecutor(dependencies)
	}
	return summaryExecutor{
		delegate:     base,
		dependencies: dependencies,
	}
}

func newGraphExecutor(dependencies Dependencies) *taskgraph.Executor {
	options := make([]taskgraph.ExecutorOption, 0, 3)
	if dependencies.Logger != nil {
		options = append(options, taskgraph.WithLogger(dependencies.Logger))
	}
	if dependencies.Parallelism > 0 {
		options = append(options, taskgraph.WithParallelism(dependencies.Parallelism))
	}
	if dependencies.Observer != nil {
		options = append(options, taskgraph.WithObserver(dependencies.Observer))
	}
	return taskgraph.NewExecutor(dependencies.Registry, options...)
}

type summaryExecutor struct {
	delegate     Executor
	dependencies Dependencies
}

func (executor summaryExecutor) Run(ctx context.Context, target string) (taskgraph.Outcome, error) {
	outcome, err := executor.delegate.Run(ctx, target)
	executor.printSummary(outcome)
	return outcome, err
}

func (executor summaryExecutor) printSummary(outcome taskgraph.Outcome) {
	if executor.dependencies.DisableSummary {
		return
	}
	writer := executor.summaryWriter()
	if writer == nil {
		return
	}

	summary := RenderSummaryLine(outcome)
	if len(strings.TrimSpace(summary)) == 0 {
		return
	}
	fmt.Fprintln(writer, summary)
}

func (executor summaryExecutor) summaryWriter() io.Writer {
	if executor.dependencies.Output != nil {
		return executor.dependencies.Output
	}
	if executor.dependencies.Errors != nil {
		return executor.dependencies.Errors
	}
	return nil
}
