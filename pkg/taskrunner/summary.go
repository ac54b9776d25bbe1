package taskrunner

import (
	"fmt"
	"strings"

	"github.com/tyemirov/wpforge/internal/taskgraph"
)

const summaryLineTemplateConstant = "Summary: target=%s tasks=%d completed=%d failed=%d duration_ms=%d"

// RenderSummaryLine returns the line printed after a run. Runs rejected before execution render nothing.
func RenderSummaryLine(outcome taskgraph.Outcome) string {
	target := strings.TrimSpace(outcome.Target)
	if len(target) == 0 || len(outcome.Tasks) == 0 {
		return ""
	}
	return fmt.Sprintf(
		summaryLineTemplateConstant,
		target,
		len(outcome.Tasks),
		outcome.Count(taskgraph.TaskStateCompleted),
		outcome.Count(taskgraph.TaskStateFailed),
		outcome.Duration.Milliseconds(),
	)
}
