package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tyemirov/wpforge/internal/execshell"
	"github.com/tyemirov/wpforge/internal/version"
)

const versionOutputTemplateConstant = "wpforge version: %s\n"

func (application *Application) resolveVersion(executionContext context.Context) string {
	dependencies := version.Dependencies{Logger: application.logger}
	if gitExecutor, executorError := execshell.NewShellExecutor(application.logger, application.commandRunner, false); executorError == nil {
		dependencies.CommandExecutor = gitExecutor
	}

	if resolved := strings.TrimSpace(version.Detect(executionContext, dependencies)); len(resolved) > 0 {
		return resolved
	}
	return version.UnknownVersion
}

func (application *Application) printVersion(command *cobra.Command) {
	fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, application.versionResolver(command.Context()))
}
