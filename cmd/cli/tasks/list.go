package tasks

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tyemirov/wpforge/internal/recipe"
	"github.com/tyemirov/wpforge/pkg/taskrunner"
)

const (
	listCommandUseConstant              = "tasks"
	listCommandShortDescriptionConstant = "List the tasks declared by the recipe"
	listCommandLongDescriptionConstant  = "tasks prints every task of the active recipe with its prerequisites, its action and its description."
	listCommandAliasConstant            = "ls"
	listDefaultTemplateConstant         = "Default task: %s\n"
	listHeaderConstant                  = "TASK\tAFTER\tACTION\tDESCRIPTION"
	listRowTemplateConstant             = "%s\t%s\t%s\t%s\n"
	listEmptyCellConstant               = "-"
	listSequencePrefixConstant          = "sequence: "
	loadRecipeErrorTemplateConstant     = "unable to load task recipe: %w"
)

// ListCommandBuilder assembles the tasks listing command.
type ListCommandBuilder struct {
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the tasks command.
func (builder *ListCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     listCommandUseConstant,
		Short:   listCommandShortDescriptionConstant,
		Long:    listCommandLongDescriptionConstant,
		Aliases: []string{listCommandAliasConstant},
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}
	return command, nil
}

func (builder *ListCommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider, command)
	recipeConfiguration, loadError := taskrunner.LoadRecipe(configuration.TasksFile)
	if loadError != nil {
		return fmt.Errorf(loadRecipeErrorTemplateConstant, loadError)
	}

	output := command.OutOrStdout()
	if len(recipeConfiguration.Default) > 0 {
		fmt.Fprintf(output, listDefaultTemplateConstant, recipeConfiguration.Default)
	}

	tableWriter := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tableWriter, listHeaderConstant)
	seen := make(map[string]struct{}, len(recipeConfiguration.Tasks))
	for _, declared := range recipeConfiguration.Tasks {
		if _, duplicate := seen[declared.Name]; duplicate {
			continue
		}
		seen[declared.Name] = struct{}{}
		effective, _ := recipeConfiguration.Describe(declared.Name)
		fmt.Fprintf(
			tableWriter,
			listRowTemplateConstant,
			effective.Name,
			orEmptyCell(strings.Join(effective.After, ", ")),
			describeAction(effective),
			orEmptyCell(effective.Description),
		)
	}
	return tableWriter.Flush()
}

func describeAction(taskConfiguration recipe.TaskConfiguration) string {
	switch {
	case len(taskConfiguration.Sequence) > 0:
		return listSequencePrefixConstant + strings.Join(taskConfiguration.Sequence, " > ")
	case len(taskConfiguration.Action) > 0:
		return taskConfiguration.Action
	default:
		return listEmptyCellConstant
	}
}

func orEmptyCell(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return listEmptyCellConstant
	}
	return value
}
