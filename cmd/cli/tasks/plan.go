package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tyemirov/wpforge/internal/recipe"
	"github.com/tyemirov/wpforge/internal/taskgraph"
	"github.com/tyemirov/wpforge/pkg/taskrunner"
)

const (
	planCommandUseConstant              = "plan [task]"
	planCommandShortDescriptionConstant = "Show the stages a task run would go through"
	planCommandLongDescriptionConstant  = "plan validates the task graph reachable from the named task (or the recipe default) and prints it as stages; tasks within a stage have no ordering constraint between them. Nothing is executed."
	planCommandAliasConstant            = "p"
	planHeaderTemplateConstant          = "Plan for %s (%d tasks)\n"
	planStageTemplateConstant           = "  stage %d: %s\n"
	planRegistryErrorTemplateConstant   = "unable to build task graph: %w"
)

// PlanCommandBuilder assembles the plan command.
type PlanCommandBuilder struct {
	ConfigurationProvider func() CommandConfiguration
}

// Build constructs the plan command.
func (builder *PlanCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     planCommandUseConstant,
		Short:   planCommandShortDescriptionConstant,
		Long:    planCommandLongDescriptionConstant,
		Aliases: []string{planCommandAliasConstant},
		Args:    cobra.MaximumNArgs(1),
		RunE:    builder.run,
	}
	return command, nil
}

func (builder *PlanCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider, command)
	recipeConfiguration, loadError := taskrunner.LoadRecipe(configuration.TasksFile)
	if loadError != nil {
		return fmt.Errorf(loadRecipeErrorTemplateConstant, loadError)
	}

	registry, registryError := recipe.BuildRegistry(recipeConfiguration, structuralActionFactory{})
	if registryError != nil {
		return fmt.Errorf(planRegistryErrorTemplateConstant, registryError)
	}

	closure, validationError := taskgraph.Validate(registry, strings.TrimSpace(targetArgument(arguments)))
	if validationError != nil {
		return validationError
	}
	stages, planError := taskgraph.PlanStages(registry, closure.Target)
	if planError != nil {
		return planError
	}

	output := command.OutOrStdout()
	fmt.Fprintf(output, planHeaderTemplateConstant, closure.Target, len(closure.Order))
	for stageIndex, stage := range stages {
		fmt.Fprintf(output, planStageTemplateConstant, stageIndex+1, strings.Join(stage.Names(), ", "))
	}
	return nil
}

// structuralActionFactory accepts every action type so the graph shape can be inspected without a project.
type structuralActionFactory struct{}

func (structuralActionFactory) Build(string, map[string]any) (taskgraph.Func, error) {
	return func(context.Context) error { return nil }, nil
}
