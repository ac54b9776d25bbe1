package recipe

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configurationLoadErrorTemplateConstant         = "failed to load task recipe: %w"
	configurationParseErrorTemplateConstant        = "failed to parse task recipe: %w"
	configurationPathRequiredMessageConstant       = "task recipe path must be provided"
	configurationEmptyTasksMessageConstant         = "task recipe must define at least one task"
	configurationTaskNameMissingTemplateConstant   = "task recipe entry %d is missing a name"
	configurationActionAndSequenceTemplateConstant = "task %q declares both an action and a sequence"
	configurationTasksSequenceMessageConstant      = "tasks block must be defined as a sequence of tasks"
)

// Configuration describes the task definitions loaded from a YAML recipe.
type Configuration struct {
	Default string
	Tasks   []TaskConfiguration
}

type recipeFile struct {
	Default string              `yaml:"default"`
	Tasks   []recipeTaskWrapper `yaml:"tasks"`
}

type recipeTaskWrapper struct {
	Task TaskConfiguration `yaml:"task"`
}

// TaskConfiguration declares one task: its dependencies and at most one of an action or a sequence.
type TaskConfiguration struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	After       []string       `yaml:"after"`
	Action      string         `yaml:"action"`
	Options     map[string]any `yaml:"with"`
	Sequence    []string       `yaml:"sequence"`
}

// LoadConfiguration reads a recipe from disk.
func LoadConfiguration(filePath string) (Configuration, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Configuration{}, errors.New(configurationPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Configuration{}, fmt.Errorf(configurationLoadErrorTemplateConstant, readError)
	}
	return ParseConfiguration(contentBytes)
}

// ParseConfiguration decodes and validates recipe content.
func ParseConfiguration(contentBytes []byte) (Configuration, error) {
	if sequenceError := ensureTasksSequence(contentBytes); sequenceError != nil {
		return Configuration{}, fmt.Errorf(configurationParseErrorTemplateConstant, sequenceError)
	}

	var parsedRecipe recipeFile
	if unmarshalError := yaml.Unmarshal(contentBytes, &parsedRecipe); unmarshalError != nil {
		return Configuration{}, fmt.Errorf(configurationParseErrorTemplateConstant, unmarshalError)
	}

	configuration := Configuration{
		Default: strings.TrimSpace(parsedRecipe.Default),
		Tasks:   make([]TaskConfiguration, 0, len(parsedRecipe.Tasks)),
	}
	for index := range parsedRecipe.Tasks {
		configuration.Tasks = append(configuration.Tasks, parsedRecipe.Tasks[index].Task)
	}

	if len(configuration.Tasks) == 0 {
		return Configuration{}, errors.New(configurationEmptyTasksMessageConstant)
	}

	for taskIndex := range configuration.Tasks {
		task := &configuration.Tasks[taskIndex]
		task.Name = strings.TrimSpace(task.Name)
		task.Action = strings.TrimSpace(task.Action)
		if len(task.Name) == 0 {
			return Configuration{}, fmt.Errorf(configurationTaskNameMissingTemplateConstant, taskIndex+1)
		}
		if len(task.Action) > 0 && len(task.Sequence) > 0 {
			return Configuration{}, fmt.Errorf(configurationActionAndSequenceTemplateConstant, task.Name)
		}
	}

	return configuration, nil
}

func ensureTasksSequence(contentBytes []byte) error {
	var tasksWrapper struct {
		Tasks yaml.Node `yaml:"tasks"`
	}

	if unmarshalError := yaml.Unmarshal(contentBytes, &tasksWrapper); unmarshalError != nil {
		return unmarshalError
	}

	switch tasksWrapper.Tasks.Kind {
	case 0, yaml.SequenceNode:
		return nil
	default:
		return errors.New(configurationTasksSequenceMessageConstant)
	}
}
