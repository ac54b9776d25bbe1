package taskgraph

import "errors"

var errStagePlanIncomplete = errors.New("task graph stage plan left tasks unscheduled")

// Stage groups tasks that may execute in parallel.
type Stage struct {
	Tasks []Task
}

// Names lists the task names in the stage.
func (stage Stage) Names() []string {
	names := make([]string, 0, len(stage.Tasks))
	for _, task := range stage.Tasks {
		names = append(names, task.Name)
	}
	return names
}

// PlanStages validates target and layers its closure into topological tiers.
// Sequence steps are treated as prerequisites of the task that declares them.
func PlanStages(registry *Registry, target string) ([]Stage, error) {
	closure, validationError := Validate(registry, target)
	if validationError != nil {
		return nil, validationError
	}
	return planClosureStages(closure)
}

func planClosureStages(closure Closure) ([]Stage, error) {
	if len(closure.Order) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(closure.Order))
	adjacency := make(map[string][]string, len(closure.Order))
	for _, name := range closure.Order {
		task := closure.Tasks[name]
		for _, prerequisite := range task.edges() {
			inDegree[name]++
			adjacency[prerequisite] = append(adjacency[prerequisite], name)
		}
	}

	ready := make([]string, 0)
	for _, name := range closure.Order {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	stages := make([]Stage, 0)
	processed := 0
	for len(ready) > 0 {
		stageNames := ready
		ready = nil

		stage := Stage{Tasks: make([]Task, 0, len(stageNames))}
		for _, name := range stageNames {
			stage.Tasks = append(stage.Tasks, closure.Tasks[name])
			processed++
		}
		stages = append(stages, stage)

		nextReadySet := make(map[string]struct{})
		for _, name := range stageNames {
			for _, dependent := range adjacency[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					nextReadySet[dependent] = struct{}{}
				}
			}
		}

		for _, name := range closure.Order {
			if _, available := nextReadySet[name]; available {
				ready = append(ready, name)
			}
		}
	}

	if processed != len(closure.Order) {
		return nil, errStagePlanIncomplete
	}
	return stages, nil
}
