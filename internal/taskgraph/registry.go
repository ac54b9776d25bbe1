package taskgraph

import (
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Registry stores task definitions keyed by name.
type Registry struct {
	mutex       sync.RWMutex
	tasks       map[string]Task
	defaultTask string
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register stores or replaces a task definition. Dependencies may name tasks registered later.
func (registry *Registry) Register(name string, dependencies []string, action Action) error {
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 || strings.IndexFunc(trimmedName, unicode.IsSpace) >= 0 {
		return InvalidNameError{Name: name}
	}

	sanitizedDependencies := make([]string, 0, len(dependencies))
	seenDependencies := make(map[string]struct{}, len(dependencies))
	for dependencyIndex := range dependencies {
		dependencyName := strings.TrimSpace(dependencies[dependencyIndex])
		if len(dependencyName) == 0 {
			continue
		}
		if _, alreadyIncluded := seenDependencies[dependencyName]; alreadyIncluded {
			continue
		}
		seenDependencies[dependencyName] = struct{}{}
		sanitizedDependencies = append(sanitizedDependencies, dependencyName)
	}

	task := Task{Name: trimmedName, Dependencies: sanitizedDependencies, Action: action}

	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	if registry.tasks == nil {
		registry.tasks = make(map[string]Task)
	}
	registry.tasks[trimmedName] = task.clone()
	return nil
}

// Resolve returns the definition registered under name.
func (registry *Registry) Resolve(name string) (Task, error) {
	trimmedName := strings.TrimSpace(name)

	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	task, exists := registry.tasks[trimmedName]
	if !exists {
		return Task{}, UnknownTaskError{Name: trimmedName}
	}
	return task.clone(), nil
}

// Names lists registered task names in sorted order.
func (registry *Registry) Names() []string {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	names := make([]string, 0, len(registry.tasks))
	for name := range registry.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetDefault declares the task run when no target is requested.
func (registry *Registry) SetDefault(name string) {
	registry.mutex.Lock()
	registry.defaultTask = strings.TrimSpace(name)
	registry.mutex.Unlock()
}

// Default returns the declared default task name.
func (registry *Registry) Default() (string, bool) {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()
	return registry.defaultTask, len(registry.defaultTask) > 0
}

// resolveTarget applies the default task when target is blank.
func (registry *Registry) resolveTarget(target string) (string, error) {
	trimmedTarget := strings.TrimSpace(target)
	if len(trimmedTarget) > 0 {
		return trimmedTarget, nil
	}
	defaultTask, declared := registry.Default()
	if !declared {
		return "", UnknownTaskError{}
	}
	return defaultTask, nil
}
