package taskgraph

// Closure is the validated transitive closure of a target task.
type Closure struct {
	Target string
	// Tasks holds every task reachable through dependencies or sequence steps.
	Tasks map[string]Task
	// Order lists the tasks in depth-first post-order: every task appears after everything it needs.
	Order []string
}

// Contains reports whether name belongs to the closure.
func (closure Closure) Contains(name string) bool {
	_, exists := closure.Tasks[name]
	return exists
}

type visitMark int

const (
	visitUnseen visitMark = iota
	visitOnPath
	visitResolved
)

// Validate walks the dependency relation from target and returns its closure.
// Unknown references and cycles are reported before any action can run.
func Validate(registry *Registry, target string) (Closure, error) {
	resolvedTarget, targetError := registry.resolveTarget(target)
	if targetError != nil {
		return Closure{}, targetError
	}

	closure := Closure{
		Target: resolvedTarget,
		Tasks:  make(map[string]Task),
	}
	marks := make(map[string]visitMark)
	path := make([]string, 0)

	var visit func(name string, referencedBy string) error
	visit = func(name string, referencedBy string) error {
		switch marks[name] {
		case visitResolved:
			return nil
		case visitOnPath:
			return CyclicDependencyError{Cycle: extractCycle(path, name)}
		}

		task, resolveError := registry.Resolve(name)
		if resolveError != nil {
			return UnknownTaskError{Name: name, ReferencedBy: referencedBy}
		}

		marks[name] = visitOnPath
		path = append(path, name)
		for _, edge := range task.edges() {
			if edgeError := visit(edge, name); edgeError != nil {
				return edgeError
			}
		}
		path = path[:len(path)-1]
		marks[name] = visitResolved

		closure.Tasks[name] = task
		closure.Order = append(closure.Order, name)
		return nil
	}

	if visitError := visit(resolvedTarget, ""); visitError != nil {
		return Closure{}, visitError
	}
	return closure, nil
}

func extractCycle(path []string, repeated string) []string {
	for pathIndex := range path {
		if path[pathIndex] != repeated {
			continue
		}
		cycle := make([]string, 0, len(path)-pathIndex+1)
		cycle = append(cycle, path[pathIndex:]...)
		return append(cycle, repeated)
	}
	return []string{repeated, repeated}
}
