// Package taskrunner hosts the shared abstractions for building and executing wpforge
// task graphs. It exposes the `Executor` interface plus helpers (`Factory`, `Resolve`,
// `BuildDependencies`) so CLI packages can assemble the recipe, transform catalog and
// cache once and obtain a runner, while unit tests can swap in fakes.
package taskrunner
