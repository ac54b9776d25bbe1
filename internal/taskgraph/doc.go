// Package taskgraph registers named tasks and runs them in dependency order.
//
// A Registry holds task definitions. Validate computes the transitive closure
// of a target and rejects unknown references and cycles before anything runs.
// An Executor then schedules the closure: every task whose dependencies have
// completed is dispatched to a bounded worker pool, tasks whose dependencies
// failed are marked failed without running, and ordered sequences run their
// steps one after another through the same scheduler.
package taskgraph
