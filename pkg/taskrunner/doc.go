// Package taskrunner hosts the shared abstractions for building and executing
// docrun tasks. It exposes the `Executor` interface plus helpers (`Factory`,
// `Resolve`) so CLI packages can inject dependencies once and obtain a runner,
// while unit tests can swap in fakes. This keeps dispatch logic in
// `internal/tasks` reusable without wiring duplication.
package taskrunner
