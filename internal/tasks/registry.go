package tasks

import (
	"fmt"
	"strings"
)

const (
	taskNotFoundMessageTemplateConstant  = "task %q not found"
	duplicateTaskMessageTemplateConstant = "duplicate task definition for %q"
	taskNameMissingMessageConstant       = "task name must be provided"
	taskToolMissingMessageTemplate       = "task %q does not define a tool"
)

// Task binds an operator-facing name to a single external command invocation.
type Task struct {
	Name        string
	Aliases     []string
	Description string
	Tool        string
	Arguments   []string
	// Streaming tasks inherit the parent's stdout and stderr so the
	// operator sees the delegate's own output unmodified.
	Streaming bool
}

// CommandLine renders the task's delegated command for display.
func (task Task) CommandLine() string {
	if len(task.Arguments) == 0 {
		return task.Tool
	}
	return fmt.Sprintf("%s %s", task.Tool, strings.Join(task.Arguments, " "))
}

// TaskNotFoundError indicates a lookup of an undefined task name.
type TaskNotFoundError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails TaskNotFoundError) Error() string {
	return fmt.Sprintf(taskNotFoundMessageTemplateConstant, errorDetails.TaskName)
}

// DuplicateTaskError indicates two task definitions share a name or alias.
type DuplicateTaskError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails DuplicateTaskError) Error() string {
	return fmt.Sprintf(duplicateTaskMessageTemplateConstant, errorDetails.TaskName)
}

// InvalidTaskError indicates a task definition that cannot be dispatched.
type InvalidTaskError struct {
	TaskName string
	Message  string
}

// Error implements the error interface.
func (errorDetails InvalidTaskError) Error() string {
	return errorDetails.Message
}

// Registry resolves task names and aliases to task definitions.
//
// The table is assembled once at construction and never mutated afterwards;
// the runner performs no dynamic task creation.
type Registry struct {
	orderedNames []string
	entries      map[string]Task
	nameIndex    map[string]string
}

// NewRegistry validates task definitions and assembles the lookup table.
func NewRegistry(definitions []Task) (Registry, error) {
	registry := Registry{
		orderedNames: make([]string, 0, len(definitions)),
		entries:      make(map[string]Task, len(definitions)),
		nameIndex:    make(map[string]string),
	}

	for definitionIndex := range definitions {
		definition := definitions[definitionIndex]
		normalizedName := normalizeTaskName(definition.Name)
		if len(normalizedName) == 0 {
			return Registry{}, InvalidTaskError{Message: taskNameMissingMessageConstant}
		}
		if len(strings.TrimSpace(definition.Tool)) == 0 {
			return Registry{}, InvalidTaskError{
				TaskName: normalizedName,
				Message:  fmt.Sprintf(taskToolMissingMessageTemplate, normalizedName),
			}
		}

		if _, exists := registry.nameIndex[normalizedName]; exists {
			return Registry{}, DuplicateTaskError{TaskName: normalizedName}
		}

		definition.Name = normalizedName
		registry.orderedNames = append(registry.orderedNames, normalizedName)
		registry.entries[normalizedName] = definition
		registry.nameIndex[normalizedName] = normalizedName

		for _, alias := range definition.Aliases {
			normalizedAlias := normalizeTaskName(alias)
			if len(normalizedAlias) == 0 {
				continue
			}
			if _, exists := registry.nameIndex[normalizedAlias]; exists {
				return Registry{}, DuplicateTaskError{TaskName: normalizedAlias}
			}
			registry.nameIndex[normalizedAlias] = normalizedName
		}
	}

	return registry, nil
}

// Lookup resolves a task by name or alias.
func (registry Registry) Lookup(taskName string) (Task, error) {
	normalizedName := normalizeTaskName(taskName)
	if len(normalizedName) == 0 {
		return Task{}, TaskNotFoundError{TaskName: taskName}
	}

	canonicalName, exists := registry.nameIndex[normalizedName]
	if !exists {
		return Task{}, TaskNotFoundError{TaskName: normalizedName}
	}
	return registry.entries[canonicalName], nil
}

// Tasks returns the task definitions in declaration order.
func (registry Registry) Tasks() []Task {
	orderedTasks := make([]Task, 0, len(registry.orderedNames))
	for _, taskName := range registry.orderedNames {
		orderedTasks = append(orderedTasks, registry.entries[taskName])
	}
	return orderedTasks
}

// MergeTasks overlays override definitions onto base definitions by task name.
//
// Overrides replace same-named base tasks in place; new names append in
// manifest order.
func MergeTasks(baseDefinitions []Task, overrideDefinitions []Task) []Task {
	merged := make([]Task, len(baseDefinitions))
	copy(merged, baseDefinitions)

	positionByName := make(map[string]int, len(merged))
	for position := range merged {
		positionByName[normalizeTaskName(merged[position].Name)] = position
	}

	for _, override := range overrideDefinitions {
		normalizedName := normalizeTaskName(override.Name)
		if position, exists := positionByName[normalizedName]; exists {
			merged[position] = override
			continue
		}
		positionByName[normalizedName] = len(merged)
		merged = append(merged, override)
	}

	return merged
}

func normalizeTaskName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
