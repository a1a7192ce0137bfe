package taskrunner

import (
	"fmt"
	"strings"

	"github.com/tyemirov/docrun/internal/tasks"
)

const (
	taskListColumnSeparatorConstant = "  "
	taskAliasListSeparatorConstant  = ", "
)

// RenderTaskTable returns the aligned listing printed by the tasks command.
//
// Each line shows the task name, its aliases in parentheses when present, the
// description, and the delegated command line.
func RenderTaskTable(definitions []tasks.Task) string {
	if len(definitions) == 0 {
		return ""
	}

	nameColumnWidth := 0
	renderedNames := make([]string, len(definitions))
	for definitionIndex, definition := range definitions {
		renderedName := definition.Name
		if len(definition.Aliases) > 0 {
			renderedName = fmt.Sprintf("%s (%s)", definition.Name, strings.Join(definition.Aliases, taskAliasListSeparatorConstant))
		}
		renderedNames[definitionIndex] = renderedName
		if len(renderedName) > nameColumnWidth {
			nameColumnWidth = len(renderedName)
		}
	}

	lines := make([]string, 0, len(definitions))
	for definitionIndex, definition := range definitions {
		descriptionPart := strings.TrimSpace(definition.Description)
		if len(descriptionPart) > 0 {
			descriptionPart = descriptionPart + taskListColumnSeparatorConstant
		}
		lines = append(lines, fmt.Sprintf("%-*s%s%s[%s]",
			nameColumnWidth, renderedNames[definitionIndex],
			taskListColumnSeparatorConstant,
			descriptionPart,
			definition.CommandLine(),
		))
	}

	return strings.Join(lines, "\n")
}
