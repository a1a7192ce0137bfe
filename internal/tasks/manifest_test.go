package tasks_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyemirov/docrun/internal/tasks"
)

const validManifestContentConstant = `tasks:
  - task:
      name: lint
      description: Run the linter
      tool: python3
      arguments:
        - -m
        - flake8
  - task:
      name: format
      aliases:
        - fmt
      tool: python3
      arguments:
        - -m
        - black
        - .
`

func writeManifestFixture(testInstance *testing.T, content string) string {
	testInstance.Helper()
	manifestPath := filepath.Join(testInstance.TempDir(), "tasks.yaml")
	require.NoError(testInstance, os.WriteFile(manifestPath, []byte(content), 0o644))
	return manifestPath
}

func TestLoadManifestParsesTasks(testInstance *testing.T) {
	manifestPath := writeManifestFixture(testInstance, validManifestContentConstant)

	loadedTasks, loadError := tasks.LoadManifest(manifestPath)
	require.NoError(testInstance, loadError)
	require.Len(testInstance, loadedTasks, 2)

	require.Equal(testInstance, "lint", loadedTasks[0].Name)
	require.Equal(testInstance, "Run the linter", loadedTasks[0].Description)
	require.Equal(testInstance, "python3 -m flake8", loadedTasks[0].CommandLine())
	require.True(testInstance, loadedTasks[0].Streaming)

	require.Equal(testInstance, "format", loadedTasks[1].Name)
	require.Equal(testInstance, []string{"fmt"}, loadedTasks[1].Aliases)
}

func TestLoadManifestValidation(testInstance *testing.T) {
	testCases := []struct {
		name            string
		manifestContent string
		expectedMessage string
	}{
		{
			name:            "rejects_empty_tasks",
			manifestContent: "tasks: []\n",
			expectedMessage: "at least one task",
		},
		{
			name: "rejects_missing_name",
			manifestContent: `tasks:
  - task:
      tool: python3
`,
			expectedMessage: "missing task name",
		},
		{
			name: "rejects_missing_tool",
			manifestContent: `tasks:
  - task:
      name: lint
`,
			expectedMessage: "missing tool",
		},
		{
			name:            "rejects_non_sequence_tasks",
			manifestContent: "tasks:\n  task:\n    name: lint\n",
			expectedMessage: "failed to parse task manifest",
		},
		{
			name:            "rejects_malformed_yaml",
			manifestContent: "tasks: [unbalanced",
			expectedMessage: "failed to parse task manifest",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			manifestPath := writeManifestFixture(subtestInstance, testCase.manifestContent)

			_, loadError := tasks.LoadManifest(manifestPath)
			require.Error(subtestInstance, loadError)
			require.ErrorContains(subtestInstance, loadError, testCase.expectedMessage)
		})
	}
}

func TestLoadManifestRejectsMissingFile(testInstance *testing.T) {
	_, loadError := tasks.LoadManifest(filepath.Join(testInstance.TempDir(), "absent.yaml"))
	require.Error(testInstance, loadError)
	require.ErrorContains(testInstance, loadError, "failed to load task manifest")
}

func TestLoadManifestRejectsBlankPath(testInstance *testing.T) {
	_, loadError := tasks.LoadManifest("   ")
	require.Error(testInstance, loadError)
	require.ErrorContains(testInstance, loadError, "path must be provided")
}
