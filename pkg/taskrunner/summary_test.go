package taskrunner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyemirov/docrun/internal/tasks"
	"github.com/tyemirov/docrun/pkg/taskrunner"
)

func TestRenderTaskTable(testInstance *testing.T) {
	rendered := taskrunner.RenderTaskTable([]tasks.Task{
		{Name: "install", Description: "Install dependencies", Tool: "pip3", Arguments: []string{"install", "-r", "requirements.txt"}},
		{Name: "start", Aliases: []string{"streamlit", "app"}, Tool: "streamlit", Arguments: []string{"run", "streamlit_app.py"}},
	})

	renderedLines := strings.Split(rendered, "\n")
	require.Len(testInstance, renderedLines, 2)
	require.Contains(testInstance, renderedLines[0], "install")
	require.Contains(testInstance, renderedLines[0], "Install dependencies")
	require.Contains(testInstance, renderedLines[0], "[pip3 install -r requirements.txt]")
	require.Contains(testInstance, renderedLines[1], "start (streamlit, app)")
	require.Contains(testInstance, renderedLines[1], "[streamlit run streamlit_app.py]")
}

func TestRenderTaskTableEmpty(testInstance *testing.T) {
	require.Empty(testInstance, taskrunner.RenderTaskTable(nil))
}
