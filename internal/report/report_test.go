package report_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/docrun/internal/report"
)

func writeInputFixture(testInstance *testing.T, fileName string, fileContent string) string {
	testInstance.Helper()

	inputPath := filepath.Join(testInstance.TempDir(), fileName)
	require.NoError(testInstance, os.WriteFile(inputPath, []byte(fileContent), 0o600))
	return inputPath
}

func TestLoadTableFromCSV(testInstance *testing.T) {
	inputPath := writeInputFixture(testInstance, "tallies.csv",
		"label,count,source\nSJK16,2,components/component_01.jpg\nRK45,1\n")

	tableData, loadError := report.LoadTable(inputPath, nil)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"label", "count", "source"}, tableData.Headers)
	require.Equal(testInstance, [][]string{
		{"SJK16", "2", "components/component_01.jpg"},
		{"RK45", "1", ""},
	}, tableData.Rows)
}

func TestLoadTableHonorsExplicitHeaders(testInstance *testing.T) {
	inputPath := writeInputFixture(testInstance, "tallies.csv", "SJK16,2\nRK45,1\n")

	tableData, loadError := report.LoadTable(inputPath, []string{"Label", "Count", "Photo"})
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"Label", "Count", "Photo"}, tableData.Headers)
	require.Len(testInstance, tableData.Rows, 2)
}

func TestLoadTableRejectsWrongHeaderWidth(testInstance *testing.T) {
	inputPath := writeInputFixture(testInstance, "tallies.csv", "SJK16,2\n")

	_, loadError := report.LoadTable(inputPath, []string{"Label", "Count"})
	require.ErrorIs(testInstance, loadError, report.ErrHeaderCountMismatch)
}

func TestLoadTableFromJSONObjects(testInstance *testing.T) {
	inputPath := writeInputFixture(testInstance, "tallies.json",
		`[{"label":"SJK16","occurrences":2,"sample":"a.jpg"},{"label":"RK45","occurrences":1,"sample":"b.jpg"}]`)

	tableData, loadError := report.LoadTable(inputPath, []string{"label", "occurrences", "sample"})
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"label", "occurrences", "sample"}, tableData.Headers)
	require.Equal(testInstance, [][]string{
		{"SJK16", "2", "a.jpg"},
		{"RK45", "1", "b.jpg"},
	}, tableData.Rows)
}

func TestLoadTableFromJSONLists(testInstance *testing.T) {
	inputPath := writeInputFixture(testInstance, "tallies.json",
		`[["label","count","sample"],["SJK16",2,"a.jpg"]]`)

	tableData, loadError := report.LoadTable(inputPath, nil)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"label", "count", "sample"}, tableData.Headers)
	require.Equal(testInstance, [][]string{{"SJK16", "2", "a.jpg"}}, tableData.Rows)
}

func TestLoadTableInputValidation(testInstance *testing.T) {
	testCases := []struct {
		name              string
		fileName          string
		fileContent       string
		expectedErrorText string
	}{
		{
			name:              "rejects_unsupported_extension",
			fileName:          "tallies.txt",
			fileContent:       "SJK16",
			expectedErrorText: "unsupported table input",
		},
		{
			name:              "rejects_scalar_json",
			fileName:          "tallies.json",
			fileContent:       `{"label":"SJK16"}`,
			expectedErrorText: "unsupported JSON structure",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			inputPath := writeInputFixture(subtestInstance, testCase.fileName, testCase.fileContent)

			_, loadError := report.LoadTable(inputPath, nil)
			require.Error(subtestInstance, loadError)
			require.ErrorContains(subtestInstance, loadError, testCase.expectedErrorText)
		})
	}
}

func TestImagePathsFromDirectory(testInstance *testing.T) {
	imageDirectory := testInstance.TempDir()
	for _, imageName := range []string{"B.png", "a.jpg", "notes.txt", "c.jpeg"} {
		require.NoError(testInstance, os.WriteFile(filepath.Join(imageDirectory, imageName), []byte("x"), 0o600))
	}

	imagePaths, listError := report.ImagePathsFromDirectory(imageDirectory)
	require.NoError(testInstance, listError)
	require.Len(testInstance, imagePaths, 3)
	require.Contains(testInstance, imagePaths[0], "a.jpg")
	require.Contains(testInstance, imagePaths[1], "B.png")
	require.Contains(testInstance, imagePaths[2], "c.jpeg")
}

func TestImagePathsFromDirectoryRejectsMissingDirectory(testInstance *testing.T) {
	_, listError := report.ImagePathsFromDirectory(filepath.Join(testInstance.TempDir(), "absent"))
	require.Error(testInstance, listError)
	require.ErrorContains(testInstance, listError, "not found")
}

func TestRenderHTMLTable(testInstance *testing.T) {
	tableData := report.TableData{
		Headers: []string{"Label", "Count", "Photo"},
		Rows: [][]string{
			{"SJK16 & co", "2", "components/component_01.jpg"},
			{"RK45", "1", ""},
		},
	}

	renderedDocument, renderError := report.RenderHTML(tableData, report.RenderOptions{Title: "Component Tallies"})
	require.NoError(testInstance, renderError)
	require.Contains(testInstance, renderedDocument, "<title>Component Tallies</title>")
	require.Contains(testInstance, renderedDocument, "<th>Label</th>")
	require.Contains(testInstance, renderedDocument, "SJK16 &amp; co")
	require.Contains(testInstance, renderedDocument, `<img src="components/component_01.jpg"`)
	require.Contains(testInstance, renderedDocument, `alt="component_01"`)
	require.NotContains(testInstance, renderedDocument, "tailwindcss")
}

func TestRenderHTMLTailwindVariant(testInstance *testing.T) {
	tableData := report.TableData{Headers: []string{"Label", "Count", "Photo"}}

	renderedDocument, renderError := report.RenderHTML(tableData, report.RenderOptions{Tailwind: true})
	require.NoError(testInstance, renderError)
	require.Contains(testInstance, renderedDocument, "cdn.tailwindcss.com")
	require.Contains(testInstance, renderedDocument, "<title>Table</title>")
}

func TestRenderHTMLInjectsRowImages(testInstance *testing.T) {
	tableData := report.TableData{
		Headers: []string{"Photo", "Label", "Count"},
		Rows: [][]string{
			{"placeholder", "SJK16", "2"},
			{"placeholder", "RK45", "1"},
		},
	}

	renderedDocument, renderError := report.RenderHTML(tableData, report.RenderOptions{
		ImagePaths: []string{"photos/first.jpg"},
	})
	require.NoError(testInstance, renderError)
	require.Contains(testInstance, renderedDocument, `<img src="photos/first.jpg"`)
	require.Contains(testInstance, renderedDocument, "placeholder")
}

func TestRenderHTMLKeepsDataURIImages(testInstance *testing.T) {
	tableData := report.TableData{
		Headers: []string{"Photo", "Label", "Count"},
		Rows:    [][]string{{"data:image/png;base64,AAAA", "SJK16", "2"}},
	}

	renderedDocument, renderError := report.RenderHTML(tableData, report.RenderOptions{})
	require.NoError(testInstance, renderError)
	require.Contains(testInstance, renderedDocument, `src="data:image/png;base64,AAAA"`)
	require.Contains(testInstance, renderedDocument, `alt="PNG image"`)
	require.NotContains(testInstance, renderedDocument, "ZgotmplZ")
}
