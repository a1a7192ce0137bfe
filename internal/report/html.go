package report

import (
	"fmt"
	"html/template"
	"strings"
)

const (
	defaultReportTitleConstant          = "Table"
	templateExecuteErrorTemplate        = "failed to render report template: %w"
	reportTemplateNameConstant          = "report"
	reportPageTemplateTextConstant      = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Tailwind}}
<script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 text-gray-900 p-6">
<div class="max-w-6xl mx-auto bg-white shadow rounded-lg overflow-hidden">
<div class="p-6"><h2 class="text-2xl font-semibold mb-4">{{.Title}}</h2>
<div class="overflow-x-auto">
<table class="min-w-full divide-y divide-gray-200 table-auto">
<thead class="bg-gray-50">
<tr>{{range .Headers}}<th class="px-6 py-3 text-left text-xs font-medium text-gray-500 uppercase tracking-wider">{{.}}</th>{{end}}</tr>
</thead>
<tbody class="bg-white divide-y divide-gray-200">
{{- range .Rows}}
<tr>{{range .Cells}}<td class="px-6 py-4 whitespace-nowrap text-sm text-gray-700">{{if .ImageSource}}<img src="{{.ImageSource}}" alt="{{.AlternativeText}}" class="h-16 object-contain" />{{else}}{{.Text}}{{end}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</div>
</div>
</div>
</body>
</html>
{{- else}}
<style>
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; }
th { background: #f4f4f4; text-align: left; }
</style>
</head>
<body>
<h2>{{.Title}}</h2>
<table>
<thead>
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>{{range .Cells}}<td>{{if .ImageSource}}<img src="{{.ImageSource}}" alt="{{.AlternativeText}}" style="max-height: 120px; object-fit: contain;" />{{else}}{{.Text}}{{end}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
{{- end}}
`
)

var reportPageTemplate = template.Must(template.New(reportTemplateNameConstant).Parse(reportPageTemplateTextConstant))

// RenderOptions control the HTML rendering of a table.
type RenderOptions struct {
	Title    string
	Tailwind bool
	// ImagePaths are injected into the first column of consecutive body
	// rows, mirroring the photo-report flow.
	ImagePaths []string
}

type renderedCell struct {
	Text string
	// ImageSource is typed template.URL so data URIs survive the
	// template's URL sanitizer; the value originates from the
	// operator's own input.
	ImageSource     template.URL
	AlternativeText string
}

type renderedRow struct {
	Cells []renderedCell
}

type reportTemplateData struct {
	Title    string
	Tailwind bool
	Headers  []string
	Rows     []renderedRow
}

// RenderHTML produces a standalone HTML document for the table. Cell values
// referencing images (by extension or data URI) render as inline images.
func RenderHTML(table TableData, options RenderOptions) (string, error) {
	reportTitle := strings.TrimSpace(options.Title)
	if len(reportTitle) == 0 {
		reportTitle = defaultReportTitleConstant
	}

	templateRows := make([]renderedRow, 0, len(table.Rows))
	for rowIndex, tableRow := range table.Rows {
		rowCells := make([]renderedCell, 0, len(tableRow))
		for columnIndex, cellValue := range tableRow {
			if columnIndex == 0 && rowIndex < len(options.ImagePaths) {
				cellValue = options.ImagePaths[rowIndex]
			}
			if looksLikeImage(cellValue) {
				rowCells = append(rowCells, renderedCell{
					ImageSource:     template.URL(strings.TrimSpace(cellValue)),
					AlternativeText: imageAlternativeText(cellValue),
				})
				continue
			}
			rowCells = append(rowCells, renderedCell{Text: cellValue})
		}
		templateRows = append(templateRows, renderedRow{Cells: rowCells})
	}

	renderedDocument := &strings.Builder{}
	executeError := reportPageTemplate.Execute(renderedDocument, reportTemplateData{
		Title:    reportTitle,
		Tailwind: options.Tailwind,
		Headers:  table.Headers,
		Rows:     templateRows,
	})
	if executeError != nil {
		return "", fmt.Errorf(templateExecuteErrorTemplate, executeError)
	}
	return renderedDocument.String(), nil
}
