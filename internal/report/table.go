// Package report renders tabular analysis results as standalone HTML files.
package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	tableColumnCountNumber                 = 3
	csvInputExtensionConstant              = ".csv"
	jsonInputExtensionConstant             = ".json"
	inputReadErrorTemplateConstant         = "failed to read table input %q: %w"
	csvParseErrorTemplateConstant          = "failed to parse CSV input %q: %w"
	jsonParseErrorTemplateConstant         = "failed to parse JSON input %q: %w"
	unsupportedInputMessageTemplate        = "unsupported table input %q (expected .csv or .json)"
	unsupportedJSONShapeMessageConstant    = "unsupported JSON structure: expected a list of lists or a list of objects"
	headerCountMessageTemplateConstant     = "table headers must contain exactly %d values"
	imageDirectoryErrorTemplateConstant    = "failed to list image directory %q: %w"
	imageDirectoryMissingMessageTemplate   = "image directory %q not found"
	dataImagePrefixConstant                = "data:image/"
	defaultImageAlternativeTextConstant    = "Image"
	alternativeTextTemplateConstant        = "%s image"
	supportedImageExtensionsCommaSeparated = ".png,.jpg,.jpeg"
)

// ErrHeaderCountMismatch indicates a custom header list of the wrong width.
var ErrHeaderCountMismatch = fmt.Errorf(headerCountMessageTemplateConstant, tableColumnCountNumber)

// TableData is a three-column table ready for rendering.
type TableData struct {
	Headers []string
	Rows    [][]string
}

// LoadTable reads a CSV or JSON file into a three-column table. Rows are
// padded or truncated to the column count. Optional headers replace any
// header row found in the input.
func LoadTable(inputPath string, headers []string) (TableData, error) {
	if len(headers) > 0 && len(headers) != tableColumnCountNumber {
		return TableData{}, ErrHeaderCountMismatch
	}

	switch strings.ToLower(filepath.Ext(inputPath)) {
	case csvInputExtensionConstant:
		return loadCSVTable(inputPath, headers)
	case jsonInputExtensionConstant:
		return loadJSONTable(inputPath, headers)
	default:
		return TableData{}, fmt.Errorf(unsupportedInputMessageTemplate, inputPath)
	}
}

func loadCSVTable(inputPath string, headers []string) (TableData, error) {
	inputFile, openError := os.Open(inputPath)
	if openError != nil {
		return TableData{}, fmt.Errorf(inputReadErrorTemplateConstant, inputPath, openError)
	}
	defer func() { _ = inputFile.Close() }()

	csvReader := csv.NewReader(inputFile)
	csvReader.FieldsPerRecord = -1
	parsedRecords, readError := csvReader.ReadAll()
	if readError != nil {
		return TableData{}, fmt.Errorf(csvParseErrorTemplateConstant, inputPath, readError)
	}

	tableRows := make([][]string, 0, len(parsedRecords))
	for _, record := range parsedRecords {
		tableRows = append(tableRows, normalizeRowWidth(record))
	}
	return promoteHeaderRow(tableRows, headers), nil
}

func loadJSONTable(inputPath string, headers []string) (TableData, error) {
	inputContent, readError := os.ReadFile(inputPath)
	if readError != nil {
		return TableData{}, fmt.Errorf(inputReadErrorTemplateConstant, inputPath, readError)
	}

	var objectRows []map[string]any
	if unmarshalError := json.Unmarshal(inputContent, &objectRows); unmarshalError == nil {
		return tableFromObjectRows(objectRows, headers), nil
	}

	var listRows [][]any
	if unmarshalError := json.Unmarshal(inputContent, &listRows); unmarshalError != nil {
		return TableData{}, fmt.Errorf(jsonParseErrorTemplateConstant, inputPath, errors.New(unsupportedJSONShapeMessageConstant))
	}

	tableRows := make([][]string, 0, len(listRows))
	for _, listRow := range listRows {
		stringValues := make([]string, 0, len(listRow))
		for _, cellValue := range listRow {
			stringValues = append(stringValues, stringifyCell(cellValue))
		}
		tableRows = append(tableRows, normalizeRowWidth(stringValues))
	}
	return promoteHeaderRow(tableRows, headers), nil
}

// tableFromObjectRows projects a list of JSON objects onto the column keys;
// explicit headers select the keys, otherwise the first object's keys are
// used in sorted order for determinism.
func tableFromObjectRows(objectRows []map[string]any, headers []string) TableData {
	if len(objectRows) == 0 {
		return TableData{Headers: normalizeRowWidth(headers)}
	}

	columnKeys := headers
	if len(columnKeys) == 0 {
		firstObjectKeys := make([]string, 0, len(objectRows[0]))
		for objectKey := range objectRows[0] {
			firstObjectKeys = append(firstObjectKeys, objectKey)
		}
		sort.Strings(firstObjectKeys)
		if len(firstObjectKeys) > tableColumnCountNumber {
			firstObjectKeys = firstObjectKeys[:tableColumnCountNumber]
		}
		columnKeys = firstObjectKeys
	}
	columnKeys = normalizeRowWidth(columnKeys)

	tableRows := make([][]string, 0, len(objectRows))
	for _, objectRow := range objectRows {
		rowValues := make([]string, 0, tableColumnCountNumber)
		for _, columnKey := range columnKeys {
			cellValue, cellPresent := objectRow[columnKey]
			if !cellPresent {
				rowValues = append(rowValues, "")
				continue
			}
			rowValues = append(rowValues, stringifyCell(cellValue))
		}
		tableRows = append(tableRows, rowValues)
	}
	return TableData{Headers: columnKeys, Rows: tableRows}
}

// promoteHeaderRow treats the first row as the header unless explicit headers
// override it.
func promoteHeaderRow(tableRows [][]string, headers []string) TableData {
	if len(headers) > 0 {
		return TableData{Headers: normalizeRowWidth(headers), Rows: tableRows}
	}
	if len(tableRows) == 0 {
		return TableData{}
	}
	return TableData{Headers: tableRows[0], Rows: tableRows[1:]}
}

func normalizeRowWidth(rowValues []string) []string {
	normalizedRow := make([]string, tableColumnCountNumber)
	for columnIndex := 0; columnIndex < tableColumnCountNumber; columnIndex++ {
		if columnIndex < len(rowValues) {
			normalizedRow[columnIndex] = rowValues[columnIndex]
		}
	}
	return normalizedRow
}

func stringifyCell(cellValue any) string {
	switch typedValue := cellValue.(type) {
	case string:
		return typedValue
	case float64:
		if typedValue == float64(int64(typedValue)) {
			return fmt.Sprintf("%d", int64(typedValue))
		}
		return fmt.Sprintf("%g", typedValue)
	case bool:
		return fmt.Sprintf("%t", typedValue)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", typedValue)
	}
}

// ImagePathsFromDirectory lists supported image files under directoryPath in
// case-insensitive name order, for injection into the table's first column.
func ImagePathsFromDirectory(directoryPath string) ([]string, error) {
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return nil, fmt.Errorf(imageDirectoryMissingMessageTemplate, directoryPath)
		}
		return nil, fmt.Errorf(imageDirectoryErrorTemplateConstant, directoryPath, readError)
	}

	imagePaths := make([]string, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		if !hasSupportedImageExtension(directoryEntry.Name()) {
			continue
		}
		imagePaths = append(imagePaths, filepath.ToSlash(filepath.Join(directoryPath, directoryEntry.Name())))
	}
	sort.Slice(imagePaths, func(firstIndex, secondIndex int) bool {
		return strings.ToLower(imagePaths[firstIndex]) < strings.ToLower(imagePaths[secondIndex])
	})
	return imagePaths, nil
}

func hasSupportedImageExtension(fileName string) bool {
	loweredName := strings.ToLower(fileName)
	for _, supportedExtension := range strings.Split(supportedImageExtensionsCommaSeparated, ",") {
		if strings.HasSuffix(loweredName, supportedExtension) {
			return true
		}
	}
	return false
}

// looksLikeImage reports whether a cell value references an image by data URI
// or file extension (ignoring query strings and fragments).
func looksLikeImage(cellValue string) bool {
	candidateValue := strings.ToLower(strings.TrimSpace(cellValue))
	if strings.HasPrefix(candidateValue, dataImagePrefixConstant) {
		return true
	}
	candidateValue = strings.SplitN(candidateValue, "?", 2)[0]
	candidateValue = strings.SplitN(candidateValue, "#", 2)[0]
	return hasSupportedImageExtension(candidateValue)
}

func imageAlternativeText(imageSource string) string {
	trimmedSource := strings.TrimSpace(imageSource)
	if strings.HasPrefix(strings.ToLower(trimmedSource), dataImagePrefixConstant) {
		imageFormat := strings.SplitN(strings.SplitN(trimmedSource[len(dataImagePrefixConstant):], ";", 2)[0], ",", 2)[0]
		return fmt.Sprintf(alternativeTextTemplateConstant, strings.ToUpper(imageFormat))
	}

	baseName := filepath.Base(strings.TrimRight(trimmedSource, "/"))
	baseName = strings.SplitN(baseName, "?", 2)[0]
	baseName = strings.SplitN(baseName, "#", 2)[0]
	baseName = strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if len(baseName) == 0 || baseName == "." {
		return defaultImageAlternativeTextConstant
	}
	return baseName
}
