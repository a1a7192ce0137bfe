// Package analysis composes page rendering, component extraction, and label
// counting into the single-page analysis flow shared by the CLI and the
// dashboard.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/imaging"
	"github.com/tyemirov/docrun/internal/ocr"
	"github.com/tyemirov/docrun/internal/pdf"
)

const (
	renderedPagePrefixConstant          = "page"
	componentsDirectoryNameConstant     = "components"
	converterMissingMessageConstant     = "page analyzer converter not configured"
	counterMissingMessageConstant       = "page analyzer counter not configured"
	workDirectoryErrorTemplateConstant  = "failed to prepare work directory %q: %w"
	pageAnalyzedLogMessageConstant      = "analyzed document page"
	documentLogFieldConstant            = "document"
	pageLogFieldConstant                = "page"
	uniqueComponentsLogFieldConstant    = "unique_components"
	extractedComponentsLogFieldConstant = "extracted_components"
	workDirectoryPermissionsOctal       = 0o755
)

var (
	// ErrConverterNotConfigured indicates the analyzer was built without a document converter.
	ErrConverterNotConfigured = errors.New(converterMissingMessageConstant)
	// ErrCounterNotConfigured indicates the analyzer was built without a component counter.
	ErrCounterNotConfigured = errors.New(counterMissingMessageConstant)
)

// PageReport summarizes the analysis of a single document page.
type PageReport struct {
	DocumentPath        string               `json:"document"`
	PageNumber          int                  `json:"page"`
	ExtractedComponents int                  `json:"extracted_components"`
	UniqueComponents    int                  `json:"unique_components"`
	DuplicateComponents int                  `json:"duplicate_components"`
	Components          []ocr.ComponentTally `json:"components"`
}

// PageAnalyzer runs the full analysis flow for one document page.
type PageAnalyzer struct {
	converter *pdf.DocumentConverter
	counter   *ocr.ComponentCounter
	logger    *zap.Logger
}

// NewPageAnalyzer constructs a PageAnalyzer over the provided converter and counter.
func NewPageAnalyzer(converter *pdf.DocumentConverter, counter *ocr.ComponentCounter, logger *zap.Logger) (*PageAnalyzer, error) {
	if converter == nil {
		return nil, ErrConverterNotConfigured
	}
	if counter == nil {
		return nil, ErrCounterNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageAnalyzer{converter: converter, counter: counter, logger: logger}, nil
}

// AnalyzePage renders one document page, extracts its component crops into
// workDirectory, and tallies unique component labels.
func (analyzer *PageAnalyzer) AnalyzePage(executionContext context.Context, documentPath string, pageNumber int, renderDPI int, workDirectory string) (PageReport, error) {
	if mkdirError := os.MkdirAll(workDirectory, workDirectoryPermissionsOctal); mkdirError != nil {
		return PageReport{}, fmt.Errorf(workDirectoryErrorTemplateConstant, workDirectory, mkdirError)
	}

	pageCount, pageCountError := analyzer.converter.PageCount(executionContext, documentPath)
	if pageCountError != nil {
		return PageReport{}, pageCountError
	}

	renderedPath, renderError := analyzer.converter.RenderPage(
		executionContext,
		documentPath,
		pageNumber,
		filepath.Join(workDirectory, renderedPagePrefixConstant),
		pdf.RenderOptions{DPI: renderDPI, PageCount: pageCount},
	)
	if renderError != nil {
		return PageReport{}, renderError
	}

	pageImage, loadError := imaging.LoadGrayscale(renderedPath)
	if loadError != nil {
		return PageReport{}, loadError
	}

	componentArea, areaError := imaging.FindComponentArea(pageImage)
	if areaError != nil {
		return PageReport{}, areaError
	}

	areaImage := imaging.Crop(pageImage, componentArea.Bounds())
	separatorRows := imaging.ScanSeparators(areaImage, areaImage.Bounds().Min.X, imaging.SeparatorScanOptions{})

	componentsDirectory := filepath.Join(workDirectory, componentsDirectoryNameConstant)
	componentPaths, extractError := imaging.ExtractComponents(areaImage, separatorRows, componentsDirectory)
	if extractError != nil {
		return PageReport{}, extractError
	}

	countReport, countError := analyzer.counter.CountDirectory(executionContext, componentsDirectory)
	if countError != nil {
		return PageReport{}, countError
	}

	pageReport := PageReport{
		DocumentPath:        documentPath,
		PageNumber:          pageNumber,
		ExtractedComponents: len(componentPaths),
		UniqueComponents:    countReport.UniqueCount,
		DuplicateComponents: countReport.DuplicateCount,
		Components:          countReport.Tallies,
	}

	analyzer.logger.Info(pageAnalyzedLogMessageConstant,
		zap.String(documentLogFieldConstant, documentPath),
		zap.Int(pageLogFieldConstant, pageNumber),
		zap.Int(extractedComponentsLogFieldConstant, pageReport.ExtractedComponents),
		zap.Int(uniqueComponentsLogFieldConstant, pageReport.UniqueComponents),
	)
	return pageReport, nil
}
