// Package pdf converts PDF documents to page images by delegating to the
// poppler command line tools.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/execshell"
)

const (
	// DefaultRenderDPI is the raster resolution used when no DPI is requested.
	DefaultRenderDPI = 150
	minimumRenderDPI = 72
	maximumRenderDPI = 600

	pageCountFieldPrefixConstant          = "Pages:"
	jpegFormatFlagConstant                = "-jpeg"
	pngFormatFlagConstant                 = "-png"
	resolutionFlagConstant                = "-r"
	firstPageFlagConstant                 = "-f"
	lastPageFlagConstant                  = "-l"
	renderedPageGlobTemplateConstant      = "%s*"
	pageCountMissingMessageConstant       = "pdfinfo output did not include a page count"
	renderedPageMissingMessageTemplate    = "pdftoppm produced no output for prefix %q"
	documentPathRequiredMessageConstant   = "document path must be provided"
	executorNotConfiguredMessageConstant  = "document converter executor not configured"
	pageOutOfRangeMessageTemplateConstant = "page %d out of range (document has %d pages)"
	dpiOutOfRangeMessageTemplateConstant  = "render dpi %d outside supported range %d-%d"
	pageCountLogMessageConstant           = "resolved document page count"
	pageRenderedLogMessageConstant        = "rendered document page"
	documentPathLogFieldConstant          = "document"
	pageNumberLogFieldConstant            = "page"
	pageCountLogFieldConstant             = "pages"
	outputPathLogFieldConstant            = "output"
)

// ErrConverterExecutorNotConfigured indicates the converter was built without an executor.
var ErrConverterExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ImageFormat selects the raster output encoding for rendered pages.
type ImageFormat string

// Supported raster output formats.
const (
	ImageFormatJPEG ImageFormat = "jpeg"
	ImageFormatPNG  ImageFormat = "png"
)

// PageOutOfRangeError indicates a render request beyond the document bounds.
type PageOutOfRangeError struct {
	PageNumber int
	PageCount  int
}

// Error implements the error interface.
func (errorDetails PageOutOfRangeError) Error() string {
	return fmt.Sprintf(pageOutOfRangeMessageTemplateConstant, errorDetails.PageNumber, errorDetails.PageCount)
}

// ToolExecutor runs the poppler command line tools.
type ToolExecutor interface {
	ExecutePdfInfo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecutePdfToPPM(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RenderOptions control how a page is rasterized.
type RenderOptions struct {
	Format ImageFormat
	DPI    int
	// PageCount, when positive, bounds the requested page number before the
	// renderer is spawned. Zero leaves the upper bound to the renderer.
	PageCount int
}

func (options RenderOptions) sanitize() (RenderOptions, error) {
	if len(options.Format) == 0 {
		options.Format = ImageFormatJPEG
	}
	if options.DPI == 0 {
		options.DPI = DefaultRenderDPI
	}
	if options.DPI < minimumRenderDPI || options.DPI > maximumRenderDPI {
		return RenderOptions{}, fmt.Errorf(dpiOutOfRangeMessageTemplateConstant, options.DPI, minimumRenderDPI, maximumRenderDPI)
	}
	return options, nil
}

// DocumentConverter renders PDF pages to images through pdfinfo and pdftoppm.
type DocumentConverter struct {
	executor ToolExecutor
	logger   *zap.Logger
}

// NewDocumentConverter constructs a DocumentConverter over the provided executor.
func NewDocumentConverter(executor ToolExecutor, logger *zap.Logger) (*DocumentConverter, error) {
	if executor == nil {
		return nil, ErrConverterExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentConverter{executor: executor, logger: logger}, nil
}

// PageCount reports the number of pages in the document via pdfinfo.
func (converter *DocumentConverter) PageCount(executionContext context.Context, documentPath string) (int, error) {
	trimmedPath := strings.TrimSpace(documentPath)
	if len(trimmedPath) == 0 {
		return 0, errors.New(documentPathRequiredMessageConstant)
	}

	executionResult, executionError := converter.executor.ExecutePdfInfo(executionContext, execshell.CommandDetails{
		Arguments: []string{trimmedPath},
	})
	if executionError != nil {
		return 0, executionError
	}

	pageCount, parseError := parsePageCount(executionResult.StandardOutput)
	if parseError != nil {
		return 0, parseError
	}

	converter.logger.Debug(pageCountLogMessageConstant,
		zap.String(documentPathLogFieldConstant, trimmedPath),
		zap.Int(pageCountLogFieldConstant, pageCount),
	)
	return pageCount, nil
}

// RenderPage rasterizes a single one-based page to an image next to
// outputPrefix without consulting pdfinfo; callers that hold the document's
// page count pass it through RenderOptions to get the range checked up front.
//
// pdftoppm appends its own page suffix to the prefix, so the produced file is
// located afterwards by globbing the prefix.
func (converter *DocumentConverter) RenderPage(executionContext context.Context, documentPath string, pageNumber int, outputPrefix string, options RenderOptions) (string, error) {
	trimmedPath := strings.TrimSpace(documentPath)
	if len(trimmedPath) == 0 {
		return "", errors.New(documentPathRequiredMessageConstant)
	}

	sanitizedOptions, optionsError := options.sanitize()
	if optionsError != nil {
		return "", optionsError
	}

	if pageNumber < 1 || (sanitizedOptions.PageCount > 0 && pageNumber > sanitizedOptions.PageCount) {
		return "", PageOutOfRangeError{PageNumber: pageNumber, PageCount: sanitizedOptions.PageCount}
	}

	formatFlag := jpegFormatFlagConstant
	if sanitizedOptions.Format == ImageFormatPNG {
		formatFlag = pngFormatFlagConstant
	}

	pageNumberText := strconv.Itoa(pageNumber)
	_, executionError := converter.executor.ExecutePdfToPPM(executionContext, execshell.CommandDetails{
		Arguments: []string{
			formatFlag,
			resolutionFlagConstant, strconv.Itoa(sanitizedOptions.DPI),
			firstPageFlagConstant, pageNumberText,
			lastPageFlagConstant, pageNumberText,
			trimmedPath,
			outputPrefix,
		},
	})
	if executionError != nil {
		return "", executionError
	}

	renderedPath, locateError := locateRenderedPage(outputPrefix)
	if locateError != nil {
		return "", locateError
	}

	converter.logger.Debug(pageRenderedLogMessageConstant,
		zap.String(documentPathLogFieldConstant, trimmedPath),
		zap.Int(pageNumberLogFieldConstant, pageNumber),
		zap.String(outputPathLogFieldConstant, renderedPath),
	)
	return renderedPath, nil
}

func parsePageCount(pdfInfoOutput string) (int, error) {
	for _, outputLine := range strings.Split(pdfInfoOutput, "\n") {
		trimmedLine := strings.TrimSpace(outputLine)
		if !strings.HasPrefix(trimmedLine, pageCountFieldPrefixConstant) {
			continue
		}
		pageCountText := strings.TrimSpace(strings.TrimPrefix(trimmedLine, pageCountFieldPrefixConstant))
		pageCount, conversionError := strconv.Atoi(pageCountText)
		if conversionError != nil {
			return 0, fmt.Errorf("invalid page count %q: %w", pageCountText, conversionError)
		}
		return pageCount, nil
	}
	return 0, errors.New(pageCountMissingMessageConstant)
}

func locateRenderedPage(outputPrefix string) (string, error) {
	matchedPaths, globError := filepath.Glob(fmt.Sprintf(renderedPageGlobTemplateConstant, outputPrefix))
	if globError != nil {
		return "", globError
	}
	if len(matchedPaths) == 0 {
		return "", fmt.Errorf(renderedPageMissingMessageTemplate, outputPrefix)
	}
	sort.Strings(matchedPaths)
	return matchedPaths[0], nil
}
