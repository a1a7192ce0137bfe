package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/execshell"
	"github.com/tyemirov/docrun/internal/pdf"
	flagutils "github.com/tyemirov/docrun/internal/utils/flags"
)

const (
	convertCommandUseConstant         = "convert <pdf>"
	convertCommandShortConstant       = "Render document pages to images"
	convertCommandLongConstant        = "convert renders one page (or every page) of a PDF document to raster images using the poppler tools."
	convertPageFlagNameConstant       = "page"
	convertPageFlagUsageConstant      = "Page number to render (0 renders every page)."
	convertDPIFlagNameConstant        = "dpi"
	convertDPIFlagUsageConstant       = "Raster resolution in dots per inch."
	convertFormatFlagNameConstant     = "format"
	convertFormatFlagUsageConstant    = "Raster output format (jpeg or png)."
	convertOutputFlagNameConstant     = "output-dir"
	convertOutputFlagUsageConstant    = "Directory receiving rendered page images."
	convertPagePrefixTemplateConstant = "page_%03d"
	convertRenderedLineTemplate       = "rendered page %d: %s\n"
	convertOutputDirectoryPermission  = 0o755
)

// ConvertCommandBuilder assembles the convert command.
type ConvertCommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() ConvertConfiguration
	CommandRunner                execshell.CommandRunner
}

// Build constructs the convert command.
func (builder *ConvertCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           convertCommandUseConstant,
		Short:         convertCommandShortConstant,
		Long:          convertCommandLongConstant,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments[0])
		},
	}

	command.Flags().Int(convertPageFlagNameConstant, 0, convertPageFlagUsageConstant)
	command.Flags().Int(convertDPIFlagNameConstant, 0, convertDPIFlagUsageConstant)
	command.Flags().String(convertFormatFlagNameConstant, "", convertFormatFlagUsageConstant)
	command.Flags().String(convertOutputFlagNameConstant, "", convertOutputFlagUsageConstant)

	return command, nil
}

func (builder *ConvertCommandBuilder) configuration() ConvertConfiguration {
	if builder.ConfigurationProvider != nil {
		return builder.ConfigurationProvider().Sanitize()
	}
	return ConvertConfiguration{}.Sanitize()
}

func (builder *ConvertCommandBuilder) run(command *cobra.Command, documentPath string) error {
	configuration := builder.configuration()

	requestedPage, _, pageFlagError := flagutils.IntFlag(command, convertPageFlagNameConstant)
	if pageFlagError != nil {
		return pageFlagError
	}
	if requestedDPI, dpiChanged, dpiFlagError := flagutils.IntFlag(command, convertDPIFlagNameConstant); dpiFlagError == nil && dpiChanged {
		configuration.DPI = requestedDPI
	}
	if requestedFormat, formatChanged, formatFlagError := flagutils.StringFlag(command, convertFormatFlagNameConstant); formatFlagError == nil && formatChanged {
		configuration.Format = requestedFormat
	}
	if requestedOutput, outputChanged, outputFlagError := flagutils.StringFlag(command, convertOutputFlagNameConstant); outputFlagError == nil && outputChanged {
		configuration.OutputDirectory = requestedOutput
	}

	logger := resolveLogger(builder.LoggerProvider)
	shellExecutor, executorError := resolveShellExecutor(logger, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider), builder.CommandRunner)
	if executorError != nil {
		return executorError
	}

	converter, converterError := pdf.NewDocumentConverter(shellExecutor, logger)
	if converterError != nil {
		return converterError
	}

	if mkdirError := os.MkdirAll(configuration.OutputDirectory, convertOutputDirectoryPermission); mkdirError != nil {
		return mkdirError
	}

	executionContext := command.Context()

	firstPage := requestedPage
	lastPage := requestedPage
	knownPageCount := 0
	if requestedPage == 0 {
		pageCount, pageCountError := converter.PageCount(executionContext, documentPath)
		if pageCountError != nil {
			return pageCountError
		}
		firstPage = 1
		lastPage = pageCount
		knownPageCount = pageCount
	}

	renderOptions := pdf.RenderOptions{
		Format:    pdf.ImageFormat(configuration.Format),
		DPI:       configuration.DPI,
		PageCount: knownPageCount,
	}
	for pageNumber := firstPage; pageNumber <= lastPage; pageNumber++ {
		outputPrefix := filepath.Join(configuration.OutputDirectory, fmt.Sprintf(convertPagePrefixTemplateConstant, pageNumber))
		renderedPath, renderError := converter.RenderPage(executionContext, documentPath, pageNumber, outputPrefix, renderOptions)
		if renderError != nil {
			return renderError
		}
		fmt.Fprintf(command.OutOrStdout(), convertRenderedLineTemplate, pageNumber, renderedPath)
	}

	return nil
}
