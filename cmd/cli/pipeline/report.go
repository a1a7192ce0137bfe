package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/report"
	flagutils "github.com/tyemirov/docrun/internal/utils/flags"
)

const (
	reportCommandUseConstant           = "report <input>"
	reportCommandShortConstant         = "Render a CSV or JSON table as an HTML report"
	reportCommandLongConstant          = "report converts a three-column CSV or JSON table into a standalone HTML page; cells referencing images render inline."
	reportOutputFlagNameConstant       = "output"
	reportOutputFlagUsageConstant      = "Path of the HTML file to write."
	reportTitleFlagNameConstant        = "title"
	reportTitleFlagUsageConstant       = "Title of the rendered report."
	reportTailwindFlagNameConstant     = "tailwind"
	reportTailwindFlagUsageConstant    = "Style the report with Tailwind instead of the built-in stylesheet."
	reportHeadersFlagNameConstant      = "headers"
	reportHeadersFlagUsageConstant     = "Comma-separated column headers (exactly three) overriding the input's header row."
	reportImageDirFlagNameConstant     = "image-dir"
	reportImageDirFlagUsageConstant    = "Directory whose images fill the first column of consecutive rows."
	reportWrittenLineTemplateConstant  = "wrote report to %s\n"
	reportWriteErrorTemplateConstant   = "failed to write report %q: %w"
	reportOutputFilePermissionConstant = 0o600
)

// ReportCommandBuilder assembles the report command.
type ReportCommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() ReportConfiguration
}

// Build constructs the report command.
func (builder *ReportCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           reportCommandUseConstant,
		Short:         reportCommandShortConstant,
		Long:          reportCommandLongConstant,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments[0])
		},
	}

	command.Flags().String(reportOutputFlagNameConstant, "", reportOutputFlagUsageConstant)
	command.Flags().String(reportTitleFlagNameConstant, "", reportTitleFlagUsageConstant)
	command.Flags().Bool(reportTailwindFlagNameConstant, false, reportTailwindFlagUsageConstant)
	command.Flags().String(reportHeadersFlagNameConstant, "", reportHeadersFlagUsageConstant)
	command.Flags().String(reportImageDirFlagNameConstant, "", reportImageDirFlagUsageConstant)

	return command, nil
}

func (builder *ReportCommandBuilder) configuration() ReportConfiguration {
	if builder.ConfigurationProvider != nil {
		return builder.ConfigurationProvider().Sanitize()
	}
	return ReportConfiguration{}.Sanitize()
}

func (builder *ReportCommandBuilder) run(command *cobra.Command, inputPath string) error {
	configuration := builder.configuration()

	if requestedOutput, outputChanged, outputFlagError := flagutils.StringFlag(command, reportOutputFlagNameConstant); outputFlagError == nil && outputChanged {
		configuration.OutputPath = requestedOutput
	}
	if requestedTitle, titleChanged, titleFlagError := flagutils.StringFlag(command, reportTitleFlagNameConstant); titleFlagError == nil && titleChanged {
		configuration.Title = requestedTitle
	}
	if requestedTailwind, tailwindChanged, tailwindFlagError := flagutils.BoolFlag(command, reportTailwindFlagNameConstant); tailwindFlagError == nil && tailwindChanged {
		configuration.Tailwind = requestedTailwind
	}
	configuration = configuration.Sanitize()

	var columnHeaders []string
	if requestedHeaders, headersChanged, headersFlagError := flagutils.StringFlag(command, reportHeadersFlagNameConstant); headersFlagError == nil && headersChanged {
		columnHeaders = splitHeaderList(requestedHeaders)
	}

	tableData, loadError := report.LoadTable(inputPath, columnHeaders)
	if loadError != nil {
		return loadError
	}

	renderOptions := report.RenderOptions{Title: configuration.Title, Tailwind: configuration.Tailwind}
	if imageDirectory, imageDirChanged, imageDirFlagError := flagutils.StringFlag(command, reportImageDirFlagNameConstant); imageDirFlagError == nil && imageDirChanged {
		imagePaths, listError := report.ImagePathsFromDirectory(imageDirectory)
		if listError != nil {
			return listError
		}
		renderOptions.ImagePaths = imagePaths
	}

	renderedDocument, renderError := report.RenderHTML(tableData, renderOptions)
	if renderError != nil {
		return renderError
	}

	if writeError := os.WriteFile(configuration.OutputPath, []byte(renderedDocument), reportOutputFilePermissionConstant); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, configuration.OutputPath, writeError)
	}

	fmt.Fprintf(command.OutOrStdout(), reportWrittenLineTemplateConstant, configuration.OutputPath)
	return nil
}

func splitHeaderList(headerList string) []string {
	headerValues := strings.Split(headerList, ",")
	trimmedValues := make([]string, 0, len(headerValues))
	for _, headerValue := range headerValues {
		trimmedValues = append(trimmedValues, strings.TrimSpace(headerValue))
	}
	return trimmedValues
}
