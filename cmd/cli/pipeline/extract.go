package pipeline

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/imaging"
	flagutils "github.com/tyemirov/docrun/internal/utils/flags"
)

const (
	extractCommandUseConstant      = "extract <image>"
	extractCommandShortConstant    = "Split a page image into component crops"
	extractCommandLongConstant     = "extract locates the framed component area on a page image, scans its separator rows, and writes one cropped image per component."
	extractOutputFlagNameConstant  = "output-dir"
	extractOutputFlagUsageConstant = "Directory receiving component crops."
	extractColumnFlagNameConstant  = "column"
	extractColumnFlagUsageConstant = "Column inside the component area scanned for separators."
	extractedLineTemplateConstant  = "extracted component: %s\n"
	extractSummaryTemplateConstant = "extracted %d components to %s\n"
)

// ExtractCommandBuilder assembles the extract command.
type ExtractCommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() ExtractConfiguration
}

// Build constructs the extract command.
func (builder *ExtractCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           extractCommandUseConstant,
		Short:         extractCommandShortConstant,
		Long:          extractCommandLongConstant,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments[0])
		},
	}

	command.Flags().String(extractOutputFlagNameConstant, "", extractOutputFlagUsageConstant)
	command.Flags().Int(extractColumnFlagNameConstant, 0, extractColumnFlagUsageConstant)

	return command, nil
}

func (builder *ExtractCommandBuilder) configuration() ExtractConfiguration {
	if builder.ConfigurationProvider != nil {
		return builder.ConfigurationProvider().Sanitize()
	}
	return ExtractConfiguration{}.Sanitize()
}

func (builder *ExtractCommandBuilder) run(command *cobra.Command, imagePath string) error {
	configuration := builder.configuration()

	if requestedOutput, outputChanged, outputFlagError := flagutils.StringFlag(command, extractOutputFlagNameConstant); outputFlagError == nil && outputChanged {
		configuration.OutputDirectory = requestedOutput
	}
	if requestedColumn, columnChanged, columnFlagError := flagutils.IntFlag(command, extractColumnFlagNameConstant); columnFlagError == nil && columnChanged {
		configuration.SeparatorColumn = requestedColumn
	}

	logger := resolveLogger(builder.LoggerProvider)

	pageImage, loadError := imaging.LoadGrayscale(imagePath)
	if loadError != nil {
		return loadError
	}

	componentArea, areaError := imaging.FindComponentArea(pageImage)
	if areaError != nil {
		return areaError
	}

	croppedArea := imaging.Crop(pageImage, componentArea.Bounds())
	separatorRows := imaging.ScanSeparators(croppedArea, configuration.SeparatorColumn, imaging.SeparatorScanOptions{})
	componentPaths, extractError := imaging.ExtractComponents(croppedArea, separatorRows, configuration.OutputDirectory)
	if extractError != nil {
		return extractError
	}

	for _, componentPath := range componentPaths {
		fmt.Fprintf(command.OutOrStdout(), extractedLineTemplateConstant, componentPath)
	}
	fmt.Fprintf(command.OutOrStdout(), extractSummaryTemplateConstant, len(componentPaths), configuration.OutputDirectory)

	logger.Info("extracted components",
		zap.String("image", imagePath),
		zap.Int("components", len(componentPaths)),
		zap.String("output_directory", configuration.OutputDirectory),
	)

	return nil
}
