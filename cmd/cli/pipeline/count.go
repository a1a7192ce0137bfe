package pipeline

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/execshell"
	"github.com/tyemirov/docrun/internal/ocr"
	flagutils "github.com/tyemirov/docrun/internal/utils/flags"
)

const (
	countCommandUseConstant          = "count <directory>"
	countCommandShortConstant        = "Count labeled components in a directory of crops"
	countCommandLongConstant         = "count reads the label on every component image in a directory with tesseract and folds visually similar images carrying the same label into a single tally."
	countThresholdFlagNameConstant   = "threshold"
	countThresholdFlagUsageConstant  = "Pixel difference ratio below which two images count as the same component."
	countWhitelistFlagNameConstant   = "whitelist"
	countWhitelistFlagUsageConstant  = "Characters the label recognizer is allowed to emit."
	countTallyLineTemplateConstant   = "%s: %d\n"
	countSummaryLineTemplateConstant = "images %d, unique %d, duplicates %d\n"
)

// CountCommandBuilder assembles the count command.
type CountCommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CountConfiguration
	CommandRunner                execshell.CommandRunner
}

// Build constructs the count command.
func (builder *CountCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           countCommandUseConstant,
		Short:         countCommandShortConstant,
		Long:          countCommandLongConstant,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments[0])
		},
	}

	command.Flags().Float64(countThresholdFlagNameConstant, 0, countThresholdFlagUsageConstant)
	command.Flags().String(countWhitelistFlagNameConstant, "", countWhitelistFlagUsageConstant)

	return command, nil
}

func (builder *CountCommandBuilder) configuration() CountConfiguration {
	if builder.ConfigurationProvider != nil {
		return builder.ConfigurationProvider().Sanitize()
	}
	return CountConfiguration{}.Sanitize()
}

func (builder *CountCommandBuilder) run(command *cobra.Command, directoryPath string) error {
	configuration := builder.configuration()

	if requestedThreshold, thresholdChanged, thresholdFlagError := flagutils.Float64Flag(command, countThresholdFlagNameConstant); thresholdFlagError == nil && thresholdChanged {
		configuration.SimilarityThreshold = requestedThreshold
	}
	if requestedWhitelist, whitelistChanged, whitelistFlagError := flagutils.StringFlag(command, countWhitelistFlagNameConstant); whitelistFlagError == nil && whitelistChanged {
		configuration.CharacterWhitelist = requestedWhitelist
	}

	logger := resolveLogger(builder.LoggerProvider)
	shellExecutor, executorError := resolveShellExecutor(logger, resolveHumanReadableLogging(builder.HumanReadableLoggingProvider), builder.CommandRunner)
	if executorError != nil {
		return executorError
	}

	labelReader, readerError := ocr.NewLabelReader(shellExecutor, logger, configuration.CharacterWhitelist)
	if readerError != nil {
		return readerError
	}

	componentCounter, counterError := ocr.NewComponentCounter(labelReader, logger, configuration.SimilarityThreshold)
	if counterError != nil {
		return counterError
	}

	countReport, countError := componentCounter.CountDirectory(command.Context(), directoryPath)
	if countError != nil {
		return countError
	}

	for _, tally := range countReport.Tallies {
		fmt.Fprintf(command.OutOrStdout(), countTallyLineTemplateConstant, tally.Label, tally.Occurrences)
	}
	fmt.Fprintf(command.OutOrStdout(), countSummaryLineTemplateConstant, countReport.TotalImages, countReport.UniqueCount, countReport.DuplicateCount)

	return nil
}
