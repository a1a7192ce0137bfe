package pipeline

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/imaging"
	flagutils "github.com/tyemirov/docrun/internal/utils/flags"
)

const (
	compareCommandUseConstant         = "compare <first-image> <second-image>"
	compareCommandShortConstant       = "Compare two component images"
	compareCommandLongConstant        = "compare measures the normalized pixel difference between two grayscale images and reports whether they depict the same component."
	compareThresholdFlagNameConstant  = "threshold"
	compareThresholdFlagUsageConstant = "Pixel difference ratio below which the images count as the same component."
	compareRatioLineTemplateConstant  = "difference ratio: %.4f\n"
	compareMatchLineConstant          = "images match"
)

// ImagesDifferError reports a comparison whose difference ratio exceeded the threshold.
type ImagesDifferError struct {
	FirstImagePath  string
	SecondImagePath string
	DifferenceRatio float64
}

// Error describes the failed comparison.
func (errorDetails ImagesDifferError) Error() string {
	return fmt.Sprintf("images %q and %q differ (ratio %.4f)", errorDetails.FirstImagePath, errorDetails.SecondImagePath, errorDetails.DifferenceRatio)
}

// CompareCommandBuilder assembles the compare command.
type CompareCommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CompareConfiguration
}

// Build constructs the compare command.
func (builder *CompareCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           compareCommandUseConstant,
		Short:         compareCommandShortConstant,
		Long:          compareCommandLongConstant,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments[0], arguments[1])
		},
	}

	command.Flags().Float64(compareThresholdFlagNameConstant, 0, compareThresholdFlagUsageConstant)

	return command, nil
}

func (builder *CompareCommandBuilder) configuration() CompareConfiguration {
	if builder.ConfigurationProvider != nil {
		return builder.ConfigurationProvider().Sanitize()
	}
	return CompareConfiguration{}.Sanitize()
}

func (builder *CompareCommandBuilder) run(command *cobra.Command, firstImagePath string, secondImagePath string) error {
	configuration := builder.configuration()

	if requestedThreshold, thresholdChanged, thresholdFlagError := flagutils.Float64Flag(command, compareThresholdFlagNameConstant); thresholdFlagError == nil && thresholdChanged {
		configuration.SimilarityThreshold = requestedThreshold
	}

	firstImage, firstLoadError := imaging.LoadGrayscale(firstImagePath)
	if firstLoadError != nil {
		return firstLoadError
	}
	secondImage, secondLoadError := imaging.LoadGrayscale(secondImagePath)
	if secondLoadError != nil {
		return secondLoadError
	}

	differenceRatio := imaging.DifferenceRatio(firstImage, secondImage)
	fmt.Fprintf(command.OutOrStdout(), compareRatioLineTemplateConstant, differenceRatio)

	if !imaging.Similar(firstImage, secondImage, configuration.SimilarityThreshold) {
		return ImagesDifferError{
			FirstImagePath:  firstImagePath,
			SecondImagePath: secondImagePath,
			DifferenceRatio: differenceRatio,
		}
	}

	fmt.Fprintln(command.OutOrStdout(), compareMatchLineConstant)
	return nil
}
