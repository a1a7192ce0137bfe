package pipeline

import (
	"strings"

	"github.com/tyemirov/docrun/internal/imaging"
	"github.com/tyemirov/docrun/internal/pdf"
)

const (
	defaultPageOutputDirectoryConstant      = "pages"
	defaultComponentOutputDirectoryConstant = "components"
	defaultRenderFormatConstant             = string(pdf.ImageFormatJPEG)
	defaultReportOutputPathConstant         = "report.html"
)

// ConvertConfiguration stores defaults for the convert command.
type ConvertConfiguration struct {
	DPI             int    `mapstructure:"dpi"`
	Format          string `mapstructure:"format"`
	OutputDirectory string `mapstructure:"output_directory"`
}

// Sanitize applies defaults to unset convert options.
func (configuration ConvertConfiguration) Sanitize() ConvertConfiguration {
	if configuration.DPI == 0 {
		configuration.DPI = pdf.DefaultRenderDPI
	}
	if len(strings.TrimSpace(configuration.Format)) == 0 {
		configuration.Format = defaultRenderFormatConstant
	}
	if len(strings.TrimSpace(configuration.OutputDirectory)) == 0 {
		configuration.OutputDirectory = defaultPageOutputDirectoryConstant
	}
	return configuration
}

// ExtractConfiguration stores defaults for the extract command.
type ExtractConfiguration struct {
	OutputDirectory string `mapstructure:"output_directory"`
	SeparatorColumn int    `mapstructure:"separator_column"`
}

// Sanitize applies defaults to unset extract options.
func (configuration ExtractConfiguration) Sanitize() ExtractConfiguration {
	if len(strings.TrimSpace(configuration.OutputDirectory)) == 0 {
		configuration.OutputDirectory = defaultComponentOutputDirectoryConstant
	}
	if configuration.SeparatorColumn < 0 {
		configuration.SeparatorColumn = 0
	}
	return configuration
}

// CountConfiguration stores defaults for the count command.
type CountConfiguration struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	CharacterWhitelist  string  `mapstructure:"character_whitelist"`
}

// Sanitize applies defaults to unset count options.
func (configuration CountConfiguration) Sanitize() CountConfiguration {
	if configuration.SimilarityThreshold <= 0 {
		configuration.SimilarityThreshold = imaging.DefaultSimilarityThreshold
	}
	return configuration
}

// ReportConfiguration stores defaults for the report command.
type ReportConfiguration struct {
	Title      string `mapstructure:"title"`
	Tailwind   bool   `mapstructure:"tailwind"`
	OutputPath string `mapstructure:"output_path"`
}

// Sanitize applies defaults to unset report options.
func (configuration ReportConfiguration) Sanitize() ReportConfiguration {
	if len(strings.TrimSpace(configuration.OutputPath)) == 0 {
		configuration.OutputPath = defaultReportOutputPathConstant
	}
	return configuration
}

// CompareConfiguration stores defaults for the compare command.
type CompareConfiguration struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// Sanitize applies defaults to unset compare options.
func (configuration CompareConfiguration) Sanitize() CompareConfiguration {
	if configuration.SimilarityThreshold <= 0 {
		configuration.SimilarityThreshold = imaging.DefaultSimilarityThreshold
	}
	return configuration
}
