// Package dashboard exposes the command that serves the document analysis web dashboard.
package dashboard

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/analysis"
	dashboardserver "github.com/tyemirov/docrun/internal/dashboard"
	"github.com/tyemirov/docrun/internal/execshell"
	"github.com/tyemirov/docrun/internal/imaging"
	"github.com/tyemirov/docrun/internal/ocr"
	"github.com/tyemirov/docrun/internal/pdf"
	flagutils "github.com/tyemirov/docrun/internal/utils/flags"
)

const (
	dashboardCommandUseConstant      = "dashboard"
	dashboardCommandShortConstant    = "Serve the document analysis dashboard"
	dashboardCommandLongConstant     = "dashboard starts an HTTP server with an upload form that renders, segments, and counts components on uploaded PDF documents."
	dashboardAddressFlagNameConstant = "address"
	dashboardAddressFlagUsage        = "Listen address for the dashboard server."
	bytesPerMegabyteNumber           = 1 << 20
)

// Configuration captures dashboard server settings.
type Configuration struct {
	Address             string  `mapstructure:"address"`
	MaxUploadMegabytes  int     `mapstructure:"max_upload_megabytes"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	CharacterWhitelist  string  `mapstructure:"character_whitelist"`
}

// Sanitize applies defaulting rules to the configuration.
func (configuration Configuration) Sanitize() Configuration {
	if configuration.SimilarityThreshold <= 0 {
		configuration.SimilarityThreshold = imaging.DefaultSimilarityThreshold
	}
	return configuration
}

// CommandBuilder assembles the dashboard command.
type CommandBuilder struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() Configuration
	CommandRunner                execshell.CommandRunner
}

// Build constructs the dashboard command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           dashboardCommandUseConstant,
		Short:         dashboardCommandShortConstant,
		Long:          dashboardCommandLongConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}

	command.Flags().String(dashboardAddressFlagNameConstant, "", dashboardAddressFlagUsage)

	return command, nil
}

func (builder *CommandBuilder) configuration() Configuration {
	if builder.ConfigurationProvider != nil {
		return builder.ConfigurationProvider().Sanitize()
	}
	return Configuration{}.Sanitize()
}

func (builder *CommandBuilder) logger() *zap.Logger {
	if builder.LoggerProvider != nil {
		if logger := builder.LoggerProvider(); logger != nil {
			return logger
		}
	}
	return zap.NewNop()
}

func (builder *CommandBuilder) humanReadableLogging() bool {
	if builder.HumanReadableLoggingProvider != nil {
		return builder.HumanReadableLoggingProvider()
	}
	return false
}

func (builder *CommandBuilder) buildServer(configuration Configuration) (*dashboardserver.Server, error) {
	logger := builder.logger()

	commandRunner := builder.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}
	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, builder.humanReadableLogging())
	if executorError != nil {
		return nil, executorError
	}

	documentConverter, converterError := pdf.NewDocumentConverter(shellExecutor, logger)
	if converterError != nil {
		return nil, converterError
	}

	labelReader, readerError := ocr.NewLabelReader(shellExecutor, logger, configuration.CharacterWhitelist)
	if readerError != nil {
		return nil, readerError
	}

	componentCounter, counterError := ocr.NewComponentCounter(labelReader, logger, configuration.SimilarityThreshold)
	if counterError != nil {
		return nil, counterError
	}

	pageAnalyzer, analyzerError := analysis.NewPageAnalyzer(documentConverter, componentCounter, logger)
	if analyzerError != nil {
		return nil, analyzerError
	}

	serverOptions := dashboardserver.Options{
		ListenAddress:  configuration.Address,
		MaxUploadBytes: int64(configuration.MaxUploadMegabytes) * bytesPerMegabyteNumber,
	}
	return dashboardserver.NewServer(pageAnalyzer, logger, serverOptions)
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.configuration()
	if requestedAddress, addressChanged, addressFlagError := flagutils.StringFlag(command, dashboardAddressFlagNameConstant); addressFlagError == nil && addressChanged {
		configuration.Address = requestedAddress
	}

	server, serverError := builder.buildServer(configuration)
	if serverError != nil {
		return serverError
	}

	executionContext, stopSignalHandling := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignalHandling()

	return server.Run(executionContext)
}
