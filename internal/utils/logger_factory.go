package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	unsupportedLogLevelErrorTemplateConstant  = "unsupported log level %q"
	unsupportedLogFormatErrorTemplateConstant = "unsupported log format %q"
)

// LogLevel enumerates supported logging verbosity levels.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported logging output formats.
type LogFormat string

// Supported log formats.
const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

// LoggerOutputs bundles the diagnostic and console loggers produced by the factory.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds zap loggers for the requested level and format.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory instance.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLoggerOutputs builds diagnostic and console loggers honoring the requested level and format.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLevel LogLevel, requestedFormat LogFormat) (LoggerOutputs, error) {
	resolvedLevel, levelError := resolveLogLevel(requestedLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	normalizedFormat := LogFormat(strings.ToLower(strings.TrimSpace(string(requestedFormat))))
	if len(normalizedFormat) == 0 {
		normalizedFormat = LogFormatStructured
	}

	var diagnosticEncoder zapcore.Encoder
	switch normalizedFormat {
	case LogFormatStructured:
		diagnosticEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case LogFormatConsole:
		consoleEncoderConfiguration := zap.NewDevelopmentEncoderConfig()
		consoleEncoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		diagnosticEncoder = zapcore.NewConsoleEncoder(consoleEncoderConfiguration)
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatErrorTemplateConstant, string(requestedFormat))
	}

	diagnosticCore := zapcore.NewCore(diagnosticEncoder, zapcore.Lock(os.Stderr), resolvedLevel)
	diagnosticLogger := zap.New(diagnosticCore)

	consoleEncoderConfiguration := zapcore.EncoderConfig{
		MessageKey:  "message",
		LineEnding:  zapcore.DefaultLineEnding,
		EncodeLevel: zapcore.CapitalLevelEncoder,
	}
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfiguration), zapcore.Lock(os.Stdout), resolvedLevel)
	consoleLogger := zap.New(consoleCore)

	return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: consoleLogger}, nil
}

func resolveLogLevel(requestedLevel LogLevel) (zapcore.Level, error) {
	normalizedLevel := LogLevel(strings.ToLower(strings.TrimSpace(string(requestedLevel))))
	switch normalizedLevel {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo, LogLevel(""):
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf(unsupportedLogLevelErrorTemplateConstant, string(requestedLevel))
	}
}
