// Package ocr reads component labels from extracted images through the
// tesseract command line tool and counts unique components.
package ocr

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/execshell"
)

const (
	stdoutOutputTargetConstant           = "stdout"
	pageSegmentationModeFlagConstant     = "--psm"
	singleLineSegmentationModeConstant   = "7"
	configVariableFlagConstant           = "-c"
	characterWhitelistPrefixConstant     = "tessedit_char_whitelist="
	defaultCharacterWhitelistConstant    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	imagePathRequiredMessageConstant     = "image path must be provided"
	readerExecutorMissingMessageConstant = "label reader executor not configured"
	labelReadLogMessageConstant          = "read component label"
	imagePathLogFieldConstant            = "image"
	labelLogFieldConstant                = "label"
)

// ErrReaderExecutorNotConfigured indicates the reader was built without an executor.
var ErrReaderExecutorNotConfigured = errors.New(readerExecutorMissingMessageConstant)

// RecognitionExecutor runs the tesseract command line tool.
type RecognitionExecutor interface {
	ExecuteTesseract(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// LabelReader extracts a single-line alphanumeric label from a component image.
type LabelReader struct {
	executor           RecognitionExecutor
	logger             *zap.Logger
	characterWhitelist string
}

// NewLabelReader constructs a LabelReader over the provided executor.
//
// An empty whitelist defaults to uppercase letters and digits.
func NewLabelReader(executor RecognitionExecutor, logger *zap.Logger, characterWhitelist string) (*LabelReader, error) {
	if executor == nil {
		return nil, ErrReaderExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(strings.TrimSpace(characterWhitelist)) == 0 {
		characterWhitelist = defaultCharacterWhitelistConstant
	}
	return &LabelReader{executor: executor, logger: logger, characterWhitelist: characterWhitelist}, nil
}

// ReadLabel recognizes the label on the image at imagePath.
//
// Tesseract is invoked in single-line segmentation mode with the configured
// character whitelist; the recognized text is collapsed to a single trimmed
// token. An empty result means no label was recognized.
func (reader *LabelReader) ReadLabel(executionContext context.Context, imagePath string) (string, error) {
	trimmedPath := strings.TrimSpace(imagePath)
	if len(trimmedPath) == 0 {
		return "", errors.New(imagePathRequiredMessageConstant)
	}

	executionResult, executionError := reader.executor.ExecuteTesseract(executionContext, execshell.CommandDetails{
		Arguments: []string{
			trimmedPath,
			stdoutOutputTargetConstant,
			pageSegmentationModeFlagConstant, singleLineSegmentationModeConstant,
			configVariableFlagConstant, characterWhitelistPrefixConstant + reader.characterWhitelist,
		},
	})
	if executionError != nil {
		return "", executionError
	}

	recognizedLabel := normalizeLabel(executionResult.StandardOutput)
	reader.logger.Debug(labelReadLogMessageConstant,
		zap.String(imagePathLogFieldConstant, trimmedPath),
		zap.String(labelLogFieldConstant, recognizedLabel),
	)
	return recognizedLabel, nil
}

func normalizeLabel(rawOutput string) string {
	return strings.ToUpper(strings.Join(strings.Fields(rawOutput), ""))
}
