package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/docrun/internal/imaging"
)

const (
	counterReaderMissingMessageConstant   = "component counter reader not configured"
	componentDirectoryErrorTemplate       = "failed to read component directory %q: %w"
	noComponentImagesMessageTemplate      = "no component images found in %q"
	unlabeledComponentPlaceholderConstant = "(unlabeled)"
	componentCountedLogMessageConstant    = "counted component"
	duplicateFoldedLogMessageConstant     = "folded duplicate component"
	componentLogFieldConstant             = "component"
)

// ErrCounterReaderNotConfigured indicates the counter was built without a label reader.
var ErrCounterReaderNotConfigured = errors.New(counterReaderMissingMessageConstant)

// ComponentTally records how many times one unique component was seen.
type ComponentTally struct {
	Label       string
	SampleImage string
	Occurrences int
}

// CountReport summarizes unique components across a directory of crops.
type CountReport struct {
	Tallies        []ComponentTally
	TotalImages    int
	UniqueCount    int
	DuplicateCount int
}

// ComponentCounter folds duplicate component images into per-label tallies.
//
// Two images are the same component only when their recognized labels match
// and the images themselves compare as similar; matching labels on visually
// different crops stay separate components.
type ComponentCounter struct {
	reader              *LabelReader
	logger              *zap.Logger
	similarityThreshold float64
}

// NewComponentCounter constructs a ComponentCounter over the provided reader.
func NewComponentCounter(reader *LabelReader, logger *zap.Logger, similarityThreshold float64) (*ComponentCounter, error) {
	if reader == nil {
		return nil, ErrCounterReaderNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComponentCounter{reader: reader, logger: logger, similarityThreshold: similarityThreshold}, nil
}

type seenComponent struct {
	label      string
	image      *image.Gray
	tallyIndex int
}

// CountDirectory tallies unique components among the images in a directory.
//
// Images are visited in sorted file-name order so extraction order is
// preserved deterministically.
func (counter *ComponentCounter) CountDirectory(executionContext context.Context, directoryPath string) (CountReport, error) {
	imagePaths, listError := listComponentImages(directoryPath)
	if listError != nil {
		return CountReport{}, listError
	}
	if len(imagePaths) == 0 {
		return CountReport{}, fmt.Errorf(noComponentImagesMessageTemplate, directoryPath)
	}

	report := CountReport{TotalImages: len(imagePaths)}
	var seenComponents []seenComponent

	for _, imagePath := range imagePaths {
		recognizedLabel, readError := counter.reader.ReadLabel(executionContext, imagePath)
		if readError != nil {
			return CountReport{}, readError
		}
		if len(recognizedLabel) == 0 {
			recognizedLabel = unlabeledComponentPlaceholderConstant
		}

		componentImage, loadError := imaging.LoadGrayscale(imagePath)
		if loadError != nil {
			return CountReport{}, loadError
		}

		matchedIndex := -1
		for seenIndex := range seenComponents {
			if seenComponents[seenIndex].label != recognizedLabel {
				continue
			}
			if imaging.Similar(seenComponents[seenIndex].image, componentImage, counter.similarityThreshold) {
				matchedIndex = seenIndex
				break
			}
		}

		if matchedIndex >= 0 {
			report.Tallies[seenComponents[matchedIndex].tallyIndex].Occurrences++
			report.DuplicateCount++
			counter.logger.Debug(duplicateFoldedLogMessageConstant, zap.String(componentLogFieldConstant, recognizedLabel))
			continue
		}

		report.Tallies = append(report.Tallies, ComponentTally{
			Label:       recognizedLabel,
			SampleImage: imagePath,
			Occurrences: 1,
		})
		seenComponents = append(seenComponents, seenComponent{
			label:      recognizedLabel,
			image:      componentImage,
			tallyIndex: len(report.Tallies) - 1,
		})
		counter.logger.Debug(componentCountedLogMessageConstant, zap.String(componentLogFieldConstant, recognizedLabel))
	}

	report.UniqueCount = len(report.Tallies)
	return report, nil
}

func listComponentImages(directoryPath string) ([]string, error) {
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return nil, fmt.Errorf(componentDirectoryErrorTemplate, directoryPath, readError)
	}

	var imagePaths []string
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(directoryEntry.Name())) {
		case ".jpg", ".jpeg", ".png":
			imagePaths = append(imagePaths, filepath.Join(directoryPath, directoryEntry.Name()))
		}
	}

	sort.Strings(imagePaths)
	return imagePaths, nil
}
