package imaging

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
)

const (
	// DefaultSeparatorIntensityThreshold marks column pixels darker than this as separators.
	DefaultSeparatorIntensityThreshold = 250
	// DefaultSeparatorMergeGap clusters separator pixels closer than this many rows.
	DefaultSeparatorMergeGap = 5

	componentFileNameTemplateConstant     = "component_%02d.jpg"
	noSeparatorsMessageConstant           = "no component separators found"
	outputDirectoryErrorTemplateConstant  = "failed to prepare output directory %q: %w"
	componentCropSpacingDivisorNumber     = 3
	outputDirectoryPermissionsOctalNumber = 0o755
)

// ErrNoSeparatorsFound indicates the scanned column held no component rows.
var ErrNoSeparatorsFound = errors.New(noSeparatorsMessageConstant)

// SeparatorScanOptions tune the column scan for component row separators.
type SeparatorScanOptions struct {
	IntensityThreshold uint8
	MergeGap           int
}

func (options SeparatorScanOptions) sanitize() SeparatorScanOptions {
	if options.IntensityThreshold == 0 {
		options.IntensityThreshold = DefaultSeparatorIntensityThreshold
	}
	if options.MergeGap <= 0 {
		options.MergeGap = DefaultSeparatorMergeGap
	}
	return options
}

// ScanSeparators finds component row positions along a fixed column.
//
// Every row whose pixel at columnX is darker than the threshold is a
// candidate; adjacent candidates within the merge gap collapse into one
// separator at the cluster's first row.
func ScanSeparators(pageImage *image.Gray, columnX int, options SeparatorScanOptions) []int {
	sanitizedOptions := options.sanitize()
	bounds := pageImage.Bounds()

	var separatorRows []int
	previousCandidateY := -1

	for pixelY := bounds.Min.Y; pixelY < bounds.Max.Y; pixelY++ {
		if pageImage.GrayAt(columnX, pixelY).Y >= sanitizedOptions.IntensityThreshold {
			continue
		}
		if previousCandidateY < 0 || pixelY-previousCandidateY > sanitizedOptions.MergeGap {
			separatorRows = append(separatorRows, pixelY)
		}
		previousCandidateY = pixelY
	}

	return separatorRows
}

// ExtractComponents crops one image per separator row and saves numbered JPEGs.
//
// Each crop spans the full width of the source image and extends a third of
// the average separator spacing above and below its separator row, clamped to
// the image bounds. Returns the saved file paths in top-to-bottom order.
func ExtractComponents(pageImage *image.Gray, separatorRows []int, outputDirectory string) ([]string, error) {
	if len(separatorRows) == 0 {
		return nil, ErrNoSeparatorsFound
	}

	if mkdirError := os.MkdirAll(outputDirectory, outputDirectoryPermissionsOctalNumber); mkdirError != nil {
		return nil, fmt.Errorf(outputDirectoryErrorTemplateConstant, outputDirectory, mkdirError)
	}

	bounds := pageImage.Bounds()
	cropHalfHeight := averageSeparatorSpacing(separatorRows, bounds.Dy()) / componentCropSpacingDivisorNumber
	if cropHalfHeight < 1 {
		cropHalfHeight = 1
	}

	savedPaths := make([]string, 0, len(separatorRows))
	for separatorIndex, separatorY := range separatorRows {
		cropTop := separatorY - cropHalfHeight
		if cropTop < bounds.Min.Y {
			cropTop = bounds.Min.Y
		}
		cropBottom := separatorY + cropHalfHeight
		if cropBottom > bounds.Max.Y {
			cropBottom = bounds.Max.Y
		}

		cropRectangle := image.Rect(bounds.Min.X, cropTop, bounds.Max.X, cropBottom)
		componentImage := pageImage.SubImage(cropRectangle)

		componentPath := filepath.Join(outputDirectory, fmt.Sprintf(componentFileNameTemplateConstant, separatorIndex+1))
		if saveError := SaveJPEG(componentPath, componentImage); saveError != nil {
			return nil, saveError
		}
		savedPaths = append(savedPaths, componentPath)
	}

	return savedPaths, nil
}

// Crop returns a standalone copy of the rectangle from the source image.
func Crop(sourceImage *image.Gray, cropRectangle image.Rectangle) *image.Gray {
	clipped := cropRectangle.Intersect(sourceImage.Bounds())
	croppedImage := image.NewGray(image.Rect(0, 0, clipped.Dx(), clipped.Dy()))
	for pixelY := 0; pixelY < clipped.Dy(); pixelY++ {
		for pixelX := 0; pixelX < clipped.Dx(); pixelX++ {
			croppedImage.SetGray(pixelX, pixelY, sourceImage.GrayAt(clipped.Min.X+pixelX, clipped.Min.Y+pixelY))
		}
	}
	return croppedImage
}

func averageSeparatorSpacing(separatorRows []int, imageHeight int) int {
	if len(separatorRows) < 2 {
		return imageHeight
	}
	totalSpacing := 0
	for rowIndex := 1; rowIndex < len(separatorRows); rowIndex++ {
		totalSpacing += separatorRows[rowIndex] - separatorRows[rowIndex-1]
	}
	return totalSpacing / (len(separatorRows) - 1)
}
