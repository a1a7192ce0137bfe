package imaging

import "image"

// DefaultSimilarityThreshold is the normalized difference below which two
// images are considered the same component.
const DefaultSimilarityThreshold = 0.5

// DifferenceRatio reports the normalized mean absolute pixel difference
// between two grayscale images: 0 for identical images, 1 for maximal
// difference. Images with mismatched dimensions are maximally different.
func DifferenceRatio(firstImage *image.Gray, secondImage *image.Gray) float64 {
	firstBounds := firstImage.Bounds()
	secondBounds := secondImage.Bounds()
	if firstBounds.Dx() != secondBounds.Dx() || firstBounds.Dy() != secondBounds.Dy() {
		return 1
	}

	pixelCount := firstBounds.Dx() * firstBounds.Dy()
	if pixelCount == 0 {
		return 0
	}

	totalDifference := 0
	for pixelY := 0; pixelY < firstBounds.Dy(); pixelY++ {
		for pixelX := 0; pixelX < firstBounds.Dx(); pixelX++ {
			firstIntensity := int(firstImage.GrayAt(firstBounds.Min.X+pixelX, firstBounds.Min.Y+pixelY).Y)
			secondIntensity := int(secondImage.GrayAt(secondBounds.Min.X+pixelX, secondBounds.Min.Y+pixelY).Y)
			difference := firstIntensity - secondIntensity
			if difference < 0 {
				difference = -difference
			}
			totalDifference += difference
		}
	}

	return float64(totalDifference) / float64(pixelCount*255)
}

// Similar reports whether two grayscale images depict the same component
// under the provided difference threshold. A non-positive threshold falls
// back to the default.
func Similar(firstImage *image.Gray, secondImage *image.Gray, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return DifferenceRatio(firstImage, secondImage) < threshold
}
