package imaging

import (
	"errors"
	"image"
)

const (
	blackBarIntensityThresholdNumber = 100
	minimumBarWidthNumber            = 3
	verticalTraceGapToleranceNumber  = 1
	barSearchAttemptCountNumber      = 5
	componentAreaInsetNumber         = 30

	componentAreaNotFoundMessageConstant = "component area not found"
)

// ErrComponentAreaNotFound indicates the page holds no recognizable component table.
var ErrComponentAreaNotFound = errors.New(componentAreaNotFoundMessageConstant)

// ComponentArea is the pixel rectangle of the component table on a page image.
type ComponentArea struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Bounds returns the area as an image rectangle.
func (area ComponentArea) Bounds() image.Rectangle {
	return image.Rect(area.Left, area.Top, area.Right, area.Bottom)
}

// FindComponentArea locates the component table rectangle on a grayscale page.
//
// The table is framed by vertical black bars. Starting at the middle row, up
// to barSearchAttemptCountNumber consecutive rows are scanned for the first
// bar at least minimumBarWidthNumber pixels wide; the bar's centre column is
// traced vertically for the frame's extent, and the right-hand edge is the
// first dark pixel scanning right along the frame's top row. Both edges are
// inset so the returned area excludes the frame itself.
func FindComponentArea(pageImage *image.Gray) (ComponentArea, error) {
	bounds := pageImage.Bounds()
	if bounds.Dx() <= 2*componentAreaInsetNumber || bounds.Dy() == 0 {
		return ComponentArea{}, ErrComponentAreaNotFound
	}

	middleRowY := bounds.Min.Y + bounds.Dy()/2

	leftBarX := 0
	leftBarEndX := 0
	leftBarFound := false
	foundRowY := middleRowY
	for attemptIndex := 0; attemptIndex < barSearchAttemptCountNumber; attemptIndex++ {
		candidateRowY := middleRowY + attemptIndex
		if candidateRowY >= bounds.Max.Y {
			break
		}
		if runStartX, runEndX, runFound := scanRowForBar(pageImage, candidateRowY, bounds.Min.X, bounds.Max.X); runFound {
			leftBarX = runStartX
			leftBarEndX = runEndX
			foundRowY = candidateRowY
			leftBarFound = true
			break
		}
	}
	if !leftBarFound {
		return ComponentArea{}, ErrComponentAreaNotFound
	}

	barCenterX := leftBarX + (leftBarEndX-leftBarX+1)/2
	barTopY, barBottomY := traceBarVertically(pageImage, barCenterX, foundRowY)

	rightBarX, rightBarFound := scanRowForDarkPixel(pageImage, barTopY, leftBarEndX+1, bounds.Max.X)
	if !rightBarFound {
		return ComponentArea{}, ErrComponentAreaNotFound
	}

	area := ComponentArea{
		Left:   leftBarX + componentAreaInsetNumber,
		Top:    barTopY,
		Right:  rightBarX - componentAreaInsetNumber,
		Bottom: barBottomY,
	}
	if area.Left >= area.Right || area.Top >= area.Bottom {
		return ComponentArea{}, ErrComponentAreaNotFound
	}
	return area, nil
}

// scanRowForBar returns the first and last x positions of the first run of
// dark pixels at least minimumBarWidthNumber wide within [startX, endX).
func scanRowForBar(pageImage *image.Gray, rowY int, startX int, endX int) (int, int, bool) {
	runStartX := -1
	runLength := 0

	for pixelX := startX; pixelX < endX; pixelX++ {
		if pageImage.GrayAt(pixelX, rowY).Y < blackBarIntensityThresholdNumber {
			if runLength == 0 {
				runStartX = pixelX
			}
			runLength++
			continue
		}
		if runLength >= minimumBarWidthNumber {
			return runStartX, pixelX - 1, true
		}
		runLength = 0
	}
	if runLength >= minimumBarWidthNumber {
		return runStartX, endX - 1, true
	}
	return 0, 0, false
}

// scanRowForDarkPixel returns the x position of the first dark pixel within
// [startX, endX) on rowY.
func scanRowForDarkPixel(pageImage *image.Gray, rowY int, startX int, endX int) (int, bool) {
	for pixelX := startX; pixelX < endX; pixelX++ {
		if pageImage.GrayAt(pixelX, rowY).Y < blackBarIntensityThresholdNumber {
			return pixelX, true
		}
	}
	return 0, false
}

// traceBarVertically walks up and down from rowY along column barX, tolerating
// short gaps in the bar, and returns the bar's top and bottom rows.
func traceBarVertically(pageImage *image.Gray, barX int, rowY int) (int, int) {
	bounds := pageImage.Bounds()

	topY := rowY
	gapRun := 0
	for candidateY := rowY - 1; candidateY >= bounds.Min.Y; candidateY-- {
		if pageImage.GrayAt(barX, candidateY).Y < blackBarIntensityThresholdNumber {
			topY = candidateY
			gapRun = 0
			continue
		}
		gapRun++
		if gapRun > verticalTraceGapToleranceNumber {
			break
		}
	}

	bottomY := rowY
	gapRun = 0
	for candidateY := rowY + 1; candidateY < bounds.Max.Y; candidateY++ {
		if pageImage.GrayAt(barX, candidateY).Y < blackBarIntensityThresholdNumber {
			bottomY = candidateY
			gapRun = 0
			continue
		}
		gapRun++
		if gapRun > verticalTraceGapToleranceNumber {
			break
		}
	}

	return topY, bottomY
}
