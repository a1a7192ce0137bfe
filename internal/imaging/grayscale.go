// Package imaging implements the raster analysis behind component extraction:
// locating the component table on a rendered page, splitting it into component
// rows, and comparing component crops.
package imaging

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
)

const (
	jpegQualityNumber              = 95
	imageLoadErrorTemplateConstant = "failed to load image %q: %w"
	imageSaveErrorTemplateConstant = "failed to save image %q: %w"
)

// LoadGrayscale reads a PNG or JPEG file and converts it to grayscale.
func LoadGrayscale(filePath string) (*image.Gray, error) {
	fileHandle, openError := os.Open(filePath)
	if openError != nil {
		return nil, fmt.Errorf(imageLoadErrorTemplateConstant, filePath, openError)
	}
	defer func() { _ = fileHandle.Close() }()

	decodedImage, _, decodeError := image.Decode(fileHandle)
	if decodeError != nil {
		return nil, fmt.Errorf(imageLoadErrorTemplateConstant, filePath, decodeError)
	}

	return ToGrayscale(decodedImage), nil
}

// ToGrayscale converts any decoded image to an 8-bit grayscale raster.
func ToGrayscale(sourceImage image.Image) *image.Gray {
	if grayImage, alreadyGray := sourceImage.(*image.Gray); alreadyGray {
		return grayImage
	}

	bounds := sourceImage.Bounds()
	grayImage := image.NewGray(bounds)
	for pixelY := bounds.Min.Y; pixelY < bounds.Max.Y; pixelY++ {
		for pixelX := bounds.Min.X; pixelX < bounds.Max.X; pixelX++ {
			grayImage.Set(pixelX, pixelY, sourceImage.At(pixelX, pixelY))
		}
	}
	return grayImage
}

// SaveJPEG writes an image as a JPEG file.
func SaveJPEG(filePath string, sourceImage image.Image) error {
	fileHandle, createError := os.Create(filePath)
	if createError != nil {
		return fmt.Errorf(imageSaveErrorTemplateConstant, filePath, createError)
	}

	encodeError := jpeg.Encode(fileHandle, sourceImage, &jpeg.Options{Quality: jpegQualityNumber})
	closeError := fileHandle.Close()
	if encodeError != nil {
		return fmt.Errorf(imageSaveErrorTemplateConstant, filePath, encodeError)
	}
	if closeError != nil {
		return fmt.Errorf(imageSaveErrorTemplateConstant, filePath, closeError)
	}
	return nil
}
