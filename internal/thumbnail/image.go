package thumbnail

import (
	"fmt"
	"image"
	"os"

	"media-picker/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the maximum width or height decoded without
	// constraint; larger images are downscaled as they load.
	MaxImageDimension = 4096

	// MaxImagePixels caps total pixels (width * height). A 20MP RGBA
	// frame is about 80MB, which is as much as this path may hold.
	MaxImagePixels = 20_000_000
)

// LoadDisplayImage decodes an image for display at no more than
// maxW x maxH. It prefers libvips shrink-on-load when available, and
// otherwise decodes with dimension constraints before a final fit.
func LoadDisplayImage(path string, maxW, maxH int) (image.Image, error) {
	if IsVipsAvailable() {
		img, err := loadWithVips(path, maxW, maxH)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips load failed for %s: %v, falling back to constrained decode", path, err)
	}

	img, err := loadConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, err
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos), nil
}

// loadConstrained loads an image, downscaling if it exceeds the limits.
// This keeps oversized camera images from blowing out the heap.
func loadConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dims, err := imageDimensions(path)
	if err != nil {
		logging.Debug("Could not read dimensions of %s: %v", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	width, height := dims.Width, dims.Height
	pixels := width * height

	if width <= maxDimension && height <= maxDimension && pixels <= maxPixels {
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	if targetWidth*targetHeight > maxPixels {
		scale := float64(maxPixels) / float64(targetWidth*targetHeight)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	logging.Info("Constraining large image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

type dimensions struct {
	Width  int
	Height int
}

// imageDimensions reads image dimensions without decoding pixel data.
func imageDimensions(path string) (*dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}
	return &dimensions{Width: config.Width, Height: config.Height}, nil
}
