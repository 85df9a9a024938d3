package labelme2yolo

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageSizer returns the pixel size of the image at path.
//
// Implementations return an *ImageNotFoundError if there is no file at path.
type ImageSizer interface {
	ImageSize(path string) (width, height int, err error)
}

// HeaderSizer reads the image size from the image header, without decoding pixel data. Any EXIF
// orientation is ignored, so the size of rotated JPEGs is reported as stored, not as displayed.
type HeaderSizer struct{}

// ImageSize implements ImageSizer.
func (HeaderSizer) ImageSize(path string) (int, int, error) {
	config, _, err := decodeImageConfig(path)
	if err != nil {
		return 0, 0, imageError(path, err)
	}
	return config.Width, config.Height, nil
}

// OrientedSizer decodes the image and applies its EXIF orientation, so that the size matches the
// image as displayed and annotated. This is slower than HeaderSizer.
type OrientedSizer struct{}

// ImageSize implements ImageSizer.
func (OrientedSizer) ImageSize(path string) (int, int, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, imageError(path, err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// imageError converts a missing file error into an *ImageNotFoundError.
func imageError(path string, err error) error {
	if os.IsNotExist(err) {
		return &ImageNotFoundError{Path: path}
	}
	return fmt.Errorf("failed to decode the image metadata of %q: %w", path, err)
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}
