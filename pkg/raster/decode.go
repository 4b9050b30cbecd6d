package raster

import (
	"bytes"
	"fmt"
	"image"

	"github.com/alde/pagefit/pkg/fit"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// Image types Decode accepts
var decodableTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

// IsImage reports whether data looks like an image Decode can read
func IsImage(data []byte) bool {
	return mimetype.EqualsAny(mimetype.Detect(data).String(), decodableTypes...)
}

// Decode decodes an image, applying its EXIF orientation. Failures wrap
// fit.ErrDecode.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image data", fit.ErrDecode)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), decodableTypes...) {
		return nil, fmt.Errorf("%w: unsupported image type %s", fit.ErrDecode, mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", fit.ErrDecode, mtype.String(), err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", fit.ErrDecode)
	}

	return img, nil
}
