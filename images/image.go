// Package images - decoding and preprocessing for classifier inputs. Raw
// bytes are sniffed and decoded here, then a Transform turns the decoded
// frame into the normalized CHW float32 layout the runtime consumes.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// Format represents supported image formats.
type Format string

const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG Format = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG Format = "png"
	// FormatWebP is the WebP image format.
	FormatWebP Format = "webp"
)

// Image represents an encoded input image with metadata.
type Image struct {
	// The format of the image.
	Format Format `json:"format" yaml:"format"`
	// The encoded bytes of the image.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image, if known.
	Width int `json:"width" yaml:"width"`
	// The height of the image, if known.
	Height int `json:"height" yaml:"height"`
}

// DetectFormat sniffs the format from the leading magic bytes.
func DetectFormat(data []byte) (Format, error) {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG, nil
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return FormatPNG, nil
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("unrecognized image format (%d bytes)", len(data))
	}
}

// Decode decodes encoded image bytes into a Go-native image.Image,
// sniffing the format from the data.
//
// Arguments:
//   - data: The encoded image bytes (JPEG, PNG or WebP).
//
// Returns:
//   - image.Image: The decoded image.
//   - Format: The detected format.
//   - error: An error if the data is empty, unrecognized or malformed.
func Decode(data []byte) (image.Image, Format, error) {
	if len(data) == 0 {
		return nil, "", errors.New("empty image data")
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, "", err
	}

	var img image.Image
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, format, errors.Wrapf(err, "failed to decode %s image", format)
	}
	return img, format, nil
}

// DecodeFile reads and decodes an image file from disk.
func DecodeFile(path string) (image.Image, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read image file")
	}
	return Decode(data)
}

// Load reads an image file and wraps it with detected metadata. The decoded
// pixels are discarded; use Decode or DecodeFile when they are needed.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image file")
	}
	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	return &Image{
		Format: format,
		Data:   data,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
