// Package codec converts captured images into the forms the backend accepts:
// bounded-size PNG bytes and a base64 data URI.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxDimension bounds the longest edge of a prepared capture.
const DefaultMaxDimension = 1024

// ErrDecode is returned when capture bytes are not a supported image.
var ErrDecode = errors.New("unsupported or corrupt image")

// Capture is a normalized image ready for storage and vision requests.
type Capture struct {
	PNG     []byte
	DataURI string
	Format  string
	Width   int
	Height  int
}

// Prepare decodes data, scales it so neither edge exceeds maxDim, and
// re-encodes it as PNG. A maxDim below one uses DefaultMaxDimension.
func Prepare(data []byte, maxDim int) (*Capture, error) {
	if maxDim < 1 {
		maxDim = DefaultMaxDimension
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	img = Fit(img, maxDim)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	uri, err := DataURI(buf.Bytes())
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &Capture{
		PNG:     buf.Bytes(),
		DataURI: uri,
		Format:  format,
		Width:   b.Dx(),
		Height:  b.Dy(),
	}, nil
}

// Fit downscales img with Catmull-Rom resampling so its longest edge is at
// most maxDim. Smaller images are returned unchanged.
func Fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	if w >= h {
		h = max(h*maxDim/w, 1)
		w = maxDim
	} else {
		w = max(w*maxDim/h, 1)
		h = maxDim
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// DataURI encodes PNG bytes as a data URI.
func DataURI(pngData []byte) (string, error) {
	uri, err := encoding.EncodeImageDataURI(pngData, document.PNG)
	if err != nil {
		return "", fmt.Errorf("encode data uri: %w", err)
	}
	return uri, nil
}

// Extension returns the file extension for a MIME type, defaulting to "bin".
func Extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/mpeg":
		return "mp3"
	case "audio/ogg":
		return "ogg"
	}
	if strings.HasPrefix(mimeType, "audio/L16") {
		return "pcm"
	}
	return "bin"
}
