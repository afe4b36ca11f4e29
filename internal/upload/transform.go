package upload

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strconv"

	"github.com/nfnt/resize"
)

// defaultQuality is used for the "auto" quality setting.
const defaultQuality = 80

// ErrTooManyPixels is returned by Apply for images whose header declares
// more pixels than the transform allows.
var ErrTooManyPixels = stderrors.New("image exceeds pixel limit")

// Transform describes how blobs are normalized before upload
type Transform struct {
	// Format is "jpg", "jpeg" or "png".
	Format string
	// Quality is "auto" or a JPEG quality between 1 and 100.
	Quality string
	// MaxDimension bounds the longer side in pixels. Zero disables resizing.
	MaxDimension int
	// MaxPixels rejects images larger than width*height before decoding.
	// Zero disables the check.
	MaxPixels int
}

// Output is a transformed blob
type Output struct {
	Data        []byte
	ContentType string
	// Transformed is false when the source format cannot be decoded here
	// and the bytes are passed through unchanged.
	Transformed bool
}

// Apply decodes, bounds and re-encodes b. Formats without a registered
// decoder are passed through; corrupt data in a known format is an error,
// and so is a header declaring more than MaxPixels pixels.
func (t Transform) Apply(b Blob) (Output, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b.Data))
	if stderrors.Is(err, image.ErrFormat) {
		return Output{Data: b.Data, ContentType: b.ContentType}, nil
	}
	if err != nil {
		return Output{}, fmt.Errorf("decode header: %w", err)
	}
	if t.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(t.MaxPixels) {
		return Output{}, fmt.Errorf("%dx%d: %w", cfg.Width, cfg.Height, ErrTooManyPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(b.Data))
	if err != nil {
		return Output{}, fmt.Errorf("decode: %w", err)
	}

	if t.MaxDimension > 0 {
		bounds := img.Bounds()
		w, h := bounds.Dx(), bounds.Dy()
		if w > t.MaxDimension || h > t.MaxDimension {
			if w >= h {
				img = resize.Resize(uint(t.MaxDimension), 0, img, resize.Lanczos3)
			} else {
				img = resize.Resize(0, uint(t.MaxDimension), img, resize.Lanczos3)
			}
		}
	}

	var buf bytes.Buffer
	switch t.Format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return Output{}, fmt.Errorf("encode png: %w", err)
		}
		return Output{Data: buf.Bytes(), ContentType: "image/png", Transformed: true}, nil
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: t.quality()}); err != nil {
			return Output{}, fmt.Errorf("encode jpeg: %w", err)
		}
		return Output{Data: buf.Bytes(), ContentType: "image/jpeg", Transformed: true}, nil
	}
}

func (t Transform) quality() int {
	q, err := strconv.Atoi(t.Quality)
	if err != nil || q < 1 || q > 100 {
		return defaultQuality
	}
	return q
}
