package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/terrain-ouvert/datahub/internal/pkg/errors"
)

// Blob is one file of an upload batch
type Blob struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// FromMultipart reads uploaded files. A file larger than maxSize is not
// read past the limit; its Size still reports the excess so validation can
// reject it.
func FromMultipart(files []*multipart.FileHeader, maxSize int64) ([]Blob, error) {
	blobs := make([]Blob, 0, len(files))
	for i, fh := range files {
		b := Blob{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		}
		if fh.Size > maxSize {
			blobs = append(blobs, b)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			return nil, errors.BadRequest(fmt.Sprintf("image %d could not be read", i+1))
		}
		data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
		f.Close()
		if err != nil {
			return nil, errors.BadRequest(fmt.Sprintf("image %d could not be read", i+1))
		}
		b.Data = data
		b.Size = int64(len(data))
		blobs = append(blobs, b)
	}
	return blobs, nil
}

// CheckCount rejects batches of more than maxFiles files
func CheckCount(n, maxFiles int) error {
	if n > maxFiles {
		return errors.ValidationError(
			fmt.Sprintf("At most %d images may be uploaded", maxFiles),
			map[string]interface{}{"count": n, "max": maxFiles},
		)
	}
	return nil
}

// Validate checks count, size and type of every blob. It performs no I/O.
func Validate(blobs []Blob, maxFiles int, maxSize int64) error {
	if err := CheckCount(len(blobs), maxFiles); err != nil {
		return err
	}

	for i, b := range blobs {
		details := map[string]interface{}{"index": i, "filename": b.Filename}
		if b.Size > maxSize || int64(len(b.Data)) > maxSize {
			details["max_size"] = maxSize
			return errors.ValidationError(
				fmt.Sprintf("Image %d exceeds the %d MiB limit", i+1, maxSize>>20),
				details,
			)
		}
		if b.ContentType != "" && !isImage(b.ContentType) {
			details["content_type"] = b.ContentType
			return errors.ValidationError(fmt.Sprintf("File %d is not an image", i+1), details)
		}
		detected := mimetype.Detect(b.Data).String()
		if !isImage(detected) {
			details["content_type"] = detected
			return errors.ValidationError(fmt.Sprintf("File %d is not an image", i+1), details)
		}
	}
	return nil
}

func isImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
