// Package imgutil decodes user uploads and prepares them for the model APIs.
package imgutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"

	"Picture-Story/server/internal/models"
)

// DefaultJPEGQuality is used when re-encoding formats the model APIs do not accept
const DefaultJPEGQuality = 90

// ErrEmptyUpload is returned for zero-length uploads
var ErrEmptyUpload = errors.New("empty upload")

// passthroughTypes are sent to the model as uploaded
var passthroughTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// DecodeUpload decodes one upload into a models.Image at position index.
// Formats other than png, jpeg and webp are re-encoded as JPEG so the
// bytes handed to the model always use an accepted MIME type.
func DecodeUpload(index int, u models.Upload) (models.Image, error) {
	if len(u.Data) == 0 {
		return models.Image{}, fmt.Errorf("cannot identify image file %q: %w", u.Filename, ErrEmptyUpload)
	}

	img, format, err := image.Decode(bytes.NewReader(u.Data))
	if err != nil {
		return models.Image{}, fmt.Errorf("cannot identify image file %q: %w", u.Filename, err)
	}

	data := u.Data
	mimeType := DetectMIME(u.Data, format)
	if !passthroughTypes[mimeType] {
		data, err = EncodeJPEG(img, DefaultJPEGQuality)
		if err != nil {
			return models.Image{}, fmt.Errorf("failed to re-encode %q: %w", u.Filename, err)
		}
		mimeType = "image/jpeg"
	}

	return models.Image{
		Index:    index,
		Filename: u.Filename,
		MIMEType: mimeType,
		Data:     data,
		Decoded:  img,
	}, nil
}

// DecodeAll decodes uploads in order. The first failure aborts.
func DecodeAll(uploads []models.Upload) ([]models.Image, error) {
	images := make([]models.Image, 0, len(uploads))
	for i, u := range uploads {
		img, err := DecodeUpload(i, u)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// DetectMIME sniffs the content type, falling back to the decoder's format name
func DetectMIME(data []byte, format string) string {
	mimeType := http.DetectContentType(data)
	if strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	if format != "" {
		return "image/" + format
	}
	return mimeType
}

// EncodeJPEG encodes img as JPEG at the given quality
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
