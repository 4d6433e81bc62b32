package models

import (
	"bytes"
	"encoding/base64"
	"image"
	"path/filepath"
	"strings"
)

// Upload is one raw file received from the shell, before decoding
type Upload struct {
	Filename string
	Data     []byte
}

// AllowedExtensions are the file types accepted by the upload control
var AllowedExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// HasAllowedExtension reports whether the upload's filename carries one of
// AllowedExtensions. Comparison is case-insensitive.
func (u Upload) HasAllowedExtension() bool {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Image is a decoded user image. Index is its zero-based upload position.
type Image struct {
	Index    int
	Filename string
	MIMEType string
	Data     []byte
	Decoded  image.Image
}

// Width returns the decoded width in pixels
func (i Image) Width() int {
	if i.Decoded == nil {
		return 0
	}
	return i.Decoded.Bounds().Dx()
}

// Height returns the decoded height in pixels
func (i Image) Height() int {
	if i.Decoded == nil {
		return 0
	}
	return i.Decoded.Bounds().Dy()
}

// DataURL encodes the image bytes for inline rendering
func (i Image) DataURL() string {
	return dataURL(i.MIMEType, i.Data)
}

// Audio holds synthesized narration in memory
type Audio struct {
	Data     []byte
	MIMEType string
}

// Reader returns a reader positioned at the start of the audio
func (a *Audio) Reader() *bytes.Reader {
	return bytes.NewReader(a.Data)
}

// Size returns the audio length in bytes
func (a *Audio) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// DataURL encodes the audio for an inline <audio> element
func (a *Audio) DataURL() string {
	return dataURL(a.MIMEType, a.Data)
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
