package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Picture-Story/server/internal/models"
)

// createDummyImageData builds a 10x10 red square in the given format
func createDummyImageData(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	case "gif":
		err = gif.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeUpload(t *testing.T) {
	t.Run("png passes through unchanged", func(t *testing.T) {
		data := createDummyImageData(t, "png")
		img, err := DecodeUpload(3, models.Upload{Filename: "a.png", Data: data})
		require.NoError(t, err)
		assert.Equal(t, 3, img.Index)
		assert.Equal(t, "image/png", img.MIMEType)
		assert.Equal(t, data, img.Data)
		assert.Equal(t, 10, img.Width())
		assert.Equal(t, 10, img.Height())
	})

	t.Run("jpeg passes through unchanged", func(t *testing.T) {
		data := createDummyImageData(t, "jpeg")
		img, err := DecodeUpload(0, models.Upload{Filename: "b.jpg", Data: data})
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", img.MIMEType)
		assert.Equal(t, data, img.Data)
	})

	t.Run("gif is re-encoded as jpeg", func(t *testing.T) {
		data := createDummyImageData(t, "gif")
		img, err := DecodeUpload(0, models.Upload{Filename: "c.gif", Data: data})
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", img.MIMEType)
		_, format, err := image.Decode(bytes.NewReader(img.Data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
	})

	t.Run("garbage fails", func(t *testing.T) {
		_, err := DecodeUpload(0, models.Upload{Filename: "x.png", Data: []byte("this is not an image")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "x.png")
	})

	t.Run("empty fails", func(t *testing.T) {
		_, err := DecodeUpload(0, models.Upload{Filename: "y.png"})
		assert.ErrorIs(t, err, ErrEmptyUpload)
	})
}

func TestDecodeAll_PreservesOrder(t *testing.T) {
	uploads := []models.Upload{
		{Filename: "1.png", Data: createDummyImageData(t, "png")},
		{Filename: "2.jpg", Data: createDummyImageData(t, "jpeg")},
		{Filename: "3.png", Data: createDummyImageData(t, "png")},
	}
	images, err := DecodeAll(uploads)
	require.NoError(t, err)
	require.Len(t, images, 3)
	for i, img := range images {
		assert.Equal(t, i, img.Index)
		assert.Equal(t, uploads[i].Filename, img.Filename)
	}
}
