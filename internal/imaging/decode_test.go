package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDataURLRoundTrip(t *testing.T) {
	data := pngBytes(t, 4, 3)

	url := EncodeDataURL("png", data)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	decoded, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestDecodeDataURLRejectsGarbage(t *testing.T) {
	_, err := DecodeDataURL("just some text")
	assert.Error(t, err)

	_, err = DecodeDataURL("data:image/png;base64,!!!not-base64!!!")
	assert.Error(t, err)
}

func TestSniff(t *testing.T) {
	t.Run("png dimensions", func(t *testing.T) {
		meta := Sniff("png", pngBytes(t, 640, 480))
		assert.Equal(t, "png", meta.Format)
		assert.Equal(t, 640, meta.Width)
		assert.Equal(t, 480, meta.Height)
	})

	t.Run("svg keeps zero dimensions", func(t *testing.T) {
		meta := Sniff("svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))
		assert.Equal(t, "svg", meta.Format)
		assert.Zero(t, meta.Width)
		assert.Zero(t, meta.Height)
	})

	t.Run("undecodable payload keeps claimed format", func(t *testing.T) {
		meta := Sniff("png", []byte("not an image"))
		assert.Equal(t, "png", meta.Format)
		assert.Zero(t, meta.Width)
	})
}

func TestEncodeDataURLMimeTypes(t *testing.T) {
	assert.Contains(t, EncodeDataURL("jpeg", []byte{1}), "data:image/jpeg;base64,")
	assert.Contains(t, EncodeDataURL("gif", []byte{1}), "data:image/gif;base64,")
	assert.Contains(t, EncodeDataURL("svg", []byte{1}), "data:image/svg+xml;base64,")
}
