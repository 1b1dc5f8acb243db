package photometa

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestInspectPNG(t *testing.T) {
	meta, err := Inspect(encodePNG(t, 40, 20))
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 40, meta.Width)
	assert.Equal(t, 20, meta.Height)
	assert.Equal(t, 1, meta.Orientation)
	assert.Nil(t, meta.TakenAt)
}

func TestInspectJPEGWithoutExif(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	meta, err := Inspect(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", meta.Format)
	assert.Equal(t, 16, meta.Width)
	assert.Equal(t, 8, meta.Height)
	assert.Nil(t, meta.Latitude)
}

func TestInspectRejectsGarbage(t *testing.T) {
	_, err := Inspect([]byte("not an image"))
	assert.ErrorIs(t, err, ErrNotImage)
}
