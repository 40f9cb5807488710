// ABOUTME: Tests for chart rendering, thumbnails and data URIs.
// ABOUTME: Checks output dimensions at the renderer scale.
package charts

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func decodeSize(t *testing.T, b []byte) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestBarScalesOutput(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Bar([]string{"Imunisasi", "Posyandu"}, []Series{
		{Name: "Target", Values: []float64{100, 12}, Color: Slate},
		{Name: "Capaian", Values: []float64{120, 3}, Color: Teal},
	}, 400, 240)
	require.NoError(t, err)

	w, h := decodeSize(t, out)
	assert.Equal(t, 800, w)
	assert.Equal(t, 480, h)
}

func TestChartsHandleEmptyInput(t *testing.T) {
	r := newRenderer(t)
	r.Scale = 1

	_, err := r.Bar(nil, nil, 200, 100)
	require.NoError(t, err)
	_, err = r.Radar([]string{"a", "b"}, []float64{1, 2}, 100, 200, 200)
	require.NoError(t, err)
	out, err := r.Line(nil, nil, 200, 100)
	require.NoError(t, err)
	w, _ := decodeSize(t, out)
	assert.Equal(t, 200, w)
}

func TestRadarAndLine(t *testing.T) {
	r := newRenderer(t)
	_, err := r.Radar([]string{"A", "B", "C", "D"}, []float64{100, 40, 250, -3}, 100, 300, 300)
	require.NoError(t, err)
	_, err = r.Line([]string{"Januari"}, []float64{80}, 300, 150)
	require.NoError(t, err)
}

func TestThumbnail(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Line([]string{"Jan", "Feb"}, []float64{50, 75}, 400, 200)
	require.NoError(t, err)

	small, err := Thumbnail(out, 200)
	require.NoError(t, err)
	w, h := decodeSize(t, small)
	assert.Equal(t, 200, w)
	assert.Equal(t, 100, h)

	same, err := Thumbnail(out, 5000)
	require.NoError(t, err)
	assert.Equal(t, out, same)
}

func TestNiceCeil(t *testing.T) {
	assert.InDelta(t, 1, niceCeil(0), 1e-9)
	assert.InDelta(t, 200, niceCeil(120), 1e-9)
	assert.InDelta(t, 25, niceCeil(21), 1e-9)
	assert.InDelta(t, 100, niceCeil(100), 1e-9)
}

func TestDataURI(t *testing.T) {
	assert.True(t, strings.HasPrefix(DataURI([]byte{1, 2}), "data:image/png;base64,"))
}
