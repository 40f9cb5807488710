// ABOUTME: PNG chart drawing for reports: grouped bars, radar, and trend lines.
// ABOUTME: Uses gg with the embedded Go Regular font so output is identical on every host.
package charts

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Palette used across the report.
var (
	Teal      = color.RGBA{R: 0x0d, G: 0x94, B: 0x88, A: 0xff}
	TealLight = color.RGBA{R: 0x0d, G: 0x94, B: 0x88, A: 0x33}
	Slate     = color.RGBA{R: 0xcb, G: 0xd5, B: 0xe1, A: 0xff}
	Grid      = color.RGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}
	Ink       = color.RGBA{R: 0x33, G: 0x41, B: 0x55, A: 0xff}
)

// Series is one named set of values drawn in one color.
type Series struct {
	Name   string
	Values []float64
	Color  color.Color
}

// Renderer draws charts. It is safe for concurrent use; font faces are built per chart.
type Renderer struct {
	font *truetype.Font
	// Scale multiplies every pixel dimension, for sharp output on high-density rasterization.
	Scale float64
}

// NewRenderer parses the embedded font.
func NewRenderer() (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse chart font: %w", err)
	}
	return &Renderer{font: f, Scale: 2}, nil
}

func (r *Renderer) face(size float64) font.Face {
	return truetype.NewFace(r.font, &truetype.Options{
		Size:    size * r.scale(),
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func (r *Renderer) scale() float64 {
	if r.Scale <= 0 {
		return 1
	}
	return r.Scale
}

func (r *Renderer) context(w, h int) (*gg.Context, float64) {
	s := r.scale()
	dc := gg.NewContext(int(float64(w)*s), int(float64(h)*s))
	dc.SetColor(color.White)
	dc.Clear()
	return dc, s
}

// Bar draws grouped vertical bars, one group per label.
func (r *Renderer) Bar(labels []string, series []Series, w, h int) ([]byte, error) {
	dc, s := r.context(w, h)
	face := r.face(10)
	defer face.Close()
	dc.SetFontFace(face)

	left, right, top, bottom := 40*s, 10*s, 24*s, 36*s
	plotW := float64(dc.Width()) - left - right
	plotH := float64(dc.Height()) - top - bottom

	maxV := 0.0
	for _, sr := range series {
		for _, v := range sr.Values {
			maxV = math.Max(maxV, v)
		}
	}
	maxV = niceCeil(maxV)

	drawGrid(dc, left, top, plotW, plotH, maxV, s)

	if n := len(labels); n > 0 && len(series) > 0 {
		group := plotW / float64(n)
		barW := group * 0.7 / float64(len(series))
		for i, label := range labels {
			x0 := left + float64(i)*group + group*0.15
			for j, sr := range series {
				if i >= len(sr.Values) {
					continue
				}
				bh := sr.Values[i] / maxV * plotH
				dc.SetColor(sr.Color)
				dc.DrawRectangle(x0+float64(j)*barW, top+plotH-bh, barW*0.9, bh)
				dc.Fill()
			}
			dc.SetColor(Ink)
			dc.DrawStringAnchored(label, left+float64(i)*group+group/2, top+plotH+12*s, 0.5, 0.5)
		}
	}

	drawLegend(dc, series, left, 12*s, s)
	return encode(dc)
}

// Radar draws a single closed polygon on axes scaled 0..max.
func (r *Renderer) Radar(labels []string, values []float64, maxV float64, w, h int) ([]byte, error) {
	dc, s := r.context(w, h)
	face := r.face(10)
	defer face.Close()
	dc.SetFontFace(face)

	n := len(labels)
	cx, cy := float64(dc.Width())/2, float64(dc.Height())/2
	radius := math.Min(cx, cy) - 40*s
	if n < 3 || radius <= 0 || maxV <= 0 {
		return encode(dc)
	}

	angle := func(i int) float64 {
		return -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
	}

	dc.SetColor(Grid)
	dc.SetLineWidth(1 * s)
	for ring := 1; ring <= 4; ring++ {
		rr := radius * float64(ring) / 4
		for i := 0; i < n; i++ {
			dc.LineTo(cx+rr*math.Cos(angle(i)), cy+rr*math.Sin(angle(i)))
		}
		dc.ClosePath()
		dc.Stroke()
	}
	for i := 0; i < n; i++ {
		dc.DrawLine(cx, cy, cx+radius*math.Cos(angle(i)), cy+radius*math.Sin(angle(i)))
		dc.Stroke()
	}

	for i := 0; i < n; i++ {
		v := 0.0
		if i < len(values) {
			v = math.Min(math.Max(values[i], 0), maxV)
		}
		rr := radius * v / maxV
		dc.LineTo(cx+rr*math.Cos(angle(i)), cy+rr*math.Sin(angle(i)))
	}
	dc.ClosePath()
	dc.SetColor(TealLight)
	dc.FillPreserve()
	dc.SetColor(Teal)
	dc.SetLineWidth(2 * s)
	dc.Stroke()

	dc.SetColor(Ink)
	for i, label := range labels {
		lx := cx + (radius+18*s)*math.Cos(angle(i))
		ly := cy + (radius+18*s)*math.Sin(angle(i))
		dc.DrawStringAnchored(label, lx, ly, 0.5, 0.5)
	}
	return encode(dc)
}

// Line draws one series as a polyline with point markers.
func (r *Renderer) Line(labels []string, values []float64, w, h int) ([]byte, error) {
	dc, s := r.context(w, h)
	face := r.face(10)
	defer face.Close()
	dc.SetFontFace(face)

	left, right, top, bottom := 40*s, 16*s, 16*s, 36*s
	plotW := float64(dc.Width()) - left - right
	plotH := float64(dc.Height()) - top - bottom

	maxV := 100.0
	for _, v := range values {
		maxV = math.Max(maxV, v)
	}
	maxV = niceCeil(maxV)
	drawGrid(dc, left, top, plotW, plotH, maxV, s)

	n := len(values)
	if n == 0 {
		return encode(dc)
	}
	step := plotW
	if n > 1 {
		step = plotW / float64(n-1)
	}
	point := func(i int) (float64, float64) {
		x := left
		if n > 1 {
			x += float64(i) * step
		} else {
			x += plotW / 2
		}
		return x, top + plotH - values[i]/maxV*plotH
	}

	dc.SetColor(Teal)
	dc.SetLineWidth(2 * s)
	for i := range values {
		dc.LineTo(point(i))
	}
	dc.Stroke()
	for i := range values {
		x, y := point(i)
		dc.DrawCircle(x, y, 3*s)
		dc.Fill()
	}

	dc.SetColor(Ink)
	for i, label := range labels {
		if i >= n {
			break
		}
		x, _ := point(i)
		dc.DrawStringAnchored(label, x, top+plotH+12*s, 0.5, 0.5)
	}
	return encode(dc)
}

// Thumbnail scales a PNG down to width w, keeping its aspect ratio.
func Thumbnail(pngBytes []byte, w int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	b := src.Bounds()
	if w <= 0 || w >= b.Dx() {
		return pngBytes, nil
	}
	h := b.Dy() * w / b.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI embeds PNG bytes for use in an <img> src.
func DataURI(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func drawGrid(dc *gg.Context, left, top, plotW, plotH, maxV, s float64) {
	dc.SetLineWidth(1 * s)
	for i := 0; i <= 4; i++ {
		y := top + plotH - plotH*float64(i)/4
		dc.SetColor(Grid)
		dc.DrawLine(left, y, left+plotW, y)
		dc.Stroke()
		dc.SetColor(Ink)
		dc.DrawStringAnchored(formatTick(maxV*float64(i)/4), left-6*s, y, 1, 0.5)
	}
}

func drawLegend(dc *gg.Context, series []Series, x, y, s float64) {
	for _, sr := range series {
		if sr.Name == "" {
			continue
		}
		dc.SetColor(sr.Color)
		dc.DrawRectangle(x, y-5*s, 10*s, 10*s)
		dc.Fill()
		dc.SetColor(Ink)
		dc.DrawStringAnchored(sr.Name, x+14*s, y, 0, 0.5)
		w, _ := dc.MeasureString(sr.Name)
		x += w + 30*s
	}
}

// niceCeil rounds v up to 1, 2, 2.5 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if v <= m*exp {
			return m * exp
		}
	}
	return 10 * exp
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
