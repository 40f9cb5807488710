// ABOUTME: Renders report and slide data to standalone HTML with inlined chart images.
// ABOUTME: The markup is what the rasterizer screenshots into PDF pages.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harperreed/minilok/internal/charts"
	"github.com/harperreed/minilok/internal/views"
)

// Selectors the rasterizer captures.
const (
	DocumentSelector = "#full-report-content"
	SlideSelector    = ".report-slide"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var funcs = template.FuncMap{
	"num": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"date": func(t time.Time) string {
		return t.Format("2/1/2006")
	},
	"upper": func(s string) string { return cases.Upper(language.Indonesian).String(s) },
}

var templates = template.Must(template.New("report").Funcs(funcs).ParseFS(templateFS, "templates/*.html.tmpl"))

// Renderer turns view data into report markup.
type Renderer struct {
	charts *charts.Renderer
}

// NewRenderer creates a renderer with its chart drawer.
func NewRenderer() (*Renderer, error) {
	c, err := charts.NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Renderer{charts: c}, nil
}

type documentPage struct {
	Data  *views.ReportData
	Bar   template.URL
	Radar template.URL
}

// Document renders the single-page report.
func (r *Renderer) Document(data *views.ReportData) ([]byte, error) {
	labels := make([]string, len(data.Bar))
	targets := make([]float64, len(data.Bar))
	values := make([]float64, len(data.Bar))
	for i, p := range data.Bar {
		labels[i], targets[i], values[i] = p.Label, p.Target, p.Value
	}
	bar, err := r.charts.Bar(labels, []charts.Series{
		{Name: "Target", Values: targets, Color: charts.Slate},
		{Name: "Capaian", Values: values, Color: charts.Teal},
	}, 720, 360)
	if err != nil {
		return nil, fmt.Errorf("draw bar chart: %w", err)
	}

	page := documentPage{Data: data, Bar: dataURL(bar)}
	if data.ShowRadar() {
		rl := make([]string, len(data.Radar))
		rv := make([]float64, len(data.Radar))
		for i, p := range data.Radar {
			rl[i], rv[i] = p.Label, p.Percent
		}
		radar, err := r.charts.Radar(rl, rv, 100, 360, 360)
		if err != nil {
			return nil, fmt.Errorf("draw radar chart: %w", err)
		}
		page.Radar = dataURL(radar)
	}
	return execute("document.html.tmpl", page)
}

type slidePage struct {
	Slide   views.Slide
	Bar     template.URL
	History template.URL
}

type deckPage struct {
	Deck   *views.SlideDeck
	Slides []slidePage
}

// Slides renders one .report-slide element per slide in the deck.
func (r *Renderer) Slides(deck *views.SlideDeck) ([]byte, error) {
	page := deckPage{Deck: deck, Slides: make([]slidePage, 0, len(deck.Slides))}
	for _, s := range deck.Slides {
		bar, err := r.charts.Bar([]string{"Target", "Capaian"}, []charts.Series{
			{Values: []float64{s.Score.Target, 0}, Color: charts.Slate},
			{Values: []float64{0, s.Score.Value}, Color: charts.Teal},
		}, 480, 260)
		if err != nil {
			return nil, fmt.Errorf("draw slide bar for %s: %w", s.Activity.ID, err)
		}

		labels := make([]string, len(s.History))
		values := make([]float64, len(s.History))
		for i, p := range s.History {
			labels[i], values[i] = p.Label, p.Percent
		}
		var history []byte
		if len(s.History) >= 3 {
			history, err = r.charts.Radar(labels, values, 100, 480, 300)
		} else {
			history, err = r.charts.Line(labels, values, 480, 260)
		}
		if err != nil {
			return nil, fmt.Errorf("draw slide history for %s: %w", s.Activity.ID, err)
		}

		page.Slides = append(page.Slides, slidePage{Slide: s, Bar: dataURL(bar), History: dataURL(history)})
	}
	return execute("slides.html.tmpl", page)
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// dataURL marks an inlined chart as safe for an img src.
func dataURL(png []byte) template.URL {
	return template.URL(charts.DataURI(png))
}
