// ABOUTME: Exporter builds view data, renders markup, and rasterizes it to PDF.
// ABOUTME: Failed exports produce no file and are counted per kind.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/observability"
	"github.com/harperreed/minilok/internal/views"
)

// ErrNoElements means the rendered markup had nothing to capture.
var ErrNoElements = errors.New("no report elements to capture")

// ExportError wraps a failure while producing a PDF.
type ExportError struct {
	Kind views.ExportKind
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Kind, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// File is a finished export.
type File struct {
	Name string
	PDF  []byte
}

// Exporter produces report documents and slide decks.
type Exporter struct {
	svc      *views.Service
	renderer *Renderer
	raster   Rasterizer
}

// NewExporter wires the view service, renderer and rasterizer together.
func NewExporter(svc *views.Service, renderer *Renderer, raster Rasterizer) *Exporter {
	return &Exporter{svc: svc, renderer: renderer, raster: raster}
}

// HTML renders the markup for kind without rasterizing it.
func (e *Exporter) HTML(ctx context.Context, kind views.ExportKind, f views.Filter, activityIDs []string) ([]byte, error) {
	switch kind {
	case views.ExportDocument:
		data, err := e.svc.Report(ctx, f, activityIDs)
		if err != nil {
			return nil, err
		}
		return e.renderer.Document(data)
	case views.ExportSlides:
		deck, err := e.svc.Slides(ctx, f, activityIDs)
		if err != nil {
			return nil, err
		}
		return e.renderer.Slides(deck)
	default:
		return nil, fmt.Errorf("%w: unknown export kind %q", models.ErrValidation, kind)
	}
}

// Document exports the portrait report for f.
func (e *Exporter) Document(ctx context.Context, f views.Filter, activityIDs []string) (*File, error) {
	data, err := e.svc.Report(ctx, f, activityIDs)
	if err != nil {
		return nil, err
	}
	activities := make([]*models.Activity, 0, len(data.Monthly))
	for _, row := range data.Monthly {
		activities = append(activities, row.Activity)
	}

	html, err := e.renderer.Document(data)
	if err != nil {
		return nil, e.fail(views.ExportDocument, err)
	}
	return e.rasterize(ctx, views.ExportDocument, html, DocumentSelector, views.ExportFilename(views.ExportDocument, data.Cluster, activities, activityIDs))
}

// Slides exports the landscape deck for f.
func (e *Exporter) Slides(ctx context.Context, f views.Filter, activityIDs []string) (*File, error) {
	deck, err := e.svc.Slides(ctx, f, activityIDs)
	if err != nil {
		return nil, err
	}
	activities := make([]*models.Activity, 0, len(deck.Slides))
	for _, s := range deck.Slides {
		activities = append(activities, s.Activity)
	}

	html, err := e.renderer.Slides(deck)
	if err != nil {
		return nil, e.fail(views.ExportSlides, err)
	}
	return e.rasterize(ctx, views.ExportSlides, html, SlideSelector, views.ExportFilename(views.ExportSlides, deck.Cluster, activities, activityIDs))
}

func (e *Exporter) rasterize(ctx context.Context, kind views.ExportKind, html []byte, selector, name string) (*File, error) {
	start := time.Now()

	var (
		pdf []byte
		err error
	)
	if kind == views.ExportSlides {
		pdf, err = e.raster.Slides(ctx, html, selector)
	} else {
		pdf, err = e.raster.Document(ctx, html, selector)
	}
	if err != nil {
		return nil, e.fail(kind, err)
	}

	observability.RecordExport(string(kind), time.Since(start))
	log.Info().Str("kind", string(kind)).Str("file", name).Int("bytes", len(pdf)).Msg("report exported")
	return &File{Name: name, PDF: pdf}, nil
}

func (e *Exporter) fail(kind views.ExportKind, err error) error {
	observability.RecordExportFailure(string(kind))
	log.Error().Err(err).Str("kind", string(kind)).Msg("report export failed")
	return &ExportError{Kind: kind, Err: err}
}
