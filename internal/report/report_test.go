// ABOUTME: Tests for report rendering and the export pipeline.
// ABOUTME: A fake rasterizer stands in for Chrome.
package report

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/minilok/internal/aggregate"
	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/storage"
	"github.com/harperreed/minilok/internal/views"
)

// fakeRaster stands in for Chrome: it only checks the markup has something to capture.
type fakeRaster struct {
	calls    int
	lastHTML string
	err      error
}

func (f *fakeRaster) Document(_ context.Context, html []byte, selector string) ([]byte, error) {
	return f.capture(html, `id="full-report-content"`, selector)
}

func (f *fakeRaster) Slides(_ context.Context, html []byte, selector string) ([]byte, error) {
	return f.capture(html, `class="report-slide"`, selector)
}

func (f *fakeRaster) capture(html []byte, marker, selector string) ([]byte, error) {
	f.calls++
	f.lastHTML = string(html)
	if f.err != nil {
		return nil, f.err
	}
	if !strings.Contains(f.lastHTML, marker) {
		return nil, errors.Join(ErrNoElements, errors.New(selector))
	}
	return []byte("%PDF-1.4 fake"), nil
}

type fixture struct {
	svc      *views.Service
	exporter *Exporter
	raster   *fakeRaster
	acts     []*models.Activity
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(filepath.Join(t.TempDir(), "minilok.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := views.NewService(db, aggregate.Evaluator{})
	renderer, err := NewRenderer()
	require.NoError(t, err)
	raster := &fakeRaster{}

	fx := &fixture{svc: svc, exporter: NewExporter(svc, renderer, raster), raster: raster}
	for _, name := range []string{"Imunisasi Dasar", "Posyandu", "Kunjungan Nifas"} {
		a, err := svc.AddActivity(ctx, models.ActivityInput{ClusterID: "k2", Name: name, TargetValue: 100})
		require.NoError(t, err)
		fx.acts = append(fx.acts, a)
	}
	_, err = svc.RecordAchievement(ctx, fx.acts[0].ID, models.Period{Month: 2, Year: 2025}, "120")
	require.NoError(t, err)
	_, err = svc.RecordAchievement(ctx, fx.acts[1].ID, models.Period{Month: 2, Year: 2025}, "40")
	require.NoError(t, err)
	_, err = svc.SavePdca(ctx, &models.PdcaEntry{
		ActivityID: fx.acts[1].ID, Month: 2, Year: 2025,
		Plan: "Jadwal ulang", Do: "Kunjungan rumah", Check: "Evaluasi", Action: "Lanjutkan",
	})
	require.NoError(t, err)
	return fx
}

var march = views.Filter{ClusterID: "k2", Month: 2, Year: 2025}

func TestDocumentHTML(t *testing.T) {
	fx := setup(t)
	html, err := fx.exporter.HTML(context.Background(), views.ExportDocument, march, nil)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, `id="full-report-content"`)
	assert.Contains(t, out, "LAPORAN CAPAIAN KINERJA - IBU DAN BALITA")
	assert.Contains(t, out, "Periode: Maret 2025")
	assert.Contains(t, out, "120.0%")
	assert.Contains(t, out, "Jadwal ulang")
	assert.Contains(t, out, "Analisis Laba-laba")
	assert.Contains(t, out, "data:image/png;base64,")
	assert.NotContains(t, out, "ZgotmplZ")
}

func TestDocumentHTMLWithoutRadarOrPdca(t *testing.T) {
	fx := setup(t)
	html, err := fx.exporter.HTML(context.Background(), views.ExportDocument, march, []string{fx.acts[0].ID})
	require.NoError(t, err)

	out := string(html)
	assert.NotContains(t, out, "Analisis Laba-laba")
	assert.Contains(t, out, "Tidak ada data PDCA untuk periode ini.")
	assert.NotContains(t, out, "Posyandu")
}

func TestSlidesHTMLPlaceholders(t *testing.T) {
	fx := setup(t)
	html, err := fx.exporter.HTML(context.Background(), views.ExportSlides, march, nil)
	require.NoError(t, err)

	out := string(html)
	assert.Equal(t, 3, strings.Count(out, `class="report-slide"`))
	assert.Contains(t, out, "Kunjungan rumah")
	assert.Contains(t, out, `<div class="text">-</div>`)
}

func TestExportDocumentFilename(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	file, err := fx.exporter.Document(ctx, march, []string{fx.acts[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "Laporan_Imunisasi_Dasar.pdf", file.Name)
	assert.True(t, strings.HasPrefix(string(file.PDF), "%PDF"))

	file, err = fx.exporter.Document(ctx, march, nil)
	require.NoError(t, err)
	assert.Equal(t, "Laporan_Ibu_dan_Balita_Lengkap.pdf", file.Name)
}

func TestExportSlidesFilename(t *testing.T) {
	fx := setup(t)
	file, err := fx.exporter.Slides(context.Background(), march, []string{fx.acts[0].ID, fx.acts[1].ID})
	require.NoError(t, err)
	assert.Equal(t, "Slide_Ibu_dan_Balita_Fokus.pdf", file.Name)
	assert.Equal(t, 2, strings.Count(fx.raster.lastHTML, `class="report-slide"`))
}

func TestExportSlidesWithoutActivities(t *testing.T) {
	fx := setup(t)
	empty := views.Filter{ClusterID: "k4", Month: 2, Year: 2025}

	file, err := fx.exporter.Slides(context.Background(), empty, nil)
	require.Error(t, err)
	assert.Nil(t, file)
	assert.ErrorIs(t, err, ErrNoElements)

	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, views.ExportSlides, exportErr.Kind)
}

func TestExportWrapsRasterizerFailure(t *testing.T) {
	fx := setup(t)
	fx.raster.err = errors.New("browser crashed")

	_, err := fx.exporter.Document(context.Background(), march, nil)
	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Contains(t, err.Error(), "export document: browser crashed")
}

func TestExportRejectsInvalidFilter(t *testing.T) {
	fx := setup(t)
	_, err := fx.exporter.Document(context.Background(), views.Filter{ClusterID: "k9", Month: 0, Year: 2025}, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, fx.raster.calls)

	_, err = fx.exporter.HTML(context.Background(), "poster", march, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}
