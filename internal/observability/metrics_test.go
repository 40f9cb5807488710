// ABOUTME: Tests for the write and export metric helpers.
// ABOUTME: Reads counter values back with prometheus testutil.
package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAchievementSaved(t *testing.T) {
	before := testutil.ToFloat64(achievementsSaved.WithLabelValues("k2"))
	RecordAchievementSaved("k2")
	assert.InDelta(t, before+1, testutil.ToFloat64(achievementsSaved.WithLabelValues("k2")), 1e-9)
	assert.Greater(t, testutil.ToFloat64(lastWriteGauge), 0.0)
}

func TestRecordExport(t *testing.T) {
	before := testutil.ToFloat64(reportsExported.WithLabelValues("slides"))
	RecordExport("slides", 1500*time.Millisecond)
	assert.InDelta(t, before+1, testutil.ToFloat64(reportsExported.WithLabelValues("slides")), 1e-9)

	RecordExportFailure("document")
	assert.GreaterOrEqual(t, testutil.ToFloat64(exportFailures.WithLabelValues("document")), 1.0)
}

func TestRecordWriteIgnoresZeroTime(t *testing.T) {
	RecordWrite(time.Unix(1700000000, 0))
	RecordWrite(time.Time{})
	assert.InDelta(t, 1700000000, testutil.ToFloat64(lastWriteGauge), 1e-9)
}
