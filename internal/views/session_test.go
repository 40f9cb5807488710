// ABOUTME: Tests for the selection session and its staleness guard.
// ABOUTME: Loads started before a selection change must return ErrStale.
package views

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectResetsExportFilterOnClusterChange(t *testing.T) {
	s := NewSession(Filter{ClusterID: "k1", Month: 0, Year: 2025})
	s.SetExportFilter([]string{"a", "b", "a", ""})
	assert.Equal(t, []string{"a", "b"}, s.Current().ExportFilter)

	sel, err := s.Select(Filter{ClusterID: "k1", Month: 1, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sel.ExportFilter)

	sel, err = s.Select(Filter{ClusterID: "k2", Month: 1, Year: 2025})
	require.NoError(t, err)
	assert.Empty(t, sel.ExportFilter)
	assert.Equal(t, uint64(3), sel.Generation)
}

func TestSelectRejectsInvalidFilter(t *testing.T) {
	s := NewSession(Filter{ClusterID: "k1", Month: 0, Year: 2025})
	_, err := s.Select(Filter{ClusterID: "k1", Month: 12, Year: 2025})
	assert.Error(t, err)
	assert.Equal(t, uint64(1), s.Current().Generation)
}

func TestToggleExport(t *testing.T) {
	s := NewSession(Filter{ClusterID: "k1", Month: 0, Year: 2025})
	s.ToggleExport("a")
	s.ToggleExport("b")
	sel := s.ToggleExport("a")
	assert.Equal(t, []string{"b"}, sel.ExportFilter)
}

func TestLoadDiscardsStaleResult(t *testing.T) {
	s := NewSession(Filter{ClusterID: "k1", Month: 0, Year: 2025})

	var cause error
	_, err := Load(context.Background(), s, func(ctx context.Context, sel Selection) (string, error) {
		assert.Equal(t, "k1", sel.ClusterID)
		_, selErr := s.Select(Filter{ClusterID: "k2", Month: 0, Year: 2025})
		require.NoError(t, selErr)
		<-ctx.Done()
		cause = context.Cause(ctx)
		return "k1 result", nil
	})
	assert.ErrorIs(t, err, ErrStale)
	assert.True(t, errors.Is(cause, ErrStale))

	got, err := Load(context.Background(), s, func(_ context.Context, sel Selection) (string, error) {
		return sel.ClusterID + " result", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "k2 result", got)
}

func TestLoadConcurrentSelections(t *testing.T) {
	s := NewSession(Filter{ClusterID: "k1", Month: 0, Year: 2025})
	release := make(chan struct{})

	var wg, started sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		started.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = Load(context.Background(), s, func(ctx context.Context, _ Selection) (int, error) {
				started.Done()
				select {
				case <-release:
					return i, nil
				case <-ctx.Done():
					return 0, ctx.Err()
				}
			})
		}(i)
	}

	started.Wait()
	_, err := s.Select(Filter{ClusterID: "k3", Month: 5, Year: 2026})
	require.NoError(t, err)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrStale)
	}
	assert.Empty(t, s.inflight)
}
