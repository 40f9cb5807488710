// ABOUTME: Current cluster/period selection with a staleness guard for loads.
// ABOUTME: Results computed for a selection that has since changed are discarded.
package views

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrStale is returned when a load finished after the selection it was started for changed.
var ErrStale = errors.New("selection changed while loading")

// Selection is the filter currently shown plus the activities picked for export.
type Selection struct {
	Filter
	ExportFilter []string `json:"exportFilter"`
	Generation   uint64   `json:"generation"`
}

// Session holds one user's selection. Safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	sel      Selection
	inflight map[uint64]map[uint64]context.CancelCauseFunc
	nextLoad uint64
}

// NewSession starts a session at f.
func NewSession(f Filter) *Session {
	return &Session{
		sel:      Selection{Filter: f, ExportFilter: []string{}, Generation: 1},
		inflight: make(map[uint64]map[uint64]context.CancelCauseFunc),
	}
}

// Current returns a copy of the selection.
func (s *Session) Current() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Session) copyLocked() Selection {
	sel := s.sel
	sel.ExportFilter = slices.Clone(s.sel.ExportFilter)
	return sel
}

// Select switches to f. Changing the cluster clears the export filter. Loads
// started for the previous selection are cancelled.
func (s *Session) Select(f Filter) (Selection, error) {
	if err := f.Validate(); err != nil {
		return Selection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f == s.sel.Filter {
		return s.copyLocked(), nil
	}
	if f.ClusterID != s.sel.ClusterID {
		s.sel.ExportFilter = []string{}
	}
	s.sel.Filter = f
	s.advanceLocked()
	return s.copyLocked(), nil
}

// SetExportFilter replaces the activities picked for export.
func (s *Session) SetExportFilter(ids []string) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	s.sel.ExportFilter = out
	return s.copyLocked()
}

// ToggleExport adds id to the export filter, or removes it if already picked.
func (s *Session) ToggleExport(id string) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := slices.Index(s.sel.ExportFilter, id); i >= 0 {
		s.sel.ExportFilter = slices.Delete(s.sel.ExportFilter, i, i+1)
	} else {
		s.sel.ExportFilter = append(s.sel.ExportFilter, id)
	}
	return s.copyLocked()
}

func (s *Session) advanceLocked() {
	for _, cancel := range s.inflight[s.sel.Generation] {
		cancel(ErrStale)
	}
	delete(s.inflight, s.sel.Generation)
	s.sel.Generation++
}

func (s *Session) begin(ctx context.Context) (context.Context, Selection, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.copyLocked()
	loadCtx, cancel := context.WithCancelCause(ctx)
	s.nextLoad++
	id := s.nextLoad
	if s.inflight[sel.Generation] == nil {
		s.inflight[sel.Generation] = make(map[uint64]context.CancelCauseFunc)
	}
	s.inflight[sel.Generation][id] = cancel

	return loadCtx, sel, func() {
		cancel(nil)
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inflight[sel.Generation], id)
		if len(s.inflight[sel.Generation]) == 0 {
			delete(s.inflight, sel.Generation)
		}
	}
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.Generation == gen
}

// Load runs fn for the current selection. When the selection changes before fn
// returns, its context is cancelled and the result is discarded with ErrStale.
func Load[T any](ctx context.Context, s *Session, fn func(context.Context, Selection) (T, error)) (T, error) {
	var zero T
	loadCtx, sel, done := s.begin(ctx)
	defer done()

	v, err := fn(loadCtx, sel)
	if !s.isCurrent(sel.Generation) {
		return zero, ErrStale
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}
