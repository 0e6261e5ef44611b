package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Clark-Hu/barscore/internal/domain"
	"github.com/Clark-Hu/barscore/internal/repository"
)

// memStore is an in-memory ShiftStore with the same ordering rules as the
// PostgreSQL repository.
type memStore struct {
	mu      sync.Mutex
	seq     int64
	shifts  map[string]domain.Shift
	readErr error
}

func newMemStore() *memStore {
	return &memStore{shifts: make(map[string]domain.Shift)}
}

func (m *memStore) Create(_ context.Context, p repository.ShiftCreateParams) (domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	s := domain.Shift{
		ID:             uuid.NewString(),
		Seq:            m.seq,
		RawShiftInput:  p.Input,
		DerivedMetrics: p.Metrics,
		ScoreTotal:     p.ScoreTotal,
		ScoreVersion:   p.ScoreVersion,
		Breakdown:      p.Breakdown,
		QualityFlags:   p.QualityFlags,
		CreatedAt:      time.Now().UTC(),
	}
	m.shifts[s.ID] = s
	return s, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[id]
	if !ok {
		return domain.Shift{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.shifts, id)
	return nil
}

func (m *memStore) ListByBar(_ context.Context, barID int64, limit int) ([]domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]domain.Shift, 0)
	for _, s := range m.shifts {
		if s.BarID == barID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ShiftDate.Equal(out[j].ShiftDate) {
			return out[i].ShiftDate.After(out[j].ShiftDate)
		}
		return out[i].Seq > out[j].Seq
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListForLeaderboard(_ context.Context, barID int64, start, end *time.Time) ([]domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]domain.Shift, 0)
	for _, s := range m.shifts {
		if s.BarID != barID {
			continue
		}
		if start != nil && s.ShiftDate.Before(*start) {
			continue
		}
		if end != nil && s.ShiftDate.After(*end) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) ListBarIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[int64]struct{})
	for _, s := range m.shifts {
		set[s.BarID] = struct{}{}
	}
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *memStore) ListStale(_ context.Context, barID int64, version string, afterSeq int64, limit int) ([]domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Shift, 0)
	for _, s := range m.shifts {
		if s.BarID == barID && s.ScoreTotal != nil && s.ScoreVersion != version && s.Seq > afterSeq {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ApplyScores(_ context.Context, updates []repository.ScoreUpdate) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range updates {
		s, ok := m.shifts[u.ID]
		if !ok || s.ScoreVersion != u.FromVersion {
			continue
		}
		total := u.Total
		s.ScoreTotal = &total
		s.ScoreVersion = u.Version
		s.Breakdown = u.Breakdown
		m.shifts[u.ID] = s
		n++
	}
	return n, nil
}

var errStoreDown = errors.New("store down")
