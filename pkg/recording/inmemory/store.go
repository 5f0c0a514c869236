// Package inmemory is a map-backed recording repository used in tests and
// in the demo when no database is configured.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	recording "github.com/callscope/callscope/pkg/recording"
)

// Store keeps recordings in memory behind a RWMutex.
type Store struct {
	mu   sync.RWMutex
	recs map[string]*recording.Recording
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{recs: make(map[string]*recording.Recording)}
}

// Save implements recording.Repository.
func (s *Store) Save(_ context.Context, rec *recording.Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.UpdatedAt = time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	s.recs[cp.ID] = &cp
	return nil
}

// Get implements recording.Repository.
func (s *Store) Get(_ context.Context, id string) (*recording.Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, recording.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// List implements recording.Repository. Ordering is recorded_at ascending
// with ID as tiebreaker.
func (s *Store) List(_ context.Context) ([]*recording.Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*recording.Recording, 0, len(s.recs))
	for _, rec := range s.recs {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveResult implements recording.Repository.
func (s *Store) SaveResult(_ context.Context, id string, kind recording.AnalysisKind, result *recording.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return recording.ErrNotFound
	}
	if err := rec.SetResult(kind, result); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()
	return nil
}

var _ recording.Repository = (*Store)(nil)
