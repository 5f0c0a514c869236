package recording

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a recording ID does not exist.
var ErrNotFound = errors.New("recording not found")

// Repository stores call recordings and their analysis results.
// List returns recordings in a deterministic order (recorded_at ascending,
// ID as tiebreaker) so bulk runs process items in a stable sequence.
type Repository interface {
	// Save inserts or replaces a recording by ID.
	Save(ctx context.Context, rec *Recording) error
	// Get returns the recording with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Recording, error)
	// List returns all recordings in deterministic order.
	List(ctx context.Context) ([]*Recording, error)
	// SaveResult attaches one analysis result to a recording.
	SaveResult(ctx context.Context, id string, kind AnalysisKind, result *AnalysisResult) error
}
