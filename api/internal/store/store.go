// Package store persists run artifacts.
package store

import (
	"context"
	"errors"
	"sort"

	"assessment-pipeline/api/internal/types"
)

var ErrNotFound = errors.New("artifact not found")

// DefaultListLimit applies when a caller passes a non-positive limit.
const DefaultListLimit = 50

// Repository is a keyed document store for RunArtifacts. Save is an upsert by
// run id; concurrent saves of the same id are last-writer-wins.
type Repository interface {
	Save(ctx context.Context, a types.RunArtifact) (string, error)
	Get(ctx context.Context, runID string) (types.RunArtifact, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]types.RunArtifact, error)
	ListAll(ctx context.Context, limit int) ([]types.RunArtifact, error)
	Stats(ctx context.Context) (types.Stats, error)
	Clear(ctx context.Context) error
}

// sortRecent orders newest first; run id breaks ties so the order is stable.
func sortRecent(as []types.RunArtifact) {
	sort.Slice(as, func(i, j int) bool {
		ti, tj := as[i].Timestamps.StartedAt, as[j].Timestamps.StartedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return as[i].RunID > as[j].RunID
	})
}

func normLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func validID(a types.RunArtifact) error {
	if a.RunID == "" {
		return errors.New("artifact has empty run_id")
	}
	return nil
}
