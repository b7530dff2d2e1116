package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"assessment-pipeline/api/internal/types"
)

// FileRepo keeps every artifact in memory and mirrors them to one JSON file.
// Each write replaces the file atomically. Artifacts are copied in and out.
type FileRepo struct {
	path string

	mu   sync.RWMutex
	byID map[string]types.RunArtifact
}

type fileDoc struct {
	Artifacts []types.RunArtifact `json:"artifacts"`
}

// OpenFile loads path if it exists and creates its directory otherwise.
func OpenFile(path string) (*FileRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	r := &FileRepo{path: path, byID: map[string]types.RunArtifact{}}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(b) == 0) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for _, a := range doc.Artifacts {
		r.byID[a.RunID] = a
	}
	return r, nil
}

func (r *FileRepo) Save(_ context.Context, a types.RunArtifact) (string, error) {
	if err := validID(a); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, had := r.byID[a.RunID]
	r.byID[a.RunID] = a.Clone()
	if err := r.flushLocked(); err != nil {
		if had {
			r.byID[a.RunID] = prev
		} else {
			delete(r.byID, a.RunID)
		}
		return "", err
	}
	return a.RunID, nil
}

func (r *FileRepo) Get(_ context.Context, runID string) (types.RunArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[runID]
	if !ok {
		return types.RunArtifact{}, ErrNotFound
	}
	return a.Clone(), nil
}

func (r *FileRepo) ListByUser(_ context.Context, userID string, limit int) ([]types.RunArtifact, error) {
	r.mu.RLock()
	out := []types.RunArtifact{}
	for _, a := range r.byID {
		if a.UserID == userID {
			out = append(out, a.Clone())
		}
	}
	r.mu.RUnlock()
	return head(out, limit), nil
}

func (r *FileRepo) ListAll(_ context.Context, limit int) ([]types.RunArtifact, error) {
	r.mu.RLock()
	out := make([]types.RunArtifact, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a.Clone())
	}
	r.mu.RUnlock()
	return head(out, limit), nil
}

func (r *FileRepo) Stats(context.Context) (types.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var approved, rejected int
	for _, a := range r.byID {
		switch a.Final.Status {
		case types.StatusApproved:
			approved++
		case types.StatusRejected:
			rejected++
		}
	}
	return types.NewStats(len(r.byID), approved, rejected), nil
}

func (r *FileRepo) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = map[string]types.RunArtifact{}
	return r.flushLocked()
}

func head(as []types.RunArtifact, limit int) []types.RunArtifact {
	sortRecent(as)
	if n := normLimit(limit); len(as) > n {
		as = as[:n]
	}
	return as
}

func (r *FileRepo) flushLocked() error {
	doc := fileDoc{Artifacts: make([]types.RunArtifact, 0, len(r.byID))}
	for _, a := range r.byID {
		doc.Artifacts = append(doc.Artifacts, a)
	}
	sortRecent(doc.Artifacts)
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically: temp file in the same directory, then rename.
	dir, name := filepath.Split(r.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
