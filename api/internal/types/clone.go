package types

import (
	"maps"
	"slices"
	"time"
)

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	d.MCQs = slices.Clone(d.MCQs)
	for i := range d.MCQs {
		d.MCQs[i].Options = slices.Clone(d.MCQs[i].Options)
	}
	d.TeacherNotes.Misconceptions = slices.Clone(d.TeacherNotes.Misconceptions)
	return d
}

// Clone returns a deep copy of r.
func (r ReviewResult) Clone() ReviewResult {
	r.Feedback = slices.Clone(r.Feedback)
	if r.Reconciliation != nil {
		rec := *r.Reconciliation
		rec.Violations = slices.Clone(rec.Violations)
		r.Reconciliation = &rec
	}
	return r
}

// Clone returns a deep copy of t.
func (t TagResult) Clone() TagResult {
	t.ContentType = slices.Clone(t.ContentType)
	t.Keywords = slices.Clone(t.Keywords)
	return t
}

// Clone returns a deep copy of a. Stores hand out clones so callers cannot
// change a saved record through the value they got back.
func (a RunArtifact) Clone() RunArtifact {
	a.Attempts = slices.Clone(a.Attempts)
	for i := range a.Attempts {
		at := &a.Attempts[i]
		at.Draft = at.Draft.Clone()
		at.Review = at.Review.Clone()
		at.Refined = clonePtr(at.Refined, Draft.Clone)
	}
	a.Final.Content = clonePtr(a.Final.Content, Draft.Clone)
	a.Final.Tags = clonePtr(a.Final.Tags, TagResult.Clone)
	a.Timestamps.FinishedAt = clonePtr(a.Timestamps.FinishedAt, func(t time.Time) time.Time { return t })
	a.Timestamps.DurationSeconds = clonePtr(a.Timestamps.DurationSeconds, func(f float64) float64 { return f })
	a.Metadata = maps.Clone(a.Metadata)
	return a
}

func clonePtr[T any](p *T, clone func(T) T) *T {
	if p == nil {
		return nil
	}
	v := clone(*p)
	return &v
}
