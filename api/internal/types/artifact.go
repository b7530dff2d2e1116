package types

import "time"

type Status string

const (
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// AttemptRecord is one review iteration. Records are appended and never changed.
type AttemptRecord struct {
	Attempt   int          `json:"attempt"`
	Draft     Draft        `json:"draft"`
	Review    ReviewResult `json:"review"`
	Refined   *Draft       `json:"refined,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// FinalResult holds the decision of a run. Content and Tags are set only when approved.
type FinalResult struct {
	Status          Status     `json:"status"`
	Content         *Draft     `json:"content"`
	Tags            *TagResult `json:"tags"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

type Timestamps struct {
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
}

// RunArtifact is the audit record of one pipeline execution.
type RunArtifact struct {
	RunID      string            `json:"run_id"`
	UserID     string            `json:"user_id,omitempty"`
	Input      Request           `json:"input"`
	Attempts   []AttemptRecord   `json:"attempts"`
	Final      FinalResult       `json:"final"`
	Timestamps Timestamps        `json:"timestamps"`
	Metadata   map[string]string `json:"metadata"`
}

// Approved reports whether the run ended with approved content.
func (a *RunArtifact) Approved() bool { return a.Final.Status == StatusApproved }

// Stats aggregates stored runs.
type Stats struct {
	Total        int     `json:"total"`
	Approved     int     `json:"approved"`
	Rejected     int     `json:"rejected"`
	ApprovalRate float64 `json:"approval_rate"`
}

// NewStats derives the approval rate from the counts.
func NewStats(total, approved, rejected int) Stats {
	s := Stats{Total: total, Approved: approved, Rejected: rejected}
	if total > 0 {
		s.ApprovalRate = float64(approved) / float64(total)
	}
	return s
}
