package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"assessment-pipeline/api/internal/types"
)

const RefinerName = "RefinerAgent"

// RefineInput is one refinement request. Attempt and MaxAttempts only shape the prompt.
type RefineInput struct {
	Request     types.Request
	Draft       types.Draft
	Feedback    []types.Feedback
	Attempt     int
	MaxAttempts int
}

type Refiner struct {
	r          *Runner
	maxRetries int
}

func NewRefiner(r *Runner, maxRetries int) *Refiner {
	return &Refiner{r: r, maxRetries: maxRetries}
}

func (f *Refiner) Refine(ctx context.Context, in RefineInput) (types.Draft, error) {
	return Execute[RefineInput, types.Draft](ctx, f.r, refinerStage{}, in, f.maxRetries).Get()
}

type refinerStage struct{}

func (refinerStage) Name() string { return RefinerName }

var refinerSystem = `You are an expert editor of educational content. Improve the content
using the reviewer feedback while keeping its structure.

You must:
1. Address EVERY feedback item
2. Keep exactly the same JSON structure
3. Make targeted, minimal changes
4. Keep what already works

Return ONLY the complete JSON object in the same shape as the input:
` + draftShape

func (refinerStage) Prompts(in RefineInput) (string, string) {
	content, _ := json.MarshalIndent(in.Draft, "", "  ")
	user := fmt.Sprintf(`REFINEMENT (Attempt %d/%d)

REQUEST:
- Grade: %d
- Topic: %s

CURRENT CONTENT:
%s

FEEDBACK TO ADDRESS:
%s

Rewrite the content so that every feedback item is resolved and return the full JSON object.`,
		in.Attempt, in.MaxAttempts, in.Request.Grade, in.Request.Topic, content, FormatFeedback(in.Feedback))
	return refinerSystem, user
}

func (refinerStage) Check(d *types.Draft) error { return types.Validate(d) }

// FormatFeedback renders feedback as a numbered, severity-marked list.
func FormatFeedback(items []types.Feedback) string {
	if len(items) == 0 {
		return "No specific feedback provided."
	}
	var b strings.Builder
	for i, fb := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s [%s] %s", i+1, severityMark(fb.Severity), fb.Field, fb.Issue)
		if s := strings.TrimSpace(fb.Suggestion); s != "" {
			fmt.Fprintf(&b, "\n   Suggestion: %s", s)
		}
	}
	return b.String()
}

func severityMark(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return "(CRITICAL)"
	case types.SeverityMajor:
		return "(MAJOR)"
	case types.SeverityMinor:
		return "(minor)"
	}
	return "(note)"
}
