package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"assessment-pipeline/api/internal/types"
)

const ReviewerName = "ReviewerAgent"

// ReviewInput is what the reviewer scores.
type ReviewInput struct {
	Request types.Request
	Draft   types.Draft
}

// Reviewer scores drafts and reconciles the model's decision against Thresholds.
type Reviewer struct {
	r          *Runner
	maxRetries int
	stage      reviewerStage
}

func NewReviewer(r *Runner, th Thresholds, maxRetries int) *Reviewer {
	return &Reviewer{r: r, maxRetries: maxRetries, stage: reviewerStage{th: th}}
}

func (rv *Reviewer) Thresholds() Thresholds { return rv.stage.th }

func (rv *Reviewer) Review(ctx context.Context, in ReviewInput) (types.ReviewResult, error) {
	res, err := Execute[ReviewInput, types.ReviewResult](ctx, rv.r, rv.stage, in, rv.maxRetries).Get()
	if err != nil {
		return types.ReviewResult{}, err
	}
	res = Reconcile(res, rv.stage.th)
	if rec := res.Reconciliation; rec.Overridden {
		rv.r.obs.ObserveOverride(rec.ComputedPass)
		rv.r.log.Warn("review decision overridden",
			"reported_pass", rec.ReportedPass,
			"computed_pass", rec.ComputedPass,
			"average", rec.Average,
			"violations", len(rec.Violations))
	}
	return res, nil
}

type reviewerStage struct {
	th Thresholds
}

func (reviewerStage) Name() string { return ReviewerName }

func (s reviewerStage) Prompts(in ReviewInput) (string, string) {
	var th strings.Builder
	for _, dim := range types.RubricDimensions {
		if want, ok := s.th.PerDimension[dim]; ok {
			fmt.Fprintf(&th, "- %s: minimum %d/5\n", dim, want)
		}
	}
	fmt.Fprintf(&th, "- Minimum average score: %.1f", s.th.MinAverage)

	system := `You are an expert reviewer and quality gate for educational content.
Evaluate rigorously and give actionable feedback.

CRITERIA (1-5 scale):
1. age_appropriateness: are vocabulary and complexity right for the grade?
2. correctness: are all facts and MCQ answers accurate?
3. clarity: is the content easy to understand?
4. coverage: does it cover the topic adequately?

PASS THRESHOLDS:
` + th.String() + `

Return ONLY a JSON object of this shape:
{
  "scores": {
    "age_appropriateness": <1-5>,
    "correctness": <1-5>,
    "clarity": <1-5>,
    "coverage": <1-5>
  },
  "pass": <true|false>,
  "feedback": [
    {
      "field": "path.to.field",
      "issue": "What is wrong",
      "severity": "critical|major|minor",
      "suggestion": "How to fix it"
    }
  ],
  "summary": "Short overall assessment"
}

Rules:
1. Be strict but fair.
2. Feedback must name fields in dot notation, e.g. mcqs[0].question.
3. Set "pass" to false if ANY threshold is missed.
4. Give at least one feedback item even when passing.`

	content, _ := json.MarshalIndent(in.Draft, "", "  ")
	user := fmt.Sprintf(`Review this educational content.

TARGET GRADE: %d
TOPIC: %s

CONTENT:
%s

Score every criterion, decide pass or fail against the thresholds and reference exact fields in your feedback.`,
		in.Request.Grade, in.Request.Topic, content)
	return system, user
}

func (reviewerStage) Check(r *types.ReviewResult) error {
	r.ApplyDefaults()
	// a model-supplied reconciliation block is never trusted
	r.Reconciliation = nil
	return types.Validate(r)
}
