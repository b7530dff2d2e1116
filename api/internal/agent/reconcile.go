package agent

import (
	"fmt"
	"strings"

	"assessment-pipeline/api/internal/types"
)

// Thresholds are the minimum rubric scores a draft needs to pass review.
type Thresholds struct {
	PerDimension map[string]int
	MinAverage   float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		PerDimension: map[string]int{
			types.DimAgeAppropriateness: 4,
			types.DimCorrectness:        5,
			types.DimClarity:            4,
			types.DimCoverage:           3,
		},
		MinAverage: 4.0,
	}
}

// averageCriterion names the mean-score entry in Reconciliation.Violations.
const averageCriterion = "average"

// Reconcile recomputes the pass decision from the scores. The decision passes
// iff every dimension meets its minimum and the mean meets MinAverage. When
// the model's own decision disagrees it is replaced and the summary annotated.
// The returned review always carries a Reconciliation record.
func Reconcile(review types.ReviewResult, th Thresholds) types.ReviewResult {
	var (
		violations []types.Violation
		reasons    []string
	)
	for _, dim := range types.RubricDimensions {
		want, ok := th.PerDimension[dim]
		if !ok {
			continue
		}
		score, _ := review.Scores.Get(dim)
		if score < want {
			violations = append(violations, types.Violation{
				Criterion: dim,
				Score:     float64(score),
				Threshold: float64(want),
				Shortfall: float64(want - score),
			})
			reasons = append(reasons, fmt.Sprintf("%s (%d) below threshold (%d)", dim, score, want))
		}
	}

	avg := review.Scores.Average()
	if avg < th.MinAverage {
		violations = append(violations, types.Violation{
			Criterion: averageCriterion,
			Score:     avg,
			Threshold: th.MinAverage,
			Shortfall: th.MinAverage - avg,
		})
		reasons = append(reasons, fmt.Sprintf("Average score (%.1f) below minimum (%.1f)", avg, th.MinAverage))
	}

	computed := len(violations) == 0
	rec := &types.Reconciliation{
		ReportedPass: review.Pass,
		ComputedPass: computed,
		Overridden:   review.Pass != computed,
		Average:      avg,
		Violations:   violations,
	}
	if rec.Overridden {
		note := "all thresholds met"
		if len(reasons) > 0 {
			note = strings.Join(reasons, "; ")
		}
		review.Pass = computed
		review.Summary = strings.TrimSpace(review.Summary + " [Auto-corrected: " + note + "]")
	}
	review.Reconciliation = rec
	return review
}
