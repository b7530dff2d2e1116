package types

// Rubric dimension names, in the order they are reported.
const (
	DimAgeAppropriateness = "age_appropriateness"
	DimCorrectness        = "correctness"
	DimClarity            = "clarity"
	DimCoverage           = "coverage"
)

// RubricDimensions lists every scored criterion.
var RubricDimensions = []string{DimAgeAppropriateness, DimCorrectness, DimClarity, DimCoverage}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

type Scores struct {
	AgeAppropriateness int `json:"age_appropriateness" validate:"min=1,max=5"`
	Correctness        int `json:"correctness" validate:"min=1,max=5"`
	Clarity            int `json:"clarity" validate:"min=1,max=5"`
	Coverage           int `json:"coverage" validate:"min=1,max=5"`
}

// Get returns the score of a rubric dimension by name.
func (s Scores) Get(dim string) (int, bool) {
	switch dim {
	case DimAgeAppropriateness:
		return s.AgeAppropriateness, true
	case DimCorrectness:
		return s.Correctness, true
	case DimClarity:
		return s.Clarity, true
	case DimCoverage:
		return s.Coverage, true
	}
	return 0, false
}

// Average is the unweighted mean of the four scores.
func (s Scores) Average() float64 {
	return float64(s.AgeAppropriateness+s.Correctness+s.Clarity+s.Coverage) / 4
}

// Feedback addresses one field of a draft by dot path (e.g. "mcqs[0].question").
type Feedback struct {
	Field      string   `json:"field" validate:"required"`
	Issue      string   `json:"issue" validate:"required"`
	Severity   Severity `json:"severity" validate:"oneof=critical major minor"`
	Suggestion string   `json:"suggestion,omitempty"`
}

type ReviewResult struct {
	Scores   Scores     `json:"scores"`
	Pass     bool       `json:"pass"`
	Feedback []Feedback `json:"feedback" validate:"dive"`
	Summary  string     `json:"summary" validate:"required"`

	// Reconciliation is filled by the reviewer after the model answered; it is
	// never part of the model output.
	Reconciliation *Reconciliation `json:"reconciliation,omitempty" validate:"-"`
}

// ApplyDefaults fills optional fields the model is allowed to omit.
func (r *ReviewResult) ApplyDefaults() {
	if r.Feedback == nil {
		r.Feedback = []Feedback{}
	}
	for i := range r.Feedback {
		if r.Feedback[i].Severity == "" {
			r.Feedback[i].Severity = SeverityMajor
		}
	}
}

// Reconciliation records how the stored pass decision was derived from the scores.
type Reconciliation struct {
	ReportedPass bool        `json:"reported_pass"`
	ComputedPass bool        `json:"computed_pass"`
	Overridden   bool        `json:"overridden"`
	Average      float64     `json:"average"`
	Violations   []Violation `json:"violations,omitempty"`
}

// Violation is one unmet criterion and the amount it fell short by.
type Violation struct {
	Criterion string  `json:"criterion"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Shortfall float64 `json:"shortfall"`
}
