package types

import "encoding/json"

// Keys a model answer must carry even when their zero value would be valid.
// Decoding fails with a *ValidationError when one is absent or null.

func (q *MCQ) UnmarshalJSON(b []byte) error {
	type plain MCQ
	var aux struct {
		plain
		CorrectIndex *int `json:"correct_index"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.CorrectIndex == nil {
		return missing("correct_index")
	}
	*q = MCQ(aux.plain)
	q.CorrectIndex = *aux.CorrectIndex
	return nil
}

func (r *ReviewResult) UnmarshalJSON(b []byte) error {
	type plain ReviewResult
	var aux struct {
		plain
		Pass    *bool   `json:"pass"`
		Summary *string `json:"summary"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	var problems []string
	if aux.Pass == nil {
		problems = append(problems, "pass: is required")
	}
	if aux.Summary == nil {
		problems = append(problems, "summary: is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	*r = ReviewResult(aux.plain)
	r.Pass = *aux.Pass
	r.Summary = *aux.Summary
	return nil
}

func missing(field string) error {
	return &ValidationError{Problems: []string{field + ": is required"}}
}
