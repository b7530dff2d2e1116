// Package testutil holds fixtures and fakes shared by package tests.
package testutil

import (
	"assessment-pipeline/api/internal/types"
)

func SampleRequest() types.Request {
	return types.Request{Grade: 5, Topic: "Fractions as parts of a whole"}
}

func SampleDraft() types.Draft {
	return types.Draft{
		Explanation: types.Explanation{
			Text: "Fractions are a way to represent parts of a whole. When we divide something into equal parts, " +
				"each part is a fraction. If you cut a pizza into 4 equal slices, each slice is 1/4 of the pizza.",
			Grade: 5,
		},
		MCQs: []types.MCQ{
			{
				Question:     "If a pizza is cut into 8 equal slices and you eat 3, what fraction did you eat?",
				Options:      []string{"1/8", "3/8", "5/8", "8/3"},
				CorrectIndex: 1,
			},
			{
				Question: "What does the denominator in a fraction tell us?",
				Options: []string{
					"How many parts we have",
					"How many equal parts the whole is divided into",
					"The size of each part",
					"The total number",
				},
				CorrectIndex: 1,
			},
			{
				Question:     "Which fraction represents half of something?",
				Options:      []string{"1/4", "1/3", "1/2", "2/1"},
				CorrectIndex: 2,
			},
		},
		TeacherNotes: types.TeacherNotes{
			LearningObjective: "Students will be able to identify and represent fractions as parts of a whole.",
			Misconceptions: []string{
				"Confusing numerator and denominator",
				"Thinking larger denominators mean larger fractions",
			},
		},
	}
}

// RevisedDraft differs from SampleDraft so tests can tell refined content apart.
func RevisedDraft() types.Draft {
	d := SampleDraft()
	d.Explanation.Text = "A fraction names equal parts of one whole thing. Cut a pizza into 4 equal slices " +
		"and one slice is 1/4. The bottom number says how many equal parts there are."
	return d
}

func ReviewWithScores(age, correctness, clarity, coverage int, pass bool) types.ReviewResult {
	return types.ReviewResult{
		Scores: types.Scores{
			AgeAppropriateness: age,
			Correctness:        correctness,
			Clarity:            clarity,
			Coverage:           coverage,
		},
		Pass: pass,
		Feedback: []types.Feedback{
			{
				Field:      "explanation.text",
				Issue:      "Vocabulary too complex for Grade 5",
				Severity:   types.SeverityCritical,
				Suggestion: "Simplify language",
			},
			{
				Field:      "mcqs[0].question",
				Issue:      "Question is confusing",
				Severity:   types.SeverityMajor,
				Suggestion: "Rephrase more clearly",
			},
		},
		Summary: "Content reviewed.",
	}
}

func PassingReview() types.ReviewResult {
	r := ReviewWithScores(5, 5, 5, 4, true)
	r.Feedback = []types.Feedback{{
		Field:      "explanation.text",
		Issue:      "Could include more visual examples",
		Severity:   types.SeverityMinor,
		Suggestion: "Add diagram descriptions",
	}}
	r.Summary = "Excellent content that meets all quality standards."
	return r
}

func FailingReview() types.ReviewResult {
	r := ReviewWithScores(3, 5, 3, 4, false)
	r.Summary = "Content needs significant improvement in age appropriateness and clarity."
	return r
}

func SampleTags() types.TagResult {
	return types.TagResult{
		Subject:     "Mathematics",
		Topic:       "Fractions",
		Grade:       5,
		Difficulty:  "Medium",
		ContentType: []string{"Explanation", "Quiz"},
		BloomsLevel: "Understanding",
		Keywords:    []string{"fractions", "numerator", "denominator"},
	}
}
