package telegram

import (
	"fmt"
	"strings"

	"assessment-pipeline/api/internal/types"
)

var optionLetters = [...]string{"A", "B", "C", "D"}

func formatArtifact(a types.RunArtifact) string {
	var b strings.Builder
	if !a.Approved() || a.Final.Content == nil {
		fmt.Fprintf(&b, "❌ Not approved (run %s)\n\n", a.RunID)
		b.WriteString(a.Final.RejectionReason)
		b.WriteString("\n\nTap Audit to see every review.")
		return b.String()
	}

	d := a.Final.Content
	fmt.Fprintf(&b, "✅ Approved after %d review(s) (run %s)\n\n", len(a.Attempts), a.RunID)
	b.WriteString("📘 Explanation\n")
	b.WriteString(strings.TrimSpace(d.Explanation.Text))
	b.WriteString("\n\n❓ Questions\n")
	for i, q := range d.MCQs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(q.Question))
		for j, opt := range q.Options {
			if j < len(optionLetters) {
				fmt.Fprintf(&b, "   %s) %s\n", optionLetters[j], opt)
			}
		}
		if q.CorrectIndex >= 0 && q.CorrectIndex < len(optionLetters) {
			fmt.Fprintf(&b, "   Answer: %s\n", optionLetters[q.CorrectIndex])
		}
	}
	b.WriteString("\n🧑‍🏫 Teacher notes\n")
	b.WriteString("Objective: " + d.TeacherNotes.LearningObjective + "\n")
	for _, m := range d.TeacherNotes.Misconceptions {
		b.WriteString("• " + m + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTags(t types.TagResult) string {
	var b strings.Builder
	b.WriteString("🏷 Tags\n")
	fmt.Fprintf(&b, "Subject: %s\nTopic: %s\nGrade: %d\n", t.Subject, t.Topic, t.Grade)
	fmt.Fprintf(&b, "Difficulty: %s\nBloom's level: %s\n", t.Difficulty, t.BloomsLevel)
	fmt.Fprintf(&b, "Content: %s", strings.Join(t.ContentType, ", "))
	if len(t.Keywords) > 0 {
		fmt.Fprintf(&b, "\nKeywords: %s", strings.Join(t.Keywords, ", "))
	}
	return b.String()
}

// formatAudit lists every review of a run with its reconciliation.
func formatAudit(a types.RunArtifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Run %s\n", a.RunID)
	fmt.Fprintf(&b, "Status: %s\nInput: grade %d, %q\n", a.Final.Status, a.Input.Grade, a.Input.Topic)
	if p := a.Metadata["provider"]; p != "" {
		fmt.Fprintf(&b, "Model: %s/%s\n", p, a.Metadata["model"])
	}
	if a.Timestamps.DurationSeconds != nil {
		fmt.Fprintf(&b, "Duration: %.1fs\n", *a.Timestamps.DurationSeconds)
	}
	for _, at := range a.Attempts {
		s := at.Review.Scores
		fmt.Fprintf(&b, "\nReview %d: %s (avg %.2f)\n", at.Attempt, passWord(at.Review.Pass), s.Average())
		fmt.Fprintf(&b, "  age %d, correctness %d, clarity %d, coverage %d\n",
			s.AgeAppropriateness, s.Correctness, s.Clarity, s.Coverage)
		if rc := at.Review.Reconciliation; rc != nil && rc.Overridden {
			fmt.Fprintf(&b, "  model said %s, thresholds said %s\n", passWord(rc.ReportedPass), passWord(rc.ComputedPass))
		}
		for _, f := range at.Review.Feedback {
			fmt.Fprintf(&b, "  • [%s] %s: %s\n", f.Severity, f.Field, f.Issue)
		}
		if at.Refined != nil {
			b.WriteString("  → refined\n")
		}
	}
	if r := a.Final.RejectionReason; r != "" {
		b.WriteString("\nReason: " + r + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func passWord(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

func formatHistory(runs []types.RunArtifact) string {
	if len(runs) == 0 {
		return "No runs yet. Try /generate 5 Fractions"
	}
	var b strings.Builder
	b.WriteString("🗂 Your latest runs\n")
	for _, a := range runs {
		mark := "❌"
		if a.Approved() {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s  grade %d, %s\n   %s\n",
			mark, a.Timestamps.StartedAt.Format("2006-01-02 15:04"), a.Input.Grade, a.Input.Topic, a.RunID)
	}
	b.WriteString("Open one with /artifact <run_id>")
	return b.String()
}

func formatStats(s types.Stats) string {
	return fmt.Sprintf("📊 Runs: %d\nApproved: %d\nRejected: %d\nApproval rate: %.0f%%",
		s.Total, s.Approved, s.Rejected, s.ApprovalRate*100)
}
