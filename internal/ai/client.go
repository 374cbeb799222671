package ai

import (
	"context"
	"fmt"
)

// Request carries everything the cover-letter service needs about one
// posting and the candidate.
type Request struct {
	JobTitle         string
	Company          string
	JobDescription   string
	CandidateSummary string
}

// Client is the interface for cover-letter text generation. Always called
// with a timeout and treated as best-effort: callers degrade to
// TemplateLetter on any error.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// TemplateLetter is the deterministic fallback used when the service
// times out or errors. Plain but safe for a required free-text field.
func TemplateLetter(req Request) string {
	return fmt.Sprintf(
		"Dear %s hiring team,\n\nI am excited to apply for the %s position. "+
			"My background closely matches the role's requirements and I would "+
			"welcome the chance to contribute to your team.\n\nBest regards",
		req.Company, req.JobTitle,
	)
}

// buildSystemPrompt creates the system instruction for the model
func buildSystemPrompt() string {
	return `You are a professional cover letter writer. Write a concise, compelling cover letter (at most 200 words) for the given job application.
Rules:
1. Address the company directly, reference the role by title.
2. Connect the candidate summary to the most important requirements in the job description. Never invent experience.
3. No placeholders like [Your Name]. No markdown. Output only the letter text.`
}

// buildUserPrompt combines the posting and the candidate summary
func buildUserPrompt(req Request) string {
	return fmt.Sprintf(
		"Job Title: %s\nCompany: %s\nJob Description:\n%s\n\nCandidate Summary:\n%s\n\nWrite the cover letter now.",
		req.JobTitle, req.Company, req.JobDescription, req.CandidateSummary,
	)
}
