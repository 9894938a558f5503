package ai

import "context"

// Question is a screening question found on an application form.
type Question struct {
	Text    string
	Options []string
}

// Answer is the option chosen for a question.
type Answer struct {
	Choice string
	Reason string
	// Source names what produced the answer, e.g. "profile" or "gemini".
	Source string
	Raw    string
}

// Answerer picks an option for a screening question.
type Answerer interface {
	Answer(ctx context.Context, q Question) (*Answer, error)
}
