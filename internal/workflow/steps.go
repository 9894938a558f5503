package workflow

import (
	"context"
	"errors"

	"github.com/spigell/form-responder/internal/page"
)

const (
	StepLogin     = "login"
	StepQuestions = "questions"
	StepFields    = "fields"
	StepSections  = "sections"
	StepRemaining = "remaining"
	StepSubmit    = "submit"
)

var errProfileRequired = errors.New("profile is required")

// toggle implements the enable switch shared by all steps.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) status(name string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason}
}

// FirstPage returns the steps applied to the page a job URL opens on.
func FirstPage() []Step {
	return []Step{NewLogin(), NewQuestions(), NewFields(), NewRemaining(), NewSubmit()}
}

// NextPage returns the steps applied to every following wizard page.
func NextPage() []Step {
	return []Step{NewQuestions(), NewFields(), NewSections(), NewRemaining(), NewSubmit()}
}

type loginStep struct{ toggle }

// NewLogin creates the step that waits for a human to pass a login wall.
func NewLogin() Step { return &loginStep{} }

func (s *loginStep) Name() string { return StepLogin }

func (s *loginStep) Validate(*Config) error { return nil }

func (s *loginStep) Apply(ctx context.Context, deps Deps, p page.Page) (Outcome, error) {
	if err := deps.Engine.CheckLogin(ctx, p); err != nil {
		return Outcome{Stop: true}, err
	}
	return Outcome{}, nil
}

func (s *loginStep) Status() Status { return s.status(s.Name()) }

type questionsStep struct{ toggle }

// NewQuestions creates the step answering yes/no screening questions.
func NewQuestions() Step { return &questionsStep{} }

func (s *questionsStep) Name() string { return StepQuestions }

func (s *questionsStep) Validate(cfg *Config) error {
	if cfg == nil || cfg.Profile == nil {
		return errProfileRequired
	}
	return nil
}

func (s *questionsStep) Apply(ctx context.Context, deps Deps, p page.Page) (Outcome, error) {
	return Outcome{Answered: deps.Engine.ResolveQuestions(ctx, p)}, nil
}

func (s *questionsStep) Status() Status { return s.status(s.Name()) }

type fieldsStep struct{ toggle }

// NewFields creates the step detecting and filling form fields.
func NewFields() Step { return &fieldsStep{} }

func (s *fieldsStep) Name() string { return StepFields }

func (s *fieldsStep) Validate(cfg *Config) error {
	if cfg == nil || cfg.Profile == nil {
		return errProfileRequired
	}
	return nil
}

func (s *fieldsStep) Apply(ctx context.Context, deps Deps, p page.Page) (Outcome, error) {
	result := deps.Engine.FillFields(ctx, p)
	return Outcome{
		Filled:  result.Filled,
		Skipped: result.Skipped,
		Failed:  result.Failed,
	}, nil
}

func (s *fieldsStep) Status() Status { return s.status(s.Name()) }

type sectionsStep struct{ toggle }

// NewSections creates the step expanding and filling the work experience and
// education blocks.
func NewSections() Step { return &sectionsStep{} }

func (s *sectionsStep) Name() string { return StepSections }

func (s *sectionsStep) Validate(cfg *Config) error {
	if cfg == nil || cfg.Profile == nil {
		return errProfileRequired
	}
	return nil
}

func (s *sectionsStep) Apply(ctx context.Context, deps Deps, p page.Page) (Outcome, error) {
	result := deps.Engine.FillSections(ctx, p)
	return Outcome{
		Filled:  result.Filled,
		Skipped: result.Skipped,
		Failed:  result.Failed,
	}, nil
}

func (s *sectionsStep) Status() Status { return s.status(s.Name()) }

type remainingStep struct{ toggle }

// NewRemaining creates the step handing leftover required fields to the operator.
func NewRemaining() Step { return &remainingStep{} }

func (s *remainingStep) Name() string { return StepRemaining }

func (s *remainingStep) Validate(*Config) error { return nil }

func (s *remainingStep) Apply(ctx context.Context, deps Deps, p page.Page) (Outcome, error) {
	return Outcome{Remaining: deps.Engine.FillRemaining(ctx, p)}, nil
}

func (s *remainingStep) Status() Status { return s.status(s.Name()) }

type submitStep struct{ toggle }

// NewSubmit creates the step clicking the submit control. A page without a
// submit control ends the run.
func NewSubmit() Step { return &submitStep{} }

func (s *submitStep) Name() string { return StepSubmit }

func (s *submitStep) Validate(*Config) error { return nil }

func (s *submitStep) Apply(ctx context.Context, deps Deps, p page.Page) (Outcome, error) {
	submitted := deps.Engine.Submit(ctx, p)
	return Outcome{Submitted: submitted, Stop: !submitted}, nil
}

func (s *submitStep) Status() Status { return s.status(s.Name()) }
