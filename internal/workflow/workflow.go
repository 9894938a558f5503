// Package workflow runs the ordered steps applied to one form page.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/form"
	"github.com/spigell/form-responder/internal/page"
	"github.com/spigell/form-responder/internal/profile"
)

// Step represents a single action performed on a form page.
type Step interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, p page.Page) (Outcome, error)
}

// Deps aggregates dependencies shared across all steps.
type Deps struct {
	Engine *form.Engine
	Logger *zap.Logger
}

// Config contains settings consumed by the steps.
type Config struct {
	Profile *profile.Profile
}

// Outcome describes the result of executing a step.
type Outcome struct {
	Filled    int
	Skipped   int
	Failed    int
	Answered  bool
	Remaining int
	Submitted bool
	// Stop ends the run after this step.
	Stop bool
}

// StepReport is the outcome of one executed step.
type StepReport struct {
	Name    string
	Outcome Outcome
}

// Report aggregates the outcomes of one run.
type Report struct {
	Steps     []StepReport
	Filled    int
	Skipped   int
	Failed    int
	Remaining int
	Submitted bool
	// StoppedBy names the step that ended the run early.
	StoppedBy string
}

func (r *Report) add(name string, out Outcome) {
	r.Steps = append(r.Steps, StepReport{Name: name, Outcome: out})
	r.Filled += out.Filled
	r.Skipped += out.Skipped
	r.Failed += out.Failed
	r.Remaining += out.Remaining
	r.Submitted = r.Submitted || out.Submitted
}

// Status represents runtime information about a step.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
}

// ErrNoEngine is returned when Run is called without a form engine.
var ErrNoEngine = errors.New("form engine is required")

// DisableByName marks the step with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Step, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied steps sequentially against p.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Step, p page.Page) (*Report, error) {
	if deps.Engine == nil {
		return nil, ErrNoEngine
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	report := &Report{}
	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Debug("step disabled", zap.String("name", step.Name()))
			continue
		}

		out, err := step.Apply(ctx, deps, p)
		if err != nil {
			return report, fmt.Errorf("%s: %w", step.Name(), err)
		}
		report.add(step.Name(), out)

		deps.Logger.Info("workflow step",
			zap.String("name", step.Name()),
			zap.Int("filled", out.Filled),
			zap.Int("skipped", out.Skipped),
			zap.Int("failed", out.Failed),
			zap.Bool("submitted", out.Submitted),
		)

		if out.Stop {
			report.StoppedBy = step.Name()
			deps.Logger.Info("workflow stopped", zap.String("name", step.Name()))
			break
		}
	}

	return report, nil
}

// Describe returns status entries for the provided steps.
func Describe(steps []Step) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(interface{ Status() Status }); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
