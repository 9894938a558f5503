package workflow

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/form-responder/internal/form"
	"github.com/spigell/form-responder/internal/page"
	"github.com/spigell/form-responder/internal/page/pagetest"
	"github.com/spigell/form-responder/internal/profile"
)

type recordingStep struct {
	toggle
	name     string
	outcome  Outcome
	err      error
	validate error
	applied  int
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Validate(*Config) error { return s.validate }

func (s *recordingStep) Apply(context.Context, Deps, page.Page) (Outcome, error) {
	s.applied++
	return s.outcome, s.err
}

func testDeps(t *testing.T) (Deps, *Config, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	p := profile.FromRecord(profile.Record{FirstName: "Asha", Email: "asha@example.com"})
	engine := form.New(form.Deps{Profile: p, Logger: logger}, form.Delays{})
	return Deps{Engine: engine, Logger: logger}, &Config{Profile: p}, logs
}

func TestRunAggregatesAndStops(t *testing.T) {
	t.Parallel()

	deps, cfg, logs := testDeps(t)
	first := &recordingStep{name: "first", outcome: Outcome{Filled: 2, Skipped: 1}}
	disabled := &recordingStep{name: "disabled"}
	disabled.Disable("off")
	stopper := &recordingStep{name: "stopper", outcome: Outcome{Filled: 1, Stop: true}}
	never := &recordingStep{name: "never"}

	report, err := Run(context.Background(), cfg, deps, []Step{first, disabled, stopper, never}, pagetest.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Filled != 3 || report.Skipped != 1 {
		t.Fatalf("unexpected totals %+v", report)
	}
	if report.StoppedBy != "stopper" {
		t.Fatalf("expected stopper to end the run, got %q", report.StoppedBy)
	}
	if disabled.applied != 0 || never.applied != 0 {
		t.Fatalf("disabled and later steps must not run")
	}
	if len(report.Steps) != 2 {
		t.Fatalf("expected 2 step reports, got %d", len(report.Steps))
	}
	if logs.FilterMessage("workflow step").Len() != 2 {
		t.Fatalf("expected a log entry per executed step")
	}
}

func TestRunValidatesBeforeApplying(t *testing.T) {
	t.Parallel()

	deps, cfg, _ := testDeps(t)
	first := &recordingStep{name: "first"}
	invalid := &recordingStep{name: "invalid", validate: errors.New("bad config")}

	_, err := Run(context.Background(), cfg, deps, []Step{first, invalid}, pagetest.New())
	if err == nil || err.Error() != "invalid: bad config" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if first.applied != 0 {
		t.Fatalf("no step may run when validation fails")
	}
}

func TestRunStepError(t *testing.T) {
	t.Parallel()

	deps, cfg, _ := testDeps(t)
	boom := errors.New("boom")
	failing := &recordingStep{name: "failing", err: boom}

	report, err := Run(context.Background(), cfg, deps, []Step{failing}, pagetest.New())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped step error, got %v", err)
	}
	if report == nil {
		t.Fatalf("expected partial report")
	}
}

func TestRunRequiresEngine(t *testing.T) {
	t.Parallel()

	if _, err := Run(context.Background(), &Config{}, Deps{}, nil, pagetest.New()); !errors.Is(err, ErrNoEngine) {
		t.Fatalf("expected ErrNoEngine, got %v", err)
	}
}

func TestFirstPageFillsAndSubmits(t *testing.T) {
	t.Parallel()

	deps, cfg, _ := testDeps(t)
	fname := pagetest.Input("text", "id", "first_name")
	submit := pagetest.El("button", "type", "submit").Text("Submit")
	doc := pagetest.New(
		pagetest.El("label", "for", "first_name").Text("First Name"),
		fname,
		submit,
	)

	report, err := Run(context.Background(), cfg, deps, FirstPage(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fname.Value != "Asha" {
		t.Fatalf("expected first name to be filled, got %q", fname.Value)
	}
	if !report.Submitted || submit.Clicks != 1 {
		t.Fatalf("expected submission, report=%+v clicks=%d", report, submit.Clicks)
	}
}

func TestFirstPageLoginWall(t *testing.T) {
	t.Parallel()

	deps, cfg, _ := testDeps(t)
	doc := pagetest.New(pagetest.Input("password", "name", "password"))

	_, err := Run(context.Background(), cfg, deps, FirstPage(), doc)
	if !errors.Is(err, form.ErrLoginRequired) {
		t.Fatalf("expected login error, got %v", err)
	}
}

func TestSubmitStepStopsWithoutButton(t *testing.T) {
	t.Parallel()

	deps, cfg, _ := testDeps(t)
	report, err := Run(context.Background(), cfg, deps, []Step{NewSubmit()}, pagetest.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Submitted || report.StoppedBy != StepSubmit {
		t.Fatalf("expected submit step to stop the run, got %+v", report)
	}
}

func TestFieldsStepRequiresProfile(t *testing.T) {
	t.Parallel()

	deps, _, _ := testDeps(t)
	_, err := Run(context.Background(), &Config{}, deps, []Step{NewFields()}, pagetest.New())
	if !errors.Is(err, errProfileRequired) {
		t.Fatalf("expected profile error, got %v", err)
	}
}

func TestDisableByNameAndDescribe(t *testing.T) {
	t.Parallel()

	steps := FirstPage()
	DisableByName(steps, StepRemaining, "disabled in config")

	statuses := Describe(steps)
	if len(statuses) != 5 {
		t.Fatalf("expected 5 statuses, got %d", len(statuses))
	}
	for _, status := range statuses {
		wantEnabled := status.Name != StepRemaining
		if status.Enabled != wantEnabled {
			t.Fatalf("%s: expected enabled=%v", status.Name, wantEnabled)
		}
		if !wantEnabled && status.Reason != "disabled in config" {
			t.Fatalf("expected disable reason, got %q", status.Reason)
		}
	}
}

func TestNextPageFillsSections(t *testing.T) {
	t.Parallel()

	core, _ := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	p := profile.FromRecord(profile.Record{Extra: map[string]string{profile.KeyMajor: "Computer Science"}})
	deps := Deps{Engine: form.New(form.Deps{Profile: p, Logger: logger}, form.Delays{}), Logger: logger}

	major := pagetest.Input("text", "name", "fieldOfStudy")
	addExperience := pagetest.El("button", "data-automation-id", "add-button").Text("Add")
	addEducation := pagetest.El("button", "data-automation-id", "add-button").Text("Add")
	addEducation.OnClick = func(d *pagetest.Doc, _ *pagetest.Node) {
		d.Root.Add(pagetest.El("label").Text("School"), major)
	}
	doc := pagetest.New(
		pagetest.El("label").Text("Job Title"),
		addExperience,
		addEducation,
		pagetest.El("button").Text("Next"),
	)

	report, err := Run(context.Background(), &Config{Profile: p}, deps, NextPage(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addExperience.Clicks != 0 || addEducation.Clicks != 1 {
		t.Fatalf("expected only the education block to be added, clicks=%d/%d", addExperience.Clicks, addEducation.Clicks)
	}
	if major.Value != "Computer Science" {
		t.Fatalf("expected major to be filled, got %q", major.Value)
	}
	if report.Filled != 1 || !report.Submitted {
		t.Fatalf("unexpected report %+v", report)
	}

	var names []string
	for _, status := range Describe(NextPage()) {
		names = append(names, status.Name)
	}
	if len(names) != 5 || names[2] != StepSections {
		t.Fatalf("unexpected next page steps %v", names)
	}
}
