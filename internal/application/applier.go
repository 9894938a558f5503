// Package application drives the form engine over a list of job URLs.
package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/form"
	"github.com/spigell/form-responder/internal/logger"
	"github.com/spigell/form-responder/internal/page"
	"github.com/spigell/form-responder/internal/utils"
	"github.com/spigell/form-responder/internal/workflow"
)

const (
	defaultMaxSteps         = 10
	defaultNavigationSettle = 5 * time.Second
)

// ErrNotSubmitted is returned when no submit control was clicked for a URL.
var ErrNotSubmitted = errors.New("application was not submitted")

// Deps are the collaborators of an Applier.
type Deps struct {
	Tab      page.Tab
	Engine   *form.Engine
	Operator form.Operator
	Logger   *zap.Logger
}

// Settings tune a run.
type Settings struct {
	// MaxSteps bounds the number of wizard pages processed per URL.
	MaxSteps          int
	NavigationSettle  time.Duration
	PauseBetween      time.Duration
	ScreenshotOnError bool
	ScreenshotDir     string
	// DisabledSteps maps workflow step names to the reason they are off.
	DisabledSteps map[string]string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MaxSteps:         defaultMaxSteps,
		NavigationSettle: defaultNavigationSettle,
		PauseBetween:     3 * time.Second,
		ScreenshotDir:    ".",
	}
}

// Applier applies to jobs one URL at a time in a single tab.
type Applier struct {
	tab      page.Tab
	engine   *form.Engine
	operator form.Operator
	settings Settings
	logger   *zap.Logger
}

// New creates an Applier.
func New(deps Deps, settings Settings) (*Applier, error) {
	if deps.Tab == nil {
		return nil, errors.New("browser tab is required")
	}
	if deps.Engine == nil {
		return nil, workflow.ErrNoEngine
	}

	a := &Applier{
		tab:      deps.Tab,
		engine:   deps.Engine,
		operator: deps.Operator,
		settings: settings,
		logger:   deps.Logger,
	}
	if a.operator == nil {
		a.operator = form.AutoOperator{}
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.settings.MaxSteps <= 0 {
		a.settings.MaxSteps = defaultMaxSteps
	}

	return a, nil
}

// Run applies to every URL. A failing URL never stops the run.
func (a *Applier) Run(ctx context.Context, urls []string) *Summary {
	summary := &Summary{Total: len(urls)}

	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			summary.fail(url, err.Error())
			continue
		}

		result, err := a.safeApply(ctx, url)
		if err != nil {
			a.logger.Error("application failed", zap.String(logger.FieldJobURL, url), zap.Error(err))
			a.screenshot(i)
			summary.fail(url, err.Error())
		} else {
			a.logger.Info("application submitted", zap.String(logger.FieldJobURL, url))
			summary.succeed(result)
		}

		if i < len(urls)-1 {
			_ = utils.WaitFor(ctx, a.settings.PauseBetween)
		}
	}

	return summary
}

func (a *Applier) safeApply(ctx context.Context, url string) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.Apply(ctx, url)
}

// Apply fills and submits every page of the application at url.
func (a *Applier) Apply(ctx context.Context, url string) (*Result, error) {
	log := logger.WithCommonFields(a.logger, url, "")
	log.Info("starting application")

	if err := a.tab.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("navigating: %w", err)
	}
	if err := utils.WaitFor(ctx, a.settings.NavigationSettle); err != nil {
		return nil, err
	}

	result := &Result{URL: url}
	if info, err := a.tab.Info(); err == nil {
		result.Title = info.Title
		log.Info("page loaded", zap.String("title", info.Title), zap.String("current_url", info.URL))
	}

	steps := workflow.FirstPage()
	for {
		result.Pages++
		report, err := a.runPage(ctx, url, result.Pages, steps)
		if err != nil {
			return nil, err
		}
		result.add(report)

		if !report.Submitted {
			break
		}
		if result.Pages >= a.settings.MaxSteps {
			log.Warn("stopped at the page limit", zap.Int("max_steps", a.settings.MaxSteps))
			break
		}

		ok, err := a.operator.Confirm(ctx, form.Request{
			Action: form.ActionNextStep,
			Detail: "continue with the next page of the form",
		})
		if err != nil {
			log.Warn("operator confirmation failed", zap.Error(err))
			break
		}
		if !ok {
			break
		}
		steps = workflow.NextPage()
	}

	if result.Submitted == 0 {
		return nil, ErrNotSubmitted
	}
	return result, nil
}

func (a *Applier) runPage(ctx context.Context, url string, n int, steps []workflow.Step) (*workflow.Report, error) {
	for name, reason := range a.settings.DisabledSteps {
		workflow.DisableByName(steps, name, reason)
	}

	log := logger.WithCommonFields(a.logger, url, strconv.Itoa(n))
	deps := workflow.Deps{Engine: a.engine.WithLogger(log), Logger: log}
	cfg := &workflow.Config{Profile: a.engine.Profile()}

	report, err := workflow.Run(ctx, cfg, deps, steps, a.tab)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}

	log.Info("page processed",
		zap.Int("filled", report.Filled),
		zap.Int("skipped", report.Skipped),
		zap.Int("remaining", report.Remaining),
		zap.Bool("submitted", report.Submitted),
	)
	return report, nil
}

func (a *Applier) screenshot(idx int) {
	if !a.settings.ScreenshotOnError {
		return
	}

	name := fmt.Sprintf("error_%d_%s.png", idx+1, time.Now().Format("20060102_150405"))
	path := filepath.Join(a.settings.ScreenshotDir, name)
	if err := a.tab.Screenshot(path); err != nil {
		a.logger.Warn("could not take error screenshot", zap.Error(err))
		return
	}
	a.logger.Info("saved error screenshot", zap.String("path", path))
}

func (r *Result) add(report *workflow.Report) {
	r.Filled += report.Filled
	r.Skipped += report.Skipped
	r.Failed += report.Failed
	r.Remaining += report.Remaining
	if report.Submitted {
		r.Submitted++
	}
}
