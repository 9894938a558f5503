package form

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/page"
)

// submitSelectors are tried in priority order; only the first element of
// each selector is considered.
var submitSelectors = []page.Query{
	page.Tag("button").WithTextFold("submit"),
	page.Tag("button").WithTextFold("apply"),
	page.Tag("button").WithText("Submit Application"),
	page.Tag("button").WithText("Apply"),
	page.Tag("button").WithText("Submit"),
	page.Tag("button").WithText("Continue"),
	page.Tag("button").WithText("Next"),
	page.Tag("button").WithText("Save"),
	page.Tag("button").WithText("Save and Continue"),
	page.Tag("button").WithText("Finish"),
	page.Tag("input").Equals("type", "submit"),
	page.Tag("button").Equals("type", "submit"),
	page.Tag("button").Contains("class", "submit"),
	page.Tag("button").Contains("class", "apply"),
	page.Tag("button").Contains("class", "continue"),
	page.Tag("button").Contains("class", "next"),
	page.Tag("button").Contains("class", "save"),
	page.Tag("button").Contains("class", "finish"),
}

var submitKeywords = []string{"submit", "apply", "continue", "next", "save", "finish"}

// Submit clicks the most likely submit control after operator confirmation.
// It reports whether a control was clicked.
func (e *Engine) Submit(ctx context.Context, p page.Page) bool {
	e.logger.Info("looking for submit button")

	for _, selector := range submitSelectors {
		button, err := page.First(p.Query(selector))
		if err != nil || !usable(button) {
			continue
		}

		label := buttonLabel(button)
		e.logger.Info("found submit button", zap.String("button", label))

		if !e.confirm(ctx, Request{Action: ActionSubmit, Detail: "submit application"}) {
			e.logger.Info("submission cancelled")
			return false
		}

		if err := button.Click(); err != nil {
			e.logger.Warn("could not click submit button", zap.String("button", label), zap.Error(err))
			continue
		}

		e.logger.Info("application submitted", zap.String("button", label))
		e.settle(ctx, e.delays.Submit)
		return true
	}

	e.logger.Info("no standard submit button found, looking for any clickable buttons")
	if e.submitAnyButton(ctx, p) {
		return true
	}

	e.logger.Warn("could not find submit button")
	return false
}

func (e *Engine) submitAnyButton(ctx context.Context, p page.Page) bool {
	buttons, err := p.Query(page.Tag("button").Lacks("disabled"))
	if err != nil {
		e.logger.Warn("could not scan buttons", zap.Error(err))
		return false
	}

	for _, button := range buttons {
		if !usable(button) {
			continue
		}

		label := buttonLabel(button)
		if !containsAny(strings.ToLower(label), submitKeywords) {
			continue
		}

		e.logger.Info("found potential submit button", zap.String("button", label))
		if !e.confirm(ctx, Request{Action: ActionSubmit, Detail: fmt.Sprintf("click %q", label)}) {
			continue
		}

		if err := button.Click(); err != nil {
			e.logger.Warn("could not click button", zap.String("button", label), zap.Error(err))
			continue
		}

		e.logger.Info("button clicked", zap.String("button", label))
		e.settle(ctx, e.delays.Submit)
		return true
	}

	return false
}

func buttonLabel(button page.Element) string {
	if text := strings.TrimSpace(textOf(button)); text != "" {
		return text
	}
	value, _ := button.Attr("value")
	return strings.TrimSpace(value)
}
