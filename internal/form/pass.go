package form

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/page"
)

// fieldQueries enumerate the interactive controls of a form.
var fieldQueries = []page.Query{
	page.Tag("input").NotEquals("type", "hidden").Lacks("readonly").Lacks("disabled"),
	page.Tag("textarea").Lacks("readonly").Lacks("disabled"),
	page.Tag("select").Lacks("disabled"),
}

// containerQueries find the wrapper whose text describes an opaque-id field.
var containerQueries = []page.Query{
	page.Tag("div").Contains("class", "field"),
	page.Tag("div").Contains("class", "form"),
	page.Tag("div").Contains("class", "input"),
}

// PassResult summarises one field pass.
type PassResult struct {
	Filled   int
	Skipped  int
	Failed   int
	Outcomes []Outcome
}

func (r *PassResult) add(out Outcome) {
	switch out.Status {
	case StatusFilled:
		r.Filled++
	case StatusSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, out)
}

// FillFields runs one pass over the page: the country first, then every
// classified control, then custom dropdowns.
func (e *Engine) FillFields(ctx context.Context, p page.Page) PassResult {
	e.logger.Info("detecting form fields")

	elements := e.enumerate(p)
	e.logger.Info("found interactive elements", zap.Int("count", len(elements)))

	if e.SelectCountry(ctx, p) {
		e.logger.Info("country selected, waiting for form to update")
		e.settle(ctx, e.delays.CountryRender)
		// The selection may re-render the form; the old handles are not reused.
		elements = e.enumerate(p)
		e.logger.Info("re-scanned interactive elements", zap.Int("count", len(elements)))
	}

	var result PassResult
	for _, el := range elements {
		if out, ok := e.fillElement(p, el); ok {
			result.add(out)
		}
	}

	if n := e.FillCustomDropdowns(ctx, p); n > 0 {
		e.logger.Info("filled custom dropdowns", zap.Int("count", n))
		for range n {
			result.add(Outcome{Field: "custom dropdown", Status: StatusFilled})
		}
	}

	e.logger.Info("field pass finished",
		zap.Int("filled", result.Filled),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result
}

func (e *Engine) enumerate(p page.Page) []page.Element {
	elements, err := p.Query(fieldQueries...)
	if err != nil {
		e.logger.Warn("could not enumerate form fields", zap.Error(err))
		return nil
	}
	return elements
}

// fillElement classifies and fills one control. The second result is false
// for elements that were not eligible and produce no outcome.
func (e *Engine) fillElement(p page.Page, el page.Element) (Outcome, bool) {
	if !displayed(el) {
		return Outcome{}, false
	}

	f, err := Inspect(el)
	if err != nil {
		e.logger.Debug("skipping stale element", zap.Error(err))
		return Outcome{}, false
	}

	if f.Kind == KindButton || f.Kind == KindChoice {
		return Outcome{}, false
	}
	if strings.TrimSpace(f.Value) != "" && !f.Kind.Reselectable() {
		return Outcome{}, false
	}
	if strings.Contains(f.Signals.Attributes(), "country") {
		return Outcome{}, false
	}

	f.Signals.Label = ResolveLabel(p, el)
	category := Classify(f.Signals.Combined())
	if category == CategoryUnmatched && f.Signals.OpaqueID() {
		category = e.classifyByContainer(el)
	}

	name := f.Signals.Describe()
	if category == CategoryUnmatched {
		e.logger.Debug("no match for field", zap.String("field", name))
		return Outcome{Field: name, Category: category, Status: StatusSkipped, Reason: "no matching category"}, true
	}

	value := ValueFor(e.profile, category)
	if value == "" {
		e.logger.Debug("no profile value for field", zap.String("field", name), zap.String("category", string(category)))
		return Outcome{Field: name, Category: category, Status: StatusSkipped, Reason: "no profile value"}, true
	}

	out := e.Fill(f, value)
	out.Field = name
	out.Category = category

	switch out.Status {
	case StatusFilled:
		e.logger.Info("filled field",
			zap.String("field", name),
			zap.String("category", string(category)),
			zap.String("value", out.Applied),
		)
	case StatusSkipped:
		e.logger.Debug("skipped field", zap.String("field", name), zap.String("reason", out.Reason))
	default:
		e.logger.Warn("could not fill field", zap.String("field", name), zap.String("reason", out.Reason))
	}

	return out, true
}

func (e *Engine) classifyByContainer(el page.Element) Category {
	container, err := el.Closest(containerQueries...)
	if err != nil {
		return CategoryUnmatched
	}
	text, err := container.Text()
	if err != nil {
		return CategoryUnmatched
	}
	category := ClassifyContainer(text)
	if category != CategoryUnmatched {
		e.logger.Debug("classified field by container text", zap.String("category", string(category)))
	}
	return category
}
