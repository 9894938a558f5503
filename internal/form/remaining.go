package form

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/page"
)

// SkipValue is the operator answer that leaves a field untouched.
const SkipValue = "skip"

var requiredQueries = []page.Query{
	page.Tag("input", "select", "textarea").Contains("class", "required"),
	page.Tag("input", "select", "textarea").Contains("placeholder", "*"),
}

// FillRemaining lets the operator fill visible, empty required fields. It
// returns the number of such fields found.
func (e *Engine) FillRemaining(ctx context.Context, p page.Page) int {
	e.logger.Info("checking for remaining required fields")

	elements, err := p.Query(requiredQueries...)
	if err != nil {
		e.logger.Warn("could not scan required fields", zap.Error(err))
		return 0
	}

	var remaining []Field
	for _, el := range elements {
		if !displayed(el) {
			continue
		}
		f, err := Inspect(el)
		if err != nil {
			e.logger.Debug("required field became stale", zap.Error(err))
			continue
		}
		if answered(f) {
			continue
		}
		remaining = append(remaining, f)
	}

	if len(remaining) == 0 {
		return 0
	}

	e.logger.Info("found remaining required fields", zap.Int("count", len(remaining)))
	if !e.confirm(ctx, Request{
		Action: ActionFillRemaining,
		Detail: fmt.Sprintf("fill %d remaining required fields manually", len(remaining)),
	}) {
		return len(remaining)
	}

	for i, f := range remaining {
		value, err := e.operator.Provide(ctx, Request{
			Action: ActionFieldValue,
			Detail: fmt.Sprintf("field %d of %d", i+1, len(remaining)),
			Field:  f.Info(),
		})
		if err != nil {
			e.logger.Warn("could not read field value", zap.Error(err))
			continue
		}

		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, SkipValue) {
			continue
		}

		out := e.fillProvided(f, value)
		switch out.Status {
		case StatusFilled:
			e.logger.Info("filled remaining field", zap.String("field", f.Signals.Describe()), zap.String("value", out.Applied))
		default:
			e.logger.Warn("could not fill remaining field",
				zap.String("field", f.Signals.Describe()),
				zap.String("reason", out.Reason),
			)
		}
	}

	return len(remaining)
}

// answered reports whether a control holds an answer. A select counts as
// empty while its first option or an option without a value is selected,
// since browsers select the first option of a fresh select.
func answered(f Field) bool {
	if f.Kind != KindSelect {
		return strings.TrimSpace(f.Value) != ""
	}

	options, err := f.El.Options()
	if err != nil {
		return false
	}
	for i, opt := range options {
		if opt.Selected {
			return i > 0 && strings.TrimSpace(opt.Value) != ""
		}
	}
	return false
}

// fillProvided fills an operator supplied value. Unlike the generic fill, a
// value for an unknown control kind is typed.
func (e *Engine) fillProvided(f Field, value string) Outcome {
	switch f.Kind {
	case KindFile, KindSelect:
		return e.Fill(f, value)
	default:
		return e.typeText(f.El, value)
	}
}
