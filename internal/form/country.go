package form

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/page"
)

// countrySelectors are tried in order; the first visible candidate wins.
var countrySelectors = []page.Query{
	page.Tag("button").Contains("aria-label", "Country"),
	page.Tag("button").Contains("aria-label", "Region"),
	page.Tag("button").Contains("aria-label", "Country/Region"),
	page.Tag("select").Contains("name", "country"),
	page.Tag("select").Contains("id", "country"),
	page.Tag("input").Contains("name", "country"),
	page.Tag("input").Contains("id", "country"),
	page.Tag("button").Equals("aria-haspopup", "listbox").WithText("United States"),
	page.Tag("button").Equals("aria-haspopup", "listbox").WithText("America"),
}

// countryDecoys veto substring matches such as "British Indian Ocean Territory".
var countryDecoys = []string{"british", "territory"}

// countryInputExcludes mark inputs that mention a country but hold a dialing
// prefix, e.g. phone_country_code.
var countryInputExcludes = []string{"code", "dial", "phone"}

// SelectCountry finds the country control and selects the profile country.
// It reports whether a selection was made; a true result may have caused
// the form to re-render.
func (e *Engine) SelectCountry(ctx context.Context, p page.Page) bool {
	target := e.profile.Country()
	e.logger.Info("looking for country field", zap.String("target", target))

	for _, selector := range countrySelectors {
		candidates, err := p.Query(selector)
		if err != nil {
			e.logger.Warn("could not process country selector", zap.Error(err))
			continue
		}

		for _, el := range candidates {
			if !displayed(el) {
				continue
			}

			field, err := Inspect(el)
			if err != nil {
				e.logger.Debug("country candidate became stale", zap.Error(err))
				continue
			}

			e.logger.Info("found country field",
				zap.String("field", strings.TrimSpace(firstNonEmpty(textOf(el), field.Signals.AriaLabel, field.Signals.Describe()))),
				zap.String("kind", field.Kind.String()),
			)

			switch field.Kind {
			case KindButton:
				// A popup decides the outcome; no further candidates are tried.
				return e.countryPopup(ctx, p, el, target)
			case KindSelect:
				if e.countryNative(el, target) {
					return true
				}
			case KindText:
				if containsAny(field.Signals.Attributes(), countryInputExcludes) {
					e.logger.Debug("skipping country code input", zap.String("field", field.Signals.Describe()))
					continue
				}
				if e.countryTypeahead(ctx, p, field, target) {
					return true
				}
			}
		}
	}

	e.logger.Warn("could not find or fill country field")
	return false
}

func (e *Engine) countryPopup(ctx context.Context, p page.Page, trigger page.Element, target string) bool {
	if strings.EqualFold(strings.TrimSpace(textOf(trigger)), target) {
		e.logger.Info("country already selected", zap.String("country", target))
		return false
	}

	if err := trigger.Click(); err != nil {
		e.logger.Warn("could not open country dropdown", zap.Error(err))
		return false
	}
	e.settle(ctx, e.delays.Dropdown)

	options := e.popupOptions(p)
	labels := texts(options)
	for _, label := range labels {
		e.logger.Debug("checking country option", zap.String("option", label))
	}

	if idx := matchCountry(labels, target); idx >= 0 {
		if err := options[idx].Click(); err != nil {
			e.logger.Warn("could not click country option", zap.String("option", labels[idx]), zap.Error(err))
			e.dismiss(p)
			return false
		}
		e.logger.Info("selected country", zap.String("option", labels[idx]))
		return true
	}

	e.logger.Warn("could not find country option in dropdown",
		zap.String("target", target),
		zap.Strings("available_options", labels),
	)

	selected := e.confirm(ctx, Request{
		Action: ActionSelectCountry,
		Detail: fmt.Sprintf("select %s manually from the dropdown", target),
		Manual: true,
	})
	if selected {
		e.logger.Info("country selected manually", zap.String("country", target))
	}

	e.dismiss(p)
	return selected
}

func (e *Engine) countryNative(el page.Element, target string) bool {
	options, err := el.Options()
	if err != nil {
		e.logger.Warn("could not read country options", zap.Error(err))
		return false
	}

	labels := optionTexts(options)
	idx := matchCountry(labels, target)
	if idx < 0 {
		e.logger.Warn("could not find country option in select",
			zap.String("target", target),
			zap.Strings("available_options", labels),
		)
		return false
	}

	if options[idx].Selected {
		e.logger.Info("country already selected", zap.String("country", labels[idx]))
		return false
	}

	if err := el.SelectIndex(idx); err != nil {
		e.logger.Warn("could not select country", zap.String("option", labels[idx]), zap.Error(err))
		return false
	}

	e.logger.Info("selected country from select", zap.String("option", labels[idx]))
	return true
}

// countryTypeahead types the country into an input and picks from the
// suggestion list when one appears.
func (e *Engine) countryTypeahead(ctx context.Context, p page.Page, f Field, target string) bool {
	if strings.EqualFold(strings.TrimSpace(f.Value), target) {
		e.logger.Info("country already entered", zap.String("country", target))
		return false
	}

	if out := e.typeText(f.El, target); out.Status != StatusFilled {
		e.logger.Warn("could not type country", zap.String("reason", out.Reason))
		return false
	}
	e.settle(ctx, e.delays.Dropdown)

	options := e.popupOptions(p)
	if len(options) == 0 {
		e.logger.Info("entered country", zap.String("country", target))
		return true
	}

	labels := texts(options)
	idx := matchCountry(labels, target)
	if idx < 0 {
		e.logger.Warn("could not find country suggestion",
			zap.String("target", target),
			zap.Strings("available_options", labels),
		)
		e.dismiss(p)
		return false
	}

	if err := options[idx].Click(); err != nil {
		e.logger.Warn("could not click country suggestion", zap.Error(err))
		return false
	}

	e.logger.Info("selected country suggestion", zap.String("option", labels[idx]))
	return true
}

// matchCountry returns the option equal to target ignoring case, or else
// the first option containing target that is not a decoy. It returns -1
// when nothing qualifies.
func matchCountry(options []string, target string) int {
	want := strings.ToLower(strings.TrimSpace(target))
	if want == "" {
		return -1
	}

	for i, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == want {
			return i
		}
	}

	for i, opt := range options {
		have := strings.ToLower(opt)
		if !strings.Contains(have, want) || containsAny(have, countryDecoys) {
			continue
		}
		return i
	}

	return -1
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
