package form

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/page"
)

// dropdownTriggers are popup listbox buttons other than the country control.
var dropdownTriggers = []page.Query{
	page.Tag("button").Equals("aria-haspopup", "listbox"),
	page.Tag("button").Contains("aria-label", "State"),
	page.Tag("button").Contains("aria-label", "City"),
	page.Tag("button").Contains("class", "dropdown"),
	page.Tag("button").Contains("class", "select"),
}

// popupOptionQueries locate rendered options of an open popup; the menu
// queries are the fallback.
var (
	popupOptionQueries = []page.Query{
		page.Tag("div", "li").Equals("role", "option"),
		page.Tag("div", "li").Contains("class", "option"),
	}
	popupMenuQueries = []page.Query{
		page.Tag("div").Inside(page.Tag("div").Contains("class", "menu")),
		page.Tag("li").Inside(page.Tag("ul").Contains("class", "menu")),
	}
)

var dropdownTargets = []struct {
	keywords []string
	category Category
}{
	{[]string{"state", "province"}, CategoryState},
	{[]string{"city", "town"}, CategoryCity},
}

// FillCustomDropdowns opens state and city popup listboxes and picks the
// profile value. It returns the number of dropdowns filled.
func (e *Engine) FillCustomDropdowns(ctx context.Context, p page.Page) int {
	triggers, err := p.Query(dropdownTriggers...)
	if err != nil {
		e.logger.Warn("could not process dropdown selectors", zap.Error(err))
		return 0
	}

	count := 0
	for _, trigger := range triggers {
		if !displayed(trigger) {
			continue
		}

		ariaLabel, err := trigger.Attr("aria-label")
		if err != nil {
			e.logger.Debug("dropdown became stale", zap.Error(err))
			continue
		}
		if containsAny(strings.ToLower(ariaLabel), []string{"country", "region"}) {
			continue
		}

		id, _ := trigger.Attr("id")
		current := strings.TrimSpace(textOf(trigger))
		combined := strings.ToLower(strings.Join([]string{current, ariaLabel, id}, " "))

		value := e.dropdownValue(combined)
		if value == "" {
			continue
		}
		if strings.EqualFold(current, value) {
			e.logger.Debug("dropdown already holds value", zap.String("value", value))
			continue
		}

		e.logger.Info("found custom dropdown",
			zap.String("dropdown", firstNonEmpty(current, ariaLabel, id)),
			zap.String("value", value),
		)

		if e.pickFromPopup(ctx, p, trigger, value) {
			count++
		}
	}

	return count
}

func (e *Engine) dropdownValue(combined string) string {
	for _, target := range dropdownTargets {
		if containsAny(combined, target.keywords) {
			return ValueFor(e.profile, target.category)
		}
	}
	return ""
}

func (e *Engine) pickFromPopup(ctx context.Context, p page.Page, trigger page.Element, value string) bool {
	if err := trigger.Click(); err != nil {
		e.logger.Warn("could not open dropdown", zap.Error(err))
		e.dismiss(p)
		return false
	}
	e.settle(ctx, e.delays.Dropdown)

	options := e.popupOptions(p)
	labels := texts(options)

	idx := matchOption(labels, value)
	if idx < 0 {
		e.logger.Warn("could not find option in dropdown",
			zap.String("value", value),
			zap.Strings("available_options", labels),
		)
		e.dismiss(p)
		return false
	}

	if err := options[idx].Click(); err != nil {
		e.logger.Warn("could not select dropdown option", zap.String("option", labels[idx]), zap.Error(err))
		e.dismiss(p)
		return false
	}

	e.logger.Info("selected dropdown option", zap.String("option", labels[idx]), zap.String("value", value))
	return true
}

// popupOptions returns the displayed options of the open popup.
func (e *Engine) popupOptions(p page.Page) []page.Element {
	for _, queries := range [][]page.Query{popupOptionQueries, popupMenuQueries} {
		found, err := p.Query(queries...)
		if err != nil {
			e.logger.Debug("could not query popup options", zap.Error(err))
			continue
		}

		var visible []page.Element
		for _, el := range found {
			if displayed(el) {
				visible = append(visible, el)
			}
		}
		if len(visible) > 0 {
			return visible
		}
	}
	return nil
}

func (e *Engine) dismiss(p page.Page) {
	if err := p.Dismiss(); err != nil {
		e.logger.Debug("could not dismiss popup", zap.Error(err))
	}
}
