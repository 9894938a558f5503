package form

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/page"
	"github.com/spigell/form-responder/internal/profile"
)

var addButtonQuery = page.Tag("button").Contains("data-automation-id", "add-button")

// section is a repeatable block of a wizard page, such as work experience,
// that is only rendered after its add button is clicked.
type section struct {
	name string
	// markers are texts present once the block is expanded.
	markers []page.Query
	// button is the position of the block's add button among all add buttons.
	button int
	fields []sectionField
}

// sectionField binds the nth control matching query to a profile key.
type sectionField struct {
	query page.Query
	nth   int
	key   string
}

var sections = []section{
	{
		name:    "experience",
		markers: []page.Query{page.Query{}.WithText("Job Title")},
		button:  0,
		fields: []sectionField{
			{query: page.Tag("input").Contains("name", "jobTitle"), key: profile.KeyJobTitle},
			{query: page.Tag("input").Contains("name", "company"), key: profile.KeyCompany},
			{query: page.Tag("input").Contains("name", "location"), key: profile.KeyJobLocation},
			{query: page.Tag("textarea").ContainsFold("name", "description"), key: profile.KeyJobDescription},
			{query: page.Tag("input").Contains("placeholder", "MM/YYYY"), nth: 0, key: profile.KeyExperienceFrom},
			{query: page.Tag("input").Contains("placeholder", "MM/YYYY"), nth: 1, key: profile.KeyExperienceTo},
		},
	},
	{
		name:    "education",
		markers: []page.Query{page.Query{}.WithText("School"), page.Query{}.WithText("University")},
		button:  1,
		fields: []sectionField{
			{query: page.Tag("input").Contains("name", "school"), key: profile.KeyUniversityName},
			{query: page.Tag("select").Contains("name", "degree"), key: profile.KeyHighestDegree},
			{query: page.Tag("input").Contains("name", "fieldOfStudy"), key: profile.KeyMajor},
			{query: page.Tag("input").Equals("placeholder", "YYYY"), nth: 0, key: profile.KeyEducationFrom},
			{query: page.Tag("input").Equals("placeholder", "YYYY"), nth: 1, key: profile.KeyEducationTo},
		},
	},
}

// FillSections expands the work experience and education blocks of a
// wizard page when they are collapsed and fills them from the profile.
// Controls that already hold an answer are left alone.
func (e *Engine) FillSections(ctx context.Context, p page.Page) PassResult {
	e.logger.Info("checking experience and education sections")

	for _, s := range sections {
		e.expandSection(ctx, p, s)
	}

	var result PassResult
	for _, s := range sections {
		for _, sf := range s.fields {
			if out, ok := e.fillSectionField(p, s.name, sf); ok {
				result.add(out)
			}
		}
	}

	e.logger.Info("section pass finished",
		zap.Int("filled", result.Filled),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result
}

func (e *Engine) expandSection(ctx context.Context, p page.Page, s section) {
	if present(p, s.markers) {
		return
	}

	buttons, err := p.Query(addButtonQuery)
	if err != nil {
		e.logger.Warn("could not look up add buttons", zap.Error(err))
		return
	}
	if len(buttons) <= s.button {
		e.logger.Debug("no add button for section", zap.String("section", s.name))
		return
	}

	button := buttons[s.button]
	if err := button.ScrollIntoView(); err != nil {
		e.logger.Debug("could not scroll to add button", zap.Error(err))
	}
	if err := button.Click(); err != nil {
		e.logger.Warn("could not click add button", zap.String("section", s.name), zap.Error(err))
		return
	}

	e.logger.Info("expanded section", zap.String("section", s.name))
	e.settle(ctx, e.delays.Dropdown)
}

func (e *Engine) fillSectionField(p page.Page, name string, sf sectionField) (Outcome, bool) {
	value := e.profile.Value(sf.key)
	if value == "" {
		return Outcome{}, false
	}

	matches, err := p.Query(sf.query)
	if err != nil || len(matches) <= sf.nth || !displayed(matches[sf.nth]) {
		return Outcome{}, false
	}

	f, err := Inspect(matches[sf.nth])
	if err != nil {
		e.logger.Debug("section field became stale", zap.Error(err))
		return Outcome{}, false
	}

	field := name + " " + sf.key
	if answered(f) {
		return Outcome{Field: field, Status: StatusSkipped, Reason: "already answered"}, true
	}

	out := e.Fill(f, value)
	out.Field = field
	switch out.Status {
	case StatusFilled:
		e.logger.Info("filled section field", zap.String("field", field), zap.String("value", out.Applied))
	case StatusSkipped:
		e.logger.Debug("skipped section field", zap.String("field", field), zap.String("reason", out.Reason))
	default:
		e.logger.Warn("could not fill section field", zap.String("field", field), zap.String("reason", out.Reason))
	}
	return out, true
}

func present(p page.Page, markers []page.Query) bool {
	found, err := p.Query(markers...)
	return err == nil && len(found) > 0
}
