package form

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/form-responder/internal/page/pagetest"
	"github.com/spigell/form-responder/internal/profile"
)

func testProfile() *profile.Profile {
	return profile.FromRecord(profile.Record{
		FirstName:    "Asha",
		LastName:     "Rao",
		Email:        "asha@example.com",
		Phone:        "5550100",
		AddressLine1: "12 Park Street",
		City:         "Delhi",
		State:        "New Delhi",
		ZipCode:      "110021",
		Country:      "India",
		LinkedInURL:  "linkedin.com/in/asha",
		HowHeard:     "LinkedIn",
		Extra: map[string]string{
			"require_sponsorship":      "No",
			"past_employee":            "No",
			"eligible_to_work_country": "Yes",
		},
	})
}

func newTestEngine(t *testing.T, deps Deps) *Engine {
	t.Helper()
	if deps.Profile == nil {
		deps.Profile = testProfile()
	}
	if deps.Logger == nil {
		deps.Logger = zaptest.NewLogger(t)
	}
	return New(deps, Delays{})
}

func observedEngine(t *testing.T, deps Deps) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	deps.Logger = zap.New(core)
	return newTestEngine(t, deps), logs
}

// scriptedOperator answers confirmations per action and hands out values in
// order.
type scriptedOperator struct {
	confirm  map[Action]bool
	values   []string
	requests []Request
}

func (o *scriptedOperator) Confirm(_ context.Context, req Request) (bool, error) {
	o.requests = append(o.requests, req)
	return o.confirm[req.Action], nil
}

func (o *scriptedOperator) Provide(_ context.Context, req Request) (string, error) {
	o.requests = append(o.requests, req)
	if len(o.values) == 0 {
		return "", nil
	}
	v := o.values[0]
	o.values = o.values[1:]
	return v, nil
}

func (o *scriptedOperator) actions() []Action {
	out := make([]Action, 0, len(o.requests))
	for _, req := range o.requests {
		out = append(out, req.Action)
	}
	return out
}

// withPopup makes trigger render a listbox of options when clicked. Picking
// an option shows it on the trigger and closes the list.
func withPopup(trigger *pagetest.Node, options ...string) *pagetest.Node {
	trigger.OnClick = func(d *pagetest.Doc, n *pagetest.Node) {
		list := pagetest.El("ul", "role", "listbox")
		for _, text := range options {
			opt := pagetest.El("li", "role", "option").Text(text)
			opt.OnClick = func(d *pagetest.Doc, o *pagetest.Node) {
				n.Content = o.Content
				d.Remove(list)
			}
			list.Add(opt)
		}
		d.Root.Add(list)
	}
	return trigger
}

// closePopups removes every open listbox.
func closePopups(d *pagetest.Doc) {
	for _, child := range d.Root.Children() {
		if child.Attrs["role"] == "listbox" {
			d.Remove(child)
		}
	}
}
