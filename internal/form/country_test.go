package form

import (
	"context"
	"slices"
	"testing"

	"github.com/spigell/form-responder/internal/page/pagetest"
)

func TestSelectCountryNativeSelectSkipsDecoy(t *testing.T) {
	t.Parallel()

	sel := pagetest.Select([]string{"United States", "India", "British Indian Ocean Territory"}, "name", "country")
	doc := pagetest.New(sel)
	e := newTestEngine(t, Deps{})

	if !e.SelectCountry(context.Background(), doc) {
		t.Fatalf("expected country to be selected")
	}
	if !sel.Options[1].Selected || sel.Options[2].Selected {
		t.Fatalf("expected exactly the second option, got %+v", sel.Options)
	}
}

func TestSelectCountryNeverPicksDecoy(t *testing.T) {
	t.Parallel()

	sel := pagetest.Select([]string{"United States", "British Indian Ocean Territory"}, "id", "country-select")
	doc := pagetest.New(sel)
	e := newTestEngine(t, Deps{})

	if e.SelectCountry(context.Background(), doc) {
		t.Fatalf("expected no selection")
	}
	if sel.Selected() != "United States" || sel.Mutations != 0 {
		t.Fatalf("expected select to stay untouched, got %q", sel.Selected())
	}
}

func TestSelectCountryPopup(t *testing.T) {
	t.Parallel()

	trigger := withPopup(
		pagetest.El("button", "aria-label", "Country/Region").Text("Select"),
		"United States", "British Indian Ocean Territory", "India (IN)",
	)
	doc := pagetest.New(trigger)
	e := newTestEngine(t, Deps{})

	if !e.SelectCountry(context.Background(), doc) {
		t.Fatalf("expected country to be selected")
	}
	if trigger.Content != "India (IN)" {
		t.Fatalf("expected India (IN), got %q", trigger.Content)
	}
}

func TestSelectCountryPopupNoMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		operator Operator
		expect   bool
	}{
		{name: "unattended", operator: AutoOperator{}, expect: false},
		{name: "human resolves", operator: &scriptedOperator{confirm: map[Action]bool{ActionSelectCountry: true}}, expect: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trigger := withPopup(pagetest.El("button", "aria-label", "Country").Text("Select"), "United States", "Canada")
			doc := pagetest.New(trigger)
			doc.OnDismiss = closePopups
			e := newTestEngine(t, Deps{Operator: tt.operator})

			if got := e.SelectCountry(context.Background(), doc); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
			if doc.Dismissals != 1 {
				t.Fatalf("expected popup to be dismissed once, got %d", doc.Dismissals)
			}
			if trigger.Content != "Select" {
				t.Fatalf("expected trigger untouched, got %q", trigger.Content)
			}

			if op, ok := tt.operator.(*scriptedOperator); ok {
				if len(op.requests) != 1 || !op.requests[0].Manual {
					t.Fatalf("expected one manual request, got %+v", op.requests)
				}
			}
		})
	}
}

func TestSelectCountryAlreadySelected(t *testing.T) {
	t.Parallel()

	trigger := withPopup(pagetest.El("button", "aria-label", "Country").Text("India"), "India")
	sel := pagetest.Select([]string{"India"}, "name", "country")
	doc := pagetest.New(trigger, sel)
	e := newTestEngine(t, Deps{})

	if e.SelectCountry(context.Background(), doc) {
		t.Fatalf("expected no new selection")
	}
	if trigger.Clicks != 0 || sel.Mutations != 0 {
		t.Fatalf("expected no interaction, clicks=%d mutations=%d", trigger.Clicks, sel.Mutations)
	}
}

func TestSelectCountryHiddenCandidateIgnored(t *testing.T) {
	t.Parallel()

	hidden := pagetest.El("button", "aria-label", "Country").Text("Select")
	hidden.Hidden = true
	sel := pagetest.Select([]string{"Canada", "India"}, "name", "country")
	doc := pagetest.New(hidden, sel)
	e := newTestEngine(t, Deps{})

	if !e.SelectCountry(context.Background(), doc) {
		t.Fatalf("expected the select to be used")
	}
	if hidden.Clicks != 0 || sel.Selected() != "India" {
		t.Fatalf("unexpected state: clicks=%d selected=%q", hidden.Clicks, sel.Selected())
	}
}

func TestSelectCountryTypeahead(t *testing.T) {
	t.Parallel()

	input := pagetest.Input("text", "id", "country")
	doc := pagetest.New(input)
	e := newTestEngine(t, Deps{})

	if !e.SelectCountry(context.Background(), doc) {
		t.Fatalf("expected country to be entered")
	}
	if input.Value != "India" {
		t.Fatalf("expected typed country, got %q", input.Value)
	}
}

func TestSelectCountryIgnoresDialingCodeInputs(t *testing.T) {
	t.Parallel()

	code := pagetest.Input("text", "id", "phone_country_code")
	camel := pagetest.Input("text", "name", "countryCode")
	phone := pagetest.Input("tel", "id", "phone")
	doc := pagetest.New(code, camel, phone)
	e := newTestEngine(t, Deps{})

	if e.SelectCountry(context.Background(), doc) {
		t.Fatalf("expected no country field to be found")
	}
	if code.Value != "" || camel.Value != "" || doc.Mutations() != 0 {
		t.Fatalf("country typed into a dialing code input: %q %q", code.Value, camel.Value)
	}
}

func TestSelectCountryNotFound(t *testing.T) {
	t.Parallel()

	doc := pagetest.New(pagetest.Input("text", "id", "city"))
	e, logs := observedEngine(t, Deps{})

	if e.SelectCountry(context.Background(), doc) {
		t.Fatalf("expected no selection")
	}
	if logs.FilterMessage("could not find or fill country field").Len() != 1 {
		t.Fatalf("expected a warning about the missing country field")
	}
}

func TestMatchCountry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		options []string
		expect  int
	}{
		{[]string{"British Indian Ocean Territory", "India"}, 1},
		{[]string{"Indian Territory", "Republic of India"}, 1},
		{[]string{"british india"}, -1},
		{[]string{"INDIA"}, 0},
	}

	for _, tt := range tests {
		if got := matchCountry(tt.options, "India"); got != tt.expect {
			t.Fatalf("matchCountry(%v) = %d, expected %d", tt.options, got, tt.expect)
		}
	}

	if idx := matchCountry([]string{"India"}, ""); idx != -1 {
		t.Fatalf("expected no match for empty target")
	}
	if !slices.Contains(countryDecoys, "territory") {
		t.Fatalf("territory must stay a decoy")
	}
}
