package form

import (
	"testing"

	"github.com/spigell/form-responder/internal/page"
	"github.com/spigell/form-responder/internal/page/pagetest"
)

func TestResolveLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		doc    func() *pagetest.Doc
		expect string
	}{
		{
			name: "label for id",
			doc: func() *pagetest.Doc {
				return pagetest.New(
					pagetest.El("label", "for", "target").Text(" First Name* "),
					pagetest.El("div").Add(pagetest.El("span").Text("decoy"), pagetest.Input("text", "id", "target")),
				)
			},
			expect: "First Name*",
		},
		{
			name: "enclosing label",
			doc: func() *pagetest.Doc {
				return pagetest.New(
					pagetest.El("label").Text("Email").Add(pagetest.Input("email", "id", "target")),
				)
			},
			expect: "Email",
		},
		{
			name: "preceding sibling when label for is missing",
			doc: func() *pagetest.Doc {
				return pagetest.New(
					pagetest.El("label", "for", "other").Text("Wrong"),
					pagetest.El("div").Add(pagetest.El("span").Text("City"), pagetest.Input("text", "id", "target")),
				)
			},
			expect: "City",
		},
		{
			name: "parent first line truncated",
			doc: func() *pagetest.Doc {
				return pagetest.New(
					pagetest.El("div").
						Text("Please describe your current notice period in weeks and days\nsecond line").
						Add(pagetest.Input("text", "id", "target")),
				)
			},
			expect: "Please describe your current notice period in week",
		},
		{
			name: "empty sibling falls through to parent",
			doc: func() *pagetest.Doc {
				return pagetest.New(
					pagetest.El("div").Text("Zip").Add(pagetest.El("span"), pagetest.Input("text", "id", "target")),
				)
			},
			expect: "Zip",
		},
		{
			name: "nearest ancestor with text",
			doc: func() *pagetest.Doc {
				return pagetest.New(
					pagetest.El("fieldset").Text("Years of experience\nhint").Add(
						pagetest.El("div").Add(
							pagetest.El("div").Add(pagetest.Input("number", "id", "target")),
						),
					),
				)
			},
			expect: "Years of experience",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := tt.doc()
			el, err := page.First(doc.Query(page.Tag("input").Equals("id", "target")))
			if err != nil {
				t.Fatalf("target not found: %v", err)
			}

			if got := ResolveLabel(doc, el); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestResolveLabelStaleElement(t *testing.T) {
	t.Parallel()

	input := pagetest.Input("text", "id", "target")
	doc := pagetest.New(pagetest.El("label", "for", "target").Text("Phone"), input)

	el, err := page.First(doc.Query(page.Tag("input")))
	if err != nil {
		t.Fatalf("target not found: %v", err)
	}
	doc.Remove(input)

	if got := ResolveLabel(doc, el); got != "" {
		t.Fatalf("expected no label for stale element, got %q", got)
	}
}
