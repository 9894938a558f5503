package page

import "testing"

func TestQueryCondition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		query  Query
		expect string
	}{
		{
			name:   "empty query matches everything",
			query:  Query{},
			expect: "true()",
		},
		{
			name:   "tag with attribute contains",
			query:  Tag("button").Contains("aria-label", "Country"),
			expect: "(self::button) and contains(@aria-label, 'Country')",
		},
		{
			name:   "several tags with negated attributes",
			query:  Tag("input").NotEquals("type", "hidden").Lacks("readonly"),
			expect: "(self::input) and not(@type='hidden') and not(@readonly)",
		},
		{
			name:  "folded text",
			query: Tag("button").WithTextFold("Submit"),
			expect: "(self::button) and contains(translate(normalize-space(.), " +
				"'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), 'submit')",
		},
		{
			name:   "within ancestor",
			query:  Tag("li").Inside(Tag("ul").Contains("class", "menu")),
			expect: "(self::li) and ancestor::*[(self::ul) and contains(@class, 'menu')]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.query.Condition(); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestXPathBuilders(t *testing.T) {
	t.Parallel()

	div := Tag("div").Contains("class", "field")
	li := Tag("li").Equals("role", "option")

	if got := DocumentXPath(li); got != "//*[(self::li) and @role='option']" {
		t.Fatalf("unexpected document xpath: %q", got)
	}

	expected := "ancestor::*[((self::div) and contains(@class, 'field')) or ((self::li) and @role='option')][1]"
	if got := AncestorXPath(div, li); got != expected {
		t.Fatalf("unexpected ancestor xpath: %q", got)
	}

	if got := DescendantXPath(Tag("label")); got != ".//*[(self::label)]" {
		t.Fatalf("unexpected descendant xpath: %q", got)
	}
}

func TestLiteral(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"plain":        "'plain'",
		"it's":         `"it's"`,
		`say "it's" x`: `concat('say "it', "'", 's" x')`,
	}

	for input, expect := range tests {
		if got := Literal(input); got != expect {
			t.Fatalf("literal for %q: expected %s, got %s", input, expect, got)
		}
	}
}

func TestQueryBuildersDoNotShareAttrs(t *testing.T) {
	t.Parallel()

	base := Tag("input").NotEquals("type", "hidden")
	a := base.Lacks("readonly")
	b := base.Lacks("disabled")

	if len(a.Attrs) != 2 || len(b.Attrs) != 2 {
		t.Fatalf("expected two attrs each, got %d and %d", len(a.Attrs), len(b.Attrs))
	}
	if a.Attrs[1].Name != "readonly" || b.Attrs[1].Name != "disabled" {
		t.Fatalf("builders share backing array: %+v %+v", a.Attrs, b.Attrs)
	}
}
