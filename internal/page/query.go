package page

import (
	"fmt"
	"strings"
)

const (
	upperAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlphabet = "abcdefghijklmnopqrstuvwxyz"
)

// MatchOp is the comparison applied to an attribute.
type MatchOp int

const (
	OpEquals MatchOp = iota
	OpContains
	OpPresent
)

// AttrMatch is one attribute condition of a Query.
type AttrMatch struct {
	Name  string
	Value string
	Op    MatchOp
	// Fold compares case-insensitively. Value must be lower-case.
	Fold bool
	// Not negates the condition.
	Not bool
}

// Query is a structured element selector. All conditions must hold.
type Query struct {
	// Tags limits the match to these tag names. Empty means any tag.
	Tags  []string
	Attrs []AttrMatch
	// Text requires the rendered text to contain the value.
	Text string
	// FoldText compares Text case-insensitively. Text must be lower-case.
	FoldText bool
	// Within requires an ancestor matching the query.
	Within *Query
}

// Tag starts a query for the given tags.
func Tag(tags ...string) Query {
	return Query{Tags: tags}
}

// Equals adds an exact attribute condition.
func (q Query) Equals(name, value string) Query {
	return q.with(AttrMatch{Name: name, Value: value, Op: OpEquals})
}

// Contains adds a case-sensitive substring attribute condition.
func (q Query) Contains(name, value string) Query {
	return q.with(AttrMatch{Name: name, Value: value, Op: OpContains})
}

// ContainsFold adds a case-insensitive substring attribute condition.
func (q Query) ContainsFold(name, value string) Query {
	return q.with(AttrMatch{Name: name, Value: strings.ToLower(value), Op: OpContains, Fold: true})
}

// Has requires the attribute to be present.
func (q Query) Has(name string) Query {
	return q.with(AttrMatch{Name: name, Op: OpPresent})
}

// Lacks requires the attribute to be absent.
func (q Query) Lacks(name string) Query {
	return q.with(AttrMatch{Name: name, Op: OpPresent, Not: true})
}

// NotEquals requires the attribute to differ from value.
func (q Query) NotEquals(name, value string) Query {
	return q.with(AttrMatch{Name: name, Value: value, Op: OpEquals, Not: true})
}

// WithText requires the rendered text to contain value.
func (q Query) WithText(value string) Query {
	q.Text = value
	q.FoldText = false
	return q
}

// WithTextFold requires the rendered text to contain value, ignoring case.
func (q Query) WithTextFold(value string) Query {
	q.Text = strings.ToLower(value)
	q.FoldText = true
	return q
}

// Inside requires an ancestor matching parent.
func (q Query) Inside(parent Query) Query {
	q.Within = &parent
	return q
}

func (q Query) with(m AttrMatch) Query {
	attrs := make([]AttrMatch, 0, len(q.Attrs)+1)
	attrs = append(attrs, q.Attrs...)
	q.Attrs = append(attrs, m)
	return q
}

// Condition renders the query as an XPath boolean expression evaluated
// against the context node.
func (q Query) Condition() string {
	parts := make([]string, 0, len(q.Attrs)+3)

	if len(q.Tags) > 0 {
		tags := make([]string, 0, len(q.Tags))
		for _, tag := range q.Tags {
			tags = append(tags, "self::"+tag)
		}
		parts = append(parts, "("+strings.Join(tags, " or ")+")")
	}

	for _, attr := range q.Attrs {
		parts = append(parts, attr.condition())
	}

	if q.Text != "" {
		text := "normalize-space(.)"
		if q.FoldText {
			text = fold(text)
		}
		parts = append(parts, fmt.Sprintf("contains(%s, %s)", text, Literal(q.Text)))
	}

	if q.Within != nil {
		parts = append(parts, fmt.Sprintf("ancestor::*[%s]", q.Within.Condition()))
	}

	if len(parts) == 0 {
		return "true()"
	}

	return strings.Join(parts, " and ")
}

func (m AttrMatch) condition() string {
	attr := "@" + m.Name
	var cond string
	switch m.Op {
	case OpPresent:
		cond = attr
	case OpContains:
		subject := attr
		if m.Fold {
			subject = fold(attr)
		}
		cond = fmt.Sprintf("contains(%s, %s)", subject, Literal(m.Value))
	default:
		subject := attr
		if m.Fold {
			subject = fold(attr)
		}
		cond = fmt.Sprintf("%s=%s", subject, Literal(m.Value))
	}

	if m.Not {
		return "not(" + cond + ")"
	}
	return cond
}

// Union joins query conditions with "or".
func Union(qs ...Query) string {
	if len(qs) == 1 {
		return qs[0].Condition()
	}
	parts := make([]string, 0, len(qs))
	for _, q := range qs {
		parts = append(parts, "("+q.Condition()+")")
	}
	return strings.Join(parts, " or ")
}

// DocumentXPath selects every node in the document matching any query.
func DocumentXPath(qs ...Query) string {
	return fmt.Sprintf("//*[%s]", Union(qs...))
}

// DescendantXPath selects descendants of the context node matching any query.
func DescendantXPath(qs ...Query) string {
	return fmt.Sprintf(".//*[%s]", Union(qs...))
}

// AncestorXPath selects the nearest ancestor matching any query.
func AncestorXPath(qs ...Query) string {
	return fmt.Sprintf("ancestor::*[%s][1]", Union(qs...))
}

// Literal quotes s as an XPath string literal.
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func fold(expr string) string {
	return fmt.Sprintf("translate(%s, '%s', '%s')", expr, upperAlphabet, lowerAlphabet)
}
