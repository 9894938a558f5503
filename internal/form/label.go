package form

import (
	"strings"

	"github.com/spigell/form-responder/internal/page"
	"github.com/spigell/form-responder/internal/utils"
)

const maxInferredLabelLength = 50

// labelSource is one step of label resolution. It returns an empty string
// when it has no answer, including when a lookup failed.
type labelSource func(p page.Page, el page.Element, id string) string

var labelSources = []labelSource{
	labelFor,
	enclosingLabel,
	precedingSibling,
	ancestorFirstLine,
}

// ResolveLabel derives the best-effort human readable label of el.
func ResolveLabel(p page.Page, el page.Element) string {
	id, _ := el.Attr("id")
	for _, source := range labelSources {
		if label := source(p, el, id); label != "" {
			return label
		}
	}
	return ""
}

func labelFor(p page.Page, _ page.Element, id string) string {
	if id == "" {
		return ""
	}
	label, err := page.First(p.Query(page.Tag("label").Equals("for", id)))
	if err != nil {
		return ""
	}
	return trimmedText(label)
}

func enclosingLabel(_ page.Page, el page.Element, _ string) string {
	label, err := el.Closest(page.Tag("label"))
	if err != nil {
		return ""
	}
	return trimmedText(label)
}

func precedingSibling(_ page.Page, el page.Element, _ string) string {
	sibling, err := el.PrevSibling()
	if err != nil {
		return ""
	}
	return trimmedText(sibling)
}

// ancestorFirstLine uses the first line of the nearest ancestor that has any
// text of its own or below it.
func ancestorFirstLine(_ page.Page, el page.Element, _ string) string {
	for {
		parent, err := el.Parent()
		if err != nil {
			return ""
		}
		if text := trimmedText(parent); text != "" {
			return utils.Truncate(utils.FirstLine(text), maxInferredLabelLength)
		}
		el = parent
	}
}

func trimmedText(el page.Element) string {
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
