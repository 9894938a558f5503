package form

import (
	"strings"

	"github.com/spigell/form-responder/internal/profile"
)

// Category is the semantic bucket a field is classified into.
type Category string

const (
	CategoryFirstName    Category = "first_name"
	CategoryLastName     Category = "last_name"
	CategoryEmail        Category = "email"
	CategoryPhone        Category = "phone"
	CategoryAddressLine1 Category = "address_line1"
	CategoryAddressLine2 Category = "address_line2"
	CategoryCity         Category = "city"
	CategoryState        Category = "state"
	CategoryZipCode      Category = "zip_code"
	CategoryLinkedInURL  Category = "linkedin_url"
	CategoryResumeFile   Category = "resume_file"
	CategoryHowHeard     Category = "how_heard"
	CategoryUnmatched    Category = "unmatched"
)

// opaqueIDLength is the identifier length above which an id is assumed to be
// framework generated and the surrounding container text is consulted.
const opaqueIDLength = 20

// Rule maps keyword presence to a category.
type Rule struct {
	Category Category
	// Keywords match when any of them is a substring of the text.
	Keywords []string
	// Excludes veto the rule when any of them is a substring of the text.
	Excludes []string
}

// Matches reports whether the lower-cased text satisfies the rule.
func (r Rule) Matches(text string) bool {
	for _, ex := range r.Excludes {
		if strings.Contains(text, ex) {
			return false
		}
	}
	for _, kw := range r.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// fieldRules is evaluated top-down and the first match wins. The order is
// load-bearing: first name precedes last name, and the broad address rules
// come after email and phone so "email address" stays an email field.
var fieldRules = []Rule{
	{Category: CategoryFirstName, Keywords: []string{"first name", "firstname", "given name", "fname", "first", "given"}},
	{Category: CategoryLastName, Keywords: []string{"last name", "lastname", "family name", "surname", "lname", "last", "family"}},
	{Category: CategoryEmail, Keywords: []string{"email", "e-mail"}},
	{Category: CategoryPhone, Keywords: []string{"phone number", "mobile", "telephone", "tel", "phone"}, Excludes: []string{"code", "extension"}},
	{Category: CategoryAddressLine1, Keywords: []string{"address line 1", "street address", "address1", "street"}},
	{Category: CategoryAddressLine2, Keywords: []string{"address line 2", "address2"}},
	{Category: CategoryCity, Keywords: []string{"city", "town"}, Excludes: []string{"address"}},
	{Category: CategoryState, Keywords: []string{"state", "province"}},
	{Category: CategoryZipCode, Keywords: []string{"postal code", "zip code", "zipcode", "zip", "postal"}},
	{Category: CategoryLinkedInURL, Keywords: []string{"linkedin"}},
	{Category: CategoryResumeFile, Keywords: []string{"resume", "cv"}},
	{Category: CategoryHowHeard, Keywords: []string{"how did you hear", "source", "referral source"}},
}

// containerRules is the reduced set applied to the text of the wrapper
// around an opaque-id field.
var containerRules = []Rule{
	{Category: CategoryFirstName, Keywords: []string{"first", "given"}},
	{Category: CategoryLastName, Keywords: []string{"last", "family", "surname"}},
	{Category: CategoryEmail, Keywords: []string{"email", "mail"}},
	{Category: CategoryPhone, Keywords: []string{"phone", "mobile", "tel"}},
	{Category: CategoryAddressLine1, Keywords: []string{"address", "street"}},
	{Category: CategoryCity, Keywords: []string{"city"}},
}

// Signals are the textual hints gathered from one element.
type Signals struct {
	ID          string
	Name        string
	Placeholder string
	AriaLabel   string
	Title       string
	Label       string
}

// Attributes joins the attribute signals without the resolved label.
func (s Signals) Attributes() string {
	return strings.ToLower(strings.Join([]string{s.ID, s.Name, s.Placeholder, s.AriaLabel, s.Title}, " "))
}

// Combined joins every signal, lower-cased and space separated.
func (s Signals) Combined() string {
	return strings.ToLower(strings.Join([]string{s.ID, s.Name, s.Placeholder, s.AriaLabel, s.Title, s.Label}, " "))
}

// Describe returns the most human-friendly name for the field.
func (s Signals) Describe() string {
	for _, v := range []string{s.Label, s.Name, s.ID, s.Placeholder, s.AriaLabel} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return "unnamed field"
}

// OpaqueID reports whether the id looks framework generated.
func (s Signals) OpaqueID() bool {
	return len(s.ID) > opaqueIDLength
}

// Classify maps combined, lower-cased text to a category.
func Classify(combined string) Category {
	return firstMatch(fieldRules, strings.ToLower(combined))
}

// ClassifyContainer applies the reduced rule set to wrapper text.
func ClassifyContainer(text string) Category {
	return firstMatch(containerRules, strings.ToLower(text))
}

func firstMatch(rules []Rule, text string) Category {
	for _, rule := range rules {
		if rule.Matches(text) {
			return rule.Category
		}
	}
	return CategoryUnmatched
}

// ValueFor returns the profile value backing a category.
func ValueFor(p *profile.Profile, c Category) string {
	switch c {
	case CategoryResumeFile:
		return p.Resume()
	case CategoryUnmatched:
		return ""
	default:
		return p.Value(string(c))
	}
}
