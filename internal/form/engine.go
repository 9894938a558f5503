// Package form discovers, classifies and fills application form fields on a
// live page.
package form

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/ai"
	"github.com/spigell/form-responder/internal/page"
	"github.com/spigell/form-responder/internal/profile"
	"github.com/spigell/form-responder/internal/utils"
)

// Kind is the control kind of a field.
type Kind int

const (
	KindOther Kind = iota
	KindText
	KindSelect
	KindFile
	KindChoice
	KindButton
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSelect:
		return "select"
	case KindFile:
		return "file"
	case KindChoice:
		return "choice"
	case KindButton:
		return "button"
	default:
		return "other"
	}
}

// KindOf derives the control kind from a tag name and type attribute.
func KindOf(tag, typ string) Kind {
	switch strings.ToLower(tag) {
	case "textarea":
		return KindText
	case "select":
		return KindSelect
	case "button":
		return KindButton
	case "input":
	default:
		return KindOther
	}

	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text", "email", "tel", "url", "number", "search", "password",
		"date", "month", "week", "time", "datetime-local":
		return KindText
	case "file":
		return KindFile
	case "radio", "checkbox":
		return KindChoice
	case "submit", "button", "reset", "image":
		return KindButton
	default:
		return KindOther
	}
}

// Reselectable reports whether a control may be written even when it
// already holds a value.
func (k Kind) Reselectable() bool {
	return k == KindSelect || k == KindChoice
}

// Delays are the fixed settle periods awaited after actions that trigger
// asynchronous rendering.
type Delays struct {
	Dropdown      time.Duration
	CountryRender time.Duration
	Submit        time.Duration
	Login         time.Duration
}

// DefaultDelays returns the settle periods used against real pages.
func DefaultDelays() Delays {
	return Delays{
		Dropdown:      time.Second,
		CountryRender: 3 * time.Second,
		Submit:        5 * time.Second,
		Login:         3 * time.Second,
	}
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Profile  *profile.Profile
	Operator Operator
	// Answerer answers screening questions. Defaults to profile answers.
	Answerer ai.Answerer
	Logger   *zap.Logger
}

// Engine runs the form filling components against a page.
type Engine struct {
	profile  *profile.Profile
	operator Operator
	answerer ai.Answerer
	delays   Delays
	logger   *zap.Logger
}

// New creates an Engine. Missing optional dependencies get safe defaults.
func New(deps Deps, delays Delays) *Engine {
	e := &Engine{
		profile:  deps.Profile,
		operator: deps.Operator,
		answerer: deps.Answerer,
		delays:   delays,
		logger:   deps.Logger,
	}

	if e.operator == nil {
		e.operator = AutoOperator{}
	}
	if e.answerer == nil {
		e.answerer = NewProfileAnswerer(deps.Profile)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}

	return e
}

// WithLogger returns a copy of the engine logging to logger.
func (e *Engine) WithLogger(logger *zap.Logger) *Engine {
	c := *e
	if logger != nil {
		c.logger = logger
	}
	return &c
}

// Profile returns the profile the engine fills from.
func (e *Engine) Profile() *profile.Profile {
	return e.profile
}

func (e *Engine) settle(ctx context.Context, d time.Duration) {
	// A cancelled context surfaces on the next blocking call.
	_ = utils.WaitFor(ctx, d)
}

func (e *Engine) confirm(ctx context.Context, req Request) bool {
	ok, err := e.operator.Confirm(ctx, req)
	if err != nil {
		e.logger.Warn("operator confirmation failed",
			zap.String("action", string(req.Action)),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// Field is a snapshot of one control's attributes.
type Field struct {
	El      page.Element
	Tag     string
	Type    string
	Kind    Kind
	Value   string
	Signals Signals
}

// Info returns the operator-facing description of the field.
func (f Field) Info() *FieldInfo {
	return &FieldInfo{
		Kind:        f.Kind,
		Tag:         f.Tag,
		Type:        f.Type,
		ID:          f.Signals.ID,
		Name:        f.Signals.Name,
		Placeholder: f.Signals.Placeholder,
	}
}

// Inspect reads the attributes of el. The label is not resolved.
func Inspect(el page.Element) (Field, error) {
	tag, err := el.Tag()
	if err != nil {
		return Field{}, err
	}

	f := Field{El: el, Tag: tag}

	attrs := []struct {
		name   string
		target *string
	}{
		{"type", &f.Type},
		{"id", &f.Signals.ID},
		{"name", &f.Signals.Name},
		{"placeholder", &f.Signals.Placeholder},
		{"aria-label", &f.Signals.AriaLabel},
		{"title", &f.Signals.Title},
	}
	for _, attr := range attrs {
		v, err := el.Attr(attr.name)
		if err != nil {
			return Field{}, err
		}
		*attr.target = v
	}

	if f.Value, err = el.Value(); err != nil {
		return Field{}, err
	}

	f.Kind = KindOf(tag, f.Type)
	return f, nil
}

// usable reports whether el is displayed and enabled. Lookup errors count
// as unusable.
func usable(el page.Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	enabled, err := el.Enabled()
	return err == nil && enabled
}

func displayed(el page.Element) bool {
	visible, err := el.Visible()
	return err == nil && visible
}

func texts(elements []page.Element) []string {
	out := make([]string, 0, len(elements))
	for _, el := range elements {
		out = append(out, strings.TrimSpace(textOf(el)))
	}
	return out
}

func textOf(el page.Element) string {
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return text
}
