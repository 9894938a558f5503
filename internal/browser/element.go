package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/spigell/form-responder/internal/page"
)

const (
	jsTag     = `() => this.tagName.toLowerCase()`
	jsValue   = `() => this.value === undefined || this.value === null ? '' : String(this.value)`
	jsOptions = `() => Array.from(this.options || []).map(o => ({text: o.text, value: o.value, selected: o.selected}))`
	jsSelect  = `(i) => {
		this.selectedIndex = i;
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`
)

// staleMarkers are CDP error messages raised for nodes removed by a re-render.
var staleMarkers = []string{
	"Cannot find context with specified id",
	"No node with given id found",
	"Node is detached from document",
	"Could not find node with given id",
}

type element struct {
	el      *rod.Element
	timeout time.Duration
}

var _ page.Element = (*element)(nil)

// do runs fn against a copy of the element bounded by the action timeout.
func (e *element) do(fn func(el *rod.Element) error) error {
	el := e.el.Timeout(e.timeout)
	defer el.CancelTimeout()
	return mapError(fn(el))
}

func (e *element) eval(js string, params ...any) (*proto.RuntimeRemoteObject, error) {
	var res *proto.RuntimeRemoteObject
	err := e.do(func(el *rod.Element) error {
		var err error
		res, err = el.Eval(js, params...)
		return err
	})
	return res, err
}

func (e *element) wrap(el *rod.Element) *element {
	return &element{el: el, timeout: e.timeout}
}

func (e *element) Tag() (string, error) {
	res, err := e.eval(jsTag)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *element) Attr(name string) (string, error) {
	var value string
	err := e.do(func(el *rod.Element) error {
		attr, err := el.Attribute(name)
		if err != nil {
			return err
		}
		if attr != nil {
			value = *attr
		}
		return nil
	})
	return value, err
}

func (e *element) Text() (string, error) {
	var text string
	err := e.do(func(el *rod.Element) error {
		var err error
		text, err = el.Text()
		return err
	})
	return text, err
}

func (e *element) Value() (string, error) {
	res, err := e.eval(jsValue)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *element) Visible() (bool, error) {
	var visible bool
	err := e.do(func(el *rod.Element) error {
		var err error
		visible, err = el.Visible()
		return err
	})
	return visible, err
}

func (e *element) Enabled() (bool, error) {
	var disabled bool
	err := e.do(func(el *rod.Element) error {
		var err error
		disabled, err = el.Disabled()
		return err
	})
	return !disabled, err
}

func (e *element) Options() ([]page.Option, error) {
	res, err := e.eval(jsOptions)
	if err != nil {
		return nil, err
	}

	items := res.Value.Arr()
	options := make([]page.Option, 0, len(items))
	for _, item := range items {
		options = append(options, page.Option{
			Text:     item.Get("text").Str(),
			Value:    item.Get("value").Str(),
			Selected: item.Get("selected").Bool(),
		})
	}
	return options, nil
}

func (e *element) SelectIndex(idx int) error {
	_, err := e.eval(jsSelect, idx)
	return err
}

func (e *element) Click() error {
	return e.do(func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

func (e *element) Clear() error {
	return e.do(func(el *rod.Element) error {
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input("")
	})
}

func (e *element) Type(text string) error {
	return e.do(func(el *rod.Element) error {
		return el.Input(text)
	})
}

func (e *element) Upload(path string) error {
	return e.do(func(el *rod.Element) error {
		return el.SetFiles([]string{path})
	})
}

func (e *element) ScrollIntoView() error {
	return e.do(func(el *rod.Element) error {
		return el.ScrollIntoView()
	})
}

func (e *element) Parent() (page.Element, error) {
	var parent *rod.Element
	err := e.do(func(el *rod.Element) error {
		var err error
		parent, err = el.Parent()
		return err
	})
	if err != nil {
		return nil, err
	}
	return e.wrap(parent), nil
}

func (e *element) PrevSibling() (page.Element, error) {
	var sibling *rod.Element
	err := e.do(func(el *rod.Element) error {
		var err error
		sibling, err = el.Previous()
		return err
	})
	if err != nil {
		return nil, err
	}
	return e.wrap(sibling), nil
}

func (e *element) Closest(qs ...page.Query) (page.Element, error) {
	found, err := e.query(page.AncestorXPath(qs...))
	if err != nil {
		return nil, err
	}
	return page.First(found, nil)
}

func (e *element) Query(qs ...page.Query) ([]page.Element, error) {
	return e.query(page.DescendantXPath(qs...))
}

func (e *element) query(xpath string) ([]page.Element, error) {
	var found rod.Elements
	err := e.do(func(el *rod.Element) error {
		var err error
		found, err = el.ElementsX(xpath)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]page.Element, 0, len(found))
	for _, el := range found {
		out = append(out, e.wrap(el))
	}
	return out, nil
}

// mapError translates rod and CDP errors into the page sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var (
		objectNotFound  *rod.ObjectNotFoundError
		elementNotFound *rod.ElementNotFoundError
	)
	switch {
	case errors.As(err, &objectNotFound):
		return fmt.Errorf("%w: %s", page.ErrStale, err.Error())
	case errors.As(err, &elementNotFound):
		return fmt.Errorf("%w: %s", page.ErrNotFound, err.Error())
	}

	msg := err.Error()
	for _, marker := range staleMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %s", page.ErrStale, msg)
		}
	}
	return err
}
