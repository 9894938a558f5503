// Package page describes the live rendered document the form engine works on.
// Handles returned from a Page are non-owning: any re-render may invalidate
// them, in which case every method returns ErrStale.
package page

import (
	"context"
	"errors"
)

var (
	// ErrStale is returned when an element handle was invalidated by a re-render.
	ErrStale = errors.New("element is stale")
	// ErrNotFound is returned by relative lookups that matched nothing.
	ErrNotFound = errors.New("element not found")
)

// Option is one entry of a native select.
type Option struct {
	Text string
	// Value is the option's value attribute. Placeholders usually carry an
	// empty one.
	Value    string
	Selected bool
}

// Element is a handle to one node on the live page.
type Element interface {
	// Tag returns the lower-cased tag name.
	Tag() (string, error)
	// Attr returns the attribute value or an empty string when it is absent.
	Attr(name string) (string, error)
	// Text returns the rendered text of the element.
	Text() (string, error)
	// Value returns the current value property of a control.
	Value() (string, error)
	Visible() (bool, error)
	Enabled() (bool, error)

	// Options returns the options of a native select in document order.
	Options() ([]Option, error)
	SelectIndex(idx int) error

	Click() error
	Clear() error
	Type(text string) error
	Upload(path string) error
	ScrollIntoView() error

	Parent() (Element, error)
	PrevSibling() (Element, error)
	// Closest returns the nearest ancestor matching any of the queries.
	Closest(qs ...Query) (Element, error)
	// Query returns descendants matching any of the queries in document order.
	Query(qs ...Query) ([]Element, error)
}

// Page is the query surface of the current document.
type Page interface {
	// Query returns elements matching any of the queries in document order.
	Query(qs ...Query) ([]Element, error)
	// Dismiss clicks outside of any open popup.
	Dismiss() error
}

// Info describes the loaded document.
type Info struct {
	Title string
	URL   string
}

// Tab is a Page that can be navigated.
type Tab interface {
	Page
	Navigate(ctx context.Context, url string) error
	Info() (Info, error)
	Screenshot(path string) error
}

// First returns the first element or ErrNotFound.
func First(elements []Element, err error) (Element, error) {
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, ErrNotFound
	}
	return elements[0], nil
}

// IsStale reports whether err means the handle can no longer be used.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}
