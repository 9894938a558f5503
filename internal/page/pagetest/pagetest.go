// Package pagetest provides an in-memory page.Tab for exercising the form
// engine without a browser.
package pagetest

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spigell/form-responder/internal/page"
)

// Node is one element of the in-memory document.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Content  string
	Value    string
	Hidden   bool
	Disabled bool
	Checked  bool
	Options  []page.Option
	Files    []string

	// OnClick runs after the node is clicked. It may re-render the document.
	OnClick func(d *Doc, n *Node)
	// OnSelect runs after an option of a native select is chosen.
	OnSelect func(d *Doc, n *Node, idx int)

	Clicks    int
	Scrolls   int
	Mutations int

	children []*Node
	parent   *Node
	doc      *Doc
}

// El creates a node with the given attributes passed as key/value pairs.
func El(tag string, attrs ...string) *Node {
	n := &Node{Tag: tag, Attrs: map[string]string{}}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attrs[attrs[i]] = attrs[i+1]
	}
	return n
}

// Input creates an input of the given type.
func Input(typ string, attrs ...string) *Node {
	n := El("input", attrs...)
	if typ != "" {
		n.Attrs["type"] = typ
	}
	return n
}

// Select creates a native select with the given option texts. Like a
// browser, the first option starts selected. Option values equal their text.
func Select(options []string, attrs ...string) *Node {
	n := El("select", attrs...)
	for i, text := range options {
		n.Options = append(n.Options, page.Option{Text: text, Value: text, Selected: i == 0})
	}
	return n
}

// Choose selects the option at idx without counting a mutation. It is
// meant for arranging a document before a test acts on it.
func (n *Node) Choose(idx int) *Node {
	for i := range n.Options {
		n.Options[i].Selected = i == idx
	}
	return n
}

// Text sets the node's own text.
func (n *Node) Text(s string) *Node {
	n.Content = s
	return n
}

// Add appends children and returns the node.
func (n *Node) Add(children ...*Node) *Node {
	for _, child := range children {
		child.parent = n
		child.setDoc(n.doc)
		n.children = append(n.children, child)
	}
	return n
}

// Children returns the direct children of the node.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// Selected returns the text of the selected option or an empty string.
func (n *Node) Selected() string {
	for _, opt := range n.Options {
		if opt.Selected {
			return opt.Text
		}
	}
	return ""
}

func (n *Node) setDoc(d *Doc) {
	n.doc = d
	for _, child := range n.children {
		child.setDoc(d)
	}
}

func (n *Node) attached() bool {
	if n.doc == nil {
		return false
	}
	top := n
	for top.parent != nil {
		top = top.parent
	}
	return top == n.doc.Root
}

func (n *Node) shown() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.Hidden {
			return false
		}
	}
	return true
}

func (n *Node) attr(name string) (string, bool) {
	if name == "disabled" && n.Disabled {
		return "", true
	}
	v, ok := n.Attrs[name]
	return v, ok
}

func (n *Node) renderedText() string {
	if !n.shown() {
		return ""
	}
	parts := make([]string, 0, len(n.children)+1)
	if s := strings.TrimSpace(n.Content); s != "" {
		parts = append(parts, s)
	}
	for _, child := range n.children {
		if s := child.renderedText(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func (n *Node) walk(fn func(*Node)) {
	for _, child := range n.children {
		fn(child)
		child.walk(fn)
	}
}

// Doc is an in-memory page.Tab.
type Doc struct {
	Root  *Node
	Title string

	// OnNavigate runs on every navigation and may replace the document.
	OnNavigate func(d *Doc, url string) error
	// OnDismiss runs when the engine clicks outside of a popup.
	OnDismiss func(d *Doc)

	Navigated   []string
	Screenshots []string
	Dismissals  int
	Queries     int

	url string
}

// New creates a document whose body holds the given nodes.
func New(nodes ...*Node) *Doc {
	d := &Doc{}
	d.Root = El("body")
	d.Root.doc = d
	d.Root.Add(nodes...)
	return d
}

// Replace detaches the whole body content and renders nodes instead.
func (d *Doc) Replace(nodes ...*Node) {
	for _, child := range d.Root.children {
		child.parent = nil
	}
	d.Root.children = nil
	d.Root.Add(nodes...)
}

// Remove detaches n from the document. Handles to it become stale.
func (d *Doc) Remove(n *Node) {
	if n.parent == nil {
		return
	}
	siblings := n.parent.children
	for i, child := range siblings {
		if child == n {
			n.parent.children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Find returns every attached node with the given id attribute.
func (d *Doc) Find(id string) *Node {
	var found *Node
	d.Root.walk(func(n *Node) {
		if found == nil && n.Attrs["id"] == id {
			found = n
		}
	})
	return found
}

// Mutations returns the total number of value mutations in the document.
func (d *Doc) Mutations() int {
	total := 0
	d.Root.walk(func(n *Node) { total += n.Mutations })
	return total
}

func (d *Doc) Query(qs ...page.Query) ([]page.Element, error) {
	d.Queries++
	return collect(d.Root, qs), nil
}

func (d *Doc) Dismiss() error {
	d.Dismissals++
	if d.OnDismiss != nil {
		d.OnDismiss(d)
	}
	return nil
}

func (d *Doc) Navigate(_ context.Context, url string) error {
	d.Navigated = append(d.Navigated, url)
	d.url = url
	if d.OnNavigate != nil {
		return d.OnNavigate(d, url)
	}
	return nil
}

func (d *Doc) Info() (page.Info, error) {
	return page.Info{Title: d.Title, URL: d.url}, nil
}

func (d *Doc) Screenshot(path string) error {
	d.Screenshots = append(d.Screenshots, path)
	return nil
}

// NodeOf unwraps an element created by this package.
func NodeOf(el page.Element) *Node {
	if e, ok := el.(*element); ok {
		return e.n
	}
	return nil
}

func collect(root *Node, qs []page.Query) []page.Element {
	var out []page.Element
	root.walk(func(n *Node) {
		if matchAny(n, qs) {
			out = append(out, &element{n: n})
		}
	})
	return out
}

func matchAny(n *Node, qs []page.Query) bool {
	for _, q := range qs {
		if match(n, q) {
			return true
		}
	}
	return false
}

func match(n *Node, q page.Query) bool {
	if len(q.Tags) > 0 && !slices.Contains(q.Tags, n.Tag) {
		return false
	}

	for _, m := range q.Attrs {
		if matchAttr(n, m) == m.Not {
			return false
		}
	}

	if q.Text != "" {
		text := strings.Join(strings.Fields(n.renderedText()), " ")
		if q.FoldText {
			text = strings.ToLower(text)
		}
		if !strings.Contains(text, q.Text) {
			return false
		}
	}

	if q.Within != nil {
		found := false
		for cur := n.parent; cur != nil; cur = cur.parent {
			if match(cur, *q.Within) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func matchAttr(n *Node, m page.AttrMatch) bool {
	v, ok := n.attr(m.Name)
	if !ok {
		return false
	}
	if m.Fold {
		v = strings.ToLower(v)
	}
	switch m.Op {
	case page.OpPresent:
		return true
	case page.OpContains:
		return strings.Contains(v, m.Value)
	default:
		return v == m.Value
	}
}

type element struct {
	n *Node
}

func (e *element) live() error {
	if !e.n.attached() {
		return fmt.Errorf("%s: %w", e.n.Tag, page.ErrStale)
	}
	return nil
}

func (e *element) Tag() (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	return e.n.Tag, nil
}

func (e *element) Attr(name string) (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	v, _ := e.n.attr(name)
	return v, nil
}

func (e *element) Text() (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	if e.n.Tag == "input" || e.n.Tag == "textarea" {
		return e.n.Value, nil
	}
	return e.n.renderedText(), nil
}

func (e *element) Value() (string, error) {
	if err := e.live(); err != nil {
		return "", err
	}
	if e.n.Tag == "select" {
		for _, opt := range e.n.Options {
			if opt.Selected {
				return opt.Value, nil
			}
		}
		return "", nil
	}
	return e.n.Value, nil
}

func (e *element) Visible() (bool, error) {
	if err := e.live(); err != nil {
		return false, err
	}
	return e.n.shown(), nil
}

func (e *element) Enabled() (bool, error) {
	if err := e.live(); err != nil {
		return false, err
	}
	return !e.n.Disabled, nil
}

func (e *element) Options() ([]page.Option, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	return slices.Clone(e.n.Options), nil
}

func (e *element) SelectIndex(idx int) error {
	if err := e.live(); err != nil {
		return err
	}
	if idx < 0 || idx >= len(e.n.Options) {
		return fmt.Errorf("option index %d out of range", idx)
	}
	for i := range e.n.Options {
		e.n.Options[i].Selected = i == idx
	}
	e.n.Mutations++
	if e.n.OnSelect != nil {
		e.n.OnSelect(e.n.doc, e.n, idx)
	}
	return nil
}

func (e *element) Click() error {
	if err := e.live(); err != nil {
		return err
	}
	if !e.n.shown() {
		return fmt.Errorf("%s is not visible", e.n.Tag)
	}
	e.n.Clicks++
	if e.n.Tag == "input" && (e.n.Attrs["type"] == "radio" || e.n.Attrs["type"] == "checkbox") {
		e.n.Checked = true
	}
	if e.n.OnClick != nil {
		e.n.OnClick(e.n.doc, e.n)
	}
	return nil
}

func (e *element) Clear() error {
	if err := e.live(); err != nil {
		return err
	}
	e.n.Value = ""
	e.n.Mutations++
	return nil
}

func (e *element) Type(text string) error {
	if err := e.live(); err != nil {
		return err
	}
	e.n.Value += text
	e.n.Mutations++
	return nil
}

func (e *element) Upload(path string) error {
	if err := e.live(); err != nil {
		return err
	}
	e.n.Files = []string{path}
	e.n.Value = `C:\fakepath\` + filepath.Base(path)
	e.n.Mutations++
	return nil
}

func (e *element) ScrollIntoView() error {
	if err := e.live(); err != nil {
		return err
	}
	e.n.Scrolls++
	return nil
}

func (e *element) Parent() (page.Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	if e.n.parent == nil {
		return nil, page.ErrNotFound
	}
	return &element{n: e.n.parent}, nil
}

func (e *element) PrevSibling() (page.Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	if e.n.parent == nil {
		return nil, page.ErrNotFound
	}
	siblings := e.n.parent.children
	idx := slices.Index(siblings, e.n)
	if idx <= 0 {
		return nil, page.ErrNotFound
	}
	return &element{n: siblings[idx-1]}, nil
}

func (e *element) Closest(qs ...page.Query) (page.Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	for cur := e.n.parent; cur != nil; cur = cur.parent {
		if matchAny(cur, qs) {
			return &element{n: cur}, nil
		}
	}
	return nil, page.ErrNotFound
}

func (e *element) Query(qs ...page.Query) ([]page.Element, error) {
	if err := e.live(); err != nil {
		return nil, err
	}
	return collect(e.n, qs), nil
}
