package form

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/page"
)

// Status is the result class of one fill attempt.
type Status int

const (
	StatusFilled Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusFilled:
		return "filled"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Outcome is the result of filling one field.
type Outcome struct {
	Field    string
	Category Category
	Status   Status
	Reason   string
	// Applied is the text actually written or selected.
	Applied string
}

func filled(applied string) Outcome {
	return Outcome{Status: StatusFilled, Applied: applied}
}

func skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: err.Error()}
}

// Fill writes value into the field according to its control kind. Errors
// raised by the page are converted into a failed outcome.
func (e *Engine) Fill(f Field, value string) Outcome {
	switch f.Kind {
	case KindFile:
		return e.upload(f.El, value)
	case KindSelect:
		return e.selectNative(f.El, value)
	case KindText:
		return e.typeText(f.El, value)
	default:
		return skipped(fmt.Sprintf("unsupported control kind %s", f.Kind))
	}
}

func (e *Engine) upload(el page.Element, path string) Outcome {
	if strings.TrimSpace(path) == "" {
		return failed(fmt.Errorf("file path is empty"))
	}
	if _, err := os.Stat(path); err != nil {
		return failed(fmt.Errorf("file %q is not accessible: %w", path, err))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return failed(err)
	}
	if err := el.Upload(abs); err != nil {
		return failed(err)
	}
	return filled(abs)
}

func (e *Engine) typeText(el page.Element, value string) Outcome {
	if err := el.Clear(); err != nil {
		return failed(err)
	}
	if err := el.Type(value); err != nil {
		return failed(err)
	}
	return filled(value)
}

func (e *Engine) selectNative(el page.Element, value string) Outcome {
	options, err := el.Options()
	if err != nil {
		return failed(err)
	}

	idx := matchOption(optionTexts(options), value)
	if idx < 0 {
		e.logger.Warn("could not find option matching value",
			zap.String("value", value),
			zap.Strings("available_options", optionTexts(options)),
		)
		return skipped("no matching option")
	}

	chosen := strings.TrimSpace(options[idx].Text)
	if options[idx].Selected {
		return skipped("already selected")
	}

	if err := el.SelectIndex(idx); err != nil {
		return failed(err)
	}
	return filled(chosen)
}

// matchOption returns the index of the option whose text equals value, or
// else the first option containing value or contained in it. Comparison
// ignores case. It returns -1 when nothing matches.
func matchOption(options []string, value string) int {
	want := strings.ToLower(strings.TrimSpace(value))
	if want == "" {
		return -1
	}

	for i, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == want {
			return i
		}
	}

	for i, opt := range options {
		have := strings.ToLower(strings.TrimSpace(opt))
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return i
		}
	}

	return -1
}

func optionTexts(options []page.Option) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, strings.TrimSpace(opt.Text))
	}
	return out
}
