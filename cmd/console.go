package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/form"
	"github.com/spigell/form-responder/internal/utils"
)

const (
	PromptContinue = "Continue"
	PromptSkip     = "Skip"
)

// consoleOperator resolves engine suspension points on the terminal.
// Without a visible browser nobody can act on the page, so headless
// operators decline manual requests.
type consoleOperator struct {
	headless          bool
	autoApprove       bool
	reviewPause       time.Duration
	unknownFieldPause time.Duration
	logger            *zap.Logger
}

var _ form.Operator = (*consoleOperator)(nil)

func (o *consoleOperator) Confirm(ctx context.Context, req form.Request) (bool, error) {
	if o.headless && req.Manual {
		o.logger.Warn("declining manual action in headless mode",
			zap.String("action", string(req.Action)),
			zap.String("detail", req.Detail),
		)
		return false, nil
	}

	if o.autoApprove {
		pause := o.reviewPause
		if req.Manual {
			pause = o.unknownFieldPause
		}
		o.logger.Info("waiting before continuing",
			zap.String("action", string(req.Action)),
			zap.String("detail", req.Detail),
			zap.Duration("pause", pause),
		)
		if err := utils.WaitFor(ctx, pause); err != nil {
			return false, err
		}
		return true, nil
	}

	prompt := promptui.Select{
		Label: confirmLabel(req),
		Items: []string{PromptContinue, PromptSkip},
	}
	_, choice, err := prompt.Run()
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	return choice == PromptContinue, nil
}

func (o *consoleOperator) Provide(ctx context.Context, req form.Request) (string, error) {
	if o.autoApprove {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt := promptui.Prompt{
		Label: fieldLabel(req.Field),
	}
	value, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return strings.TrimSpace(value), nil
}

func confirmLabel(req form.Request) string {
	switch req.Action {
	case form.ActionLogin:
		return "Login required. Log in in the browser, then continue"
	case form.ActionSelectCountry:
		return "Select the country manually in the browser, then continue"
	case form.ActionSubmit:
		return "Review the form. Submit it?"
	case form.ActionFillRemaining:
		return "Some required fields are still empty. Fill them now?"
	case form.ActionNextStep:
		return "Continue with the next page of the form?"
	default:
		if req.Detail != "" {
			return req.Detail
		}
		return "Proceed?"
	}
}

func fieldLabel(f *form.FieldInfo) string {
	if f == nil {
		return "Value (empty or 'skip' to skip)"
	}

	name := f.Placeholder
	for _, candidate := range []string{f.Name, f.ID} {
		if name == "" {
			name = candidate
		}
	}
	if name == "" {
		name = "unnamed field"
	}
	return fmt.Sprintf("%s %s (%s). Value, empty or 'skip' to skip", f.Tag, name, f.Kind)
}
