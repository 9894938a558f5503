package form

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/page"
)

// ErrLoginRequired is returned when a login wall was not passed.
var ErrLoginRequired = errors.New("login required")

var loginIndicators = []page.Query{
	page.Tag("input").Equals("type", "password"),
}

// CheckLogin asks the operator to log in when a visible password input is
// present. It returns ErrLoginRequired when the operator declines.
func (e *Engine) CheckLogin(ctx context.Context, p page.Page) error {
	e.logger.Info("checking if login is required")

	candidates, err := p.Query(loginIndicators...)
	if err != nil {
		e.logger.Warn("could not check for login form", zap.Error(err))
		return nil
	}

	wall := false
	for _, el := range candidates {
		if displayed(el) {
			wall = true
			break
		}
	}
	if !wall {
		return nil
	}

	e.logger.Info("login detected, please log in manually")
	if !e.confirm(ctx, Request{
		Action: ActionLogin,
		Detail: "log in on the page, then continue",
		Manual: true,
	}) {
		e.logger.Warn("cannot continue without login")
		return ErrLoginRequired
	}

	e.settle(ctx, e.delays.Login)
	return nil
}
