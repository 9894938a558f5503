package form

import "context"

// Action names a point where the engine suspends for an external decision.
type Action string

const (
	ActionLogin         Action = "login"
	ActionSelectCountry Action = "select_country"
	ActionSubmit        Action = "submit"
	ActionFillRemaining Action = "fill_remaining"
	ActionFieldValue    Action = "field_value"
	ActionNextStep      Action = "next_step"
)

// Request describes what the engine is waiting for.
type Request struct {
	Action Action
	// Detail is a human readable description of the pending action.
	Detail string
	// Manual is set when a human has to act on the page before the engine
	// can continue. Unattended operators decline such requests.
	Manual bool
	// Field describes the field a value is requested for.
	Field *FieldInfo
}

// FieldInfo describes a field presented to an operator.
type FieldInfo struct {
	Kind        Kind
	Tag         string
	Type        string
	ID          string
	Name        string
	Placeholder string
}

// Operator resolves suspension points.
type Operator interface {
	// Confirm reports whether the engine may proceed with the request. For
	// manual requests a true result means the human finished the action.
	Confirm(ctx context.Context, req Request) (bool, error)
	// Provide returns a value for a field. An empty value skips the field.
	Provide(ctx context.Context, req Request) (string, error)
}

// AutoOperator serves unattended runs: it approves automatic actions and
// declines anything requiring a human.
type AutoOperator struct{}

func (AutoOperator) Confirm(_ context.Context, req Request) (bool, error) {
	return !req.Manual, nil
}

func (AutoOperator) Provide(context.Context, Request) (string, error) {
	return "", nil
}
