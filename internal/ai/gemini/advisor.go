package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/ai"
	"github.com/spigell/form-responder/internal/utils"
)

// Source is reported on answers produced by the advisor.
const Source = "gemini"

const defaultMaxLogLength = 200

//go:embed prompt.md
var systemPrompt string

// ErrInvalidChoice is returned when the model answers with an option the form does not offer.
var ErrInvalidChoice = errors.New("gemini chose an option that is not offered")

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Advisor answers screening questions with Gemini using the applicant's saved answers.
type Advisor struct {
	generator contentGenerator
	answers   map[string]string
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Answerer = (*Advisor)(nil)

func NewAdvisor(generator contentGenerator, answers map[string]string, logger *zap.Logger, maxLogLength int) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Advisor{
		generator: generator,
		answers:   answers,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

type request struct {
	Applicant map[string]string `json:"applicant"`
	Question  string            `json:"question"`
	Options   []string          `json:"options"`
}

type response struct {
	Choice string `json:"choice"`
	Reason string `json:"reason"`
}

func (a *Advisor) Answer(ctx context.Context, q ai.Question) (*ai.Answer, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, errors.New("question text is required")
	}
	if len(q.Options) == 0 {
		return nil, errors.New("question has no options")
	}

	payload, err := json.MarshalIndent(request{
		Applicant: a.answers,
		Question:  q.Text,
		Options:   q.Options,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal question payload: %w", err)
	}
	message := string(payload)

	a.logger.Debug("gemini question request",
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("question", utils.TruncateForLog(q.Text, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, systemPrompt, message)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini question response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	var parsed response
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	choice, ok := offered(parsed.Choice, q.Options)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChoice, parsed.Choice)
	}

	return &ai.Answer{
		Choice: choice,
		Reason: strings.TrimSpace(parsed.Reason),
		Source: Source,
		Raw:    raw,
	}, nil
}

// offered returns the option matching choice, ignoring case and surrounding space.
func offered(choice string, options []string) (string, bool) {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return "", false
	}
	for _, option := range options {
		if strings.EqualFold(strings.TrimSpace(option), choice) {
			return option, true
		}
	}
	return "", false
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
