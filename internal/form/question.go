package form

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/form-responder/internal/ai"
	"github.com/spigell/form-responder/internal/page"
	"github.com/spigell/form-responder/internal/profile"
	"github.com/spigell/form-responder/internal/utils"
)

const (
	// DefaultAnswer is used for matched questions the profile has no answer for.
	DefaultAnswer = "No"

	SourceProfile = "profile"
	SourceDefault = "default"
)

var questionContainers = []page.Query{
	page.Tag("fieldset"),
	page.Tag().Equals("role", "radiogroup"),
}

// questionStems maps known question phrasings to profile answer keys.
// Evaluated top-down.
var questionStems = []struct {
	key   string
	stems []string
}{
	{"past_employee", []string{"have you worked", "previously worked", "former employee", "previously employed"}},
	{"require_sponsorship", []string{"sponsorship", "visa status"}},
	{"criminal_history", []string{"convicted", "criminal", "felony"}},
	{"eligible_to_work_country", []string{"legally authorized", "authorized to work", "eligible to work", "right to work"}},
	{"veteran_status", []string{"veteran"}},
	{"disability_status", []string{"disability"}},
	{"office_location_preference", []string{"office", "relocate", "on-site", "onsite"}},
}

// ProfileAnswerer answers screening questions from profile answers.
type ProfileAnswerer struct {
	profile *profile.Profile
	guesser ai.Answerer
}

// NewProfileAnswerer returns an answerer backed by p.
func NewProfileAnswerer(p *profile.Profile) *ProfileAnswerer {
	return &ProfileAnswerer{profile: p}
}

// WithGuesser makes the answerer consult g for questions the profile cannot answer.
func (a *ProfileAnswerer) WithGuesser(g ai.Answerer) *ProfileAnswerer {
	a.guesser = g
	return a
}

// Answer returns the profile answer for the first matching stem. Otherwise
// the guesser is asked, and DefaultAnswer is used when it is absent or fails.
func (a *ProfileAnswerer) Answer(ctx context.Context, q ai.Question) (*ai.Answer, error) {
	text := strings.ToLower(q.Text)
	for _, rule := range questionStems {
		if !containsAny(text, rule.stems) {
			continue
		}
		if value := a.profile.Value(rule.key); value != "" {
			return &ai.Answer{
				Choice: value,
				Reason: fmt.Sprintf("profile answer %s", rule.key),
				Source: SourceProfile,
			}, nil
		}
		break
	}

	reason := "no profile answer for question"
	if a.guesser != nil {
		answer, err := a.guesser.Answer(ctx, q)
		if err == nil {
			return answer, nil
		}
		reason = fmt.Sprintf("%s, guess failed: %v", reason, err)
	}

	return &ai.Answer{
		Choice: DefaultAnswer,
		Reason: reason,
		Source: SourceDefault,
	}, nil
}

// ResolveQuestions answers grouped yes/no questions by clicking the option
// label matching the answer. It reports whether any option was clicked.
func (e *Engine) ResolveQuestions(ctx context.Context, p page.Page) bool {
	e.logger.Info("checking for yes/no questions")

	containers, err := p.Query(questionContainers...)
	if err != nil {
		e.logger.Warn("could not scan question groups", zap.Error(err))
		return false
	}

	answered := 0
	for _, container := range containers {
		text, err := container.Text()
		if err != nil {
			e.logger.Debug("question group became stale", zap.Error(err))
			continue
		}
		if !isYesNoQuestion(text) {
			continue
		}

		if e.answerQuestion(ctx, container, text) {
			answered++
		}
	}

	if answered > 0 {
		e.logger.Info("answered yes/no questions", zap.Int("count", answered))
	}
	return answered > 0
}

func isYesNoQuestion(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "have you worked") ||
		(strings.Contains(lower, "yes") && strings.Contains(lower, "no"))
}

func (e *Engine) answerQuestion(ctx context.Context, container page.Element, text string) bool {
	question := questionText(container, text)

	labels, err := container.Query(page.Tag("label"))
	if err != nil || len(labels) == 0 {
		e.logger.Warn("could not find options of question", zap.String("question", question))
		return false
	}
	options := texts(labels)

	e.logger.Info("detected yes/no question", zap.String("question", utils.Truncate(question, 60)))

	answer, err := e.answerer.Answer(ctx, ai.Question{Text: question, Options: options})
	if err != nil {
		e.logger.Warn("could not answer question", zap.String("question", question), zap.Error(err))
		return false
	}
	if answer.Source == SourceDefault {
		e.logger.Warn("answering question with default guess",
			zap.String("question", question),
			zap.String("answer", answer.Choice),
		)
	}

	idx := matchLabel(options, answer.Choice)
	if idx < 0 {
		e.logger.Warn("could not find option for answer",
			zap.String("answer", answer.Choice),
			zap.Strings("available_options", options),
		)
		return false
	}

	choice := labels[idx]
	if err := choice.ScrollIntoView(); err != nil {
		e.logger.Debug("could not scroll to option", zap.Error(err))
	}
	if err := choice.Click(); err != nil {
		e.logger.Warn("could not select answer", zap.String("answer", options[idx]), zap.Error(err))
		return false
	}

	e.logger.Info("selected answer",
		zap.String("answer", options[idx]),
		zap.String("source", answer.Source),
		zap.String("reason", answer.Reason),
	)
	return true
}

// questionText prefers the legend of the group and falls back to the first
// line of its text.
func questionText(container page.Element, text string) string {
	if legend, err := page.First(container.Query(page.Tag("legend"))); err == nil {
		if s := strings.TrimSpace(textOf(legend)); s != "" {
			return s
		}
	}
	return utils.FirstLine(strings.TrimSpace(text))
}

// matchLabel prefers a label equal to answer, then one containing it.
func matchLabel(labels []string, answer string) int {
	want := strings.ToLower(strings.TrimSpace(answer))
	if want == "" {
		return -1
	}
	for i, label := range labels {
		if strings.ToLower(strings.TrimSpace(label)) == want {
			return i
		}
	}
	for i, label := range labels {
		if strings.Contains(strings.ToLower(label), want) {
			return i
		}
	}
	return -1
}
