package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// scriptedChats hands out one scripted reply per created chat and records
// what each chat was created with.
type scriptedChats struct {
	mu      sync.Mutex
	replies []scriptedReply
	created []*recordedChat
}

type scriptedReply struct {
	text string
	err  error
}

type recordedChat struct {
	model  string
	config *genai.GenerateContentConfig
	reply  scriptedReply
	sent   []string
}

func (c *recordedChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, part := range parts {
		c.sent = append(c.sent, part.Text)
	}
	if c.reply.err != nil {
		return nil, c.reply.err
	}
	return textResponse(c.reply.text), nil
}

func (s *scriptedChats) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	chat := &recordedChat{model: model, config: config, reply: s.replies[0]}
	s.replies = s.replies[1:]
	s.created = append(s.created, chat)
	return chat, nil
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func newScriptedGenerator(maxRetries int, replies ...scriptedReply) (*Generator, *scriptedChats) {
	chats := &scriptedChats{replies: replies}
	return &Generator{
		chats:      chats,
		model:      "gemini-2.5-flash",
		maxRetries: maxRetries,
		logger:     zap.NewNop(),
	}, chats
}

// recordWaits replaces the backoff wait and returns the requested delays.
func recordWaits(t *testing.T) *[]time.Duration {
	t.Helper()
	original := wait
	var delays []time.Duration
	wait = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	t.Cleanup(func() { wait = original })
	return &delays
}

var serverError = genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}

func TestGenerateContentRetriesServerErrors(t *testing.T) {
	delays := recordWaits(t)
	g, chats := newScriptedGenerator(3,
		scriptedReply{err: serverError},
		scriptedReply{err: serverError},
		scriptedReply{text: `{"choice":"Yes"}`},
	)

	output, err := g.GenerateContent(context.Background(), "answer briefly", "Are you willing to relocate?")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != `{"choice":"Yes"}` {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(chats.created) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(chats.created))
	}
	if len(*delays) != 2 || (*delays)[0] != baseBackoff || (*delays)[1] != 2*baseBackoff {
		t.Fatalf("expected exponential backoff, got %v", *delays)
	}
	for _, chat := range chats.created {
		if len(chat.sent) != 1 || chat.sent[0] != "Are you willing to relocate?" {
			t.Fatalf("unexpected message: %+v", chat.sent)
		}
	}
}

func TestGenerateContentGivesUpAfterMaxRetries(t *testing.T) {
	recordWaits(t)
	g, chats := newScriptedGenerator(2,
		scriptedReply{err: serverError},
		scriptedReply{err: serverError},
	)

	_, err := g.GenerateContent(context.Background(), "sys", "msg")
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected the last api error, got %v", err)
	}
	if len(chats.created) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(chats.created))
	}
}

func TestGenerateContentSkipsLongQuotaWait(t *testing.T) {
	delays := recordWaits(t)
	g, chats := newScriptedGenerator(3, scriptedReply{err: genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry in 45s",
	}})

	if _, err := g.GenerateContent(context.Background(), "sys", "msg"); err == nil {
		t.Fatal("expected error for a long quota delay")
	}
	if len(chats.created) != 1 || len(*delays) != 0 {
		t.Fatalf("expected a single attempt without waiting, got %d attempts %v", len(chats.created), *delays)
	}
}

func TestGenerateContentBackoffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	original := wait
	wait = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	t.Cleanup(func() { wait = original })

	g, chats := newScriptedGenerator(3,
		scriptedReply{err: serverError},
		scriptedReply{text: "unreachable"},
	)

	_, err := g.GenerateContent(ctx, "sys", "msg")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(chats.created) != 1 {
		t.Fatalf("expected no attempt after cancel, got %d", len(chats.created))
	}
}

func TestGenerateContentRealWaitHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	g, _ := newScriptedGenerator(2, scriptedReply{err: serverError}, scriptedReply{text: "late"})

	started := time.Now()
	_, err := g.GenerateContent(ctx, "sys", "msg")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(started); elapsed >= baseBackoff {
		t.Fatalf("backoff ignored cancellation, took %s", elapsed)
	}
}

func TestGenerateContentConfig(t *testing.T) {
	tests := []struct {
		name   string
		system string
		expect string
	}{
		{name: "system instruction set", system: " You answer job application questions. ", expect: "You answer job application questions."},
		{name: "blank system instruction omitted", system: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, chats := newScriptedGenerator(1, scriptedReply{text: "{}"})

			if _, err := g.GenerateContent(context.Background(), tt.system, "msg"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			call := chats.created[0]
			if call.model != "gemini-2.5-flash" {
				t.Fatalf("unexpected model %q", call.model)
			}
			if call.config.ResponseMIMEType != "application/json" {
				t.Fatalf("unexpected mime type %q", call.config.ResponseMIMEType)
			}
			switch {
			case tt.expect == "" && call.config.SystemInstruction != nil:
				t.Fatalf("expected no system instruction, got %+v", call.config.SystemInstruction)
			case tt.expect != "" && (call.config.SystemInstruction == nil || call.config.SystemInstruction.Parts[0].Text != tt.expect):
				t.Fatalf("expected system instruction %q, got %+v", tt.expect, call.config.SystemInstruction)
			}
		})
	}
}

func TestGenerateContentRejectsEmptyMessage(t *testing.T) {
	g, chats := newScriptedGenerator(1, scriptedReply{text: "{}"})

	if _, err := g.GenerateContent(context.Background(), "sys", " \n"); err == nil {
		t.Fatal("expected error for an empty message")
	}
	if len(chats.created) != 0 {
		t.Fatalf("expected no request, got %d", len(chats.created))
	}
}

func TestResponseText(t *testing.T) {
	got, err := responseText(textResponse(" first ", "", "second"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first\nsecond" {
		t.Fatalf("unexpected text %q", got)
	}

	if _, err := responseText(textResponse("  ")); err == nil {
		t.Fatal("expected error for an empty reply")
	}
	if _, err := responseText(nil); err == nil {
		t.Fatal("expected error for a missing reply")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{name: "server error", err: genai.APIError{Code: http.StatusServiceUnavailable}, expect: true},
		{name: "rate limited", err: genai.APIError{Code: http.StatusTooManyRequests}, expect: true},
		{name: "short quota delay", err: genai.APIError{Code: http.StatusTooManyRequests, Message: "retry in 5s"}, expect: true},
		{name: "long quota delay", err: genai.APIError{Code: http.StatusTooManyRequests, Message: "retry after 60 seconds"}, expect: false},
		{name: "bad request", err: genai.APIError{Code: http.StatusBadRequest}, expect: false},
		{name: "plain error", err: errors.New("boom"), expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}
