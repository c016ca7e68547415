package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/clinic-assistant/internal/command"
	"github.com/clinicops/clinic-assistant/pkg/logging"
)

// scriptedLLM returns canned replies in order and records every request.
type scriptedLLM struct {
	replies  []string
	err      error
	requests []LLMRequest
}

func (m *scriptedLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return LLMResponse{}, m.err
	}
	i := len(m.requests) - 1
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return LLMResponse{Text: m.replies[i]}, nil
}

type recordingRunner struct {
	result string
	calls  []command.Call
}

func (r *recordingRunner) Execute(_ context.Context, call command.Call) string {
	r.calls = append(r.calls, call)
	return r.result
}

func newTestService(t *testing.T, llm LLMClient, runner CommandRunner) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(llm, runner, NewHistoryStore(client), ServiceConfig{
		Model:  "gemini-2.0-flash-exp",
		Clinic: ClinicInfo{CenterName: "Medical Center", WeekdayHours: "Monday-Friday: 7:00 AM - 7:00 PM"},
		Logger: logging.New("error"),
	})
	return svc, mr
}

func TestRespondPlainReply(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"Hello! How can I help you today?"}}
	runner := &recordingRunner{}
	svc, _ := newTestService(t, llm, runner)

	got := svc.Respond(context.Background(), "session-1", "hi")
	assert.Equal(t, "Hello! How can I help you today?", got)
	assert.Empty(t, runner.calls)

	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	require.Len(t, req.System, 1)
	assert.Contains(t, req.System[0], "Medical Center")
	assert.Contains(t, req.System[0], "search_knowledge:")
	require.NotEmpty(t, req.Messages)
	assert.Equal(t, ChatMessage{Role: ChatRoleUser, Content: "hi"}, req.Messages[len(req.Messages)-1])
}

func TestRespondRunsExtractedCommand(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"get_doctors",
		"We have two doctors: Dr. Sarah Martinez and Dr. Emily Roberts.",
	}}
	runner := &recordingRunner{result: "Here are our available doctors:\n\n1. Dr. Sarah Martinez\n2. Dr. Emily Roberts"}
	svc, _ := newTestService(t, llm, runner)

	got := svc.Respond(context.Background(), "session-1", "who are your doctors?")
	assert.Equal(t, "We have two doctors: Dr. Sarah Martinez and Dr. Emily Roberts.", got)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, command.OpGetDoctors, runner.calls[0].Op)

	// The follow-up pass carries the operation result and the phrasing
	// instruction on top of the original window.
	require.Len(t, llm.requests, 2)
	followUp := llm.requests[1].Messages
	require.GreaterOrEqual(t, len(followUp), 3)
	assert.Equal(t, ChatRoleAssistant, followUp[len(followUp)-2].Role)
	assert.Contains(t, followUp[len(followUp)-2].Content, "[Function Result:")
	assert.Contains(t, followUp[len(followUp)-2].Content, "Dr. Sarah Martinez")
	assert.Equal(t, ChatMessage{Role: ChatRoleUser, Content: followUpInstruction}, followUp[len(followUp)-1])
}

func TestRespondPersistsWindow(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"Hi there!"}}
	svc, _ := newTestService(t, llm, &recordingRunner{})
	ctx := context.Background()

	svc.Respond(ctx, "session-1", "hello")

	history, err := svc.History(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ChatMessage{Role: ChatRoleUser, Content: "hello"}, history[0])
	assert.Equal(t, ChatMessage{Role: ChatRoleAssistant, Content: "Hi there!"}, history[1])

	// A second turn replays the stored context.
	svc.Respond(ctx, "session-1", "who are you?")
	require.Len(t, llm.requests, 2)
	assert.Len(t, llm.requests[1].Messages, 3)
	assert.Equal(t, "hello", llm.requests[1].Messages[0].Content)
}

func TestRespondWindowCapsReplayedTurns(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"ok"}}
	svc, _ := newTestService(t, llm, &recordingRunner{})
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		svc.Respond(ctx, "session-1", "turn")
	}

	history, err := svc.History(ctx, "session-1")
	require.NoError(t, err)
	assert.Len(t, history, defaultWindowSize)
}

func TestRespondModelErrorFallsBack(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("quota exceeded")}
	runner := &recordingRunner{}
	svc, _ := newTestService(t, llm, runner)

	got := svc.Respond(context.Background(), "session-1", "hi")
	assert.Equal(t, fallbackReply, got)
	assert.Empty(t, runner.calls)
}

// When the second pass fails the operation result is surfaced verbatim rather
// than losing a committed booking behind an apology.
func TestRespondFollowUpErrorReturnsRawResult(t *testing.T) {
	runner := &recordingRunner{result: "Here are our available doctors:\n\n1. Dr. Sarah Martinez"}

	// Fail only the second call.
	first := true
	wrapped := llmFunc(func(ctx context.Context, req LLMRequest) (LLMResponse, error) {
		if first {
			first = false
			return LLMResponse{Text: "get_doctors"}, nil
		}
		return LLMResponse{}, errors.New("quota exceeded")
	})
	svc, _ := newTestService(t, wrapped, runner)

	got := svc.Respond(context.Background(), "session-1", "who are your doctors?")
	assert.Equal(t, runner.result, got)
}

type llmFunc func(ctx context.Context, req LLMRequest) (LLMResponse, error)

func (f llmFunc) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	return f(ctx, req)
}

func TestRespondRedisDownStillReplies(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"Hello!"}}
	svc, mr := newTestService(t, llm, &recordingRunner{})
	mr.Close()

	got := svc.Respond(context.Background(), "session-1", "hi")
	assert.Equal(t, "Hello!", got)
}

func TestReset(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"Hello!"}}
	svc, _ := newTestService(t, llm, &recordingRunner{})
	ctx := context.Background()

	svc.Respond(ctx, "session-1", "hi")
	require.NoError(t, svc.Reset(ctx, "session-1"))

	history, err := svc.History(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNewServicePanicsOnNilDeps(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewHistoryStore(client)

	assert.Panics(t, func() { NewService(nil, &recordingRunner{}, store, ServiceConfig{}) })
	assert.Panics(t, func() { NewService(&scriptedLLM{}, nil, store, ServiceConfig{}) })
	assert.Panics(t, func() { NewService(&scriptedLLM{}, &recordingRunner{}, nil, ServiceConfig{}) })
}
