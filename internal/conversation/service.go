package conversation

import (
	"context"
	"fmt"

	"github.com/clinicops/clinic-assistant/internal/command"
	"github.com/clinicops/clinic-assistant/internal/observability/metrics"
	"github.com/clinicops/clinic-assistant/pkg/logging"
)

// CommandRunner executes one extracted operation and renders the result as
// patient-facing text.
type CommandRunner interface {
	Execute(ctx context.Context, call command.Call) string
}

const (
	functionResultTemplate = "[Function Result: %s]"
	followUpInstruction    = "Based on the function result above, provide a helpful response to my original question. Remember our conversation context."
	fallbackReply          = "Sorry, I ran into a problem processing that. Please try again in a moment."
)

// ServiceConfig carries the model settings and ambient collaborators for the
// conversation service.
type ServiceConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int32
	WindowSize  int
	Clinic      ClinicInfo
	Logger      *logging.Logger
	Metrics     *metrics.ChatMetrics
}

// Service is the conversation controller: it replays the session window to
// the model, runs any operation the reply encodes, and asks the model to
// phrase the operation result for the patient.
type Service struct {
	llm      LLMClient
	commands CommandRunner
	history  *HistoryStore

	prompt      string
	model       string
	temperature float32
	maxTokens   int32
	windowSize  int

	logger  *logging.Logger
	metrics *metrics.ChatMetrics
}

func NewService(llm LLMClient, commands CommandRunner, history *HistoryStore, cfg ServiceConfig) *Service {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if commands == nil {
		panic("conversation: command runner cannot be nil")
	}
	if history == nil {
		panic("conversation: history store cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = defaultWindowSize
	}
	return &Service{
		llm:         llm,
		commands:    commands,
		history:     history,
		prompt:      systemPrompt(cfg.Clinic),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		windowSize:  cfg.WindowSize,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Respond processes one user turn and returns the assistant's reply. It never
// fails in the Go sense: model and store problems are logged and phrased as
// chat text so the session stays alive.
func (s *Service) Respond(ctx context.Context, sessionID, userMessage string) string {
	history, err := s.history.Load(ctx, sessionID)
	if err != nil {
		s.logger.Warn("history load failed, starting fresh", "session_id", sessionID, "error", err)
	}

	w := WindowFrom(history, s.windowSize)
	w.AddUser(userMessage)

	reply, err := s.complete(ctx, w.Messages())
	if err != nil {
		s.logger.Error("completion failed", "session_id", sessionID, "error", err)
		reply = fallbackReply
	} else if call, ok := command.Extract(reply); ok {
		reply = s.runCommand(ctx, sessionID, w, call)
	}

	w.AddAssistant(reply)
	if err := s.history.Save(ctx, sessionID, w.Messages()); err != nil {
		s.logger.Error("history save failed", "session_id", sessionID, "error", err)
	}
	return reply
}

// runCommand executes the extracted call and makes a second model pass so the
// raw result comes back to the patient in conversational form. If the second
// pass fails the raw result is returned as-is.
func (s *Service) runCommand(ctx context.Context, sessionID string, w *Window, call command.Call) string {
	result := s.commands.Execute(ctx, call)

	followUp := append(w.Messages(),
		ChatMessage{Role: ChatRoleAssistant, Content: formatFunctionResult(result)},
		ChatMessage{Role: ChatRoleUser, Content: followUpInstruction},
	)
	final, err := s.complete(ctx, followUp)
	if err != nil {
		s.logger.Error("follow-up completion failed", "session_id", sessionID, "operation", string(call.Op), "error", err)
		return result
	}
	return final
}

func (s *Service) complete(ctx context.Context, messages []ChatMessage) (string, error) {
	resp, err := s.llm.Complete(ctx, LLMRequest{
		Model:       s.model,
		System:      []string{s.prompt},
		Messages:    messages,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		s.metrics.ObserveLLMCall("error")
		return "", err
	}
	s.metrics.ObserveLLMCall("success")
	return resp.Text, nil
}

func formatFunctionResult(result string) string {
	return fmt.Sprintf(functionResultTemplate, result)
}

// History returns the stored transcript for a session.
func (s *Service) History(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	return s.history.Load(ctx, sessionID)
}

// Reset drops a session's transcript.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.history.Delete(ctx, sessionID)
}
