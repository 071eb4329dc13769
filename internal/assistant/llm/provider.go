// Package llm is the language-model port used by the conversational agent.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	apperrors "fiscal-assistant/internal/common/errors"
	"fiscal-assistant/internal/models"
)

var (
	ErrLLMTimeout = errors.New("LLM_TIMEOUT")
	ErrLLMFailed  = errors.New("LLM_FAILED")
)

// Provider completes a chat conversation.
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []models.Message) (string, error)
}

// Options are the generation settings shared by all providers.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// classify wraps err with ErrLLMTimeout or ErrLLMFailed and a StandardError.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", ErrLLMTimeout, apperrors.NewLLMTimeoutError(provider, err))
	}
	return fmt.Errorf("%w: %w", ErrLLMFailed, apperrors.NewLLMFailedError(provider, err))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// splitSystem separates system instructions from the conversational turns.
func splitSystem(messages []models.Message) (string, []models.Message) {
	var system string
	turns := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
