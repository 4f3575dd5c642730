package assistant

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/domain"
)

// Service ties the gate, assembler and completion service together.
type Service struct {
	assembler Assembler
	completer Completer
	log       zerolog.Logger
}

// NewService creates the assistant service.
func NewService(assembler Assembler, completer Completer, log zerolog.Logger) *Service {
	return &Service{
		assembler: assembler,
		completer: completer,
		log:       log,
	}
}

// Reply assembles the prompt for the conversation (injecting transaction
// data only when the turn is finance-relevant) and returns the model's
// reply.
func (s *Service) Reply(ctx context.Context, history []Message, txs []domain.Transaction) (string, error) {
	messages := s.assembler.Assemble(history, txs)

	injected := len(messages) > len(history)+1
	s.log.Debug().
		Int("history_len", len(history)).
		Bool("data_injected", injected).
		Msg("Assembled assistant prompt")

	text, err := s.completer.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("Reply: %w", err)
	}
	return text, nil
}
