package workflow

import (
	"context"
	"errors"

	"snackzinabi/internal/extraction"
	"snackzinabi/internal/kitchen"
	"snackzinabi/internal/models"
)

// Error taxonomy of the ordering core. Incomplete orders are deliberately
// not errors: they are guiding responses and leave the conversation
// unchanged.
var (
	// ErrValidation marks a rejected request: empty utterance or missing
	// conversation id. No side effects were performed.
	ErrValidation = errors.New("invalid order request")

	// ErrStorage marks a persistence failure. The transition was aborted,
	// nothing was committed and no notification was sent.
	ErrStorage = errors.New("order storage failure")
)

// TranscriptStore reads and appends conversation turns. The transcript
// itself is owned elsewhere; the workflow only needs the last assistant
// summary to reconstruct a confirmed order.
type TranscriptStore interface {
	Append(ctx context.Context, conversationID uint, text string, fromUser bool) error
	History(ctx context.Context, conversationID uint) ([]models.Message, error)

	// LastAssistantMessage returns the most recent assistant message that
	// precedes the most recent user message, or "" when the conversation
	// has no such message.
	LastAssistantMessage(ctx context.Context, conversationID uint) (string, error)
}

// OrderStore persists committed orders and conversation completion.
type OrderStore interface {
	Insert(ctx context.Context, candidate extraction.CandidateOrder, conversationID uint, userEmail string) (*models.Commande, error)
	MarkConversationCompleted(ctx context.Context, conversationID uint) error
	ConversationCompleted(ctx context.Context, conversationID uint) (bool, error)
}

// Notifier fans a committed order out to the kitchen. Implemented by
// kitchen.Hub; delivery failures are handled inside and never surface here.
type Notifier interface {
	NotifyNewCommande(commande *models.Commande) []kitchen.Delivery
}
