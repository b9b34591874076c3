package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Storage is the persistence port for outbox messages. Implementations must
// be safe for concurrent use; a transactional implementation should derive
// the transaction from the context.
type Storage interface {
	// Save stores a message.
	Save(ctx context.Context, msg *Message) error

	// Fetch returns up to limit pending messages, oldest first.
	Fetch(ctx context.Context, limit int) ([]*Message, error)

	// MarkProcessed marks the messages as retransmitted.
	MarkProcessed(ctx context.Context, ids ...uuid.UUID) error
}
