// Package outbox adds reliable delivery to the event collaborator: the
// middleware diverts published events into durable storage, and the
// retransmitter drains the storage onto the real bus in the background.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

const (
	// StatusPending marks a message awaiting retransmission.
	StatusPending = "PENDING"
	// StatusProcessed marks a successfully retransmitted message.
	StatusProcessed = "PROCESSED"
)

// Message is one stored event.
type Message struct {
	ID          uuid.UUID         // unique message identifier
	Topic       string            // destination topic on the bus
	Payload     []byte            // serialized event body
	Metadata    map[string]string // propagation metadata, when the event carries any
	Status      string            // PENDING or PROCESSED
	CreatedAt   time.Time         // stored at
	ProcessedAt *time.Time        // retransmitted at
}
