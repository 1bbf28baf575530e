package models

import "time"

type MessageKind string

const (
	MessageManual    MessageKind = "manual"
	MessageReminder  MessageKind = "reminder"
	MessageAutoReply MessageKind = "auto-reply"
	MessageUpdate    MessageKind = "update"
)

type MessageState string

const (
	MessageSent  MessageState = "sent"
	MessageError MessageState = "error"
	MessageInfo  MessageState = "info"
)

// MessageLogEntry is a write-only audit record of one outbound (or inbound
// auto-reply) message. DebtorID is nil for messages from unregistered numbers.
type MessageLogEntry struct {
	ID         int64        `json:"id" db:"id"`
	DebtorID   *int64       `json:"debtorId" db:"debtor_id"`
	DebtorName string       `json:"debtorName,omitempty" db:"debtor_name"`
	Kind       MessageKind  `json:"kind" db:"kind"`
	Body       string       `json:"body" db:"body"`
	State      MessageState `json:"state" db:"state"`
	CreatedAt  time.Time    `json:"createdAt" db:"created_at"`
}
