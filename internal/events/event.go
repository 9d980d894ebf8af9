package events

import (
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	SessionBooked   = "session.booked"
	PaymentApproved = "payment.approved"
	PaymentRejected = "payment.rejected"
)

// Event is a domain event published after a state change commits.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	SessionID   string  `json:"session_id,omitempty"`
	PaymentID   string  `json:"payment_id,omitempty"`
	ClientID    string  `json:"client_id,omitempty"`
	TherapistID string  `json:"therapist_id,omitempty"`
	SessionType string  `json:"session_type,omitempty"`
	Date        string  `json:"date,omitempty"`
	Time        string  `json:"time,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
}

// New stamps an event with a ULID so ids sort by creation time.
func New(eventType string, now time.Time) Event {
	return Event{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Type:       eventType,
		OccurredAt: now.UTC(),
	}
}

func Known(eventType string) bool {
	switch eventType {
	case SessionBooked, PaymentApproved, PaymentRejected:
		return true
	}
	return false
}
