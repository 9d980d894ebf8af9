package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionType string

const (
	SessionTypeChat  SessionType = "chat"
	SessionTypeAudio SessionType = "audio"
	SessionTypeVideo SessionType = "video"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeChat, SessionTypeAudio, SessionTypeVideo:
		return true
	}
	return false
}

// SessionStatus is the booking lifecycle of a Session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionConfirmed, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Settled reports whether the lifecycle has moved past what payment verification drives.
func (s SessionStatus) Settled() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// PaymentStatus is the payment sub-state of a Session, driven by payment verification.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSubmitted PaymentStatus = "submitted"
	PaymentVerified  PaymentStatus = "verified"
	PaymentRejected  PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSubmitted, PaymentVerified, PaymentRejected:
		return true
	}
	return false
}

// Session is one booked therapy engagement between a client and a therapist.
// ClientID, TherapistID and Amount never change after creation.
type Session struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID `bson:"client_id" json:"client_id"`
	TherapistID primitive.ObjectID `bson:"therapist_id" json:"therapist_id"`

	Type  SessionType `bson:"type" json:"type"`
	Date  string      `bson:"date" json:"date"`
	Time  string      `bson:"time,omitempty" json:"time,omitempty"`
	Notes string      `bson:"notes,omitempty" json:"notes,omitempty"`

	Amount        float64       `bson:"amount" json:"amount"`
	Paid          bool          `bson:"paid" json:"paid"`
	PaymentStatus PaymentStatus `bson:"payment_status" json:"payment_status"`
	TxnID         string        `bson:"txn_id,omitempty" json:"txn_id,omitempty"`

	Status SessionStatus `bson:"status" json:"status"`
	RoomID string        `bson:"room_id" json:"room_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SessionPaymentState is the slice of a Session owned by payment verification.
type SessionPaymentState struct {
	Paid          bool          `bson:"paid"`
	PaymentStatus PaymentStatus `bson:"payment_status"`
	Status        SessionStatus `bson:"status"`
}

// CascadeFor returns the Session state a resolved verdict forces.
// Approval confirms the session; rejection holds it at pending.
func CascadeFor(v Verification) (SessionPaymentState, bool) {
	switch v {
	case VerificationApproved:
		return SessionPaymentState{Paid: true, PaymentStatus: PaymentVerified, Status: SessionConfirmed}, true
	case VerificationRejected:
		return SessionPaymentState{Paid: false, PaymentStatus: PaymentRejected, Status: SessionPending}, true
	default:
		return SessionPaymentState{}, false
	}
}

// Holds reports whether s already carries the payment fields of st.
func (st SessionPaymentState) Holds(s Session) bool {
	return s.Paid == st.Paid && s.PaymentStatus == st.PaymentStatus
}

// Onto returns st as a late repair over a session in status current.
// A completed or cancelled session keeps its lifecycle status.
func (st SessionPaymentState) Onto(current SessionStatus) SessionPaymentState {
	if current.Settled() {
		st.Status = current
	}
	return st
}

// SessionView is a Session joined with display fields of its participants.
type SessionView struct {
	Session        `bson:",inline"`
	ClientName     string `bson:"client_name,omitempty" json:"client_name,omitempty"`
	ClientEmail    string `bson:"client_email,omitempty" json:"client_email,omitempty"`
	TherapistName  string `bson:"therapist_name,omitempty" json:"therapist_name,omitempty"`
	Specialization string `bson:"therapist_specialization,omitempty" json:"therapist_specialization,omitempty"`
	WhatsApp       string `bson:"therapist_whatsapp,omitempty" json:"therapist_whatsapp,omitempty"`
}
