package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is a client-submitted transaction claim against exactly one Session.
type Payment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID primitive.ObjectID `bson:"session_id" json:"session_id"`
	ClientID  primitive.ObjectID `bson:"client_id" json:"client_id"`
	Amount    float64            `bson:"amount" json:"amount"`
	TxnID     string             `bson:"txn_id" json:"txn_id"`
	Verified  Verification       `bson:"verified" json:"verified"`

	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	ReviewedAt *time.Time `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewedBy string     `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
}

// PaymentView is a Payment joined with its client and session for the admin panel.
type PaymentView struct {
	Payment     `bson:",inline"`
	ClientName  string          `bson:"client_name,omitempty" json:"client_name,omitempty"`
	ClientEmail string          `bson:"client_email,omitempty" json:"client_email,omitempty"`
	Session     *PaymentSession `bson:"session,omitempty" json:"session,omitempty"`
}

// PaymentSession is the subset of Session fields shown next to a payment.
type PaymentSession struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Type   SessionType        `bson:"type" json:"type"`
	Date   string             `bson:"date" json:"date"`
	Time   string             `bson:"time,omitempty" json:"time,omitempty"`
	Amount float64            `bson:"amount" json:"amount"`
	Status SessionStatus      `bson:"status" json:"status"`
}

// PaymentReview is one row of the append-only verification audit ledger.
type PaymentReview struct {
	ID             int64     `json:"id"`
	PaymentID      string    `json:"payment_id"`
	SessionID      string    `json:"session_id"`
	AdminID        string    `json:"admin_id"`
	Verdict        string    `json:"verdict"`
	SessionMissing bool      `json:"session_missing"`
	CreatedAt      time.Time `json:"created_at"`
}
