package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TherapistActive   = "active"
	TherapistInactive = "inactive"
)

// Therapist is a public provider profile. UserID links it to the therapist's login account, when one exists.
type Therapist struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
	UserID    *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`

	Name           string   `bson:"name" json:"name"`
	Specialization string   `bson:"specialization" json:"specialization"`
	Bio            string   `bson:"bio,omitempty" json:"bio,omitempty"`
	WhatsApp       string   `bson:"whatsapp,omitempty" json:"whatsapp,omitempty"`
	Languages      []string `bson:"languages,omitempty" json:"languages,omitempty"`
	Photo          string   `bson:"photo,omitempty" json:"photo,omitempty"`
	Experience     int      `bson:"experience,omitempty" json:"experience,omitempty"`
	Price          float64  `bson:"price,omitempty" json:"price,omitempty"`

	Status string `bson:"status" json:"status"`
}

func (t *Therapist) IsActive() bool {
	return t.Status == TherapistActive
}
