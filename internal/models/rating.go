package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating       = 1
	MaxRating       = 5
	MaxReviewLength = 500
)

// Rating is unique per (client, session).
type Rating struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID `bson:"client_id" json:"client_id"`
	TherapistID primitive.ObjectID `bson:"therapist_id" json:"therapist_id"`
	SessionID   primitive.ObjectID `bson:"session_id" json:"session_id"`
	Rating      int                `bson:"rating" json:"rating"`
	Review      string             `bson:"review,omitempty" json:"review,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
