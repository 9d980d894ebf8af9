package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApplicantStatus string

const (
	ApplicantPending   ApplicantStatus = "pending"
	ApplicantAccepted  ApplicantStatus = "accepted"
	ApplicantRejected  ApplicantStatus = "rejected"
	ApplicantInterview ApplicantStatus = "interview"
)

func (s ApplicantStatus) Valid() bool {
	switch s {
	case ApplicantPending, ApplicantAccepted, ApplicantRejected, ApplicantInterview:
		return true
	}
	return false
}

// Applicant is embedded in its Job document.
type Applicant struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CoverLetter string             `bson:"cover_letter,omitempty" json:"cover_letter,omitempty"`
	Resume      string             `bson:"resume,omitempty" json:"resume,omitempty"`
	Status      ApplicantStatus    `bson:"status" json:"status"`
	Notes       string             `bson:"notes" json:"notes"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submitted_at"`
}

type Job struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Dept        string             `bson:"dept" json:"dept"`
	Type        string             `bson:"type" json:"type"`
	Location    string             `bson:"location" json:"location"`
	Level       string             `bson:"level" json:"level"`
	Tag         string             `bson:"tag" json:"tag"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Slug        string             `bson:"slug" json:"slug"`
	Applicants  []Applicant        `bson:"applicants" json:"applicants,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
