package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Verification is the admin review state of a Payment.
// It is persisted and rendered as null (unreviewed), true (approved) or false (rejected).
// The zero value is VerificationUnreviewed, so a missing field decodes as unreviewed.
type Verification uint8

const (
	VerificationUnreviewed Verification = iota
	VerificationApproved
	VerificationRejected
)

// VerificationFromBool maps an admin verdict onto the resolved states.
func VerificationFromBool(approved bool) Verification {
	if approved {
		return VerificationApproved
	}
	return VerificationRejected
}

func (v Verification) Resolved() bool {
	return v == VerificationApproved || v == VerificationRejected
}

func (v Verification) String() string {
	switch v {
	case VerificationApproved:
		return "approved"
	case VerificationRejected:
		return "rejected"
	default:
		return "unreviewed"
	}
}

// ParseVerificationFilter maps the admin list filter (pending|approved|rejected) to a state.
func ParseVerificationFilter(s string) (Verification, bool) {
	switch s {
	case "pending", "unreviewed":
		return VerificationUnreviewed, true
	case "approved", "verified":
		return VerificationApproved, true
	case "rejected":
		return VerificationRejected, true
	default:
		return VerificationUnreviewed, false
	}
}

// BSONValue returns the stored representation, usable directly in query filters.
func (v Verification) BSONValue() interface{} {
	switch v {
	case VerificationApproved:
		return true
	case VerificationRejected:
		return false
	default:
		return nil
	}
}

func (v Verification) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch v {
	case VerificationApproved:
		return bsontype.Boolean, bsoncore.AppendBoolean(nil, true), nil
	case VerificationRejected:
		return bsontype.Boolean, bsoncore.AppendBoolean(nil, false), nil
	default:
		return bsontype.Null, nil, nil
	}
}

func (v *Verification) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*v = VerificationUnreviewed
		return nil
	case bsontype.Boolean:
		b, _, ok := bsoncore.ReadBoolean(data)
		if !ok {
			return fmt.Errorf("verified: malformed boolean")
		}
		*v = VerificationFromBool(b)
		return nil
	default:
		return fmt.Errorf("verified: cannot decode BSON %s", t)
	}
}

func (v Verification) MarshalJSON() ([]byte, error) {
	switch v {
	case VerificationApproved:
		return []byte("true"), nil
	case VerificationRejected:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Verification) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = VerificationUnreviewed
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("verified must be true, false or null")
	}
	*v = VerificationFromBool(b)
	return nil
}
