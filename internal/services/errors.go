package services

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrForbidden              = errors.New("forbidden")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrConflict               = errors.New("conflict")
	ErrSessionNotFound        = errors.New("session not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrTherapistNotFound      = errors.New("therapist not found")
	ErrTherapistInactive      = errors.New("therapist is not accepting bookings")
	ErrUserNotFound           = errors.New("user not found")
	ErrJobNotFound            = errors.New("job not found")
	ErrApplicantNotFound      = errors.New("applicant not found")
	ErrPaymentAlreadyResolved = errors.New("payment has already been resolved with a different verdict")
	ErrEmailTaken             = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountInactive        = errors.New("account is deactivated")
	ErrSessionNotCompleted    = errors.New("only completed sessions can be rated")
	ErrReviewLedgerDisabled   = errors.New("payment review ledger is not configured")
)

// NotFound reports whether err is one of the not-found sentinels.
func NotFound(err error) bool {
	for _, target := range []error{
		ErrSessionNotFound, ErrPaymentNotFound, ErrTherapistNotFound,
		ErrUserNotFound, ErrJobNotFound, ErrApplicantNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
