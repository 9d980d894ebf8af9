package repository

import (
	"context"
	"database/sql"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
)

// PaymentReviewRepository appends verification verdicts to the Postgres audit ledger.
type PaymentReviewRepository struct {
	db *sql.DB
}

func NewPaymentReviewRepository(db *sql.DB) *PaymentReviewRepository {
	return &PaymentReviewRepository{db: db}
}

func (r *PaymentReviewRepository) Record(ctx context.Context, review *models.PaymentReview) error {
	query := `
		INSERT INTO payment_reviews (payment_id, session_id, admin_id, verdict, session_missing, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.db.QueryRowContext(
		ctx,
		query,
		review.PaymentID,
		review.SessionID,
		review.AdminID,
		review.Verdict,
		review.SessionMissing,
		review.CreatedAt,
	).Scan(&review.ID)
}

// ListByPayment returns the audit trail of one payment, oldest first.
func (r *PaymentReviewRepository) ListByPayment(ctx context.Context, paymentID string) ([]models.PaymentReview, error) {
	query := `
		SELECT id, payment_id, session_id, admin_id, verdict, session_missing, created_at
		FROM payment_reviews
		WHERE payment_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.PaymentReview{}
	for rows.Next() {
		var review models.PaymentReview
		if err := rows.Scan(
			&review.ID,
			&review.PaymentID,
			&review.SessionID,
			&review.AdminID,
			&review.Verdict,
			&review.SessionMissing,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
