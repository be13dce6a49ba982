package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/tutor-marketplace/internal/persistence"
)

const reviewColumns = `id, session_id, student_id, mentor_id, rating, comment, created_at`

func (r *txRepositories) CreateReview(ctx context.Context, review persistence.Review) error {
	_, err := r.exec(ctx, `INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.SessionID, review.StudentID, review.MentorID, review.Rating,
		nullString(review.Comment), formatTimestamp(review.CreatedAt),
	)
	return err
}

func (r *txRepositories) GetReviewBySession(ctx context.Context, sessionID string) (persistence.Review, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE session_id = ?`, sessionID)
	review, err := scanReview(row)
	if err != nil {
		return persistence.Review{}, r.mapper.MapError(err)
	}
	return review, nil
}

func (r *txRepositories) ListReviews(ctx context.Context, mentorID string) ([]persistence.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews`
	var args []any
	if mentorID != "" {
		query += ` WHERE mentor_id = ?`
		args = append(args, mentorID)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	reviews := make([]persistence.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return reviews, nil
}

func (r *txRepositories) SummarizeRatings(ctx context.Context, mentorID string) (persistence.RatingSummary, error) {
	var summary persistence.RatingSummary
	err := r.tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE mentor_id = ?`, mentorID,
	).Scan(&summary.Count, &summary.Average)
	if err != nil {
		return persistence.RatingSummary{}, r.mapper.MapError(err)
	}
	return summary, nil
}

func scanReview(row rowScanner) (persistence.Review, error) {
	var (
		review    persistence.Review
		comment   sql.NullString
		createdAt string
	)
	if err := row.Scan(&review.ID, &review.SessionID, &review.StudentID, &review.MentorID,
		&review.Rating, &comment, &createdAt); err != nil {
		return persistence.Review{}, err
	}
	t, err := parseTimestamp(createdAt)
	if err != nil {
		return persistence.Review{}, fmt.Errorf("review %s: %w", review.ID, err)
	}
	review.CreatedAt = t
	review.Comment = stringPtr(comment)
	return review, nil
}
