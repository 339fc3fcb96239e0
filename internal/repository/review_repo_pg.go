package repository

import (
	"context"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ExistsForAuthor(ctx context.Context, bookingID, authorID uuid.UUID) (bool, error)
	HasReciprocal(ctx context.Context, bookingID, authorID uuid.UUID) (bool, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]domain.Review, error)
	ScoresBySubject(ctx context.Context, subjectID uuid.UUID) ([]int, error)
}

type PGReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) ReviewRepository {
	return &PGReviewRepository{db: db}
}

func (r *PGReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	err := r.db.QueryRow(ctx, `INSERT INTO reviews (id, booking_id, author_id, subject_id, score, comment, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		review.ID, review.BookingID, review.AuthorID, review.SubjectID, review.Score, review.Comment, review.Role).
		Scan(&review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReview
		}
		return domain.Unavailable("create review", err)
	}
	return nil
}

func (r *PGReviewRepository) ExistsForAuthor(ctx context.Context, bookingID, authorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1 AND author_id = $2)`, bookingID, authorID).Scan(&exists)
	if err != nil {
		return false, domain.Unavailable("check review", err)
	}
	return exists, nil
}

func (r *PGReviewRepository) HasReciprocal(ctx context.Context, bookingID, authorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1 AND author_id <> $2)`, bookingID, authorID).Scan(&exists)
	if err != nil {
		return false, domain.Unavailable("check reciprocal review", err)
	}
	return exists, nil
}

func (r *PGReviewRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, `SELECT v.id, v.booking_id, v.author_id, v.subject_id, v.score, v.comment, v.role, v.created_at, `+userColumns("a")+`
		FROM reviews v
		LEFT JOIN users a ON a.id = v.author_id
		WHERE v.subject_id = $1
		ORDER BY v.created_at DESC`, subjectID)
	if err != nil {
		return nil, domain.Unavailable("list reviews", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var v domain.Review
		var author nullUser
		dest := []any{&v.ID, &v.BookingID, &v.AuthorID, &v.SubjectID, &v.Score, &v.Comment, &v.Role, &v.CreatedAt}
		if err := rows.Scan(append(dest, author.dest()...)...); err != nil {
			return nil, domain.Unavailable("list reviews", err)
		}
		v.Author = author.user()
		reviews = append(reviews, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("list reviews", err)
	}
	return reviews, nil
}

func (r *PGReviewRepository) ScoresBySubject(ctx context.Context, subjectID uuid.UUID) ([]int, error) {
	rows, err := r.db.Query(ctx, `SELECT score FROM reviews WHERE subject_id = $1`, subjectID)
	if err != nil {
		return nil, domain.Unavailable("list scores", err)
	}
	defer rows.Close()

	scores := make([]int, 0)
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, domain.Unavailable("list scores", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

var _ ReviewRepository = (*PGReviewRepository)(nil)
