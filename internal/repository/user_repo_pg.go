package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int) error
	UpdateProfile(ctx context.Context, id uuid.UUID, changes domain.ProfileChanges) (*domain.User, error)
}

const userSelectColumns = `id, email, name, role, avatar_url, phone, average_rating, rating_count, created_at`

func userFields(u *domain.User) []any {
	return []any{&u.ID, &u.Email, &u.Name, &u.Role, &u.AvatarURL, &u.Phone, &u.AverageRating, &u.RatingCount, &u.CreatedAt}
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `SELECT `+userSelectColumns+` FROM users WHERE id = $1`, id).Scan(userFields(&u)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Unavailable("get user", err)
	}
	return &u, nil
}

func (r *PGUserRepository) UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET average_rating = $1, rating_count = $2 WHERE id = $3`, average, count, id)
	if err != nil {
		return domain.Unavailable("update rating", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateProfile only writes the non-nil fields and returns the stored row.
func (r *PGUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, changes domain.ProfileChanges) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `UPDATE users SET
			name = COALESCE($1, name),
			avatar_url = COALESCE($2, avatar_url),
			phone = COALESCE($3, phone)
		WHERE id = $4
		RETURNING `+userSelectColumns, changes.Name, changes.AvatarURL, changes.Phone, id).Scan(userFields(&u)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Unavailable("update profile", err)
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
