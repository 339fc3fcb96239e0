package users

import (
	"context"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/repository"
	"github.com/Domenick1991/rideshare/internal/validation"
	"github.com/google/uuid"
)

type UserUseCase interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetPublicProfile(ctx context.Context, id uuid.UUID) (*PublicProfile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*domain.User, error)
}

// UpdateProfileInput is the PATCH /me body. Absent fields keep their value.
type UpdateProfileInput struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=500"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

// PublicProfile is what other users may see: no email.
type PublicProfile struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Role          domain.Role `json:"role"`
	AvatarURL     *string     `json:"avatar_url,omitempty"`
	AverageRating float64     `json:"average_rating"`
	RatingCount   int         `json:"rating_count"`
}

type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetPublicProfile(ctx context.Context, id uuid.UUID) (*PublicProfile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{
		ID:            u.ID,
		Name:          u.Name,
		Role:          u.Role,
		AvatarURL:     u.AvatarURL,
		AverageRating: u.AverageRating,
		RatingCount:   u.RatingCount,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	changes := domain.ProfileChanges{Name: input.Name, AvatarURL: input.AvatarURL, Phone: input.Phone}
	if changes.Empty() {
		return nil, validation.Field("body", "no fields to update", "required")
	}
	return s.repo.UpdateProfile(ctx, id, changes)
}

var _ UserUseCase = (*UserService)(nil)
