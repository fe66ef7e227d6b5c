package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "artmarket/internal/errors"
	"artmarket/internal/model"
	"artmarket/internal/repository"
)

// ProfileUpdate carries the optional profile fields; nil means untouched.
type ProfileUpdate struct {
	Name     *string
	LastName *string
	Email    *string
	Location *string
}

// AppStats are the admin dashboard counters.
type AppStats struct {
	Users    int64 `json:"users"`
	Artworks int64 `json:"artworks"`
}

// UserService handles profile operations.
type UserService interface {
	CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*model.User, error)
	Stats(ctx context.Context) (*AppStats, error)
}

type userService struct {
	userRepo    repository.UserRepository
	artworkRepo repository.ArtworkRepository
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, artworkRepo repository.ArtworkRepository) UserService {
	return &userService{
		userRepo:    userRepo,
		artworkRepo: artworkRepo,
	}
}

func (s *userService) CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*model.User, error) {
	user, err := s.CurrentUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Email != nil && *update.Email != user.Email {
		existing, err := s.userRepo.FindByEmail(ctx, *update.Email)
		if err == nil && existing != nil && existing.ID != user.ID {
			return nil, apperrors.ErrEmailTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = *update.Email
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Location != nil {
		user.Location = *update.Location
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) Stats(ctx context.Context) (*AppStats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	artworks, err := s.artworkRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count artworks: %w", err)
	}
	return &AppStats{Users: users, Artworks: artworks}, nil
}
