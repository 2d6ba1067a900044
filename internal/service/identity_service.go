// Package service implements the feed, interaction and identity operations
// on top of the repositories.
package service

import (
	"context"
	"errors"

	"appfeed/internal/models"
	"appfeed/internal/repository"
	"appfeed/internal/validation"
)

type IdentityService struct {
	users repository.UserRepository
	apps  repository.AppRepository
}

type SignUpInput struct {
	AppID    string
	Username string
	Name     string
	Password string
}

type SignInInput struct {
	AppID    string
	Username string
	Password string
}

type UpdateLocationInput struct {
	AppID     string
	UserID    string
	Latitude  string
	Longitude string
}

type UpdateProfileInput struct {
	AppID        string
	UserID       string
	Name         string
	Bio          string
	ProfileImage string
}

func NewIdentityService(users repository.UserRepository, apps repository.AppRepository) *IdentityService {
	return &IdentityService{users: users, apps: apps}
}

// RegisterApp creates the app record if it does not exist yet.
func (s *IdentityService) RegisterApp(ctx context.Context, appID string) error {
	if err := validation.AppID(appID); err != nil {
		return err
	}
	return s.apps.Ensure(ctx, appID)
}

// SignUp creates a user with the default profile image and empty bio and
// location. A taken username fails the insert itself.
func (s *IdentityService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	if err := validation.SignUp(in.AppID, in.Name, in.Username, in.Password); err != nil {
		return nil, err
	}
	user := &models.User{
		AppID:        in.AppID,
		Username:     in.Username,
		Name:         in.Name,
		Password:     in.Password,
		ProfileImage: models.DefaultProfileImage,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SignIn matches app, username and password exactly.
func (s *IdentityService) SignIn(ctx context.Context, in SignInInput) (*models.User, error) {
	if err := validation.SignIn(in.AppID, in.Username, in.Password); err != nil {
		return nil, err
	}
	user, err := s.users.FindByCredentials(ctx, in.AppID, in.Username, in.Password)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.NewInvalidCredentialsError()
	}
	return user, err
}

func (s *IdentityService) ListUsers(ctx context.Context, appID string) ([]models.User, error) {
	if err := validation.AppID(appID); err != nil {
		return nil, err
	}
	return s.users.ListByApp(ctx, appID)
}

// GetProfile returns the users matching both ids; normally zero or one.
func (s *IdentityService) GetProfile(ctx context.Context, userID, appID string) ([]models.User, error) {
	if err := validation.AppID(appID); err != nil {
		return nil, err
	}
	return s.users.FindInApp(ctx, appID, userID)
}

func (s *IdentityService) UpdateLocation(ctx context.Context, in UpdateLocationInput) error {
	if err := validation.UpdateLocation(in.AppID, in.UserID, in.Latitude, in.Longitude); err != nil {
		return err
	}
	return s.users.UpdateLocation(ctx, in.AppID, in.UserID, in.Latitude, in.Longitude)
}

// UpdateProfile overwrites name, bio and profile image. An omitted bio clears
// it.
func (s *IdentityService) UpdateProfile(ctx context.Context, in UpdateProfileInput) error {
	if err := validation.UpdateProfile(in.AppID, in.UserID, in.Name, in.ProfileImage); err != nil {
		return err
	}
	return s.users.UpdateProfile(ctx, in.AppID, in.UserID, repository.ProfileUpdate{
		Name:         in.Name,
		Bio:          in.Bio,
		ProfileImage: in.ProfileImage,
	})
}
