package users

import (
	"context"
	"net/http"

	"github.com/fasilahammed/snapmob-client/internal/rest"
	"github.com/fasilahammed/snapmob-client/pkg/enums"
	pkgerrors "github.com/fasilahammed/snapmob-client/pkg/errors"
	"github.com/fasilahammed/snapmob-client/pkg/logger"
	"github.com/fasilahammed/snapmob-client/pkg/validate"
)

// User is the backend's user projection, shared by the profile page and the
// admin user list.
type User struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	Phone     string         `json:"phone"`
	AvatarURL string         `json:"avatarUrl"`
	IsBlocked bool           `json:"isBlocked"`
}

// ProfileInput is the editable slice of a user's own profile.
type ProfileInput struct {
	Name  string `json:"name" validate:"required,min=2"`
	Phone string `json:"phone"`
}

// ChangePasswordInput carries a password rotation request.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// ServiceParams groups dependencies for the user service.
type ServiceParams struct {
	API    *rest.Client
	Logger *logger.Logger
}

// Service covers the profile surface plus the admin user console. It keeps
// no mirror: user records are fetched on demand.
type Service struct {
	api *rest.Client
	log *logger.Logger
}

// NewService builds the user service.
func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api client is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &Service{api: params.API, log: params.Logger}, nil
}

// Get fetches one user's profile.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.api.Do(ctx, rest.Request{
		Method: http.MethodGet,
		Route:  "/user/{id}",
		Path:   "/user/" + id,
		Out:    &user,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update rewrites the user's editable profile fields.
func (s *Service) Update(ctx context.Context, id string, input ProfileInput) (*User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	var user User
	err := s.api.Do(ctx, rest.Request{
		Method: http.MethodPut,
		Route:  "/user/{id}",
		Path:   "/user/" + id,
		Body:   input,
		Out:    &user,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword rotates the user's password.
func (s *Service) ChangePassword(ctx context.Context, id string, input ChangePasswordInput) error {
	if err := validate.Struct(input); err != nil {
		return err
	}
	return s.api.Do(ctx, rest.Request{
		Method: http.MethodPatch,
		Route:  "/user/{id}/change-password",
		Path:   "/user/" + id + "/change-password",
		Body:   input,
	})
}

// List returns every user (admin).
func (s *Service) List(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.api.Get(ctx, "/user", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// BlockUnblock flips a user's blocked flag (admin).
func (s *Service) BlockUnblock(ctx context.Context, id string) error {
	return s.api.Do(ctx, rest.Request{
		Method: http.MethodPatch,
		Route:  "/user/block-unblock/{id}",
		Path:   "/user/block-unblock/" + id,
	})
}

// Delete removes a user account (admin).
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.api.Do(ctx, rest.Request{
		Method: http.MethodDelete,
		Route:  "/user/{id}",
		Path:   "/user/" + id,
	})
}
