package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/pophits/internal/models"
	"github.com/desertthunder/pophits/internal/shared"
)

// Register creates an account and returns its auth token.
func (s *PopHitsService) Register(ctx context.Context, creds models.Credentials) (*models.AuthToken, error) {
	if err := creds.Validate(true); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMissingCredentials, err)
	}

	var token models.AuthToken
	if err := s.post(ctx, "/api/register/", creds, &token); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if token.Token == "" {
		return nil, fmt.Errorf("%w: register returned no token", shared.ErrAuthFailed)
	}
	return &token, nil
}

// Login exchanges an email and password for an auth token.
func (s *PopHitsService) Login(ctx context.Context, email, password string) (*models.AuthToken, error) {
	creds := models.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := creds.Validate(false); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMissingCredentials, err)
	}

	var token models.AuthToken
	if err := s.post(ctx, "/api/login/", creds, &token); err != nil {
		if StatusCode(err) == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if token.Token == "" {
		return nil, fmt.Errorf("%w: login returned no token", shared.ErrAuthFailed)
	}
	return &token, nil
}

// Logout invalidates the current token on the server.
func (s *PopHitsService) Logout(ctx context.Context) error {
	if err := s.post(ctx, "/api/logout/", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Profile fetches the current user and their rating history.
func (s *PopHitsService) Profile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := s.get(ctx, "/api/profile/", nil, &profile); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile changes username, email, or password. Empty fields are left as they are.
func (s *PopHitsService) UpdateProfile(ctx context.Context, update models.ProfileUpdate) error {
	if update == (models.ProfileUpdate{}) {
		return fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}

	if err := s.do(ctx, http.MethodPatch, "/api/profile/update/", nil, update, nil); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// RequestPasswordReset asks the server to email a reset link.
func (s *PopHitsService) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	body := map[string]string{"email": strings.TrimSpace(email)}
	if err := s.post(ctx, "/api/reset-password/", body, nil); err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password using the uid and token from the reset link.
func (s *PopHitsService) ConfirmPasswordReset(ctx context.Context, uid, token, newPassword string) error {
	if uid == "" || token == "" {
		return fmt.Errorf("%w: reset uid and token", shared.ErrMissingArgument)
	}
	if newPassword == "" {
		return fmt.Errorf("%w: new password", shared.ErrMissingArgument)
	}

	path := fmt.Sprintf("/api/confirm-reset-password/%s/%s/", url.PathEscape(uid), url.PathEscape(token))
	body := map[string]string{"new_password": newPassword}
	if err := s.post(ctx, path, body, nil); err != nil {
		return fmt.Errorf("confirm password reset: %w", err)
	}
	return nil
}
