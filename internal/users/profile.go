package users

import (
	"context"
	"net/http"
	"strings"
)

// ProfileUpdate is the body of PUT /users/me. Empty fields are omitted.
type ProfileUpdate struct {
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
}

type profileResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

func (s *Service) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.api.Do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe applies the update and stores the re-issued access token, so
// later calls carry the new claims.
func (s *Service) UpdateMe(ctx context.Context, upd ProfileUpdate) (*User, error) {
	var res profileResponse
	if err := s.api.Do(ctx, http.MethodPut, "/users/me", upd, &res); err != nil {
		return nil, err
	}
	if res.AccessToken != "" {
		if err := s.sessions.Save(ctx, res.AccessToken); err != nil {
			return nil, err
		}
	}
	return &res.User, nil
}

// UpdateContact changes email and phone. Values are trimmed; when both
// match current, ErrNoChanges is returned and nothing is sent.
func (s *Service) UpdateContact(ctx context.Context, current User, email, phone string) (*User, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email == current.Email && phone == current.Phone {
		return nil, ErrNoChanges
	}
	return s.UpdateMe(ctx, ProfileUpdate{Email: email, Phone: phone})
}

func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword, confirm string) (*User, error) {
	if currentPassword == "" || newPassword == "" || confirm == "" {
		return nil, ErrPasswordFieldsMissing
	}
	if newPassword != confirm {
		return nil, ErrPasswordMismatch
	}
	return s.UpdateMe(ctx, ProfileUpdate{CurrentPassword: currentPassword, NewPassword: newPassword})
}
