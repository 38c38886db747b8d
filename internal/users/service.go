package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/subtech/mina-dashboard/internal/session"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrUserNotFound = errors.New("user not found")
	ErrNoChanges    = errors.New("No hay cambios para guardar")

	ErrPasswordFieldsMissing = errors.New("Completa todos los campos de contraseña")
	ErrPasswordMismatch      = errors.New("La confirmación no coincide con la nueva contraseña")
)

// Doer performs an authenticated backend call. apiclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any) error
}

type User struct {
	ID         string `json:"id"`
	Company    string `json:"company,omitempty"`
	BusinessID string `json:"businessId,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Rut        string `json:"rut"`
	Phone      string `json:"phone"`
	Occupation string `json:"occupation"`
	Role       string `json:"role"`
	CreatedAt  int64  `json:"createdAt,omitempty"`
}

// Input is the admin user form.
type Input struct {
	Company    string `json:"company"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Rut        string `json:"rut"`
	Phone      string `json:"phone"`
	Occupation string `json:"occupation"`
	Role       string `json:"role"`
	Password   string `json:"password"`
}

// ValidationError names a required field left blank.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("el campo %s es obligatorio", e.Field)
}

// CreatePayload is every field of the form except role, all required.
func CreatePayload(in Input) (map[string]string, error) {
	data := map[string]string{
		"company":    in.Company,
		"name":       in.Name,
		"email":      in.Email,
		"rut":        in.Rut,
		"phone":      in.Phone,
		"occupation": in.Occupation,
		"password":   in.Password,
	}
	for _, f := range []string{"company", "name", "email", "rut", "phone", "occupation", "password"} {
		if strings.TrimSpace(data[f]) == "" {
			return nil, &ValidationError{Field: f}
		}
	}
	return data, nil
}

// Diff returns the editable fields of in that differ from current. A
// non-empty password is always sent; email and rut are not editable.
func Diff(current User, in Input) map[string]string {
	data := map[string]string{}
	if in.Company != current.Company {
		data["company"] = in.Company
	}
	if in.Name != current.Name {
		data["name"] = in.Name
	}
	if in.Phone != current.Phone {
		data["phone"] = in.Phone
	}
	if in.Occupation != current.Occupation {
		data["occupation"] = in.Occupation
	}
	if in.Role != "" && in.Role != current.Role {
		data["role"] = in.Role
	}
	if in.Password != "" {
		data["password"] = in.Password
	}
	return data
}

type Service struct {
	api      Doer
	sessions session.Store
}

func NewService(api Doer, sessions session.Store) *Service {
	return &Service{api: api, sessions: sessions}
}

// RequireAdmin fails with ErrForbidden unless the stored token carries the
// admin role.
func (s *Service) RequireAdmin(ctx context.Context) error {
	claims, err := session.CurrentClaims(ctx, s.sessions)
	if err != nil {
		return err
	}
	if !claims.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	var out []User
	if err := s.api.Do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []User{}
	}
	return out, nil
}

// Get finds a user in the listing; the backend has no single-user read.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *Service) Create(ctx context.Context, in Input) error {
	data, err := CreatePayload(in)
	if err != nil {
		return err
	}
	return s.api.Do(ctx, http.MethodPost, "/users", data, nil)
}

// Update sends only the changed fields. It reports false, without calling
// the backend, when nothing changed.
func (s *Service) Update(ctx context.Context, current User, in Input) (bool, error) {
	data := Diff(current, in)
	if len(data) == 0 {
		return false, nil
	}
	if err := s.api.Do(ctx, http.MethodPut, "/users/"+url.PathEscape(current.ID), data, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.api.Do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}
