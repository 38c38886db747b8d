package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/subtech/mina-dashboard/internal/session"
)

func signed(t *testing.T, role string) string {
	t.Helper()
	claims := session.Claims{
		Email: "ops@subtech.cl",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

var existing = User{ID: "u-7", Company: "Subtech", Name: "Ana", Email: "ana@x.cl", Rut: "1-9", Phone: "123", Occupation: "Geóloga", Role: "user"}

func TestDiff(t *testing.T) {
	in := Input{Company: "Subtech", Name: "Ana María", Email: "other@x.cl", Rut: "2-7", Phone: "123", Occupation: "Geóloga", Role: "admin"}

	assert.Equal(t, map[string]string{"name": "Ana María", "role": "admin"}, Diff(existing, in))
}

func TestDiff_PasswordAlwaysSentWhenSet(t *testing.T) {
	in := Input{Company: "Subtech", Name: "Ana", Phone: "123", Occupation: "Geóloga", Role: "user", Password: "s3cret"}

	assert.Equal(t, map[string]string{"password": "s3cret"}, Diff(existing, in))
}

func TestCreatePayload_RequiresFields(t *testing.T) {
	_, err := CreatePayload(Input{Company: "S", Name: "N", Email: "e", Rut: "r", Phone: "p", Occupation: "o"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestService_List(t *testing.T) {
	api := new(MockDoer)
	api.On("Do", mock.Anything, "GET", "/users", nil, mock.Anything).Run(func(args mock.Arguments) {
		out := args.Get(4).(*[]User)
		*out = []User{existing}
	}).Return(nil)

	got, err := NewService(api, session.NewMemoryStore()).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []User{existing}, got)
}

func TestService_GetNotFound(t *testing.T) {
	api := new(MockDoer)
	api.On("Do", mock.Anything, "GET", "/users", nil, mock.Anything).Return(nil)

	_, err := NewService(api, session.NewMemoryStore()).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_Create(t *testing.T) {
	api := new(MockDoer)
	in := Input{Company: "S", Name: "N", Email: "e@x", Rut: "r", Phone: "p", Occupation: "o", Role: "admin", Password: "pw"}
	api.On("Do", mock.Anything, "POST", "/users", map[string]string{
		"company": "S", "name": "N", "email": "e@x", "rut": "r", "phone": "p", "occupation": "o", "password": "pw",
	}, nil).Return(nil)

	require.NoError(t, NewService(api, session.NewMemoryStore()).Create(context.Background(), in))
	api.AssertExpectations(t)
}

func TestService_UpdateSendsOnlyChanges(t *testing.T) {
	api := new(MockDoer)
	api.On("Do", mock.Anything, "PUT", "/users/u-7", map[string]string{"phone": "999"}, nil).Return(nil)

	in := Input{Company: existing.Company, Name: existing.Name, Phone: "999", Occupation: existing.Occupation, Role: existing.Role}
	sent, err := NewService(api, session.NewMemoryStore()).Update(context.Background(), existing, in)

	require.NoError(t, err)
	assert.True(t, sent)
	api.AssertExpectations(t)
}

func TestService_UpdateNoopWithoutChanges(t *testing.T) {
	api := new(MockDoer)
	in := Input{Company: existing.Company, Name: existing.Name, Phone: existing.Phone, Occupation: existing.Occupation, Role: existing.Role}

	sent, err := NewService(api, session.NewMemoryStore()).Update(context.Background(), existing, in)

	require.NoError(t, err)
	assert.False(t, sent)
	api.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Delete(t *testing.T) {
	api := new(MockDoer)
	api.On("Do", mock.Anything, "DELETE", "/users/u-7", nil, nil).Return(errors.New("Usuario no encontrado"))

	err := NewService(api, session.NewMemoryStore()).Delete(context.Background(), "u-7")
	assert.EqualError(t, err, "Usuario no encontrado")
}

func TestService_RequireAdmin(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	svc := NewService(new(MockDoer), store)

	assert.ErrorIs(t, svc.RequireAdmin(ctx), session.ErrNoToken)

	require.NoError(t, store.Save(ctx, signed(t, "user")))
	assert.ErrorIs(t, svc.RequireAdmin(ctx), ErrForbidden)

	require.NoError(t, store.Save(ctx, signed(t, "admin")))
	assert.NoError(t, svc.RequireAdmin(ctx))
}

func TestProfile_UpdateContactUnchanged(t *testing.T) {
	api := new(MockDoer)
	svc := NewService(api, session.NewMemoryStore())

	_, err := svc.UpdateContact(context.Background(), existing, "  ana@x.cl ", "123")

	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Equal(t, "No hay cambios para guardar", err.Error())
	api.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProfile_UpdateContactSavesNewToken(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "old"))

	api := new(MockDoer)
	api.On("Do", mock.Anything, "PUT", "/users/me", ProfileUpdate{Email: "new@x.cl", Phone: "123"}, mock.Anything).
		Run(func(args mock.Arguments) {
			res := args.Get(4).(*profileResponse)
			res.User = User{ID: "u-7", Email: "new@x.cl", Phone: "123"}
			res.AccessToken = "fresh"
		}).Return(nil)

	u, err := NewService(api, store).UpdateContact(ctx, existing, "new@x.cl", "123")
	require.NoError(t, err)
	assert.Equal(t, "new@x.cl", u.Email)

	tok, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
}

func TestProfile_ChangePasswordValidation(t *testing.T) {
	svc := NewService(new(MockDoer), session.NewMemoryStore())

	_, err := svc.ChangePassword(context.Background(), "old", "", "")
	assert.ErrorIs(t, err, ErrPasswordFieldsMissing)

	_, err = svc.ChangePassword(context.Background(), "old", "new1", "new2")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestProfile_Me(t *testing.T) {
	api := new(MockDoer)
	api.On("Do", mock.Anything, "GET", "/users/me", nil, mock.Anything).Run(func(args mock.Arguments) {
		*args.Get(4).(*User) = existing
	}).Return(nil)

	u, err := NewService(api, session.NewMemoryStore()).Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
}
