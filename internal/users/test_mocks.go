package users

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDoer
type MockDoer struct {
	mock.Mock
}

func (m *MockDoer) Do(ctx context.Context, method, path string, body, out any) error {
	args := m.Called(ctx, method, path, body, out)
	return args.Error(0)
}
