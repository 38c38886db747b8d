package monitor

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/subtech/mina-dashboard/internal/tags"
)

// MockSource
type MockSource struct {
	mock.Mock
}

func (m *MockSource) FetchAll(ctx context.Context) ([]tags.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tags.Tag), args.Error(1)
}
