package mocks

import (
	"context"

	"cmsapi/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockKV struct {
	mock.Mock
}

var _ repository.KV = (*MockKV)(nil)

func (m *MockKV) Get(ctx context.Context, kind, id string) (repository.Record, error) {
	args := m.Called(ctx, kind, id)
	return args.Get(0).(repository.Record), args.Error(1)
}

func (m *MockKV) List(ctx context.Context, kind string) ([]repository.Record, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Record), args.Error(1)
}

func (m *MockKV) Apply(ctx context.Context, puts ...repository.Put) error {
	args := m.Called(ctx, puts)
	return args.Error(0)
}
