package mocks

import (
	"context"

	"cmsapi/internal/access"
	"cmsapi/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

var _ service.AuthService = (*MockAuthService)(nil)

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, s access.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (access.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(access.Session), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, s access.Session, oldPassword, newPassword string) error {
	args := m.Called(ctx, s, oldPassword, newPassword)
	return args.Error(0)
}
