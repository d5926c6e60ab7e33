package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider stands in for the external identity service.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyOTP(ctx context.Context, token, otpType string) (*Session, error) {
	args := m.Called(ctx, token, otpType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *MockIdentityProvider) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	args := m.Called(ctx, accessToken, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *MockIdentityProvider) GetUser(ctx context.Context, accessToken string) (*IdentityUser, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IdentityUser), args.Error(1)
}
