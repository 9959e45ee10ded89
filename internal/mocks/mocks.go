// Package mocks holds testify mocks for the service and middleware seams.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// MockTokenValidator is a mock implementation of middleware.TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}

// MockChatCompleter is a mock implementation of service.ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) Complete(ctx context.Context, req service.ChatRequest) (*service.Completion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Completion), args.Error(1)
}

// MockPhotoArchive is a mock implementation of service.PhotoArchive
type MockPhotoArchive struct {
	mock.Mock
}

func (m *MockPhotoArchive) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	args := m.Called(ctx, key, contentType, body)
	return args.Error(0)
}

func (m *MockPhotoArchive) GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	args := m.Called(ctx, key, expiration)
	return args.String(0), args.Error(1)
}

var (
	_ service.ChatCompleter = (*MockChatCompleter)(nil)
	_ service.PhotoArchive  = (*MockPhotoArchive)(nil)
)
