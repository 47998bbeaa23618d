package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"teahouse/internal/model"
)

type MockMediaHost struct {
	mock.Mock
}

func (m *MockMediaHost) Upload(ctx context.Context, localPath string, contentType string) (model.MediaRef, error) {
	args := m.Called(ctx, localPath, contentType)
	return args.Get(0).(model.MediaRef), args.Error(1)
}

func (m *MockMediaHost) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}
