package services

import (
	"context"
	"errors"
	"testing"

	"github.com/quillhq/docsync/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProviderConfigStore is a mock implementation of driven.ProviderConfigStore
type MockProviderConfigStore struct {
	mock.Mock
}

func (m *MockProviderConfigStore) Save(ctx context.Context, cfg *domain.ProviderConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockProviderConfigStore) Get(ctx context.Context, pt domain.ProviderType) (*domain.ProviderConfig, error) {
	args := m.Called(ctx, pt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderConfig), args.Error(1)
}

func (m *MockProviderConfigStore) Delete(ctx context.Context, pt domain.ProviderType) error {
	args := m.Called(ctx, pt)
	return args.Error(0)
}

func TestSaveProviderConfig_Success(t *testing.T) {
	store := new(MockProviderConfigStore)
	admin := NewProviderAdmin(store, nil)

	cfg := &domain.ProviderConfig{
		ProviderType: domain.ProviderTypeGoogleDrive,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Enabled:      true,
	}
	store.On("Save", mock.Anything, cfg).Return(nil)

	err := admin.SaveProviderConfig(context.Background(), cfg)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestSaveProviderConfig_TransferProviderRejected(t *testing.T) {
	store := new(MockProviderConfigStore)
	admin := NewProviderAdmin(store, nil)

	err := admin.SaveProviderConfig(context.Background(), &domain.ProviderConfig{
		ProviderType: domain.ProviderTypeSFTP,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaveProviderConfig_MissingCredentialsRejected(t *testing.T) {
	store := new(MockProviderConfigStore)
	admin := NewProviderAdmin(store, nil)

	err := admin.SaveProviderConfig(context.Background(), &domain.ProviderConfig{
		ProviderType: domain.ProviderTypeDropbox,
		ClientID:     "client-id",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetProviderConfig_BlanksClientSecret(t *testing.T) {
	store := new(MockProviderConfigStore)
	admin := NewProviderAdmin(store, nil)

	store.On("Get", mock.Anything, domain.ProviderTypeGoogleDrive).Return(&domain.ProviderConfig{
		ProviderType: domain.ProviderTypeGoogleDrive,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Enabled:      true,
	}, nil)

	cfg, err := admin.GetProviderConfig(context.Background(), domain.ProviderTypeGoogleDrive)
	require.NoError(t, err)
	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Empty(t, cfg.ClientSecret)
}

func TestGetProviderConfig_NotFound(t *testing.T) {
	store := new(MockProviderConfigStore)
	admin := NewProviderAdmin(store, nil)

	store.On("Get", mock.Anything, domain.ProviderTypeDropbox).Return(nil, nil)

	_, err := admin.GetProviderConfig(context.Background(), domain.ProviderTypeDropbox)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProviderConfig(t *testing.T) {
	store := new(MockProviderConfigStore)
	admin := NewProviderAdmin(store, nil)

	store.On("Delete", mock.Anything, domain.ProviderTypeGoogleDrive).Return(nil)

	err := admin.DeleteProviderConfig(context.Background(), domain.ProviderTypeGoogleDrive)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestDeleteProviderConfig_StoreError(t *testing.T) {
	store := new(MockProviderConfigStore)
	admin := NewProviderAdmin(store, nil)

	store.On("Delete", mock.Anything, domain.ProviderTypeGoogleDrive).Return(errors.New("connection reset"))

	err := admin.DeleteProviderConfig(context.Background(), domain.ProviderTypeGoogleDrive)
	assert.Error(t, err)
}
