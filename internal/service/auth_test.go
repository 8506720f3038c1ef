package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/internal/domain"
)

// MockOrgRepository is a mock implementation of OrgRepositoryInterface
type MockOrgRepository struct {
	mock.Mock
}

func (m *MockOrgRepository) Create(ctx context.Context, org *domain.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrgRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrgRepository) GetByName(ctx context.Context, name string) (*domain.Organization, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockOrgRepository) List(ctx context.Context) ([]*domain.Organization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Organization), args.Error(1)
}

// MockAPIKeyRepository is a mock implementation of APIKeyRepositoryInterface
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) GetByOrgID(ctx context.Context, orgID string) ([]*domain.APIKey, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestAuthService_CreateOrg(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an organization", func(t *testing.T) {
		orgRepo := new(MockOrgRepository)
		orgRepo.On("Create", ctx, mock.MatchedBy(func(o *domain.Organization) bool {
			return o.ID == "org-id-1" && o.Name == "Acme"
		})).Return(nil)

		svc := NewAuthService(orgRepo, new(MockAPIKeyRepository), NewMockUUIDGenerator("org-id-1"))
		org, err := svc.CreateOrg(ctx, "Acme")

		require.NoError(t, err)
		assert.Equal(t, "org-id-1", org.ID)
		orgRepo.AssertExpectations(t)
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		svc := NewAuthService(new(MockOrgRepository), new(MockAPIKeyRepository), NewMockUUIDGenerator())
		org, err := svc.CreateOrg(ctx, "")

		assert.Nil(t, org)
		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	})
}

func TestAuthService_CreateAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a token and stores only the hash", func(t *testing.T) {
		orgRepo := new(MockOrgRepository)
		keyRepo := new(MockAPIKeyRepository)
		orgRepo.On("GetByID", ctx, "org-1").Return(&domain.Organization{ID: "org-1", Name: "Acme"}, nil)

		var stored *domain.APIKey
		keyRepo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			stored = args.Get(1).(*domain.APIKey)
		}).Return(nil)

		svc := NewAuthService(orgRepo, keyRepo, NewMockUUIDGenerator("key-id-1"))
		token, err := svc.CreateAPIKey(ctx, "org-1", "ci key")

		require.NoError(t, err)
		assert.True(t, IsValidAPIToken(token))
		assert.True(t, strings.HasPrefix(token, "prx_"))
		require.NotNil(t, stored)
		assert.NotContains(t, stored.KeyHash, token)
		assert.Equal(t, hashToken(token), stored.KeyHash)
	})

	t.Run("fails for an unknown organization", func(t *testing.T) {
		orgRepo := new(MockOrgRepository)
		orgRepo.On("GetByID", ctx, "org-gone").Return(nil, domain.ErrOrganizationNotFound)

		svc := NewAuthService(orgRepo, new(MockAPIKeyRepository), NewMockUUIDGenerator())
		_, err := svc.CreateAPIKey(ctx, "org-gone", "ci key")

		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	})
}

func TestAuthService_ValidateAPIKey(t *testing.T) {
	ctx := context.Background()
	token := "prx_" + strings.Repeat("ab", 32)

	t.Run("resolves a valid token to its org", func(t *testing.T) {
		keyRepo := new(MockAPIKeyRepository)
		keyRepo.On("GetByHash", ctx, hashToken(token)).Return(&domain.APIKey{
			ID: "key-1", OrgID: "org-1", Name: "ci key", KeyHash: hashToken(token),
		}, nil)

		svc := NewAuthService(new(MockOrgRepository), keyRepo, NewMockUUIDGenerator())
		orgID, err := svc.ValidateAPIKey(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, "org-1", orgID)
	})

	t.Run("rejects malformed tokens without a lookup", func(t *testing.T) {
		keyRepo := new(MockAPIKeyRepository)

		svc := NewAuthService(new(MockOrgRepository), keyRepo, NewMockUUIDGenerator())
		_, err := svc.ValidateAPIKey(ctx, "not-a-token")

		assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
		keyRepo.AssertNotCalled(t, "GetByHash", mock.Anything, mock.Anything)
	})

	t.Run("maps unknown hashes to invalid key", func(t *testing.T) {
		keyRepo := new(MockAPIKeyRepository)
		keyRepo.On("GetByHash", ctx, hashToken(token)).Return(nil, domain.ErrAPIKeyNotFound)

		svc := NewAuthService(new(MockOrgRepository), keyRepo, NewMockUUIDGenerator())
		_, err := svc.ValidateAPIKey(ctx, token)

		assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
	})

	t.Run("rejects revoked keys", func(t *testing.T) {
		revokedAt := time.Now().UTC()
		keyRepo := new(MockAPIKeyRepository)
		keyRepo.On("GetByHash", ctx, hashToken(token)).Return(&domain.APIKey{
			ID: "key-1", OrgID: "org-1", RevokedAt: &revokedAt,
		}, nil)

		svc := NewAuthService(new(MockOrgRepository), keyRepo, NewMockUUIDGenerator())
		_, err := svc.ValidateAPIKey(ctx, token)

		assert.ErrorIs(t, err, domain.ErrAPIKeyRevoked)
	})
}

func TestIsValidAPIToken(t *testing.T) {
	valid := "prx_" + strings.Repeat("0f", 32)

	assert.True(t, IsValidAPIToken(valid))
	assert.False(t, IsValidAPIToken(""))
	assert.False(t, IsValidAPIToken("key_"+strings.Repeat("0f", 32)))
	assert.False(t, IsValidAPIToken("prx_short"))
	assert.False(t, IsValidAPIToken("prx_"+strings.Repeat("zz", 32)))
}
