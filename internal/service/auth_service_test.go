package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"artmarket/internal/auth"
	apperrors "artmarket/internal/errors"
	"artmarket/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		existingCount int64
		wantRole      model.Role
	}{
		{"first user becomes admin", 0, model.RoleAdmin},
		{"later users are plain users", 5, model.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			svc := NewAuthService(repo, auth.NewJWTService("test-secret"))

			repo.On("FindByEmail", mock.Anything, "frida@example.com").Return(nil, gorm.ErrRecordNotFound)
			repo.On("Count", mock.Anything).Return(tt.existingCount, nil)
			repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
				return u.Role == tt.wantRole && u.Email == "frida@example.com" && u.Password != "secret-password"
			})).Return(nil)

			user, err := svc.Register(context.Background(), "Frida", "frida@example.com", "secret-password")
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, user.Role)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret-password")))
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewAuthService(repo, auth.NewJWTService("test-secret"))

	repo.On("FindByEmail", mock.Anything, "frida@example.com").Return(&model.User{Email: "frida@example.com"}, nil)

	_, err := svc.Register(context.Background(), "Frida", "frida@example.com", "secret-password")
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcryptCost)
	require.NoError(t, err)
	stored := &model.User{
		ID:       uuid.New(),
		Name:     "Frida",
		Email:    "frida@example.com",
		Password: string(hash),
		Role:     model.RoleUser,
	}

	t.Run("success issues verifiable token", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, jwtService)
		repo.On("FindByEmail", mock.Anything, stored.Email).Return(stored, nil)

		token, user, err := svc.Login(context.Background(), stored.Email, "secret-password")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, user.ID)

		claims, err := jwtService.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, stored.ID.String(), claims.UserID)
		assert.Equal(t, stored.Role, claims.Role)
		assert.Equal(t, stored.Name, claims.Name)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, jwtService)
		repo.On("FindByEmail", mock.Anything, stored.Email).Return(stored, nil)

		_, _, err := svc.Login(context.Background(), stored.Email, "wrong")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, jwtService)
		repo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

		_, _, err := svc.Login(context.Background(), "nobody@example.com", "secret-password")
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}
