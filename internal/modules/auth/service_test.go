package auth

import (
	"context"
	"errors"
	"testing"

	"imagevault/internal/domain"
	"imagevault/internal/pkg/apperror"
	"imagevault/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Mock User Repository implementing the interface
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = 1
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockJWTService struct {
	mock.Mock
}

func (m *mockJWTService) GenerateToken(userID int64, email, role string) (string, error) {
	args := m.Called(userID, email, role)
	return args.String(0), args.Error(1)
}

func TestService_Register_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	jwtSvc := new(mockJWTService)

	userRepo.On("ExistsByEmail", mock.Anything, "test@example.com").Return(false, nil)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		cost, err := bcrypt.Cost([]byte(u.PasswordHash))
		return err == nil && cost == PasswordCost && u.Role == domain.RoleUser && u.Email == "test@example.com"
	})).Return(nil)

	service := NewService(userRepo, jwtSvc)

	user, err := service.Register(context.Background(), RegisterRequest{
		Username: " tester ",
		Email:    "Test@Example.com",
		Password: "securepass123",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "tester", user.Username)
	assert.Empty(t, user.PasswordHash)
	userRepo.AssertExpectations(t)
}

func TestService_Register_Validation(t *testing.T) {
	service := NewService(new(mockUserRepo), new(mockJWTService))

	cases := map[string]RegisterRequest{
		"missing username": {Email: "a@example.com", Password: "x"},
		"blank email":      {Username: "a", Email: "   ", Password: "x"},
		"missing password": {Username: "a", Email: "a@example.com"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := service.Register(context.Background(), req)
			assert.ErrorIs(t, err, ErrMissingFields)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}

	_, err := service.Register(context.Background(), RegisterRequest{Username: "a", Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestService_Register_EmailExists(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("ExistsByEmail", mock.Anything, "exists@example.com").Return(true, nil)

	service := NewService(userRepo, new(mockJWTService))

	_, err := service.Register(context.Background(), RegisterRequest{
		Username: "dup", Email: "exists@example.com", Password: "pw",
	})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Register_UniqueIndexRace(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("ExistsByEmail", mock.Anything, "race@example.com").Return(false, nil)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	service := NewService(userRepo, new(mockJWTService))

	_, err := service.Register(context.Background(), RegisterRequest{
		Username: "race", Email: "race@example.com", Password: "pw",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestService_Login_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	jwtSvc := new(mockJWTService)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	existingUser := &domain.User{
		ID:           10,
		Username:     "user",
		Email:        "user@example.com",
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
	}

	userRepo.On("GetByEmail", mock.Anything, "user@example.com").Return(existingUser, nil)
	jwtSvc.On("GenerateToken", int64(10), "user@example.com", "user").Return("login-token", nil)

	service := NewService(userRepo, jwtSvc)

	result, err := service.Login(context.Background(), LoginRequest{
		Email:    " USER@example.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "login-token", result.Token)
	assert.Empty(t, result.User.PasswordHash)
	jwtSvc.AssertExpectations(t)
}

func TestService_Login_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	userRepo := new(mockUserRepo)
	hashed, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	userRepo.On("GetByEmail", mock.Anything, "known@example.com").
		Return(&domain.User{ID: 3, Email: "known@example.com", PasswordHash: string(hashed), Role: domain.RoleUser}, nil)
	userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	service := NewService(userRepo, new(mockJWTService))

	_, errWrong := service.Login(context.Background(), LoginRequest{Email: "known@example.com", Password: "wrong"})
	_, errGhost := service.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "wrong"})

	require.Error(t, errWrong)
	require.Error(t, errGhost)
	assert.Equal(t, errWrong, errGhost)
	assert.Equal(t, apperror.KindAuth, apperror.KindOf(errGhost))
	assert.Equal(t, "Invalid email or password", errGhost.Error())
}

func TestService_Login_MissingFields(t *testing.T) {
	service := NewService(new(mockUserRepo), new(mockJWTService))

	_, err := service.Login(context.Background(), LoginRequest{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestService_Login_StoreFailureIsNotAuthError(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("GetByEmail", mock.Anything, "a@example.com").Return(nil, errors.New("connection reset"))

	service := NewService(userRepo, new(mockJWTService))

	_, err := service.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}

func TestService_GetCurrentUser(t *testing.T) {
	userRepo := new(mockUserRepo)
	userRepo.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, PasswordHash: "secret"}, nil)
	userRepo.On("GetByID", mock.Anything, int64(8)).Return(nil, gorm.ErrRecordNotFound)

	service := NewService(userRepo, new(mockJWTService))

	user, err := service.GetCurrentUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	_, err = service.GetCurrentUser(context.Background(), 8)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
