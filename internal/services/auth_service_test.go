package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
}

// countingUsers wraps a user repository and counts successful creates.
type countingUsers struct {
	repositories.UserRepository
	created int
}

func (c *countingUsers) Create(ctx context.Context, u *models.User) error {
	if err := c.UserRepository.Create(ctx, u); err != nil {
		return err
	}
	c.created++
	return nil
}

type brokenUsers struct {
	findErr   error
	createErr error
}

func (b brokenUsers) Create(context.Context, *models.User) error { return b.createErr }
func (b brokenUsers) FindByEmail(context.Context, string) (*models.User, error) {
	return nil, b.findErr
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(repositories.NewMemoryStore().Users(), testConfig())

	reg, err := svc.Register(ctx, &dto.RegisterRequest{Username: "asha", Email: "asha@example.com", Password: "pa55word"})
	require.NoError(t, err)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "pa55word"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.String(), login.UserID)
	assert.Equal(t, "asha", login.Username)

	sub, err := svc.ParseToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, login.UserID, sub)
}

func TestRegister_StoresHashNotPassword(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewMemoryStore().Users()
	svc := NewAuthService(users, testConfig())

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "asha", Email: "asha@example.com", Password: "pa55word"})
	require.NoError(t, err)

	stored, err := users.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pa55word", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("pa55word")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := &countingUsers{UserRepository: repositories.NewMemoryStore().Users()}
	svc := NewAuthService(users, testConfig())

	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "asha", Email: "asha@example.com", Password: "one"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "other", Email: "asha@example.com", Password: "two"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateEmail, apperr.KindOf(err))
	assert.Equal(t, 1, users.created)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewAuthService(repositories.NewMemoryStore().Users(), testConfig())
	for _, req := range []dto.RegisterRequest{
		{Email: "a@example.com", Password: "x"},
		{Username: "a", Password: "x"},
		{Username: "a", Email: "a@example.com"},
	} {
		_, err := svc.Register(context.Background(), &req)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestRegister_StoreUnavailable(t *testing.T) {
	down := errors.New("connection refused")

	svc := NewAuthService(brokenUsers{findErr: down}, testConfig())
	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: "a", Email: "a@example.com", Password: "x"})
	assert.Equal(t, apperr.KindStoreUnavailable, apperr.KindOf(err))
	assert.ErrorIs(t, err, down)

	svc = NewAuthService(brokenUsers{findErr: repositories.ErrNotFound, createErr: down}, testConfig())
	_, err = svc.Register(context.Background(), &dto.RegisterRequest{Username: "a", Email: "a@example.com", Password: "x"})
	assert.Equal(t, apperr.KindStoreUnavailable, apperr.KindOf(err))
}

func TestRegister_CreateRaceReportsDuplicate(t *testing.T) {
	svc := NewAuthService(brokenUsers{findErr: repositories.ErrNotFound, createErr: repositories.ErrDuplicate}, testConfig())
	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Username: "a", Email: "a@example.com", Password: "x"})
	assert.Equal(t, apperr.KindDuplicateEmail, apperr.KindOf(err))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(repositories.NewMemoryStore().Users(), testConfig())
	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "asha", Email: "asha@example.com", Password: "right"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.Nil(t, resp)
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(err))

	_, unknownErr := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "right"})
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(unknownErr))
	assert.Equal(t, err.Error(), unknownErr.Error())
}

func TestLogin_StoreUnavailable(t *testing.T) {
	svc := NewAuthService(brokenUsers{findErr: errors.New("timeout")}, testConfig())
	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "a@example.com", Password: "x"})
	assert.Equal(t, apperr.KindStoreUnavailable, apperr.KindOf(err))
}

func TestParseToken_Rejects(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	svc := NewAuthService(repositories.NewMemoryStore().Users(), cfg)
	_, err := svc.Register(ctx, &dto.RegisterRequest{Username: "asha", Email: "asha@example.com", Password: "pw"})
	require.NoError(t, err)
	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "asha@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = ParseToken(login.Token, "another-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken("not.a.jwt", cfg.JWTSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": login.UserID,
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)
	_, err = ParseToken(signed, cfg.JWTSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noneAlg := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": login.UserID})
	unsigned, err := noneAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(unsigned, cfg.JWTSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
