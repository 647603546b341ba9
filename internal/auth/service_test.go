package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lucasmoura/vitalstock-backend/internal/users"
	pkgauth "github.com/lucasmoura/vitalstock-backend/pkg/auth"
	"github.com/lucasmoura/vitalstock-backend/pkg/config"
	"github.com/lucasmoura/vitalstock-backend/pkg/db/models"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
	"github.com/lucasmoura/vitalstock-backend/pkg/logger"
	"github.com/lucasmoura/vitalstock-backend/pkg/security"
)

type stubLimiter struct {
	calls   int
	allowed bool
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, _ string, _ int64, _ time.Duration) (bool, int64, error) {
	s.calls++
	return s.allowed, int64(s.calls), nil
}

func jwtCfg() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "vitalstock-test", ExpirationMinutes: 60}
}

func passwordCfg() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func seedUser(t *testing.T, conn *gorm.DB, email, password string) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, passwordCfg())
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Name:         "operator",
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleLocalWarehouse,
		UnitID:       uuid.New(),
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func newService(t *testing.T, limiter *stubLimiter) (Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	var svc Service
	logg := logger.New(logger.Options{ServiceName: "auth-test"})
	if limiter != nil {
		svc, err = NewService(users.NewRepository(conn), limiter, jwtCfg(), config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginEmailLimit: 5, LoginIPLimit: 20}, logg)
	} else {
		svc, err = NewService(users.NewRepository(conn), nil, jwtCfg(), config.AuthRateLimitConfig{}, logg)
	}
	require.NoError(t, err)
	return svc, conn
}

func TestLoginMintsParsableToken(t *testing.T) {
	svc, conn := newService(t, nil)
	user := seedUser(t, conn, "op@hospital.test", "correct horse")

	result, err := svc.Login(context.Background(), LoginInput{Email: " Op@Hospital.Test ", Password: "correct horse"})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.User.ID)
	require.True(t, result.ExpiresAt.After(time.Now()))

	claims, err := pkgauth.ParseAccessToken(jwtCfg(), result.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.UnitID, claims.UnitID)
	require.Equal(t, user.Role, claims.Role)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, conn := newService(t, nil)
	seedUser(t, conn, "op@hospital.test", "correct horse")

	ctx := context.Background()

	_, missingErr := svc.Login(ctx, LoginInput{Email: "ghost@hospital.test", Password: "anything"})
	require.True(t, errors.HasCode(missingErr, errors.CodeUnauthorized))

	_, wrongErr := svc.Login(ctx, LoginInput{Email: "op@hospital.test", Password: "wrong"})
	require.True(t, errors.HasCode(wrongErr, errors.CodeUnauthorized))

	require.Equal(t, missingErr.Error(), wrongErr.Error(), "account existence must not leak through error text")
}

func TestLoginRateLimited(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	svc, conn := newService(t, limiter)
	seedUser(t, conn, "op@hospital.test", "correct horse")

	_, err := svc.Login(context.Background(), LoginInput{Email: "op@hospital.test", Password: "correct horse", IP: "10.0.0.1"})
	require.True(t, errors.HasCode(err, errors.CodeRateLimit))
	require.Equal(t, 1, limiter.calls, "the email limit trips before the ip limit is consulted")
}

func TestLoginValidatesInput(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.Login(context.Background(), LoginInput{Email: "", Password: ""})
	require.True(t, errors.HasCode(err, errors.CodeValidation))
}
