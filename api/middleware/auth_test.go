package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/lucasmoura/vitalstock-backend/pkg/auth"
	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
	"github.com/lucasmoura/vitalstock-backend/pkg/config"
	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "middleware-secret", Issuer: "vitalstock-test", ExpirationMinutes: 10}
}

func TestAuthSeedsPrincipal(t *testing.T) {
	payload := pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		UnitID: uuid.New(),
		Role:   enums.UserRoleLocalWarehouse,
	}
	token, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), payload)
	require.NoError(t, err)

	var got authz.Principal
	var seeded bool
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, seeded = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, seeded)
	require.Equal(t, payload.UserID, got.UserID)
	require.Equal(t, payload.UnitID, got.UnitID)
	require.Equal(t, payload.Role, got.Role)
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Tokens signed with another secret fail verification.
	otherCfg := testJWTConfig()
	otherCfg.Secret = "different-secret"
	token, err := pkgauth.MintAccessToken(otherCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		UnitID: uuid.New(),
		Role:   enums.UserRoleManager,
	})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
