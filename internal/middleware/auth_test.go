package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, sub string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

func protectedEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value("userID").(string)
		assert.NotEmpty(t, userID)
		w.Write([]byte(userID))
	})
}

func TestAuthMiddleware(t *testing.T) {
	viper.Set("auth.jwt_secret", testSecret)
	defer viper.Set("auth.jwt_secret", "")

	t.Run("valid token passes the subject through", func(t *testing.T) {
		InitAuthMiddleware(nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-42", time.Hour))

		AuthMiddleware(protectedEcho(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-42", rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		InitAuthMiddleware(nil)

		rec := httptest.NewRecorder()
		AuthMiddleware(protectedEcho(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		InitAuthMiddleware(nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Token abc")

		AuthMiddleware(protectedEcho(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		InitAuthMiddleware(nil)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "user-42", -time.Hour))

		AuthMiddleware(protectedEcho(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		InitAuthMiddleware(nil)

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-42"})
		signed, err := token.SignedString([]byte("other-secret"))
		assert.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+signed)

		AuthMiddleware(protectedEcho(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		InitAuthMiddleware(db)
		defer InitAuthMiddleware(nil)

		token := signToken(t, "user-42", time.Hour)
		mock.ExpectExists("blacklist:" + token).SetVal(1)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		AuthMiddleware(protectedEcho(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
