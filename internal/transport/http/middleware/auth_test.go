package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtinfra "github.com/maapaap/api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessionChecker struct{ mock.Mock }

func (m *mockSessionChecker) IsSessionLive(ctx context.Context, userID, token string) (bool, error) {
	args := m.Called(ctx, userID, token)
	return args.Bool(0), args.Error(1)
}

func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider("test-secret", 24*time.Hour)
	require.NoError(t, err)
	return p
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuth_MissingHeader(t *testing.T) {
	p := newTestProvider(t)
	sc := &mockSessionChecker{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	Auth(p, sc)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"No token provided"}`, rr.Body.String())
}

func TestAuth_WrongScheme(t *testing.T) {
	p := newTestProvider(t)
	sc := &mockSessionChecker{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rr := httptest.NewRecorder()
	Auth(p, sc)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"No token provided"}`, rr.Body.String())
}

func TestAuth_BadToken(t *testing.T) {
	p := newTestProvider(t)
	sc := &mockSessionChecker{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()
	Auth(p, sc)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid token"}`, rr.Body.String())
	sc.AssertNotCalled(t, "IsSessionLive", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuth_WrongSecret(t *testing.T) {
	other, err := jwtinfra.NewProvider("other-secret", 24*time.Hour)
	require.NoError(t, err)
	signed, err := other.Sign("u1", "u1@x.com", "")
	require.NoError(t, err)

	p := newTestProvider(t)
	sc := &mockSessionChecker{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	Auth(p, sc)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid token"}`, rr.Body.String())
}

func TestAuth_ValidSignature_DeadSession(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "u1@x.com", "")
	require.NoError(t, err)

	sc := &mockSessionChecker{}
	sc.On("IsSessionLive", mock.Anything, "u1", signed).Return(false, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	Auth(p, sc)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid or expired session"}`, rr.Body.String())
}

func TestAuth_SessionCheckError(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "u1@x.com", "")
	require.NoError(t, err)

	sc := &mockSessionChecker{}
	sc.On("IsSessionLive", mock.Anything, "u1", signed).Return(false, assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	Auth(p, sc)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestAuth_ValidToken_InjectsClaims(t *testing.T) {
	p := newTestProvider(t)
	signed, err := p.Sign("u1", "u1@x.com", "")
	require.NoError(t, err)

	sc := &mockSessionChecker{}
	sc.On("IsSessionLive", mock.Anything, "u1", signed).Return(true, nil)

	var gotClaims *jwtinfra.Claims
	captureHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	Auth(p, sc)(captureHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "u1", gotClaims.UserID)
	assert.Equal(t, "u1@x.com", gotClaims.Email)
}
