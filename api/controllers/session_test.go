package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse-incentives/incentives-backend/internal/auth"
	pkgAuth "github.com/warehouse-incentives/incentives-backend/pkg/auth"
	"github.com/warehouse-incentives/incentives-backend/pkg/auth/session"
	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
)

var sessionJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}

func mintSessionToken(t *testing.T, issuedAt time.Time) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(sessionJWT, issuedAt, pkgAuth.AccessTokenPayload{
		UserID:   9,
		PickerID: "Ca.9",
		Role:     enums.RolePicker,
		JTI:      accessID,
	})
	require.NoError(t, err)
	return token, accessID
}

func TestAuthLogoutAcceptsExpiredToken(t *testing.T) {
	svc := &stubAuthService{}
	token, jti := mintSessionToken(t, time.Now().Add(-time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthLogout(svc, sessionJWT, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jti, svc.loggedOut)
}

func TestAuthLogoutRequiresToken(t *testing.T) {
	svc := &stubAuthService{}
	rec := httptest.NewRecorder()
	AuthLogout(svc, sessionJWT, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.loggedOut)
}

func TestAuthRefreshPassesSessionThrough(t *testing.T) {
	svc := &stubAuthService{refreshResp: &auth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}}
	token, jti := mintSessionToken(t, time.Now())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"old-refresh"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthRefresh(svc, sessionJWT, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.RefreshInput{AccessID: jti, UserID: 9, RefreshToken: "old-refresh"}, svc.refreshIn)
	assert.Equal(t, "new-access", rec.Header().Get(tokenHeader))

	var pair auth.TokenPair
	decodeData(t, rec.Body.Bytes(), &pair)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
}

func TestAuthRefreshRejectsInvalidRefreshToken(t *testing.T) {
	svc := &stubAuthService{refreshErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")}
	token, _ := mintSessionToken(t, time.Now())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refresh_token":"stale"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthRefresh(svc, sessionJWT, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeUnauthorized), decodeErrorCode(t, rec.Body.Bytes()))
}

func TestAuthRefreshRejectsForgedToken(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refresh_token":"r"}`))
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	AuthRefresh(svc, sessionJWT, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.refreshIn.AccessID)
}
