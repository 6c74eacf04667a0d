package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse-incentives/incentives-backend/api/middleware"
	"github.com/warehouse-incentives/incentives-backend/internal/auth"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
)

func TestAuthLoginReturnsTokens(t *testing.T) {
	svc := &stubAuthService{loginResp: &auth.LoginResponse{
		AccessToken:        "access",
		RefreshToken:       "refresh",
		MustChangePassword: true,
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"picker_id":"Ca.1","password":"Ca.1"}`))
	rec := httptest.NewRecorder()

	AuthLogin(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "access", rec.Header().Get(tokenHeader))
	assert.Equal(t, "Ca.1", svc.lastLogin.PickerID)
	assert.False(t, svc.adminCalled)

	var body auth.LoginResponse
	decodeData(t, rec.Body.Bytes(), &body)
	assert.True(t, body.MustChangePassword)
	assert.Equal(t, "refresh", body.RefreshToken)
}

func TestAuthLoginValidatesBody(t *testing.T) {
	svc := &stubAuthService{}
	for _, payload := range []string{`{"password":"x"}`, `{"picker_id":"a","password":"x","email":"e"}`, `not json`} {
		rec := httptest.NewRecorder()
		AuthLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
}

func TestAuthLoginPropagatesServiceError(t *testing.T) {
	svc := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	rec := httptest.NewRecorder()
	AuthLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"picker_id":"x","password":"y"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get(tokenHeader))
}

func TestAdminAuthLoginUsesAdminFlow(t *testing.T) {
	svc := &stubAuthService{loginResp: &auth.LoginResponse{AccessToken: "admin-access"}}
	rec := httptest.NewRecorder()
	AdminAuthLogin(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"picker_id":"root","password":"secret"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.adminCalled)
	assert.Equal(t, "admin-access", rec.Header().Get(tokenHeader))
}

func TestAuthChangePassword(t *testing.T) {
	svc := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/password", strings.NewReader(`{"new_password":"hunter22","confirm_password":"hunter22"}`))
	req = req.WithContext(middleware.WithIdentity(req.Context(), 42, "Ca.42", enums.RolePicker))
	rec := httptest.NewRecorder()

	AuthChangePassword(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), svc.changedFor)
	assert.Equal(t, "hunter22", svc.changeReq.NewPassword)
	assert.Empty(t, svc.changeReq.CurrentPassword)
}

func TestAuthChangePasswordRequiresIdentity(t *testing.T) {
	svc := &stubAuthService{}
	rec := httptest.NewRecorder()
	AuthChangePassword(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"new_password":"a","confirm_password":"a"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.changedFor)
}
