package controllers

import (
	"net/http"

	"github.com/warehouse-incentives/incentives-backend/api/middleware"
	"github.com/warehouse-incentives/incentives-backend/api/responses"
	"github.com/warehouse-incentives/incentives-backend/api/validators"
	"github.com/warehouse-incentives/incentives-backend/internal/auth"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
)

const tokenHeader = "X-Incentives-Token"

// AuthLogin signs in pickers and supervisors.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return login(svc, logg, func(r *http.Request, req auth.LoginRequest) (*auth.LoginResponse, error) {
		return svc.Login(r.Context(), req)
	})
}

// AdminAuthLogin signs in admins only.
func AdminAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return login(svc, logg, func(r *http.Request, req auth.LoginRequest) (*auth.LoginResponse, error) {
		return svc.AdminLogin(r.Context(), req)
	})
}

func login(svc auth.Service, logg *logger.Logger, do func(*http.Request, auth.LoginRequest) (*auth.LoginResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := do(r, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AuthChangePassword updates the signed-in user's password.
func AuthChangePassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var body auth.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ChangePassword(r.Context(), userID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "password_changed"})
	}
}
