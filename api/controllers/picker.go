package controllers

import (
	"context"
	"net/http"

	"github.com/warehouse-incentives/incentives-backend/api/middleware"
	"github.com/warehouse-incentives/incentives-backend/api/responses"
	"github.com/warehouse-incentives/incentives-backend/api/validators"
	"github.com/warehouse-incentives/incentives-backend/internal/ranking"
	"github.com/warehouse-incentives/incentives-backend/internal/users"
	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
)

// UserFinder loads the signed-in account.
type UserFinder interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
}

// PickerStats returns the signed-in picker's stat card, ranked against their
// own cohort when it has members.
func PickerStats(svc ranking.Service, profiles UserFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || profiles == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ranking service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		user, err := profiles.FindByID(r.Context(), userID)
		if err != nil {
			if users.IsNotFound(err) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "account no longer exists"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load picker"))
			return
		}

		scope, err := svc.ScopeForPicker(r.Context(), user.Cohort)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		window := svc.Window(string(validators.ParseFilterQuery(r)))
		card, err := svc.PickerStats(r.Context(), user.PickerID, scope, window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, card)
	}
}
