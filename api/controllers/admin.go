package controllers

import (
	"net/http"

	"github.com/warehouse-incentives/incentives-backend/api/responses"
	"github.com/warehouse-incentives/incentives-backend/api/validators"
	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/internal/pickers"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
)

// AdminStats returns the dashboard summary.
func AdminStats(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// AdminUploadEvents ingests the multipart field csv_file.
func AdminUploadEvents(svc items.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		filename, data, err := readUpload(w, r, "csv_file", maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Ingest(r.Context(), filename, data, items.SourceUpload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AdminUploadCohorts assigns cohorts from the multipart field cohort_file.
func AdminUploadCohorts(svc pickers.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		filename, data, err := readUpload(w, r, "cohort_file", maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ImportCohorts(r.Context(), filename, data)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminUploadRoster applies the multipart field roster_file.
func AdminUploadRoster(svc pickers.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		filename, data, err := readUpload(w, r, "roster_file", maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ImportRoster(r.Context(), filename, data)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminClear deletes every event and processed file record.
func AdminClear(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		deleted, err := svc.Clear(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Warn(logg.WithField(r.Context(), "deleted", deleted), "item events cleared")
		}
		responses.WriteSuccess(w, map[string]any{"deleted": deleted})
	}
}

// AdminCohortSummary lists cohorts with their member counts and the pickers
// assigned to them.
func AdminCohortSummary(svc pickers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		summary, err := svc.CohortSummary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		members, err := svc.ListCohortMembers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"cohorts": summary, "members": members})
	}
}

// AdminCreateUser creates an account; a password is generated when omitted.
func AdminCreateUser(svc pickers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "picker service unavailable"))
			return
		}

		var body pickers.CreateUserInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateUser(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
