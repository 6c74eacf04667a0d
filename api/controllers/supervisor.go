package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warehouse-incentives/incentives-backend/api/responses"
	"github.com/warehouse-incentives/incentives-backend/api/validators"
	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/internal/ranking"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
)

const maxPickerIDLength = 128

// SupervisorRankings lists a cohort (or everyone) for the requested window.
func SupervisorRankings(svc ranking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ranking service unavailable"))
			return
		}

		scope, err := svc.ScopeForCohort(r.Context(), validators.ParseCohortQuery(r, "cohort"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		window := svc.Window(string(validators.ParseFilterQuery(r)))
		result, err := svc.Rankings(r.Context(), scope, window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// SupervisorPickerDetail lists one picker's events, newest first.
func SupervisorPickerDetail(rank ranking.Service, events items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rank == nil || events == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "items service unavailable"))
			return
		}

		pickerID := validators.SanitizeString(chi.URLParam(r, "pickerId"), maxPickerIDLength)
		if pickerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "picker id is required"))
			return
		}

		window := rank.Window(string(validators.ParseFilterQuery(r)))
		detail, err := events.PickerEvents(r.Context(), pickerID, window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// SupervisorDownload exports the ranking as a CSV attachment. roster=true
// adds name, cohort and age columns.
func SupervisorDownload(svc ranking.Service, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ranking service unavailable"))
			return
		}

		cohort := validators.ParseCohortQuery(r, "cohort")
		scope, err := svc.ScopeForCohort(r.Context(), cohort)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := validators.ParseFilterQuery(r)
		table, err := svc.Export(r.Context(), scope, svc.Window(string(filter)), validators.ParseQueryBool(r, "roster"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := table.WriteCSV(&buf); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode export"))
			return
		}

		responses.WriteAttachment(w, "text/csv; charset=utf-8", exportFilename(cohort, filter, now()), buf.Bytes())
	}
}

func exportFilename(cohort *int, filter enums.TimeFilter, at time.Time) string {
	label := "all"
	if cohort != nil {
		label = strconv.Itoa(*cohort)
	}
	return fmt.Sprintf("cohort%s_rankings_%s_%s.csv", label, strings.ToLower(filter.String()), at.Format("20060102_150405"))
}
