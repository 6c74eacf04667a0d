package controllers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/warehouse-incentives/incentives-backend/internal/auth"
	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/internal/pickers"
	"github.com/warehouse-incentives/incentives-backend/internal/ranking"
	"github.com/warehouse-incentives/incentives-backend/internal/timewindow"
	"github.com/warehouse-incentives/incentives-backend/internal/users"
	"github.com/warehouse-incentives/incentives-backend/pkg/types"
)

// The stubs embed their interface so that an unexpected call panics.

type stubAuthService struct {
	auth.Service
	loginResp   *auth.LoginResponse
	loginErr    error
	adminCalled bool
	lastLogin   auth.LoginRequest
	refreshIn   auth.RefreshInput
	refreshResp *auth.TokenPair
	refreshErr  error
	loggedOut   string
	changedFor  uint64
	changeReq   auth.ChangePasswordRequest
	changeErr   error
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.lastLogin = req
	return s.loginResp, s.loginErr
}

func (s *stubAuthService) AdminLogin(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.adminCalled = true
	s.lastLogin = req
	return s.loginResp, s.loginErr
}

func (s *stubAuthService) Refresh(_ context.Context, in auth.RefreshInput) (*auth.TokenPair, error) {
	s.refreshIn = in
	return s.refreshResp, s.refreshErr
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return nil
}

func (s *stubAuthService) ChangePassword(_ context.Context, userID uint64, req auth.ChangePasswordRequest) error {
	s.changedFor = userID
	s.changeReq = req
	return s.changeErr
}

type stubRanking struct {
	ranking.Service
	cohortAsked  *int
	pickerCohort *int
	scope        ranking.Scope
	scopeErr     error
	statsFor     string
	card         *ranking.StatCard
	rankings     *ranking.Rankings
	table        *ranking.ExportTable
	withRoster   bool
}

func (s *stubRanking) Window(filter string) timewindow.Window {
	return timewindow.Resolve(filter, time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC))
}

func (s *stubRanking) ScopeForCohort(_ context.Context, cohort *int) (ranking.Scope, error) {
	s.cohortAsked = cohort
	return s.scope, s.scopeErr
}

func (s *stubRanking) ScopeForPicker(_ context.Context, cohort *int) (ranking.Scope, error) {
	s.pickerCohort = cohort
	return s.scope, s.scopeErr
}

func (s *stubRanking) PickerStats(_ context.Context, pickerID string, _ ranking.Scope, _ timewindow.Window) (*ranking.StatCard, error) {
	s.statsFor = pickerID
	return s.card, nil
}

func (s *stubRanking) Rankings(_ context.Context, _ ranking.Scope, window timewindow.Window) (*ranking.Rankings, error) {
	if s.rankings != nil {
		s.rankings.Filter = window.Filter
	}
	return s.rankings, nil
}

func (s *stubRanking) Export(_ context.Context, _ ranking.Scope, _ timewindow.Window, withRoster bool) (*ranking.ExportTable, error) {
	s.withRoster = withRoster
	return s.table, nil
}

type stubItems struct {
	items.Service
	ingested     string
	ingestedData []byte
	source       string
	ingestErr    error
	ingestCalls  int
	cleared      bool
	detailFor    string
	stats        *items.Stats
}

func (s *stubItems) Ingest(_ context.Context, filename string, data []byte, source string) (*items.IngestResult, error) {
	s.ingestCalls++
	s.ingested = filename
	s.ingestedData = data
	s.source = source
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	return &items.IngestResult{Filename: filename, RowsInserted: 2}, nil
}

func (s *stubItems) Stats(context.Context) (*items.Stats, error) {
	return s.stats, nil
}

func (s *stubItems) Clear(context.Context) (int64, error) {
	s.cleared = true
	return 12, nil
}

func (s *stubItems) PickerEvents(_ context.Context, pickerID string, window timewindow.Window) (*items.PickerDetail, error) {
	s.detailFor = pickerID
	return &items.PickerDetail{PickerID: pickerID, Filter: window.Filter, Details: []items.EventDTO{}}, nil
}

type stubPickers struct {
	pickers.Service
	cohortFile string
	rosterFile string
	created    pickers.CreateUserInput
}

func (s *stubPickers) ImportCohorts(_ context.Context, filename string, _ []byte) (*pickers.ImportResult, error) {
	s.cohortFile = filename
	return &pickers.ImportResult{Filename: filename, TotalPickers: 3}, nil
}

func (s *stubPickers) ImportRoster(_ context.Context, filename string, _ []byte) (*pickers.ImportResult, error) {
	s.rosterFile = filename
	return &pickers.ImportResult{Filename: filename, TotalPickers: 1}, nil
}

func (s *stubPickers) CohortSummary(context.Context) ([]users.CohortCount, error) {
	return []users.CohortCount{{Cohort: 1, Pickers: 2}}, nil
}

func (s *stubPickers) ListCohortMembers(context.Context) ([]users.UserDTO, error) {
	return []users.UserDTO{}, nil
}

func (s *stubPickers) CreateUser(_ context.Context, input pickers.CreateUserInput) (*pickers.CreatedUser, error) {
	s.created = input
	return &pickers.CreatedUser{TempPassword: "generated"}, nil
}

func decodeData(t *testing.T, body []byte, dest any) {
	t.Helper()
	var env types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

func decodeJSON(t *testing.T, body []byte, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, dest))
}

func decodeErrorCode(t *testing.T, body []byte) string {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env.Error.Code
}
