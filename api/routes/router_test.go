package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/warehouse-incentives/incentives-backend/internal/auth"
	"github.com/warehouse-incentives/incentives-backend/internal/items"
	"github.com/warehouse-incentives/incentives-backend/internal/ranking"
	"github.com/warehouse-incentives/incentives-backend/internal/timewindow"
	pkgAuth "github.com/warehouse-incentives/incentives-backend/pkg/auth"
	"github.com/warehouse-incentives/incentives-backend/pkg/auth/session"
	"github.com/warehouse-incentives/incentives-backend/pkg/config"
	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	"github.com/warehouse-incentives/incentives-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct {
	auth.Service
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "a", RefreshToken: "r"}, nil
}

type stubRanking struct {
	ranking.Service
}

func (stubRanking) Window(filter string) timewindow.Window {
	return timewindow.Resolve(filter, time.Now())
}

func (stubRanking) ScopeForCohort(context.Context, *int) (ranking.Scope, error) {
	return ranking.All(), nil
}

func (stubRanking) ScopeForPicker(context.Context, *int) (ranking.Scope, error) {
	return ranking.All(), nil
}

func (stubRanking) PickerStats(_ context.Context, pickerID string, _ ranking.Scope, _ timewindow.Window) (*ranking.StatCard, error) {
	return &ranking.StatCard{PickerID: pickerID}, nil
}

func (stubRanking) Rankings(context.Context, ranking.Scope, timewindow.Window) (*ranking.Rankings, error) {
	return &ranking.Rankings{}, nil
}

type stubItems struct {
	items.Service
}

func (stubItems) Stats(context.Context) (*items.Stats, error) {
	return &items.Stats{}, nil
}

type stubProfiles struct{}

func (stubProfiles) FindByID(_ context.Context, id uint64) (*models.User, error) {
	return &models.User{ID: id, PickerID: "Ca.1"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"https://dashboard.example.com"}},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "incentives",
			ExpirationMinutes: 15,
		},
		Ingest: config.IngestConfig{MaxUploadMB: 1},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: logger.AtLevel(zerolog.ErrorLevel), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		stubSessions{},
		stubAuthService{},
		stubRanking{},
		stubItems{},
		nil,
		stubProfiles{},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, "# metrics\n") }),
		time.Now,
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   1,
		PickerID: "Ca.1",
		Role:     role,
		JTI:      session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, target := range []string{"/health/live", "/health/ready", "/metrics"} {
		if resp := serve(router, http.MethodGet, target, ""); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", target, resp.Code)
		}
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())

	resp := serve(router, http.MethodGet, "/api/v1/picker/stats", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRoleGroups(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	cases := []struct {
		target string
		role   enums.Role
		want   int
	}{
		{"/api/v1/picker/stats?filter=today", enums.RolePicker, http.StatusOK},
		{"/api/v1/picker/stats", enums.RoleSupervisor, http.StatusOK},
		{"/api/v1/picker/stats", enums.RoleAdmin, http.StatusForbidden},
		{"/api/v1/supervisor/rankings?cohort=2", enums.RolePicker, http.StatusForbidden},
		{"/api/v1/supervisor/rankings?cohort=2", enums.RoleSupervisor, http.StatusOK},
		{"/api/v1/supervisor/rankings", enums.RoleAdmin, http.StatusOK},
		{"/api/v1/admin/stats", enums.RoleSupervisor, http.StatusForbidden},
		{"/api/v1/admin/stats", enums.RoleAdmin, http.StatusOK},
	}
	for _, tc := range cases {
		resp := serve(router, http.MethodGet, tc.target, buildToken(t, cfg, tc.role))
		if resp.Code != tc.want {
			t.Fatalf("%s as %s: expected %d got %d", tc.target, tc.role, tc.want, resp.Code)
		}
	}
}

func TestLoginRouteIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"picker_id":"Ca.1","password":"Ca.1"}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/supervisor/rankings", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "https://dashboard.example.com" {
		t.Fatalf("expected configured origin, got %q", got)
	}
}
