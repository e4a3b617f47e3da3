package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cargo-inspection/internal/authz"
	"github.com/cargo-inspection/internal/backend"
	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/provider"
	"github.com/cargo-inspection/internal/queue"
	"github.com/cargo-inspection/internal/repository"
	"github.com/cargo-inspection/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type apiEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupTestEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Server.Mode = "debug"
	cfg.Workflow.Timezone = "UTC"
	queueClient, _ := queue.NewClient(nil)
	exporter := backend.NewExporter(backend.NewClient(config.BackendConfig{}))
	workflow := service.NewWorkflow(cfg.Workflow)
	locker := cache.NewLocker(time.Minute)
	exports := service.NewExportDispatcher(queueClient, exporter, cfg.Export)

	outbounds := repository.NewOutboundRepository(db)
	verifications := repository.NewVerificationRepository(db)
	validations := repository.NewValidationRepository(db)
	profiles := repository.NewProfileRepository(db)
	routes := repository.NewRouteScheduleRepository(db)

	container := &provider.Container{
		Config:              cfg,
		QueueClient:         queueClient,
		Exporter:            exporter,
		TokenParser:         identity.NewParser(testIdentitySecret, "", ""),
		Locker:              locker,
		OutboundRepo:        outbounds,
		VerificationRepo:    verifications,
		ValidationRepo:      validations,
		ProfileRepo:         profiles,
		RouteRepo:           routes,
		AuthzService:        authzService,
		ExportDispatcher:    exports,
		OutboundService:     service.NewOutboundService(outbounds, locker, exports, workflow),
		VerificationService: service.NewVerificationService(outbounds, verifications, locker, exports, workflow),
		ValidationService:   service.NewValidationService(outbounds, verifications, validations, locker, exports, workflow),
		DirectoryService:    service.NewDirectoryService(profiles, time.Minute),
		DashboardService:    service.NewDashboardService(outbounds, routes, workflow),
		RouteService:        service.NewRouteService(routes, outbounds, time.Minute, workflow),
	}
	return SetupRouter(cfg, container), db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) apiEnvelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s: http status want 200 got %d", method, path, w.Code)
	}
	var env apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: unmarshal failed: %v body=%s", method, path, err, w.Body.String())
	}
	return env
}

func TestHealthzIsPublic(t *testing.T) {
	r, _ := setupTestEngine(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("healthz failed: %d %s", w.Code, w.Body.String())
	}
}

func TestMeEchoesPrincipal(t *testing.T) {
	r, _ := setupTestEngine(t)
	env := doJSON(t, r, http.MethodGet, "/api/v1/me", signTestToken(t, "GUEST"), nil)
	if env.StatusCode != 0 {
		t.Fatalf("me should only need authentication, got %d", env.StatusCode)
	}
	var p identity.Principal
	if err := json.Unmarshal(env.Data, &p); err != nil || p.Username != "louis" {
		t.Fatalf("unexpected principal: %s", string(env.Data))
	}

	env = doJSON(t, r, http.MethodGet, "/api/v1/me", signTestToken(t, "INSPECTOR"), nil)
	var me struct {
		Permissions []struct {
			Object string `json:"object"`
			Action string `json:"action"`
		} `json:"permissions"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("decode me failed: %v", err)
	}
	found := false
	for _, p := range me.Permissions {
		if p.Object == "/outbound/submit" && p.Action == "POST" {
			found = true
		}
		if p.Object == "/verification" {
			t.Fatalf("inspector must not see reviewer permissions: %+v", me.Permissions)
		}
	}
	if !found {
		t.Fatalf("inspector permissions missing submit: %+v", me.Permissions)
	}
}

func TestOutboundLoadAndSubmitValidation(t *testing.T) {
	r, _ := setupTestEngine(t)
	token := signTestToken(t, "INSPECTOR")

	env := doJSON(t, r, http.MethodGet, "/api/v1/outbound/042", token, nil)
	if env.StatusCode != 0 {
		t.Fatalf("load want 0 got %d (%s)", env.StatusCode, env.Msg)
	}
	var view struct {
		IsNew          bool     `json:"isNew"`
		AllowedActions []string `json:"allowedActions"`
	}
	if err := json.Unmarshal(env.Data, &view); err != nil || !view.IsNew {
		t.Fatalf("missing route should load as new placeholder: %s", string(env.Data))
	}

	env = doJSON(t, r, http.MethodPost, "/api/v1/outbound/submit", token, map[string]string{
		"routeNumber": "042",
		"site":        constants.SiteMD,
	})
	if env.StatusCode != 400 {
		t.Fatalf("incomplete submit want 400 got %d", env.StatusCode)
	}
	var invalid struct {
		FirstField string        `json:"first_field"`
		Fields     []interface{} `json:"fields"`
	}
	if err := json.Unmarshal(env.Data, &invalid); err != nil || invalid.FirstField == "" || len(invalid.Fields) == 0 {
		t.Fatalf("validation response should list fields: %s", string(env.Data))
	}
}

func TestReviewerRoutes(t *testing.T) {
	r, db := setupTestEngine(t)
	reviewer := signTestToken(t, "REVIEWER")

	record := &models.OutboundRecord{
		RouteNumber:    "101",
		Site:           constants.SiteSC,
		DeliveryDate:   "2023-05-02",
		OutboundStatus: models.OutboundStatusCompleted,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed outbound failed: %v", err)
	}

	env := doJSON(t, r, http.MethodGet, "/api/v1/validationDropdown", reviewer, nil)
	if env.StatusCode != 0 || strings.TrimSpace(string(env.Data)) != "[2023]" {
		t.Fatalf("validation years want [2023], got %d %s", env.StatusCode, string(env.Data))
	}

	env = doJSON(t, r, http.MethodGet, "/api/v1/verification/2023-05/NY", reviewer, nil)
	if env.StatusCode != 400 {
		t.Fatalf("unknown site want 400 got %d", env.StatusCode)
	}

	env = doJSON(t, r, http.MethodPatch, "/api/v1/verification", reviewer, map[string]string{
		"site":   constants.SiteSC,
		"period": "2023-05",
	})
	if env.StatusCode != 409 {
		t.Fatalf("unsigned approval want 409 got %d", env.StatusCode)
	}
	var blocked struct {
		Reasons []string `json:"reasons"`
	}
	if err := json.Unmarshal(env.Data, &blocked); err != nil || len(blocked.Reasons) == 0 {
		t.Fatalf("blocked approval should list reasons: %s", string(env.Data))
	}

	inspector := signTestToken(t, "INSPECTOR")
	env = doJSON(t, r, http.MethodGet, "/api/v1/validationDropdown", inspector, nil)
	if env.StatusCode != 403 {
		t.Fatalf("inspector on reviewer route want 403 got %d", env.StatusCode)
	}
}

func TestProfileLifecycleOverHTTP(t *testing.T) {
	r, _ := setupTestEngine(t)
	token := signTestToken(t, "ADMIN")

	env := doJSON(t, r, http.MethodPost, "/api/v1/profiles", token, map[string]interface{}{
		"username":  "ann",
		"fullName":  "Ann Lee",
		"site":      "md",
		"isChecker": true,
	})
	if env.StatusCode != 0 {
		t.Fatalf("create profile want 0 got %d (%s)", env.StatusCode, env.Msg)
	}
	var created models.Profile
	if err := json.Unmarshal(env.Data, &created); err != nil || created.ID == 0 || created.Site != constants.SiteMD {
		t.Fatalf("unexpected profile: %s", string(env.Data))
	}

	env = doJSON(t, r, http.MethodGet, "/api/v1/dropdowns/MD", token, nil)
	if env.StatusCode != 0 || !strings.Contains(string(env.Data), "Ann Lee") {
		t.Fatalf("dropdowns should include new checker: %d %s", env.StatusCode, string(env.Data))
	}

	env = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/profiles/%d", created.ID), token, nil)
	if env.StatusCode != 0 {
		t.Fatalf("delete profile want 0 got %d", env.StatusCode)
	}
	env = doJSON(t, r, http.MethodDelete, "/api/v1/profiles/abc", token, nil)
	if env.StatusCode != 400 {
		t.Fatalf("bad id want 400 got %d", env.StatusCode)
	}
}
