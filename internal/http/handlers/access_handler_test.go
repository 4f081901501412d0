package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coachgate/internal/config"
	httpserver "coachgate/internal/http"
	"coachgate/internal/models"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// One connection: a second pool connection to :memory: would see its
	// own empty database.
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Resource{},
		&models.AccessRequest{},
		&models.AuditLog{},
	))

	cfg := config.Config{
		Environment:    "test",
		JWTSecret:      "test-jwt-secret",
		DownloadSecret: "test-download-secret",
		BaseURL:        "http://localhost:8080",
		StorageDir:     t.TempDir(),
	}

	return &testEnv{
		router: httpserver.NewRouter(gdb, cfg, zap.NewNop()),
		db:     gdb,
		cfg:    cfg,
	}
}

func (e *testEnv) createUser(t *testing.T, email, password string, role models.UserRole) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{
		Email:        email,
		Name:         strings.Split(email, "@")[0],
		Role:         role,
		Status:       models.UserActive,
		PasswordHash: string(hash),
	}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestGatedDownloadFlow(t *testing.T) {
	env := newTestEnv(t)

	env.createUser(t, "member@example.com", "member-pass", models.RoleUser)
	env.createUser(t, "admin@example.com", "admin-pass", models.RoleAdmin)

	// Stored object backing the protected resource.
	objDir := filepath.Join(env.cfg.StorageDir, "workbooks")
	require.NoError(t, os.MkdirAll(objDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(objDir, "leadership.pdf"), []byte("workbook-bytes"), 0o644))

	res := models.Resource{
		Title:        "Leadership Workbook",
		Type:         models.ResourceFile,
		Visibility:   models.VisibilityProtected,
		FileLocation: "workbooks/leadership.pdf",
		FileName:     "Leadership Workbook.pdf",
	}
	require.NoError(t, env.db.Create(&res).Error)

	// Anonymous submission is turned away.
	w := env.do(t, http.MethodPost, "/api/v1/access/requests", "", gin.H{"resource_id": res.ID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	memberTok := env.login(t, "member@example.com", "member-pass")
	adminTok := env.login(t, "admin@example.com", "admin-pass")

	// No prior request: status reports null.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/access/status?resource_id=%d", res.ID), memberTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"request": null}`, w.Body.String())

	// Submit a request.
	w = env.do(t, http.MethodPost, "/api/v1/access/requests", memberTok, gin.H{"resource_id": res.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var submitResp struct {
		Request models.AccessRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitResp))
	assert.Equal(t, models.RequestPending, submitResp.Request.Status)

	// Pending: the download gate stays shut.
	w = env.do(t, http.MethodPost, "/api/v1/access/download", memberTok, gin.H{"resource_id": res.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin sees the request, enriched with display data.
	w = env.do(t, http.MethodGet, "/api/v1/admin/requests", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Requests []struct {
			ID            int64  `json:"id"`
			DisplayStatus string `json:"display_status"`
			UserEmail     string `json:"user_email"`
			ResourceTitle string `json:"resource_title"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Requests, 1)
	assert.Equal(t, "pending", listResp.Requests[0].DisplayStatus)
	assert.Equal(t, "member@example.com", listResp.Requests[0].UserEmail)
	assert.Equal(t, "Leadership Workbook", listResp.Requests[0].ResourceTitle)

	// A regular member cannot reach the review surface.
	w = env.do(t, http.MethodGet, "/api/v1/admin/requests", memberTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Approve with a 7-day window.
	decidePath := fmt.Sprintf("/api/v1/admin/requests/%d/decision", submitResp.Request.ID)
	w = env.do(t, http.MethodPost, decidePath, adminTok, gin.H{
		"decision":        "approved",
		"expiration_days": 7,
		"notes":           "enjoy",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var decideResp struct {
		Request models.AccessRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decideResp))
	assert.Equal(t, models.RequestApproved, decideResp.Request.Status)
	require.NotNil(t, decideResp.Request.ExpiresAt)

	// Re-deciding the same request conflicts.
	w = env.do(t, http.MethodPost, decidePath, adminTok, gin.H{"decision": "denied"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Approved: issue a signed download.
	w = env.do(t, http.MethodPost, "/api/v1/access/download", memberTok, gin.H{"resource_id": res.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dlResp struct {
		URL      string `json:"url"`
		FileName string `json:"file_name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dlResp))
	assert.Equal(t, "Leadership Workbook.pdf", dlResp.FileName)

	// Redeem the signed URL without any session.
	redeemPath := strings.TrimPrefix(dlResp.URL, env.cfg.BaseURL)
	w = env.do(t, http.MethodGet, redeemPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "workbook-bytes", w.Body.String())

	// A mangled token is refused.
	w = env.do(t, http.MethodGet, redeemPath+"x", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Status now reports the active grant.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/access/status?resource_id=%d", res.ID), memberTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "approved-active")
}

func TestDenyFlow(t *testing.T) {
	env := newTestEnv(t)

	env.createUser(t, "member@example.com", "member-pass", models.RoleUser)
	env.createUser(t, "admin@example.com", "admin-pass", models.RoleAdmin)

	res := models.Resource{
		Title:      "Gated Template",
		Type:       models.ResourceTemplate,
		Visibility: models.VisibilityProtected,
	}
	require.NoError(t, env.db.Create(&res).Error)

	memberTok := env.login(t, "member@example.com", "member-pass")
	adminTok := env.login(t, "admin@example.com", "admin-pass")

	w := env.do(t, http.MethodPost, "/api/v1/access/requests", memberTok, gin.H{"resource_id": res.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var submitResp struct {
		Request models.AccessRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitResp))

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/requests/%d/decision", submitResp.Request.ID), adminTok, gin.H{
		"decision": "denied",
		"notes":    "not a fit",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Denied is distinguishable from pending and from missing.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/access/status?resource_id=%d", res.ID), memberTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"denied"`)

	w = env.do(t, http.MethodPost, "/api/v1/access/download", memberTok, gin.H{"resource_id": res.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Deciding a request that never existed is a 404, not a 409.
	w = env.do(t, http.MethodPost, "/api/v1/admin/requests/99999/decision", adminTok, gin.H{"decision": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicCatalogHidesProtectedLinks(t *testing.T) {
	env := newTestEnv(t)

	public := models.Resource{
		Title:      "Free Article",
		Type:       models.ResourceLink,
		Visibility: models.VisibilityPublic,
		Link:       "https://example.com/free",
	}
	gated := models.Resource{
		Title:      "Members-Only Webinar",
		Type:       models.ResourceLink,
		Visibility: models.VisibilityProtected,
		Link:       "https://example.com/secret",
	}
	require.NoError(t, env.db.Create(&public).Error)
	require.NoError(t, env.db.Create(&gated).Error)

	w := env.do(t, http.MethodGet, "/api/v1/resources", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "https://example.com/free")
	assert.NotContains(t, body, "https://example.com/secret")
	assert.Contains(t, body, "Members-Only Webinar")

	// Anonymous detail view keeps the gate shut too.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/resources/%d", gated.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "https://example.com/secret")
	assert.Contains(t, w.Body.String(), "unauthenticated")
}

func TestPublicFileBypassesTheLedger(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, os.MkdirAll(filepath.Join(env.cfg.StorageDir, "guides"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.cfg.StorageDir, "guides", "intro.pdf"), []byte("guide-bytes"), 0o644))

	public := models.Resource{
		Title:        "Intro Guide",
		Type:         models.ResourceFile,
		Visibility:   models.VisibilityPublic,
		FileLocation: "guides/intro.pdf",
		FileName:     "Intro Guide.pdf",
	}
	gated := models.Resource{
		Title:        "Deep-Dive Guide",
		Type:         models.ResourceFile,
		Visibility:   models.VisibilityProtected,
		FileLocation: "guides/intro.pdf",
	}
	require.NoError(t, env.db.Create(&public).Error)
	require.NoError(t, env.db.Create(&gated).Error)

	// Anyone can fetch a public file directly, no session, no request.
	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/resources/%d/file", public.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guide-bytes", w.Body.String())

	// The direct route refuses protected resources outright.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/resources/%d/file", gated.ID), "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
