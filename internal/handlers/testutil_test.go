package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prayershare/backend/internal/middleware"
	"github.com/prayershare/backend/internal/models"
	"github.com/prayershare/backend/internal/services"
	"github.com/prayershare/backend/internal/session"
	"github.com/prayershare/backend/pkg/logger"
	"github.com/prayershare/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	audit *services.AuditService
	redis *miniredis.Miniredis
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMembership{},
		&models.Request{},
		&models.ShareLink{},
		&models.Resolution{},
		&models.AuditLog{},
		&models.Activity{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	redisServer := miniredis.RunT(t)
	sessions, err := session.NewRedisStore("redis://" + redisServer.Addr())
	if err != nil {
		t.Fatalf("failed creating session store: %v", err)
	}
	t.Cleanup(func() {
		_ = sessions.Close()
	})

	accessService := services.NewAccessService(db)
	visibilityService := services.NewVisibilityService(db, accessService)
	requestService := services.NewRequestService(db, accessService)
	groupService := services.NewGroupService(db)
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db, 100)
	t.Cleanup(auditService.Close)

	h := Handlers{
		Auth:       NewAuthHandler(userService, sessions, auditService),
		Groups:     NewGroupsHandler(groupService, visibilityService, auditService),
		Requests:   NewRequestsHandler(requestService, visibilityService, auditService),
		Activities: NewActivitiesHandler(db),
	}
	authMiddleware := middleware.NewAuthMiddleware(db, sessions)

	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS("http://localhost:3000"))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())
	RegisterRoutes(app, h, authMiddleware)

	return &testEnv{app: app, db: db, audit: auditService, redis: redisServer}
}

func createTestUser(t *testing.T, db *gorm.DB, username, password string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body["data"])
	}
	return data
}

func dataList(t *testing.T, body map[string]any) []any {
	t.Helper()
	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %+v", body["data"])
	}
	return data
}

// createGroupViaAPI posts a new group and returns its id.
func createGroupViaAPI(t *testing.T, env *testEnv, token, name string) string {
	t.Helper()
	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/groups/", map[string]any{"name": name}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	id, _ := dataMap(t, decodeJSONMap(t, resp))["id"].(string)
	if id == "" {
		t.Fatal("expected group id in response")
	}
	return id
}

func createRequestViaAPI(t *testing.T, env *testEnv, token, content string, groupIDs ...string) string {
	t.Helper()
	if groupIDs == nil {
		groupIDs = []string{}
	}
	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/requests/", map[string]any{
		"content":  content,
		"groupIDs": groupIDs,
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	id, _ := dataMap(t, decodeJSONMap(t, resp))["id"].(string)
	if id == "" {
		t.Fatal("expected request id in response")
	}
	return id
}
