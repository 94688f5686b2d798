package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/voxnote/voxnote/app/models"
	"github.com/voxnote/voxnote/app/repository"
	"github.com/voxnote/voxnote/internal/pkg/cache"
	"github.com/voxnote/voxnote/internal/pkg/codes"
	"github.com/voxnote/voxnote/internal/pkg/database"
	"github.com/voxnote/voxnote/internal/pkg/export"
	"github.com/voxnote/voxnote/internal/pkg/middleware"
	"github.com/voxnote/voxnote/internal/pkg/quota"
	"github.com/voxnote/voxnote/internal/pkg/ratelimit"
	"github.com/voxnote/voxnote/internal/pkg/summarize"
	"github.com/voxnote/voxnote/internal/pkg/token"
)

// The repository factory and controller wiring are process-wide singletons,
// so all controller tests share one database.
var (
	setupOnce  sync.Once
	testDB     *gorm.DB
	testIssuer *codes.Issuer
	fakeLLM    *fakeSummarizer
	fakeDrive  *fakeExporter
)

type fakeSummarizer struct {
	mu      sync.Mutex
	content string
	tokens  int
	err     error
}

func (f *fakeSummarizer) set(content string, tokens int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content, f.tokens, f.err = content, tokens, err
}

func (f *fakeSummarizer) Chat(ctx context.Context, req *summarize.ChatRequest) (*summarize.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	body := fmt.Sprintf(`{
		"choices": [{"message": {"role": "assistant", "content": %q}}],
		"usage": {"total_tokens": %d}
	}`, f.content, f.tokens)
	var resp summarize.ChatResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type fakeExporter struct {
	mu   sync.Mutex
	err  error
	last string
}

func (f *fakeExporter) set(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeExporter) Save(ctx context.Context, accessToken, notesHTML, filename, folderID string) (*export.SavedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.last = notesHTML
	return &export.SavedFile{FileID: "file-123", FileName: filename, FolderID: folderID}, nil
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	setupOnce.Do(func() {
		db, err := gorm.Open(sqlite.Open("file:controllers?mode=memory&cache=shared"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		if err != nil {
			panic(err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			panic(err)
		}
		sqlDB.SetMaxOpenConns(1)

		if err := database.Migrate(db); err != nil {
			panic(err)
		}
		repository.InitializeFactory(db)
		middleware.Setup(token.NewService("controller-test-secret", time.Hour))

		mr, err := miniredis.Run()
		if err != nil {
			panic(err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cache.SetClient(client)

		testDB = db
		testIssuer = codes.NewIssuer(db)
		fakeLLM = &fakeSummarizer{}
		fakeDrive = &fakeExporter{}

		factory := repository.GetGlobalFactory()
		Initialize(
			testIssuer,
			quota.NewAccountant(factory.GetUserRepository(), factory.GetPlanRepository()),
			fakeLLM,
			fakeDrive,
			ratelimit.New(client, "test", 1000, 10000),
		)
	})

	app := fiber.New()
	app.Use(middleware.UserContextMiddleware)

	app.Post("/register", HandleRegister)
	app.Post("/login", HandleLogin)
	app.Post("/logout", HandleLogout)
	app.Post("/email/verify/check", HandleCheckPin)
	app.Post("/email/verify/cancel", HandleCancelSignup)
	app.Post("/auth/password-reset/request", HandlePasswordResetRequest)
	app.Post("/auth/password-reset/verify", HandlePasswordResetVerify)
	app.Get("/me", middleware.RequireAuth, HandleMe)
	app.Get("/me/quota", middleware.RequireAuth, HandleQuota)
	app.Post("/summarize", middleware.RequireAuth, HandleSummarize)
	app.Post("/save-to-drive", middleware.RequireAuth, HandleSaveToDrive)
	app.Post("/feedback", middleware.RequireAuth, HandleFeedback)

	return app
}

func jsonReq(method, target string, payload interface{}) *http.Request {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// registerVerified creates a user straight through the public flow and
// verifies it by looking the issued code up in the database.
func registerVerified(t *testing.T, app *fiber.App, email, password string) {
	t.Helper()

	resp, err := app.Test(jsonReq(http.MethodPost, "/register", fiber.Map{
		"email": email, "password": password, "full_name": "Test User",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	pin := latestCode(t, email)
	resp, err = app.Test(jsonReq(http.MethodPost, "/email/verify/check", fiber.Map{
		"email": email, "pin": pin,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func latestCode(t *testing.T, email string) string {
	t.Helper()
	var row struct{ Code string }
	require.NoError(t, testDB.Table("email_verifications").
		Where("email = ? AND consumed = ?", email, false).
		Order("id DESC").Limit(1).Scan(&row).Error)
	require.NotEmpty(t, row.Code)
	return row.Code
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, err := app.Test(jsonReq(http.MethodPost, "/login", fiber.Map{
		"email": email, "password": password,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			return c.Value
		}
	}
	t.Fatal("login response is missing the session cookie")
	return ""
}

func authReq(method, target, tok string, payload interface{}) *http.Request {
	req := jsonReq(method, target, payload)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: tok})
	return req
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonReq(http.MethodPost, "/register", fiber.Map{
		"email": "dup@example.com", "password": "secret123",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonReq(http.MethodPost, "/register", fiber.Map{
		"email": "dup@example.com", "password": "secret123",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "conflict", body["error"])
}

func TestLogin_UnverifiedIsForbidden(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonReq(http.MethodPost, "/register", fiber.Map{
		"email": "pending@example.com", "password": "secret123",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonReq(http.MethodPost, "/login", fiber.Map{
		"email": "pending@example.com", "password": "secret123",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "unverified", body["error"])
}

func TestLogin_BadCredentials(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "login@example.com", "secret123")

	resp, err := app.Test(jsonReq(http.MethodPost, "/login", fiber.Map{
		"email": "login@example.com", "password": "wrongpass",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonReq(http.MethodPost, "/login", fiber.Map{
		"email": "ghost@example.com", "password": "whatever1",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_RoundTrip(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "me@example.com", "secret123")
	tok := login(t, app, "me@example.com", "secret123")

	resp, err := app.Test(authReq(http.MethodGet, "/me", tok, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "me@example.com", body["email"])

	// Without the cookie the same route is a 401.
	resp, err = app.Test(jsonReq(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestQuota_ReportsFreePlan(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "quota@example.com", "secret123")
	tok := login(t, app, "quota@example.com", "secret123")

	resp, err := app.Test(authReq(http.MethodGet, "/me/quota", tok, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(25), body["remaining"])
}

func TestSummarize_SuccessConsumesQuota(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "sum@example.com", "secret123")
	tok := login(t, app, "sum@example.com", "secret123")

	fakeLLM.set("# Lecture\n\n- a point", 120, nil)

	resp, err := app.Test(authReq(http.MethodPost, "/summarize", tok, fiber.Map{
		"transcript": "today we talked about graphs",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "# Lecture\n\n- a point", body["outline"])

	var user models.User
	require.NoError(t, testDB.Where("email = ?", "sum@example.com").First(&user).Error)
	assert.Equal(t, 1, user.SummarizeCallCount)
}

func TestSummarize_UpstreamFailureDoesNotConsumeQuota(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "fail@example.com", "secret123")
	tok := login(t, app, "fail@example.com", "secret123")

	fakeLLM.set("", 0, fmt.Errorf("model down"))
	defer fakeLLM.set("ok", 1, nil)

	resp, err := app.Test(authReq(http.MethodPost, "/summarize", tok, fiber.Map{
		"transcript": "anything",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var user models.User
	require.NoError(t, testDB.Where("email = ?", "fail@example.com").First(&user).Error)
	assert.Equal(t, 0, user.SummarizeCallCount, "failed calls must not consume quota")
}

func TestSummarize_QuotaExhausted(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "broke@example.com", "secret123")
	tok := login(t, app, "broke@example.com", "secret123")

	require.NoError(t, testDB.Model(&models.User{}).
		Where("email = ?", "broke@example.com").
		Update("summarize_call_count", 25).Error)

	resp, err := app.Test(authReq(http.MethodPost, "/summarize", tok, fiber.Map{
		"transcript": "anything",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "quota_exceeded", body["error"])
}

func TestSaveToDrive(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "drive@example.com", "secret123")
	tok := login(t, app, "drive@example.com", "secret123")

	fakeDrive.set(nil)
	resp, err := app.Test(authReq(http.MethodPost, "/save-to-drive", tok, fiber.Map{
		"google_access_token":  "ya29.token",
		"google_refresh_token": "1//refresh",
		"notes_html":           "<h1>Notes</h1>",
		"filename":             "lecture-4",
		"folder_id":            "folder-1",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "file-123", body["file_id"])
	assert.Equal(t, "lecture-4", body["file_name"])

	// The refresh token is persisted for later exports.
	var user models.User
	require.NoError(t, testDB.Where("email = ?", "drive@example.com").First(&user).Error)
	var count int64
	require.NoError(t, testDB.Model(&models.UserToken{}).
		Where("user_id = ? AND provider = ?", user.ID, "google").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSaveToDrive_MissingToken(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "drive2@example.com", "secret123")
	tok := login(t, app, "drive2@example.com", "secret123")

	resp, err := app.Test(authReq(http.MethodPost, "/save-to-drive", tok, fiber.Map{
		"notes_html": "<h1>Notes</h1>",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaveToDrive_UpstreamError(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "drive3@example.com", "secret123")
	tok := login(t, app, "drive3@example.com", "secret123")

	fakeDrive.set(&export.Error{StatusCode: http.StatusUnauthorized, Message: "token rejected"})
	defer fakeDrive.set(nil)

	resp, err := app.Test(authReq(http.MethodPost, "/save-to-drive", tok, fiber.Map{
		"google_access_token": "expired",
		"notes_html":          "<h1>Notes</h1>",
		"folder_id":           "folder-1",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "export_failed", body["error"])
}

func TestCancelSignup(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonReq(http.MethodPost, "/register", fiber.Map{
		"email": "cancel@example.com", "password": "secret123",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonReq(http.MethodPost, "/email/verify/cancel", fiber.Map{
		"email": "cancel@example.com",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The address is free again.
	resp, err = app.Test(jsonReq(http.MethodPost, "/register", fiber.Map{
		"email": "cancel@example.com", "password": "secret123",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCancelSignup_VerifiedAccountRefuses(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "keep@example.com", "secret123")

	resp, err := app.Test(jsonReq(http.MethodPost, "/email/verify/cancel", fiber.Map{
		"email": "keep@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPasswordReset_FullFlow(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "reset@example.com", "oldsecret")

	resp, err := app.Test(jsonReq(http.MethodPost, "/auth/password-reset/request", fiber.Map{
		"email": "reset@example.com",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var row struct{ Code string }
	require.NoError(t, testDB.Table("password_resets").
		Where("email = ? AND consumed = ?", "reset@example.com", false).
		Order("id DESC").Limit(1).Scan(&row).Error)
	require.NotEmpty(t, row.Code)

	resp, err = app.Test(jsonReq(http.MethodPost, "/auth/password-reset/verify", fiber.Map{
		"email": "reset@example.com", "code": row.Code, "new_password": "newsecret",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	login(t, app, "reset@example.com", "newsecret")
}

func TestPasswordReset_UnknownEmailStillAccepted(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonReq(http.MethodPost, "/auth/password-reset/request", fiber.Map{
		"email": "nobody@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestFeedback(t *testing.T) {
	app := setupApp(t)
	registerVerified(t, app, "fb@example.com", "secret123")
	tok := login(t, app, "fb@example.com", "secret123")

	resp, err := app.Test(authReq(http.MethodPost, "/feedback", tok, fiber.Map{
		"feedback_text": "love the live transcription",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	require.NoError(t, testDB.Where("email = ?", "fb@example.com").First(&user).Error)
	var count int64
	require.NoError(t, testDB.Model(&models.UserFeedback{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
