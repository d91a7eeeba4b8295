package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"analyst/internal/handlers"
	"analyst/internal/middleware"
	"analyst/internal/models"
	"analyst/internal/repositories"
	"analyst/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeExtractor stands in for the docconv/OCR strategy so handler tests do
// not need native tooling.
type fakeExtractor struct {
	text string
}

func (f *fakeExtractor) Text(path, mimeType string) string {
	return f.text
}

var dbCounter int

// setupApp builds a Fiber app over a fresh in-memory SQLite database with
// all handlers, services, and middleware wired the way main does it.
func setupApp(t *testing.T, extractor services.TextExtractor) (*fiber.App, *services.TokenService) {
	t.Helper()

	dbCounter++
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", dbCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Document{}, &models.ChatExchange{}))

	userRepo := repositories.NewGORMUserRepository(db)
	docRepo := repositories.NewGORMDocumentRepository(db)
	chatRepo := repositories.NewGORMChatRepository(db)

	tokenService := services.NewTokenService(userRepo, services.TokenConfig{
		AccessSecret:  "test_access_secret",
		RefreshSecret: "test_refresh_secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 240 * time.Hour,
	})
	authService := services.NewAuthService(userRepo, tokenService)
	docService := services.NewDocumentService(docRepo, extractor, nil, services.UploadConfig{Dir: t.TempDir()})
	chatService := services.NewChatService(chatRepo, &staticLikeResponder{}, nil)

	app := fiber.New(fiber.Config{
		BodyLimit:    services.MaxUploadSize,
		ErrorHandler: handlers.ErrorHandler,
	})

	requireAuth := middleware.AuthRequired(tokenService, userRepo)
	optionalAuth := middleware.OptionalAuth(tokenService, userRepo)

	api := app.Group("/api")
	handlers.NewChatHandler(chatService).RegisterRoutes(api)
	handlers.NewDocumentHandler(docService).RegisterRoutes(api, optionalAuth)

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1, requireAuth)

	return app, tokenService
}

// staticLikeResponder avoids random bucket output in assertions.
type staticLikeResponder struct{}

func (s *staticLikeResponder) Respond(message string) (string, error) {
	return "Reply to: " + message, nil
}

// TestMain runs setup and teardown for all tests.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// envelope decodes the shared response shape.
type envelope struct {
	StatusCode int                    `json:"statusCode"`
	Message    string                 `json:"message"`
	Success    bool                   `json:"success"`
	Data       map[string]interface{} `json:"data"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

// decodeListEnvelope handles endpoints whose data is an array.
func decodeListEnvelope(t *testing.T, resp *http.Response) []map[string]interface{} {
	t.Helper()
	var env struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data
}

func registerUser(t *testing.T, app *fiber.App, username, email string) {
	t.Helper()
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": username,
		"email":    email,
		"fullName": "Alice A",
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func loginUser(t *testing.T, app *fiber.App, username string) (accessToken, refreshToken, userID string) {
	t.Helper()
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": username,
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	user := env.Data["user"].(map[string]interface{})
	return env.Data["accessToken"].(string), env.Data["refreshToken"].(string), user["id"].(string)
}

func TestRegister(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "alice01",
		"email":    "a@x.com",
		"fullName": "Alice A",
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "alice01", env.Data["username"])
	_, hasPassword := env.Data["password"]
	assert.False(t, hasPassword, "password must never appear in responses")
	_, hasRefresh := env.Data["refreshToken"]
	assert.False(t, hasRefresh)

	// Repeating the same call yields a conflict.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "alice01",
		"email":    "a@x.com",
		"fullName": "Alice A",
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	env = decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func TestRegister_BcryptShapedPassword(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})

	// A password that is itself a valid bcrypt string must still be hashed
	// on registration and usable for login afterwards.
	password := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "alice01",
		"email":    "a@x.com",
		"fullName": "Alice A",
		"password": password,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "alice01",
		"password": password,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_CaseInsensitiveDuplicate(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})
	registerUser(t, app, "alice01", "a@x.com")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "ALICE01",
		"email":    "other@x.com",
		"fullName": "Alice A",
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegister_Validation(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})

	// Missing fields.
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "alice01",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Username below the 6-character minimum.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/users/register", map[string]string{
		"username": "abc",
		"email":    "a@x.com",
		"fullName": "Alice A",
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app, tokenService := setupApp(t, &fakeExtractor{})
	registerUser(t, app, "alice01", "a@x.com")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "alice01",
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Both cookies are set.
	cookies := resp.Header.Values("Set-Cookie")
	var sawAccess, sawRefresh bool
	for _, c := range cookies {
		if strings.Contains(c, "accessToken=") {
			sawAccess = true
			assert.Contains(t, c, "HttpOnly")
			assert.Contains(t, c, "Secure")
		}
		if strings.Contains(c, "refreshToken=") {
			sawRefresh = true
		}
	}
	assert.True(t, sawAccess)
	assert.True(t, sawRefresh)

	env := decodeEnvelope(t, resp)
	user := env.Data["user"].(map[string]interface{})
	_, hasPassword := user["password"]
	assert.False(t, hasPassword)

	// Issued tokens resolve to the logged-in user.
	accessClaims, err := tokenService.ValidateAccessToken(env.Data["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["id"], accessClaims["id"])
	refreshClaims, err := tokenService.ValidateRefreshToken(env.Data["refreshToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["id"], refreshClaims["id"])
}

func TestLogin_ByEmail(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})
	registerUser(t, app, "alice01", "a@x.com")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    "a@x.com",
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_Failures(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})
	registerUser(t, app, "alice01", "a@x.com")

	// Wrong password.
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "alice01",
		"password": "wrongpass",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unknown user.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "nobody1",
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// No identifier at all.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"password": "secret1",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})
	registerUser(t, app, "alice01", "a@x.com")
	accessToken, refreshToken, _ := loginUser(t, app, "alice01")

	// Without a token the route rejects.
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/logout", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "Token is missing")

	// With the access token in the Authorization header.
	req := jsonRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env = decodeEnvelope(t, resp)
	assert.Equal(t, "alice01", env.Data["username"])
	assert.NotEmpty(t, env.Data["loggedOutAt"])

	// The old refresh token is now cleared from its slot and rejected.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/users/refresh", map[string]string{
		"refreshToken": refreshToken,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_ViaCookie(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})
	registerUser(t, app, "alice01", "a@x.com")
	accessToken, _, _ := loginUser(t, app, "alice01")

	req := jsonRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: accessToken})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefresh_Rotation(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})
	registerUser(t, app, "alice01", "a@x.com")
	_, oldRefresh, _ := loginUser(t, app, "alice01")

	// Let the clock tick so the rotated token differs from the old one.
	time.Sleep(1100 * time.Millisecond)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/v1/users/refresh", map[string]string{
		"refreshToken": oldRefresh,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	newRefresh := env.Data["refreshToken"].(string)
	assert.NotEqual(t, oldRefresh, newRefresh)

	// The slot is single-valued: the superseded token no longer works.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/v1/users/refresh", map[string]string{
		"refreshToken": oldRefresh,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// uploadRequest builds a multipart request with an explicit part MIME type.
func uploadRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/docs/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{text: "extracted body"})

	resp, err := app.Test(uploadRequest(t, "file", "report.txt", "text/plain", []byte("the report")), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "report.txt", env.Data["originalName"])
	assert.Equal(t, "text/plain", env.Data["fileType"])
	assert.Equal(t, "extracted body", env.Data["extractedText"])
	assert.Nil(t, env.Data["uploadedBy"], "anonymous upload")
}

func TestUpload_WithAuthenticatedUploader(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{text: "text"})
	registerUser(t, app, "alice01", "a@x.com")
	accessToken, _, userID := loginUser(t, app, "alice01")

	req := uploadRequest(t, "file", "mine.txt", "text/plain", []byte("owned"))
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, userID, env.Data["uploadedBy"])
}

func TestUpload_Failures(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{text: "text"})

	// Unsupported declared type.
	resp, err := app.Test(uploadRequest(t, "file", "prog.exe", "application/octet-stream", []byte{0x4d}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Wrong field name means no file part.
	resp, err = app.Test(uploadRequest(t, "attachment", "a.txt", "text/plain", []byte("x")), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Contains(t, env.Message, "No file uploaded")
}

func TestUpload_CorruptFileStillCreatesRecord(t *testing.T) {
	// Extraction produced nothing: both stages failed or came up empty.
	app, _ := setupApp(t, &fakeExtractor{text: ""})

	resp, err := app.Test(uploadRequest(t, "file", "corrupt.pdf", "application/pdf", []byte("garbage")), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	text, present := env.Data["extractedText"]
	assert.True(t, present, "extractedText is an empty string, never absent")
	assert.Equal(t, "", text)
}

func TestDocumentsListAndGet(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{text: "text"})

	resp, err := app.Test(uploadRequest(t, "file", "first.txt", "text/plain", []byte("one")), -1)
	require.NoError(t, err)
	firstID := decodeEnvelope(t, resp).Data["id"].(string)

	time.Sleep(20 * time.Millisecond)

	resp, err = app.Test(uploadRequest(t, "file", "second.txt", "text/plain", []byte("two")), -1)
	require.NoError(t, err)
	secondID := decodeEnvelope(t, resp).Data["id"].(string)

	// Newest first, no pagination.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/docs/extract", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	docs := decodeListEnvelope(t, resp)
	require.Len(t, docs, 2)
	assert.Equal(t, secondID, docs[0]["id"])
	assert.Equal(t, firstID, docs[1]["id"])

	// Re-fetching by id returns identical stored metadata.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/docs/"+firstID, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, "first.txt", env.Data["originalName"])
	assert.Equal(t, "text", env.Data["extractedText"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/docs/does-not-exist", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChat(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})

	// Empty message rejected.
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/chat", map[string]string{"message": ""}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// A real message gets a reply with a numeric message id.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/chat", map[string]string{"message": "hello"}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.NotEmpty(t, env.Data["reply"])
	messageID, ok := env.Data["messageId"].(float64)
	assert.True(t, ok, "messageId is numeric")
	assert.Greater(t, messageID, float64(0))
	assert.NotEmpty(t, env.Data["timestamp"])
}

func TestChatHistory(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{})

	for _, msg := range []string{"first", "second"} {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/chat", map[string]string{"message": msg}), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		time.Sleep(20 * time.Millisecond)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/chat/history", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	exchanges := decodeListEnvelope(t, resp)
	require.Len(t, exchanges, 2)
	assert.Equal(t, "second", exchanges[0]["message"])
}

func TestUpload_OversizedBodyRejectedByTransport(t *testing.T) {
	app, _ := setupApp(t, &fakeExtractor{text: "text"})

	big := make([]byte, services.MaxUploadSize+1)
	resp, err := app.Test(uploadRequest(t, "file", "big.txt", "text/plain", big), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.False(t, env.Success, "transport errors still use the structured JSON shape")
}
