package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/internal/auth"
	"summatube/api-gateway/internal/ratelimit"
	"summatube/api-gateway/middleware"
	"summatube/api-gateway/models"
	"summatube/api-gateway/utils"
)

type fakePipeline struct {
	result *models.SummaryResult
	err    error
	calls  int
}

func (f *fakePipeline) Generate(_ context.Context, url string) (*models.SummaryResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	res := *f.result
	res.OriginalURL = url
	return &res, nil
}

type fakeChecker struct {
	available bool
	err       error
}

func (f *fakeChecker) Available(context.Context, string) (bool, error) {
	return f.available, f.err
}

type fakeGate struct {
	mu        sync.Mutex
	users     map[string]*models.User
	balances  map[string]int
	charged   []string
	chargeErr error
}

func (g *fakeGate) Identify(_ context.Context, token string) (*models.User, error) {
	if u, ok := g.users[token]; ok {
		return u, nil
	}
	return nil, apperr.New(apperr.Unauthorized, "")
}

func (g *fakeGate) Authorize(ctx context.Context, token string) (*models.CreditAccount, error) {
	u, err := g.Identify(ctx, token)
	if err != nil {
		return nil, err
	}
	if g.balances[u.ID] < 1 {
		return nil, apperr.New(apperr.InsufficientCredits, "")
	}
	return &models.CreditAccount{UserID: u.ID, Credits: g.balances[u.ID]}, nil
}

func (g *fakeGate) Charge(_ context.Context, userID string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return 0, g.chargeErr
	}
	g.balances[userID]--
	g.charged = append(g.charged, userID)
	return g.balances[userID], nil
}

func (g *fakeGate) Balance(_ context.Context, userID string) (int, error) {
	return g.balances[userID], nil
}

func (g *fakeGate) Profile(_ context.Context, userID string) (models.Profile, error) {
	return models.Profile{"id": userID, "full_name": "Alice"}, nil
}

type fakeAuth struct {
	signup    *auth.SignUpResult
	err       error
	loggedOut []string
}

func (f *fakeAuth) SignUp(context.Context, string, string, string) (*auth.SignUpResult, error) {
	return f.signup, f.err
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*models.User, *models.Session, error) {
	if password != "correct-horse" {
		return nil, nil, apperr.New(apperr.Unauthorized, "Invalid email or password")
	}
	return &models.User{ID: "alice", Email: email}, &models.Session{AccessToken: "tok-alice", TokenType: "bearer"}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	if token == "" {
		return auth.ErrMissingToken
	}
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type testEnv struct {
	app      *fiber.App
	pipeline *fakePipeline
	checker  *fakeChecker
	gate     *fakeGate
	auth     *fakeAuth
}

func newTestEnv(charge bool, rateLimit fiber.Handler) *testEnv {
	env := &testEnv{
		pipeline: &fakePipeline{result: &models.SummaryResult{
			VideoID: "dQw4w9WgXcQ", Summary: "- summary", HasTranscript: true,
		}},
		checker: &fakeChecker{available: true},
		gate: &fakeGate{
			users:    map[string]*models.User{"tok-alice": {ID: "alice", Email: "alice@example.com"}, "tok-bob": {ID: "bob"}},
			balances: map[string]int{"alice": 3, "bob": 0},
		},
		auth: &fakeAuth{},
	}
	h := NewApplicationHandler(env.pipeline, env.checker, quietLogger()).WithAccounts(env.gate, env.auth, charge)

	env.app = fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	RegisterRoutes(env.app, h, rateLimit)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, int(5*time.Second/time.Millisecond))
	require.NoError(t, err)

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

var bearerAlice = map[string]string{"Authorization": "Bearer tok-alice"}

func TestSummarizeAnonymous(t *testing.T) {
	env := newTestEnv(false, nil)

	status, body := env.do(t, "POST", "/summarize", `{"url":" https://youtu.be/dQw4w9WgXcQ "}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dQw4w9WgXcQ", body["videoId"])
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", body["originalUrl"])
	assert.Equal(t, true, body["hasTranscript"])
	assert.NotContains(t, body, "remainingCredits")
}

func TestSummarizeAPIPrefix(t *testing.T) {
	env := newTestEnv(false, nil)
	status, _ := env.do(t, "POST", "/api/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestSummarizeValidation(t *testing.T) {
	env := newTestEnv(false, nil)

	cases := []struct {
		body string
		msg  string
	}{
		{`{}`, "URL is required"},
		{`{"url":"  "}`, "URL cannot be empty"},
		{`{"url":123}`, "URL must be a string"},
		{`not json`, "Invalid JSON body"},
		{`[1]`, "Request body must be an object"},
	}
	for _, tc := range cases {
		status, body := env.do(t, "POST", "/summarize", tc.body, nil)
		assert.Equal(t, http.StatusBadRequest, status, tc.body)
		assert.Equal(t, tc.msg, body["error"], tc.body)
	}
	assert.Zero(t, env.pipeline.calls)
}

func TestSummarizePipelineErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{apperr.New(apperr.InvalidURL, ""), 400, "INVALID_URL", "Invalid YouTube URL. Please provide a valid YouTube video link."},
		{apperr.New(apperr.EmptyTranscript, ""), 500, "EMPTY_TRANSCRIPT", "Transcript is empty"},
		{apperr.New(apperr.QuotaExceeded, ""), 429, "QUOTA_EXCEEDED", "AI service rate limit exceeded. Please try again later."},
		{apperr.New(apperr.ServiceConfiguration, ""), 500, "SERVICE_CONFIGURATION_ERROR", "AI service configuration error"},
		{apperr.New(apperr.GenerationFailed, "Failed to generate summary: upstream 502"), 500, "GENERATION_FAILED", "An error occurred while generating the summary. Please try again."},
		{errors.New("unclassified"), 500, "GENERATION_FAILED", "An error occurred while generating the summary. Please try again."},
	}
	for _, tc := range cases {
		env := newTestEnv(false, nil)
		env.pipeline.err = tc.err

		status, body := env.do(t, "POST", "/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, nil)
		assert.Equal(t, tc.status, status, tc.code)
		assert.Equal(t, tc.code, body["code"])
		assert.Equal(t, tc.msg, body["error"])
	}
}

func TestSummarizeCharges(t *testing.T) {
	env := newTestEnv(true, nil)

	status, body := env.do(t, "POST", "/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, bearerAlice)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["remainingCredits"])
	assert.Equal(t, []string{"alice"}, env.gate.charged)
}

func TestSummarizeNoTranscriptIsFree(t *testing.T) {
	env := newTestEnv(true, nil)
	env.pipeline.result.HasTranscript = false

	status, body := env.do(t, "POST", "/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, bearerAlice)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasTranscript"])
	assert.NotContains(t, body, "remainingCredits")
	assert.Empty(t, env.gate.charged)
}

func TestSummarizeCreditGate(t *testing.T) {
	env := newTestEnv(true, nil)

	status, body := env.do(t, "POST", "/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, body = env.do(t, "POST", "/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, map[string]string{"Authorization": "Bearer tok-bob"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INSUFFICIENT_CREDITS", body["code"])

	assert.Zero(t, env.pipeline.calls)
}

func TestSummarizeLostChargeRace(t *testing.T) {
	env := newTestEnv(true, nil)
	env.gate.chargeErr = apperr.New(apperr.InsufficientCredits, "")

	status, body := env.do(t, "POST", "/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, bearerAlice)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INSUFFICIENT_CREDITS", body["code"])
}

func TestSummarizeChargeFailureStillServes(t *testing.T) {
	env := newTestEnv(true, nil)
	env.gate.chargeErr = apperr.New(apperr.GenerationFailed, "Could not update credit balance")

	status, body := env.do(t, "POST", "/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, bearerAlice)
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "remainingCredits")
}

func TestSummarizeRateLimited(t *testing.T) {
	limit := middleware.RateLimit(middleware.RateLimitConfig{Max: 2, Window: time.Hour, Storage: ratelimit.NewStore()}, quietLogger())
	env := newTestEnv(false, limit)
	headers := map[string]string{"X-Forwarded-For": "203.0.113.5"}

	for i := 0; i < 2; i++ {
		status, _ := env.do(t, "POST", "/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, headers)
		assert.Equal(t, http.StatusOK, status)
	}
	status, body := env.do(t, "POST", "/summarize", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, headers)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "TOO_MANY_REQUESTS", body["code"])
	assert.Equal(t, 2, env.pipeline.calls)

	// informational routes are not limited
	status, _ = env.do(t, "GET", "/summarize", "", headers)
	assert.Equal(t, http.StatusOK, status)
}

func TestCheckTranscript(t *testing.T) {
	env := newTestEnv(false, nil)

	status, body := env.do(t, "GET", "/check-transcript?url=https://www.youtube.com/watch?v=dQw4w9WgXcQ", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dQw4w9WgXcQ", body["videoId"])
	assert.Equal(t, true, body["transcriptAvailable"])
	assert.Equal(t, "Transcript is available for this video", body["message"])

	env.checker.available = false
	status, body = env.do(t, "POST", "/check-transcript", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["transcriptAvailable"])

	status, body = env.do(t, "GET", "/check-transcript", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "URL is required", body["error"])

	status, body = env.do(t, "POST", "/check-transcript", `{"url":"https://vimeo.com/1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_URL", body["code"])

	env.checker.err = apperr.New(apperr.GenerationFailed, "Failed to fetch transcript")
	status, body = env.do(t, "POST", "/check-transcript", `{"url":"https://youtu.be/dQw4w9WgXcQ"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to check transcript availability. Please try again later.", body["error"])
}

func TestSignup(t *testing.T) {
	env := newTestEnv(true, nil)

	status, body := env.do(t, "POST", "/auth/signup", `{"email":"not-an-email","password":"123"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["details"])

	env.auth.signup = &auth.SignUpResult{User: &models.User{ID: "alice", Email: "alice@example.com"}}
	status, body = env.do(t, "POST", "/auth/signup", `{"email":"alice@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["requiresEmailConfirmation"])

	env.auth.signup.Session = &models.Session{AccessToken: "tok-alice"}
	status, body = env.do(t, "POST", "/auth/signup", `{"email":"alice@example.com","password":"secret1","fullName":"Alice"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	session := body["session"].(map[string]any)
	assert.Equal(t, "tok-alice", session["access_token"])

	env.auth.err = errors.New("User already registered")
	status, body = env.do(t, "POST", "/auth/signup", `{"email":"alice@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already registered", body["error"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(true, nil)

	status, body := env.do(t, "POST", "/auth/login", `{"email":"alice@example.com","password":"correct-horse"}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice@example.com", body["user"].(map[string]any)["email"])

	status, body = env.do(t, "POST", "/auth/login", `{"email":"alice@example.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", body["error"])

	status, _ = env.do(t, "POST", "/auth/login", `{"email":"alice@example.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMe(t *testing.T) {
	env := newTestEnv(true, nil)

	status, body := env.do(t, "GET", "/auth/me", "", bearerAlice)
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["id"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "Alice", user["full_name"])
	assert.Equal(t, float64(3), body["credits"])

	status, _ = env.do(t, "GET", "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, "GET", "/auth/me", "", map[string]string{"Authorization": "Bearer forged"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestLogout(t *testing.T) {
	env := newTestEnv(true, nil)

	status, body := env.do(t, "POST", "/auth/logout", "", bearerAlice)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Signed out successfully", body["message"])
	assert.Equal(t, []string{"tok-alice"}, env.auth.loggedOut)

	status, _ = env.do(t, "POST", "/auth/logout", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthRoutesRequireAccounts(t *testing.T) {
	h := NewApplicationHandler(&fakePipeline{}, &fakeChecker{}, quietLogger())
	app := fiber.New()
	RegisterRoutes(app, h, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/auth/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(false, nil)

	status, body := env.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := env.app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "go_goroutines")
}
