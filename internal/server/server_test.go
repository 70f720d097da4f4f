package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wellness-directory/internal/config"
	"github.com/sakif/wellness-directory/internal/model"
)

const testAdminPassword = "correct horse battery"

func testConfig() *config.Config {
	return &config.Config{
		Port: 8080,
		DB: config.DatabaseConfig{
			Driver:  config.DriverSQLite,
			Path:    ":memory:",
			Timeout: 5 * time.Second,
		},
		Admin: config.AdminConfig{
			Password:      testAdminPassword,
			SessionSecret: "0123456789abcdef0123456789abcdef",
			SessionTTL:    time.Minute,
			BcryptCost:    4,
		},
		Limits: config.LimitConfig{
			SubmissionCooldown: time.Hour,
			MaxEntries:         100,
		},
		Log: config.LogConfig{Level: "info", Format: "text"},
	}
}

// testServer starts the full stack on an in-memory database.
func testServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	s, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return ts
}

type call struct {
	method string
	path   string
	body   string
	client string
	token  string
	secret string
}

func do(t *testing.T, ts *httptest.Server, c call) (int, map[string]json.RawMessage) {
	t.Helper()
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req, err := http.NewRequest(c.method, ts.URL+c.path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.client != "" {
		req.Header.Set("X-Forwarded-For", c.client)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.secret != "" {
		req.Header.Set("X-Admin-Password", c.secret)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]json.RawMessage{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func field[T any](t *testing.T, body map[string]json.RawMessage, key string) T {
	t.Helper()
	raw, ok := body[key]
	require.True(t, ok, "missing %q in response", key)
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func submissionBody(title string) string {
	b, _ := json.Marshal(model.SubmissionInput{
		Title:       title,
		URL:         "https://example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Category:    "mindfulness",
		Description: "A short guided " + strings.ToLower(title) + " exercise.",
		CreatorName: "Dr. Rivera",
	})
	return string(b)
}

// submit posts a new submission from a fresh client and returns its ID.
func submit(t *testing.T, ts *httptest.Server, title, client string) string {
	t.Helper()
	status, body := do(t, ts, call{method: http.MethodPost, path: "/api/submissions", body: submissionBody(title), client: client})
	require.Equal(t, http.StatusCreated, status)
	return field[model.Submission](t, body, "submission").ID
}

func listTools(t *testing.T, ts *httptest.Server, query string) []model.Tool {
	t.Helper()
	status, body := do(t, ts, call{method: http.MethodGet, path: "/api/tools" + query})
	require.Equal(t, http.StatusOK, status)
	return field[[]model.Tool](t, body, "tools")
}

// =========================================================================
// END-TO-END FLOWS
// =========================================================================

func TestSubmitApproveList(t *testing.T) {
	ts := testServer(t, testConfig())

	id := submit(t, ts, "Box Breathing", "198.51.100.1")

	status, body := do(t, ts, call{method: http.MethodGet, path: "/api/admin/submissions", secret: testAdminPassword})
	require.Equal(t, http.StatusOK, status)
	pending := field[[]model.Submission](t, body, "submissions")
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)

	assert.Empty(t, listTools(t, ts, ""), "unreviewed submissions are not public")

	status, body = do(t, ts, call{method: http.MethodPost, path: "/api/admin/submissions/" + id + "/approve", secret: testAdminPassword})
	require.Equal(t, http.StatusOK, status)
	tool := field[model.Tool](t, body, "tool")
	assert.Equal(t, "Box Breathing", tool.Title)
	assert.Equal(t, id, tool.SubmissionID)

	tools := listTools(t, ts, "")
	require.Len(t, tools, 1)
	assert.Zero(t, tools[0].AvgRating)
	assert.Zero(t, tools[0].TotalRatings)
	assert.Zero(t, tools[0].ViewCount)

	// A second decision on the same submission conflicts.
	status, body = do(t, ts, call{method: http.MethodPost, path: "/api/admin/submissions/" + id + "/approve", secret: testAdminPassword})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", field[string](t, body, "error"))

	status, _ = do(t, ts, call{method: http.MethodPost, path: "/api/admin/submissions/" + id + "/reject", secret: testAdminPassword})
	assert.Equal(t, http.StatusConflict, status)

	status, body = do(t, ts, call{method: http.MethodGet, path: "/api/admin/submissions", secret: testAdminPassword})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, field[[]model.Submission](t, body, "submissions"))
}

func TestSubmitRejectNotListed(t *testing.T) {
	ts := testServer(t, testConfig())

	id := submit(t, ts, "Gratitude Journal", "198.51.100.2")

	status, body := do(t, ts, call{method: http.MethodPost, path: "/api/admin/submissions/" + id + "/reject", secret: testAdminPassword})
	require.Equal(t, http.StatusOK, status)
	sub := field[model.Submission](t, body, "submission")
	assert.True(t, sub.Reviewed)
	assert.False(t, sub.Approved)

	assert.Empty(t, listTools(t, ts, ""))

	status, body = do(t, ts, call{method: http.MethodGet, path: "/api/admin/submissions/" + id, secret: testAdminPassword})
	require.Equal(t, http.StatusOK, status)
	got := field[model.Submission](t, body, "submission")
	assert.Equal(t, "Gratitude Journal", got.Title)
	assert.Equal(t, model.StateRejected, got.State())

	status, _ = do(t, ts, call{method: http.MethodGet, path: "/api/admin/submissions/" + id})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, ts, call{method: http.MethodPost, path: "/api/admin/submissions/missing/reject", secret: testAdminPassword})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSubmissionCooldown(t *testing.T) {
	ts := testServer(t, testConfig())

	submit(t, ts, "Body Scan", "198.51.100.3")

	status, body := do(t, ts, call{method: http.MethodPost, path: "/api/submissions", body: submissionBody("Body Scan Two"), client: "198.51.100.3"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", field[string](t, body, "error"))

	// Another client is unaffected.
	submit(t, ts, "Body Scan Three", "198.51.100.4")
}

func TestSubmissionValidation(t *testing.T) {
	ts := testServer(t, testConfig())

	status, body := do(t, ts, call{method: http.MethodPost, path: "/api/submissions", body: `{"title":"x","url":"nope","category":"astrology"}`, client: "198.51.100.5"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", field[string](t, body, "error"))
	assert.NotEmpty(t, field[[]string](t, body, "errors"))

	// The cooldown is taken before validation, so even a rejected attempt counts.
	status, _ = do(t, ts, call{method: http.MethodPost, path: "/api/submissions", body: submissionBody("Loving Kindness"), client: "198.51.100.5"})
	assert.Equal(t, http.StatusTooManyRequests, status)
}

// =========================================================================
// ADMIN AUTH
// =========================================================================

func TestAdminRequiresCredentials(t *testing.T) {
	ts := testServer(t, testConfig())

	status, body := do(t, ts, call{method: http.MethodGet, path: "/api/admin/submissions"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", field[string](t, body, "error"))

	status, _ = do(t, ts, call{method: http.MethodGet, path: "/api/admin/submissions", secret: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, ts, call{method: http.MethodGet, path: "/api/admin/submissions", token: "not-a-jwt", secret: testAdminPassword})
	assert.Equal(t, http.StatusUnauthorized, status, "a bad token must not fall back to the secret")
}

func TestAdminSessionToken(t *testing.T) {
	ts := testServer(t, testConfig())

	status, _ := do(t, ts, call{method: http.MethodPost, path: "/api/admin/session", body: `{"password":"wrong"}`})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := do(t, ts, call{method: http.MethodPost, path: "/api/admin/session", body: `{"password":"` + testAdminPassword + `"}`})
	require.Equal(t, http.StatusOK, status)
	token := field[string](t, body, "token")
	require.NotEmpty(t, token)
	assert.True(t, field[time.Time](t, body, "expiresAt").After(time.Now()))

	status, _ = do(t, ts, call{method: http.MethodGet, path: "/api/admin/submissions", token: token})
	assert.Equal(t, http.StatusOK, status)
}

func TestAdminUnconfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.Password = ""
	ts := testServer(t, cfg)

	status, body := do(t, ts, call{method: http.MethodGet, path: "/api/admin/submissions", secret: "anything"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "misconfigured", field[string](t, body, "error"))

	status, _ = do(t, ts, call{method: http.MethodPost, path: "/api/admin/session", body: `{"password":"anything"}`})
	assert.Equal(t, http.StatusInternalServerError, status)

	status, body = do(t, ts, call{method: http.MethodGet, path: "/healthz"})
	require.Equal(t, http.StatusOK, status)
	assert.False(t, field[bool](t, body, "adminConfigured"))
}

// =========================================================================
// PUBLIC CATALOGUE
// =========================================================================

// approved submits and approves a tool, returning its ID.
func approved(t *testing.T, ts *httptest.Server, title, client string) string {
	t.Helper()
	id := submit(t, ts, title, client)
	status, body := do(t, ts, call{method: http.MethodPost, path: "/api/admin/submissions/" + id + "/approve", secret: testAdminPassword})
	require.Equal(t, http.StatusOK, status)
	return field[model.Tool](t, body, "tool").ID
}

func TestRatingsSearchAndSort(t *testing.T) {
	ts := testServer(t, testConfig())

	first := approved(t, ts, "Breathing Space", "198.51.100.10")
	second := approved(t, ts, "Sleep Stories", "198.51.100.11")

	for i, score := range []int{5, 4} {
		status, body := do(t, ts, call{
			method: http.MethodPost,
			path:   "/api/tools/" + second + "/ratings",
			body:   `{"rating":` + strconv.Itoa(score) + `}`,
			client: []string{"203.0.113.1", "203.0.113.2"}[i],
		})
		require.Equal(t, http.StatusOK, status)
		summary := field[model.RatingSummary](t, body, "summary")
		assert.Equal(t, i+1, summary.TotalRatings)
	}

	status, body := do(t, ts, call{method: http.MethodPost, path: "/api/tools/" + first + "/ratings", body: `{"rating":3}`, client: "203.0.113.1"})
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 3.0, field[model.RatingSummary](t, body, "summary").AvgRating, 0.0001)

	status, _ = do(t, ts, call{method: http.MethodPost, path: "/api/tools/" + first + "/ratings", body: `{"rating":9}`, client: "203.0.113.1"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, ts, call{method: http.MethodGet, path: "/api/tools/" + second + "/ratings"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, field[int](t, body, "count"))
	assert.Len(t, field[[]model.Rating](t, body, "ratings"), 2)
	assert.NotContains(t, string(body["ratings"]), "203.0.113", "rater IPs must not be exposed")

	status, _ = do(t, ts, call{method: http.MethodGet, path: "/api/tools/missing/ratings"})
	assert.Equal(t, http.StatusNotFound, status)

	popular := listTools(t, ts, "?sort=popular")
	require.Len(t, popular, 2)
	assert.Equal(t, second, popular[0].ID)
	assert.Equal(t, 2, popular[0].TotalRatings)
	assert.InDelta(t, 4.5, popular[0].AvgRating, 0.0001)

	found := listTools(t, ts, "?search=BREATH")
	require.Len(t, found, 1)
	assert.Equal(t, first, found[0].ID)

	assert.Len(t, listTools(t, ts, "?category=mindfulness"), 2)
	assert.Empty(t, listTools(t, ts, "?category=parenting"))

	status, _ = do(t, ts, call{method: http.MethodGet, path: "/api/tools?sort=alphabetical"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEventsAndDetail(t *testing.T) {
	ts := testServer(t, testConfig())

	id := approved(t, ts, "Worry Time", "198.51.100.20")

	for _, action := range []string{"view", "VIEW", "click", "share"} {
		status, _ := do(t, ts, call{method: http.MethodPost, path: "/api/tools/" + id + "/events", body: `{"action":"` + action + `"}`})
		require.Equal(t, http.StatusOK, status, action)
	}

	status, body := do(t, ts, call{method: http.MethodGet, path: "/api/tools/" + id})
	require.Equal(t, http.StatusOK, status)
	tool := field[model.Tool](t, body, "tool")
	assert.Equal(t, int64(2), tool.ViewCount)
	assert.Equal(t, int64(1), tool.ClickCount)

	status, _ = do(t, ts, call{method: http.MethodPost, path: "/api/tools/missing/events", body: `{"action":"view"}`})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, ts, call{method: http.MethodGet, path: "/api/tools/missing"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, ts, call{method: http.MethodGet, path: "/api/categories"})
	require.Equal(t, http.StatusOK, status)
	for _, c := range field[[]model.CategoryInfo](t, body, "categories") {
		want := 0
		if c.ID == model.CategoryMindfulness {
			want = 1
		}
		assert.Equal(t, want, c.Count, c.ID)
	}
}

// =========================================================================
// STORAGE DISABLED
// =========================================================================

func TestStorageDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.DB.Driver = config.DriverNone
	ts := testServer(t, cfg)

	status, body := do(t, ts, call{method: http.MethodGet, path: "/healthz"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "degraded", field[string](t, body, "status"))
	assert.Equal(t, "disabled", field[string](t, body, "storage"))

	assert.Empty(t, listTools(t, ts, ""))

	status, body = do(t, ts, call{method: http.MethodPost, path: "/api/submissions", body: submissionBody("Box Breathing"), client: "198.51.100.30"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "misconfigured", field[string](t, body, "error"))
}

func TestHealthOK(t *testing.T) {
	ts := testServer(t, testConfig())

	status, body := do(t, ts, call{method: http.MethodGet, path: "/healthz"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", field[string](t, body, "status"))
	assert.Equal(t, "ok", field[string](t, body, "storage"))
	assert.True(t, field[bool](t, body, "adminConfigured"))
}
