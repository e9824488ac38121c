package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/issue-tracker/config"
	"github.com/rpupo63/issue-tracker/database"
	"github.com/rpupo63/issue-tracker/models"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) *database.Database {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.Database{
		Type:          config.StoreSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "issues.db"),
		SlowThreshold: time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { db.Close(ctx) })
	return db
}

func setupTestServer(t *testing.T) (*chi.Mux, *testClock) {
	t.Helper()

	db := newTestStore(t)
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return newRouter(db, withClock(clock.Now)), clock
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doForm(t *testing.T, router http.Handler, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createIssue(t *testing.T, router http.Handler, project string, fields map[string]any) models.Issue {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/issues/"+project, fields)
	require.Equal(t, http.StatusOK, w.Code)
	issue := decode[models.Issue](t, w)
	require.NotEmpty(t, issue.ID, w.Body.String())
	return issue
}

func listIssues(t *testing.T, router http.Handler, path string) []models.Issue {
	t.Helper()
	w := doJSON(t, router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	return decode[[]models.Issue](t, w)
}

func TestCreateIssue_AllFields(t *testing.T) {
	router, clock := setupTestServer(t)

	issue := createIssue(t, router, "apitest", map[string]any{
		"issue_title": "Title",
		"issue_text":  "text",
		"created_by":  "Functional Test - Every field filled in",
		"assigned_to": "Chai and Mocha",
		"status_text": "In QA",
	})

	assert.Equal(t, "apitest", issue.Project)
	assert.Equal(t, "Title", issue.IssueTitle)
	assert.Equal(t, "text", issue.IssueText)
	assert.Equal(t, "Functional Test - Every field filled in", issue.CreatedBy)
	assert.Equal(t, "Chai and Mocha", issue.AssignedTo)
	assert.Equal(t, "In QA", issue.StatusText)
	assert.True(t, issue.Open)
	assert.True(t, issue.CreatedOn.Equal(clock.Now()))
	assert.True(t, issue.UpdatedOn.Equal(issue.CreatedOn))
}

func TestCreateIssue_RequiredFieldsOnly(t *testing.T) {
	router, _ := setupTestServer(t)

	issue := createIssue(t, router, "apitest", map[string]any{
		"issue_title": "Title",
		"issue_text":  "text",
		"created_by":  "Functional Test - Required fields",
	})

	assert.Equal(t, "", issue.AssignedTo)
	assert.Equal(t, "", issue.StatusText)
	assert.True(t, issue.Open)
}

func TestCreateIssue_MissingRequiredFields(t *testing.T) {
	router, _ := setupTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"no title", map[string]any{"issue_text": "text", "created_by": "me"}},
		{"empty text", map[string]any{"issue_title": "Title", "issue_text": "", "created_by": "me"}},
		{"null author", map[string]any{"issue_title": "Title", "issue_text": "text", "created_by": nil}},
		{"empty body", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/issues/apitest", tt.body)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"error":"required field(s) missing"}`, w.Body.String())
		})
	}

	assert.Empty(t, listIssues(t, router, "/api/issues/apitest"))
}

func TestCreateIssue_FormBody(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doForm(t, router, http.MethodPost, "/api/issues/forms", url.Values{
		"issue_title": {"From a form"},
		"issue_text":  {"text"},
		"created_by":  {"browser"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	issue := decode[models.Issue](t, w)
	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, "From a form", issue.IssueTitle)
	assert.Equal(t, "forms", issue.Project)
}

func TestListIssues(t *testing.T) {
	router, _ := setupTestServer(t)

	first := createIssue(t, router, "alpha", map[string]any{
		"issue_title": "One", "issue_text": "text", "created_by": "Alice", "assigned_to": "Bob",
	})
	createIssue(t, router, "alpha", map[string]any{
		"issue_title": "Two", "issue_text": "text", "created_by": "Carol", "assigned_to": "Bob",
	})
	createIssue(t, router, "beta", map[string]any{
		"issue_title": "Three", "issue_text": "text", "created_by": "Alice",
	})

	t.Run("scoped to project", func(t *testing.T) {
		issues := listIssues(t, router, "/api/issues/alpha")
		require.Len(t, issues, 2)
		for _, issue := range issues {
			assert.Equal(t, "alpha", issue.Project)
			assert.NotEmpty(t, issue.ID)
			assert.False(t, issue.CreatedOn.IsZero())
		}
	})

	t.Run("one filter", func(t *testing.T) {
		issues := listIssues(t, router, "/api/issues/alpha?created_by=Alice")
		require.Len(t, issues, 1)
		assert.Equal(t, first.ID, issues[0].ID)
	})

	t.Run("filters intersect", func(t *testing.T) {
		issues := listIssues(t, router, "/api/issues/alpha?assigned_to=Bob&created_by=Carol")
		require.Len(t, issues, 1)
		assert.Equal(t, "Two", issues[0].IssueTitle)
	})

	t.Run("filter by id", func(t *testing.T) {
		issues := listIssues(t, router, "/api/issues/alpha?_id="+first.ID)
		require.Len(t, issues, 1)
		assert.Equal(t, first.ID, issues[0].ID)
	})

	t.Run("filter by open", func(t *testing.T) {
		assert.Len(t, listIssues(t, router, "/api/issues/alpha?open=true"), 2)
		assert.Empty(t, listIssues(t, router, "/api/issues/alpha?open=false"))
	})

	t.Run("project query key is ignored", func(t *testing.T) {
		assert.Len(t, listIssues(t, router, "/api/issues/alpha?project=beta"), 2)
	})

	t.Run("undeclared field matches nothing", func(t *testing.T) {
		assert.Empty(t, listIssues(t, router, "/api/issues/alpha?priority=high"))
	})

	t.Run("malformed id matches nothing", func(t *testing.T) {
		assert.Empty(t, listIssues(t, router, "/api/issues/alpha?_id=not-an-id"))
	})

	t.Run("unknown project is an empty array", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/issues/nobody", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}

func TestUpdateIssue_OneField(t *testing.T) {
	router, clock := setupTestServer(t)

	issue := createIssue(t, router, "apitest", map[string]any{
		"issue_title": "Title", "issue_text": "text", "created_by": "me",
	})
	clock.Advance(time.Minute)

	w := doJSON(t, router, http.MethodPut, "/api/issues/apitest", map[string]any{
		"_id":        issue.ID,
		"issue_text": "new text",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"successfully updated","_id":"`+issue.ID+`"}`, w.Body.String())

	issues := listIssues(t, router, "/api/issues/apitest?_id="+issue.ID)
	require.Len(t, issues, 1)
	got := issues[0]
	assert.Equal(t, "new text", got.IssueText)
	assert.Equal(t, "Title", got.IssueTitle)
	assert.True(t, got.CreatedOn.Equal(issue.CreatedOn))
	assert.True(t, got.UpdatedOn.After(issue.UpdatedOn))
}

func TestUpdateIssue_MultipleFieldsAndClose(t *testing.T) {
	router, _ := setupTestServer(t)

	issue := createIssue(t, router, "apitest", map[string]any{
		"issue_title": "Title", "issue_text": "text", "created_by": "me",
	})

	w := doForm(t, router, http.MethodPut, "/api/issues/apitest", url.Values{
		"_id":         {issue.ID},
		"assigned_to": {"you"},
		"status_text": {"Done"},
		"open":        {"false"},
		"issue_title": {""},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"successfully updated","_id":"`+issue.ID+`"}`, w.Body.String())

	closed := listIssues(t, router, "/api/issues/apitest?open=false")
	require.Len(t, closed, 1)
	assert.Equal(t, "you", closed[0].AssignedTo)
	assert.Equal(t, "Done", closed[0].StatusText)
	assert.Equal(t, "Title", closed[0].IssueTitle)
}

func TestUpdateIssue_UndeclaredFieldRefreshesUpdatedOn(t *testing.T) {
	router, clock := setupTestServer(t)

	issue := createIssue(t, router, "apitest", map[string]any{
		"issue_title": "Title", "issue_text": "text", "created_by": "me",
	})
	clock.Advance(time.Hour)

	w := doJSON(t, router, http.MethodPut, "/api/issues/apitest", map[string]any{
		"_id": issue.ID,
		"foo": "bar",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"successfully updated","_id":"`+issue.ID+`"}`, w.Body.String())

	issues := listIssues(t, router, "/api/issues/apitest")
	require.Len(t, issues, 1)
	assert.Equal(t, "Title", issues[0].IssueTitle)
	assert.True(t, issues[0].UpdatedOn.Equal(clock.Now()))
	assert.True(t, issues[0].CreatedOn.Equal(issue.CreatedOn))
}

func TestUpdateIssue_Failures(t *testing.T) {
	router, _ := setupTestServer(t)

	issue := createIssue(t, router, "apitest", map[string]any{
		"issue_title": "Title", "issue_text": "text", "created_by": "me",
	})
	unknownID := "5f2a2d1e-4c1b-4d7e-9a57-2f3c1e8b9a10"

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing _id", map[string]any{"issue_text": "new"}, `{"error":"missing _id"}`},
		{"empty _id", map[string]any{"_id": "", "issue_text": "new"}, `{"error":"missing _id"}`},
		{"zero _id", map[string]any{"_id": 0, "issue_text": "new"}, `{"error":"missing _id"}`},
		{"no update fields", map[string]any{"_id": issue.ID}, `{"error":"no update field(s) sent","_id":"` + issue.ID + `"}`},
		{"only empty fields", map[string]any{"_id": issue.ID, "issue_text": "", "assigned_to": nil}, `{"error":"no update field(s) sent","_id":"` + issue.ID + `"}`},
		{"unknown id", map[string]any{"_id": unknownID, "issue_text": "new"}, `{"error":"could not update","_id":"` + unknownID + `"}`},
		{"malformed id", map[string]any{"_id": "5871dda29faedc3491ff93bb", "issue_text": "new"}, `{"error":"could not update","_id":"5871dda29faedc3491ff93bb"}`},
		{"uncoercible value", map[string]any{"_id": issue.ID, "open": "maybe"}, `{"error":"could not update","_id":"` + issue.ID + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPut, "/api/issues/apitest", tt.body)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}

	issues := listIssues(t, router, "/api/issues/apitest")
	require.Len(t, issues, 1)
	assert.Equal(t, "text", issues[0].IssueText)
	assert.True(t, issues[0].Open)
}

func TestDeleteIssue(t *testing.T) {
	router, _ := setupTestServer(t)

	issue := createIssue(t, router, "apitest", map[string]any{
		"issue_title": "Title", "issue_text": "text", "created_by": "me",
	})

	w := doJSON(t, router, http.MethodDelete, "/api/issues/apitest", map[string]any{"_id": issue.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":"successfully deleted","_id":"`+issue.ID+`"}`, w.Body.String())
	assert.Empty(t, listIssues(t, router, "/api/issues/apitest"))

	w = doJSON(t, router, http.MethodDelete, "/api/issues/apitest", map[string]any{"_id": issue.ID})
	assert.JSONEq(t, `{"error":"could not delete","_id":"`+issue.ID+`"}`, w.Body.String())
}

func TestDeleteIssue_Failures(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doJSON(t, router, http.MethodDelete, "/api/issues/apitest", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":"missing _id"}`, w.Body.String())

	w = doJSON(t, router, http.MethodDelete, "/api/issues/apitest", map[string]any{"_id": false})
	assert.JSONEq(t, `{"error":"missing _id"}`, w.Body.String())

	w = doForm(t, router, http.MethodDelete, "/api/issues/apitest", url.Values{"_id": {"invalid"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":"could not delete","_id":"invalid"}`, w.Body.String())
}

func TestIssueErrors_AreRepeatable(t *testing.T) {
	router, _ := setupTestServer(t)

	for i := 0; i < 3; i++ {
		w := doJSON(t, router, http.MethodPut, "/api/issues/apitest", map[string]any{"_id": "nope", "issue_text": "x"})
		assert.JSONEq(t, `{"error":"could not update","_id":"nope"}`, w.Body.String())
	}

	// The service keeps answering after failures.
	createIssue(t, router, "apitest", map[string]any{
		"issue_title": "Title", "issue_text": "text", "created_by": "me",
	})
}

func TestIssueRequests_StoreUnavailable(t *testing.T) {
	db := newTestStore(t)
	router := newRouter(db)

	issue := createIssue(t, router, "apitest", map[string]any{
		"issue_title": "Title", "issue_text": "text", "created_by": "me",
	})
	require.NoError(t, db.Close(context.Background()))

	tests := []struct {
		method string
		body   map[string]any
	}{
		{http.MethodGet, nil},
		{http.MethodPost, map[string]any{"issue_title": "Title", "issue_text": "text", "created_by": "me"}},
		{http.MethodPut, map[string]any{"_id": issue.ID, "issue_text": "new"}},
		{http.MethodDelete, map[string]any{"_id": issue.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := doJSON(t, router, tt.method, "/api/issues/apitest", tt.body)
			require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())

			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, "error", resp.Status)
			assert.Contains(t, resp.Error, "store unavailable")
		})
	}

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	health := decode[HealthResponse](t, w)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "unreachable", health.Store)
}

func TestIssueRequests_MalformedBodies(t *testing.T) {
	router, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/issues/apitest", strings.NewReader(`{"issue_title":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", decode[ErrorResponse](t, w).Status)

	req = httptest.NewRequest(http.MethodPost, "/api/issues/apitest", strings.NewReader(`<issue/>`))
	req.Header.Set("Content-Type", "application/xml")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/issues/apitest", bytes.NewReader(bytes.Repeat([]byte("a"), maxBodyBytes+10)))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHealth(t *testing.T) {
	router, _ := setupTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	health := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Store)
	assert.NotEmpty(t, health.Uptime)
}
