package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/mealtracker/internal/adapter/driving/http"
	"github.com/ericfisherdev/mealtracker/internal/application"
	"github.com/ericfisherdev/mealtracker/internal/domain/model"
	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockCredentialStore struct {
	mu    sync.Mutex
	users map[string]string
}

func (m *mockCredentialStore) Exists(_ context.Context, username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[username]
	return ok
}

func (m *mockCredentialStore) Register(_ context.Context, username, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return model.ErrDuplicateUser
	}
	m.users[username] = password
	return nil
}

func (m *mockCredentialStore) Verify(_ context.Context, username, password string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[username]
	return ok && stored == password
}

type mockTable struct {
	mu        sync.Mutex
	rows      [][]string
	appendErr error
	valuesErr error
}

func (m *mockTable) AppendRow(_ context.Context, cells []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.rows = append(m.rows, cells)
	return nil
}

func (m *mockTable) Values(_ context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valuesErr != nil {
		return nil, m.valuesErr
	}
	return m.rows, nil
}

type mockConnector struct {
	table driven.Table
	err   error
}

func (m *mockConnector) Connect(_ context.Context) (driven.Table, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.table, nil
}

// --- Test helpers ---

var testNow = time.Date(2024, 5, 10, 13, 45, 0, 0, time.UTC)

type testServer struct {
	mux      http.Handler
	table    *mockTable
	users    *mockCredentialStore
	sessions *application.SessionRegistry
}

func setupServer(t *testing.T, connector *mockConnector, loginRate int) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	table := &mockTable{rows: [][]string{append([]string(nil), model.Columns...)}}
	if connector == nil {
		connector = &mockConnector{table: table}
	}
	users := &mockCredentialStore{users: map[string]string{}}

	entries := application.NewEntryStore(application.NewTableProvider(connector), logger)
	h := httphandler.NewHandler(
		application.NewAuthService(users, logger),
		application.NewMealService(entries),
		logger,
	).WithClock(func() time.Time { return testNow })

	sessions := application.NewSessionRegistry()
	mux := httphandler.NewServeMux(h, sessions, httphandler.NewRateLimiter(loginRate), logger)
	return &testServer{mux: mux, table: table, users: users, sessions: sessions}
}

// do sends a request carrying cookie (if non-nil) and returns the recorder.
func (s *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

// login registers alice and logs her in, returning the session cookie.
func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", `{"username":"alice","password":"swordfish"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"swordfish"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	return cookie
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == httphandler.SessionCookieName {
			return c
		}
	}
	return nil
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	err := json.NewDecoder(rec.Body).Decode(v)
	require.NoError(t, err)
}

// --- Tests ---

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		preexist   bool
		wantStatus int
		wantField  string
		wantValue  string
	}{
		{
			name:       "success",
			body:       `{"username":"alice","password":"swordfish"}`,
			wantStatus: http.StatusCreated,
			wantField:  "message",
			wantValue:  "User registered successfully! You can now log in.",
		},
		{
			name:       "duplicate",
			body:       `{"username":"alice","password":"other"}`,
			preexist:   true,
			wantStatus: http.StatusConflict,
			wantField:  "error",
			wantValue:  "Username already exists",
		},
		{
			name:       "empty password",
			body:       `{"username":"alice","password":""}`,
			wantStatus: http.StatusBadRequest,
			wantField:  "error",
			wantValue:  "invalid input: username and password are required",
		},
		{
			name:       "invalid JSON",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
			wantField:  "error",
			wantValue:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupServer(t, nil, 0)
			if tt.preexist {
				srv.users.users["alice"] = "swordfish"
			}

			rec := srv.do(t, http.MethodPost, "/api/v1/auth/register", tt.body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp map[string]any
			decodeJSON(t, rec, &resp)
			assert.Equal(t, tt.wantValue, resp[tt.wantField])
			if tt.preexist {
				assert.Equal(t, "swordfish", srv.users.users["alice"])
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "success", body: `{"username":"alice","password":"swordfish"}`, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"username":"alice","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", body: `{"username":"bob","password":"swordfish"}`, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupServer(t, nil, 0)
			srv.users.users["alice"] = "swordfish"

			rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]any
			decodeJSON(t, rec, &resp)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, resp["authenticated"])
				assert.Equal(t, "alice", resp["username"])
			} else {
				assert.Equal(t, "Invalid username or password", resp["error"])
			}
		})
	}
}

func TestSessionCookieAttributes(t *testing.T) {
	srv := setupServer(t, nil, 0)

	cookie := srv.login(t)

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 1, srv.sessions.Len())
}

func TestAnonymousRequestsDoNotRegisterSessions(t *testing.T) {
	srv := setupServer(t, nil, 0)
	srv.users.users["alice"] = "swordfish"

	for range 100 {
		rec := srv.do(t, http.MethodGet, "/api/v1/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, sessionCookie(t, rec))
	}
	srv.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	srv.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"nope"}`, nil)
	srv.do(t, http.MethodGet, "/api/v1/health", "", &http.Cookie{Name: httphandler.SessionCookieName, Value: "stale"})

	assert.Equal(t, 0, srv.sessions.Len())
}

func TestMe(t *testing.T) {
	srv := setupServer(t, nil, 0)

	rec := srv.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := srv.login(t)
	rec = srv.do(t, http.MethodGet, "/api/v1/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "alice", resp["username"])
}

func TestSessionsAreIsolatedPerClient(t *testing.T) {
	srv := setupServer(t, nil, 0)
	_ = srv.login(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code, "another client is still anonymous")
}

func TestMeals_RequireLogin(t *testing.T) {
	srv := setupServer(t, nil, 0)

	rec := srv.do(t, http.MethodPost, "/api/v1/meals", `{"meal_type":"Lunch","food":"soup"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/meals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Len(t, srv.table.rows, 1)
}

func TestCreateAndListMeals(t *testing.T) {
	srv := setupServer(t, nil, 0)
	cookie := srv.login(t)

	body := `{"date":"2024-05-09","meal_type":"Dinner","food":"**curry**","ill_effects":"heartburn","time_of_meal":"19:30","time_of_symptoms":"21:00:00"}`
	rec := srv.do(t, http.MethodPost, "/api/v1/meals", body, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	decodeJSON(t, rec, &created)
	assert.Equal(t, "2024-05-09", created["date"])
	assert.Equal(t, "19:30:00", created["time_of_meal"])

	assert.Equal(t,
		[]string{"2024-05-09", "Dinner", "**curry**", "heartburn", "19:30:00", "21:00:00"},
		srv.table.rows[1], "stored verbatim")

	rec = srv.do(t, http.MethodGet, "/api/v1/meals?start=2024-05-09&end=2024-05-09", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Start   string                          `json:"start"`
		End     string                          `json:"end"`
		Entries []httphandler.MealEntryResponse `json:"entries"`
	}
	decodeJSON(t, rec, &list)
	assert.Equal(t, "2024-05-09", list.Start)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "**curry**", list.Entries[0].Food)
	assert.Equal(t, "21:00:00", list.Entries[0].TimeOfSymptoms)
}

func TestCreateMeal_Defaults(t *testing.T) {
	srv := setupServer(t, nil, 0)
	cookie := srv.login(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/meals", `{"meal_type":"snacks","food":"apple"}`, cookie)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t,
		[]string{"2024-05-10", "Snacks", "apple", "", "13:45:00", "00:00:00"},
		srv.table.rows[1])
}

func TestListMeals_DefaultRangeIsLastWeek(t *testing.T) {
	srv := setupServer(t, nil, 0)
	cookie := srv.login(t)
	srv.table.rows = append(srv.table.rows,
		[]string{"2024-05-02", "Lunch", "too old", "", "12:00:00", "00:00:00"},
		[]string{"2024-05-03", "Lunch", "first day", "", "12:00:00", "00:00:00"},
		[]string{"2024-05-10", "Lunch", "today", "", "12:00:00", "00:00:00"},
	)

	rec := srv.do(t, http.MethodGet, "/api/v1/meals", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var list httphandler.MealListResponse
	decodeJSON(t, rec, &list)
	assert.Equal(t, "2024-05-03", list.Start)
	assert.Equal(t, "2024-05-10", list.End)
	require.Len(t, list.Entries, 2)
	assert.Equal(t, "first day", list.Entries[0].Food)
}

func TestMeals_AnonymousBadInputIsUnauthorized(t *testing.T) {
	srv := setupServer(t, nil, 0)

	rec := srv.do(t, http.MethodPost, "/api/v1/meals", `not json`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/meals", `{"meal_type":"Brunch"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/meals?start=2024-05-10&end=2024-05-01", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeals_ClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "unknown meal type", method: http.MethodPost, path: "/api/v1/meals", body: `{"meal_type":"Brunch"}`},
		{name: "bad date", method: http.MethodPost, path: "/api/v1/meals", body: `{"meal_type":"Lunch","date":"someday"}`},
		{name: "inverted range", method: http.MethodGet, path: "/api/v1/meals?start=2024-05-10&end=2024-05-01"},
		{name: "unparseable range", method: http.MethodGet, path: "/api/v1/meals?start=last-week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupServer(t, nil, 0)
			cookie := srv.login(t)

			rec := srv.do(t, tt.method, tt.path, tt.body, cookie)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestMeals_TableFailures(t *testing.T) {
	cause := errors.New("quota exceeded")

	t.Run("connect", func(t *testing.T) {
		srv := setupServer(t, &mockConnector{err: cause}, 0)
		cookie := srv.login(t)

		rec := srv.do(t, http.MethodGet, "/api/v1/meals", "", cookie)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var resp map[string]any
		decodeJSON(t, rec, &resp)
		assert.Equal(t, "Failed to connect to Google Sheets: quota exceeded", resp["error"])
	})

	t.Run("write", func(t *testing.T) {
		srv := setupServer(t, nil, 0)
		srv.table.appendErr = cause
		cookie := srv.login(t)

		rec := srv.do(t, http.MethodPost, "/api/v1/meals", `{"meal_type":"Lunch","food":"soup"}`, cookie)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var resp map[string]any
		decodeJSON(t, rec, &resp)
		assert.Equal(t, "Failed to log meal data: quota exceeded", resp["error"])
	})

	t.Run("read", func(t *testing.T) {
		srv := setupServer(t, nil, 0)
		srv.table.valuesErr = cause
		cookie := srv.login(t)

		rec := srv.do(t, http.MethodGet, "/api/v1/meals", "", cookie)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestLogoutRevokesMealAccess(t *testing.T) {
	srv := setupServer(t, nil, 0)
	cookie := srv.login(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, srv.sessions.Len(), "logout forgets the session")
	expired := sessionCookie(t, rec)
	require.NotNil(t, expired)
	assert.Negative(t, expired.MaxAge)

	rec = srv.do(t, http.MethodPost, "/api/v1/meals", `{"meal_type":"Lunch","food":"soup"}`, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/meals", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	srv := setupServer(t, nil, 2)
	body := `{"username":"alice","password":"nope"}`

	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/api/v1/auth/login", body, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/api/v1/auth/login", body, nil).Code)

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/v1/health", "", nil).Code, "other routes unaffected")
}

func TestHealth(t *testing.T) {
	srv := setupServer(t, nil, 0)
	rec := srv.do(t, http.MethodGet, "/api/v1/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "2024-05-10T13:45:00Z", resp["time"])
	assert.Equal(t, false, resp["table_connected"])
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := httphandler.Wrap(panicky, application.NewSessionRegistry(), logger)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimiter_PrunesIdleClients(t *testing.T) {
	now := testNow
	limiter := httphandler.NewRateLimiter(1).WithClock(func() time.Time { return now })

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
	assert.True(t, limiter.Allow("10.0.0.3"))
	assert.Equal(t, 3, limiter.Len())

	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.Allow("10.0.0.1"), "bucket refilled")
	assert.Equal(t, 1, limiter.Len())
}

func TestRateLimiter_LimitWith(t *testing.T) {
	limiter := httphandler.NewRateLimiter(1)
	reject := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "<p>slow down</p>")
	})
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := limiter.LimitWith(reject)(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "slow down")
}
