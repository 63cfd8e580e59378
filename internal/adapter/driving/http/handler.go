package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ericfisherdev/mealtracker/internal/application"
	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	auth   *application.AuthService
	meals  *application.MealService
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	auth *application.AuthService,
	meals *application.MealService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:   auth,
		meals:  meals,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for form defaults and the health
// timestamp.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// RegisterRoutes mounts the JSON API under /api/v1 on r. Register and login
// go through limiter.
func RegisterRoutes(r chi.Router, h *Handler, limiter *RateLimiter) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit)
			r.Post("/auth/register", h.Register)
			r.Post("/auth/login", h.Login)
		})
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)

		r.Post("/meals", h.CreateMeal)
		r.Get("/meals", h.ListMeals)
	})
}

// NewServeMux creates an http.Handler serving only the JSON API, wrapped
// with the session, recovery and logging middleware.
func NewServeMux(h *Handler, sessions *application.SessionRegistry, limiter *RateLimiter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, h, limiter)
	return Wrap(r, sessions, logger)
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		h.fail(w, "register failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: application.MsgRegistered})
}

// Login authenticates the caller's session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess := application.SessionFromContext(r.Context())
	if err := h.auth.Login(r.Context(), sess, req.Username, req.Password); err != nil {
		h.fail(w, "login failed", err)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		Username:      sess.Username(),
		Message:       application.MsgLoggedIn,
	})
}

// Logout resets the caller's session to anonymous.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), application.SessionFromContext(r.Context()))
	writeJSON(w, http.StatusOK, SessionResponse{Message: application.MsgLoggedOut})
}

// Me describes the caller's session.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := application.SessionFromContext(r.Context())
	username, err := sess.RequireAuthenticated()
	if err != nil {
		h.fail(w, "session lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: true, Username: username})
}

// CreateMeal appends one meal entry.
func (h *Handler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	sess := application.SessionFromContext(r.Context())
	if _, err := sess.RequireAuthenticated(); err != nil {
		h.fail(w, "log meal", err)
		return
	}

	var form application.MealForm
	if !decodeBody(w, r, &form) {
		return
	}

	entry, err := form.Entry(h.now())
	if err != nil {
		h.fail(w, "invalid meal entry", err)
		return
	}

	if err := h.meals.Log(r.Context(), sess, entry); err != nil {
		h.fail(w, "log meal failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMealEntryResponse(entry))
}

// ListMeals returns the entries within ?start=&end=, both inclusive. Missing
// bounds default to the last seven days.
func (h *Handler) ListMeals(w http.ResponseWriter, r *http.Request) {
	sess := application.SessionFromContext(r.Context())
	if _, err := sess.RequireAuthenticated(); err != nil {
		h.fail(w, "list meals", err)
		return
	}

	start, end, err := application.ParseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"), h.now())
	if err != nil {
		h.fail(w, "invalid range", err)
		return
	}

	entries, err := h.meals.List(r.Context(), sess, start, end)
	if err != nil {
		h.fail(w, "list meals failed", err)
		return
	}

	resp := MealListResponse{
		Start:   model.FormatDate(start),
		End:     model.FormatDate(end),
		Entries: make([]MealEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toMealEntryResponse(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		Time:           h.now().UTC().Format(time.RFC3339),
		TableConnected: h.meals.Connected(),
	})
}

// fail logs err when it is not a plain client mistake and writes the mapped
// status with the user-facing message.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	}
	writeError(w, status, application.UserMessage(err))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
