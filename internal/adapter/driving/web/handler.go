// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/a-h/templ"

	"github.com/ericfisherdev/mealtracker/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/mealtracker/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/mealtracker/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/mealtracker/internal/application"
	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

// Handler is the web GUI driving adapter that serves HTML via templ components.
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

// WithClock replaces the clock used for form defaults.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Home sends logged-in users to the log-meal form and everyone else to login.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if application.SessionFromContext(r.Context()).Authenticated() {
		http.Redirect(w, r, "/meals/new", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginPage renders the login form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	page := h.page(w, r, "Login")
	if r.URL.Query().Get("registered") == "1" {
		page.Flash = successFlash(application.MsgRegistered)
	}
	h.render(w, r, http.StatusOK, page, pages.Login(vm.AuthFormViewModel{Page: page}))
}

// Login authenticates the session from the posted form.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	sess := application.SessionFromContext(r.Context())

	if err := h.auth.Login(r.Context(), sess, username, r.PostFormValue("password")); err != nil {
		page := h.page(w, r, "Login")
		page.Flash = errorFlash(application.UserMessage(err))
		h.render(w, r, http.StatusUnauthorized, page, pages.Login(vm.AuthFormViewModel{Page: page, Username: username}))
		return
	}

	http.Redirect(w, r, "/meals/new", http.StatusSeeOther)
}

// RegisterPage renders the registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	page := h.page(w, r, "Register")
	h.render(w, r, http.StatusOK, page, pages.Register(vm.AuthFormViewModel{Page: page}))
}

// Register creates a user from the posted form.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")

	if err := h.auth.Register(r.Context(), username, r.PostFormValue("password")); err != nil {
		status := http.StatusBadRequest
		if !isClientError(err) {
			h.logger.Error("register failed", "error", err)
			status = http.StatusInternalServerError
		}
		page := h.page(w, r, "Register")
		page.Flash = errorFlash(application.UserMessage(err))
		h.render(w, r, status, page, pages.Register(vm.AuthFormViewModel{Page: page, Username: username}))
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

// Logout resets the session and returns to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), application.SessionFromContext(r.Context()))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// MealFormPage renders the log-meal form with today's defaults.
func (h *Handler) MealFormPage(w http.ResponseWriter, r *http.Request) {
	page := h.page(w, r, "Log Meal")
	h.render(w, r, http.StatusOK, page, pages.MealForm(h.mealFormViewModel(page, application.MealForm{})))
}

// LogMeal appends the posted entry and re-renders the form with the outcome.
func (h *Handler) LogMeal(w http.ResponseWriter, r *http.Request) {
	form := application.MealForm{
		Date:           r.PostFormValue("date"),
		MealType:       r.PostFormValue("meal_type"),
		Food:           r.PostFormValue("food"),
		IllEffects:     r.PostFormValue("ill_effects"),
		TimeOfMeal:     r.PostFormValue("time_of_meal"),
		TimeOfSymptoms: r.PostFormValue("time_of_symptoms"),
	}

	page := h.page(w, r, "Log Meal")

	entry, err := form.Entry(h.now())
	if err == nil {
		err = h.meals.Log(r.Context(), application.SessionFromContext(r.Context()), entry)
	}
	if err != nil {
		status := http.StatusBadRequest
		if !isClientError(err) {
			h.logger.Error("log meal failed", "error", err)
			status = http.StatusBadGateway
		}
		page.Flash = errorFlash(application.UserMessage(err))
		h.render(w, r, status, page, pages.MealForm(h.mealFormViewModel(page, form)))
		return
	}

	page.Flash = successFlash(application.MsgMealLogged)
	h.render(w, r, http.StatusOK, page, pages.MealForm(h.mealFormViewModel(page, application.MealForm{})))
}

// ListMeals renders the date range form and, when a range was submitted, the
// entries within it.
func (h *Handler) ListMeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := h.page(w, r, "View Meals")
	data := vm.MealListViewModel{Page: page}

	start, end, err := application.ParseRange(q.Get("start"), q.Get("end"), h.now())
	if err != nil {
		data.Page.Flash = errorFlash(application.UserMessage(err))
		data.Start, data.End = q.Get("start"), q.Get("end")
		h.render(w, r, http.StatusBadRequest, data.Page, pages.MealList(data))
		return
	}
	data.Start, data.End = model.FormatDate(start), model.FormatDate(end)

	if !q.Has("start") && !q.Has("end") {
		h.render(w, r, http.StatusOK, data.Page, pages.MealList(data))
		return
	}

	status := http.StatusOK
	entries, err := h.meals.List(r.Context(), application.SessionFromContext(r.Context()), start, end)
	if err != nil {
		status = http.StatusBadRequest
		if !isClientError(err) {
			h.logger.Error("list meals failed", "error", err)
			status = http.StatusBadGateway
		}
		data.Page.Flash = errorFlash(application.UserMessage(err))
	} else {
		data.Submitted = true
		data.Rows = toMealRowViewModels(entries)
	}

	h.render(w, r, status, data.Page, pages.MealList(data))
}

// TooManyAttempts re-renders the login or register form when the client
// has exceeded its attempt budget.
func (h *Handler) TooManyAttempts(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	msg := "Too many attempts. Please wait a minute and try again."

	if r.URL.Path == "/register" {
		page := h.page(w, r, "Register")
		page.Flash = errorFlash(msg)
		h.render(w, r, http.StatusTooManyRequests, page, pages.Register(vm.AuthFormViewModel{Page: page, Username: username}))
		return
	}
	page := h.page(w, r, "Login")
	page.Flash = errorFlash(msg)
	h.render(w, r, http.StatusTooManyRequests, page, pages.Login(vm.AuthFormViewModel{Page: page, Username: username}))
}

// requireAuth redirects anonymous sessions to the login page.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !application.SessionFromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCSRF rejects form posts whose token does not match the cookie.
func (h *Handler) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validateCSRF(r) {
			http.Error(w, "invalid CSRF token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// mealFormViewModel fills the form from submitted, falling back to today's
// defaults for any field left empty.
func (h *Handler) mealFormViewModel(page vm.PageViewModel, submitted application.MealForm) vm.MealFormViewModel {
	now := h.now()
	data := vm.MealFormViewModel{
		Page:           page,
		MealTypes:      mealTypeOptions(),
		Date:           model.FormatDate(civil.DateOf(now)),
		MealType:       string(model.MealTypeBreakfast),
		Food:           submitted.Food,
		IllEffects:     submitted.IllEffects,
		TimeOfMeal:     model.FormatTimeOfDay(civil.Time{Hour: now.Hour(), Minute: now.Minute()}),
		TimeOfSymptoms: model.FormatTimeOfDay(civil.Time{}),
	}
	if submitted.Date != "" {
		data.Date = submitted.Date
	}
	if mt, err := model.ParseMealType(submitted.MealType); err == nil {
		data.MealType = string(mt)
	}
	if submitted.TimeOfMeal != "" {
		data.TimeOfMeal = submitted.TimeOfMeal
	}
	if submitted.TimeOfSymptoms != "" {
		data.TimeOfSymptoms = submitted.TimeOfSymptoms
	}
	return data
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, title string) vm.PageViewModel {
	return vm.PageViewModel{
		Title:     title,
		Username:  application.SessionFromContext(r.Context()).Username(),
		CSRFToken: csrfToken(w, r),
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page vm.PageViewModel, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Layout(page, body).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "title", page.Title, "error", err)
	}
}

// isClientError reports whether err was caused by the user's input or
// session rather than by storage.
func isClientError(err error) bool {
	return errors.Is(err, model.ErrInvalidInput) ||
		errors.Is(err, model.ErrDuplicateUser) ||
		errors.Is(err, model.ErrInvalidCredentials) ||
		errors.Is(err, model.ErrUnauthenticated)
}
