package web

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all web GUI routes on r. Form posts are CSRF
// checked; login and register posts also pass through limit. Meal pages
// require an authenticated session. Static assets are served from the
// embedded filesystem at /static/*.
func RegisterRoutes(r chi.Router, h *Handler, limit func(http.Handler) http.Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	r.Get("/", h.Home)
	r.Get("/login", h.LoginPage)
	r.Get("/register", h.RegisterPage)

	r.Group(func(r chi.Router) {
		r.Use(h.requireCSRF)
		r.With(limit).Post("/login", h.Login)
		r.With(limit).Post("/register", h.Register)
		r.Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/meals/new", h.MealFormPage)
		r.With(h.requireCSRF).Post("/meals/new", h.LogMeal)
		r.Get("/meals", h.ListMeals)
	})
}
