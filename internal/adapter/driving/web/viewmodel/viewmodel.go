// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// FlashKind selects the styling of a flash message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-off message shown above the page content.
type Flash struct {
	Kind    FlashKind
	Message string
}

// PageViewModel holds the data every page shares with the layout.
type PageViewModel struct {
	Title     string
	Username  string // Empty when anonymous.
	CSRFToken string
	Flash     *Flash
}

// AuthFormViewModel holds the login and register forms.
type AuthFormViewModel struct {
	Page     PageViewModel
	Username string // Echoed back after a failed attempt; never the password.
}

// MealFormViewModel holds the log-meal form with its default values.
type MealFormViewModel struct {
	Page           PageViewModel
	MealTypes      []string
	Date           string
	MealType       string
	Food           string
	IllEffects     string
	TimeOfMeal     string
	TimeOfSymptoms string
}

// MealRowViewModel is one row of the view-meals table. Free-text cells are
// pre-rendered, sanitized HTML.
type MealRowViewModel struct {
	Date           string
	MealType       string
	FoodHTML       string
	IllEffectsHTML string
	TimeOfMeal     string
	TimeOfSymptoms string
}

// MealListViewModel holds the range form and, once submitted, its results.
type MealListViewModel struct {
	Page      PageViewModel
	Start     string
	End       string
	Submitted bool
	Rows      []MealRowViewModel
}
