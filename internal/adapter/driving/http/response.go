package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse carries a human-readable success message.
type messageResponse struct {
	Message string `json:"message"`
}

// CredentialsRequest is the JSON body for register and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Message       string `json:"message,omitempty"`
}

// MealEntryResponse is the JSON representation of a meal entry. Dates and
// times use the same text forms as the table cells.
type MealEntryResponse struct {
	Date           string `json:"date"`
	MealType       string `json:"meal_type"`
	Food           string `json:"food"`
	IllEffects     string `json:"ill_effects"`
	TimeOfMeal     string `json:"time_of_meal"`
	TimeOfSymptoms string `json:"time_of_symptoms"`
}

// MealListResponse is the result of a range scan.
type MealListResponse struct {
	Start   string              `json:"start"`
	End     string              `json:"end"`
	Entries []MealEntryResponse `json:"entries"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status         string `json:"status"`
	Time           string `json:"time"`
	TableConnected bool   `json:"table_connected"`
}

// toMealEntryResponse converts a domain MealEntry to its JSON representation.
func toMealEntryResponse(e model.MealEntry) MealEntryResponse {
	return MealEntryResponse{
		Date:           model.FormatDate(e.Date),
		MealType:       string(e.MealType),
		Food:           e.Food,
		IllEffects:     e.IllEffects,
		TimeOfMeal:     model.FormatTimeOfDay(e.TimeOfMeal),
		TimeOfSymptoms: model.FormatTimeOfDay(e.TimeOfSymptoms),
	}
}

// statusForError maps domain errors to HTTP status codes. Table failures
// are reported as 502 since the fault lies with the remote spreadsheet.
func statusForError(err error) int {
	var (
		connErr  *model.ConnectionError
		writeErr *model.WriteError
		readErr  *model.ReadError
	)

	switch {
	case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &connErr), errors.As(err, &writeErr), errors.As(err, &readErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
