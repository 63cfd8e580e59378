package application

import (
	"errors"

	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

// User-facing success messages shared by the web and JSON presenters.
const (
	MsgRegistered = "User registered successfully! You can now log in."
	MsgLoggedIn   = "Logged in successfully."
	MsgLoggedOut  = "Logged out."
	MsgMealLogged = "Meal entry added successfully!"
)

// UserMessage renders err as the message shown to the user. Table failures
// keep their cause so the user can tell a quota problem from a missing sheet.
func UserMessage(err error) string {
	var (
		connErr  *model.ConnectionError
		writeErr *model.WriteError
		readErr  *model.ReadError
	)

	switch {
	case errors.Is(err, model.ErrDuplicateUser):
		return "Username already exists"
	case errors.Is(err, model.ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, model.ErrUnauthenticated):
		return "Please log in first"
	case errors.As(err, &connErr):
		return "Failed to connect to Google Sheets: " + connErr.Err.Error()
	case errors.As(err, &writeErr):
		return "Failed to log meal data: " + writeErr.Err.Error()
	case errors.As(err, &readErr):
		return "Failed to retrieve meal data: " + readErr.Error()
	case errors.Is(err, model.ErrInvalidInput):
		return err.Error()
	default:
		return "Something went wrong. Please try again."
	}
}
