package application

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

// MealService is the session-gated entry point to the meal log. Both
// presenters go through it so an anonymous session can never reach the
// EntryStore.
type MealService struct {
	entries *EntryStore
}

// NewMealService creates a MealService on entries.
func NewMealService(entries *EntryStore) *MealService {
	return &MealService{entries: entries}
}

// Log appends entry on behalf of the user logged in on sess.
func (s *MealService) Log(ctx context.Context, sess *model.Session, entry model.MealEntry) error {
	if _, err := sess.RequireAuthenticated(); err != nil {
		return err
	}
	return s.entries.Append(ctx, entry)
}

// List returns the entries dated within [start, end] for the user logged in
// on sess.
func (s *MealService) List(ctx context.Context, sess *model.Session, start, end civil.Date) ([]model.MealEntry, error) {
	if _, err := sess.RequireAuthenticated(); err != nil {
		return nil, err
	}
	return s.entries.Scan(ctx, start, end)
}

// Connected reports whether the meal table has been reached at least once.
func (s *MealService) Connected() bool {
	return s.entries.Connected()
}
