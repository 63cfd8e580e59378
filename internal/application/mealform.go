package application

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

// MealForm is the raw, string-typed input of the log-meal form and of the
// JSON API. Empty fields take the form defaults: today for the date, the
// current minute for the time of meal and midnight for the time of symptoms.
type MealForm struct {
	Date           string `json:"date"`
	MealType       string `json:"meal_type"`
	Food           string `json:"food"`
	IllEffects     string `json:"ill_effects"`
	TimeOfMeal     string `json:"time_of_meal"`
	TimeOfSymptoms string `json:"time_of_symptoms"`
}

// Entry parses the form into a MealEntry, filling defaults relative to now.
// Parse failures wrap model.ErrInvalidInput.
func (f MealForm) Entry(now time.Time) (model.MealEntry, error) {
	entry := model.MealEntry{
		Date:       civil.DateOf(now),
		Food:       f.Food,
		IllEffects: f.IllEffects,
		TimeOfMeal: civil.Time{Hour: now.Hour(), Minute: now.Minute()},
	}

	mealType, err := model.ParseMealType(f.MealType)
	if err != nil {
		return model.MealEntry{}, err
	}
	entry.MealType = mealType

	if strings.TrimSpace(f.Date) != "" {
		if entry.Date, err = model.ParseDate(f.Date); err != nil {
			return model.MealEntry{}, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
		}
	}
	if strings.TrimSpace(f.TimeOfMeal) != "" {
		if entry.TimeOfMeal, err = model.ParseTimeOfDay(f.TimeOfMeal); err != nil {
			return model.MealEntry{}, fmt.Errorf("%w: time of meal: %w", model.ErrInvalidInput, err)
		}
	}
	if strings.TrimSpace(f.TimeOfSymptoms) != "" {
		if entry.TimeOfSymptoms, err = model.ParseTimeOfDay(f.TimeOfSymptoms); err != nil {
			return model.MealEntry{}, fmt.Errorf("%w: time of symptoms: %w", model.ErrInvalidInput, err)
		}
	}

	return entry, nil
}

// DefaultLookback is how far before today the view-meals range starts when
// no start date is given.
const DefaultLookback = 7

// ParseRange parses optional start and end dates. An empty end is today and
// an empty start is DefaultLookback days before the end.
func ParseRange(start, end string, now time.Time) (civil.Date, civil.Date, error) {
	endDate := civil.DateOf(now)
	if strings.TrimSpace(end) != "" {
		d, err := model.ParseDate(end)
		if err != nil {
			return civil.Date{}, civil.Date{}, fmt.Errorf("%w: end: %w", model.ErrInvalidInput, err)
		}
		endDate = d
	}

	startDate := endDate.AddDays(-DefaultLookback)
	if strings.TrimSpace(start) != "" {
		d, err := model.ParseDate(start)
		if err != nil {
			return civil.Date{}, civil.Date{}, fmt.Errorf("%w: start: %w", model.ErrInvalidInput, err)
		}
		startDate = d
	}

	return startDate, endDate, nil
}
