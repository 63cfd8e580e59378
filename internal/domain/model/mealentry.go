package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Column names of the meal table, in row order. The first row of the table is
// a header carrying these names.
const (
	ColumnDate           = "Date"
	ColumnMealType       = "Meal Type"
	ColumnFood           = "Food"
	ColumnIllEffects     = "Ill Effects"
	ColumnTimeOfMeal     = "Time of Meal"
	ColumnTimeOfSymptoms = "Time of Symptoms"
)

// Columns is the fixed six-column layout of a meal row.
var Columns = []string{
	ColumnDate,
	ColumnMealType,
	ColumnFood,
	ColumnIllEffects,
	ColumnTimeOfMeal,
	ColumnTimeOfSymptoms,
}

// dateLayouts are tried in order when parsing a date cell. The first is the
// format this application writes; the others cover rows typed into the
// spreadsheet by hand.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2006/01/02",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
}

// MealEntry is one logged meal and the symptoms that followed it.
type MealEntry struct {
	Date           civil.Date
	MealType       MealType
	Food           string
	IllEffects     string // Empty when there were none.
	TimeOfMeal     civil.Time
	TimeOfSymptoms civil.Time // Midnight by default.
}

// Validate checks the fields a new entry must carry before it is appended.
func (e MealEntry) Validate() error {
	if !e.Date.IsValid() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if !e.MealType.Valid() {
		return fmt.Errorf("%w: unknown meal type %q", ErrInvalidInput, e.MealType)
	}
	if !e.TimeOfMeal.IsValid() {
		return fmt.Errorf("%w: invalid time of meal", ErrInvalidInput)
	}
	if !e.TimeOfSymptoms.IsValid() {
		return fmt.Errorf("%w: invalid time of symptoms", ErrInvalidInput)
	}
	return nil
}

// Row serializes the entry into the six-column row order.
func (e MealEntry) Row() []string {
	return []string{
		FormatDate(e.Date),
		string(e.MealType),
		e.Food,
		e.IllEffects,
		FormatTimeOfDay(e.TimeOfMeal),
		FormatTimeOfDay(e.TimeOfSymptoms),
	}
}

// ParseRow deserializes six cells in Columns order into a MealEntry. The
// meal type and free-text cells are kept verbatim; dates and times must parse.
func ParseRow(cells []string) (MealEntry, error) {
	if len(cells) != len(Columns) {
		return MealEntry{}, fmt.Errorf("expected %d cells, got %d", len(Columns), len(cells))
	}

	date, err := ParseDate(cells[0])
	if err != nil {
		return MealEntry{}, err
	}
	mealTime, err := parseTimeCell(ColumnTimeOfMeal, cells[4])
	if err != nil {
		return MealEntry{}, err
	}
	symptomsTime, err := parseTimeCell(ColumnTimeOfSymptoms, cells[5])
	if err != nil {
		return MealEntry{}, err
	}

	return MealEntry{
		Date:           date,
		MealType:       MealType(cells[1]),
		Food:           cells[2],
		IllEffects:     cells[3],
		TimeOfMeal:     mealTime,
		TimeOfSymptoms: symptomsTime,
	}, nil
}

// parseTimeCell treats an empty cell as midnight, matching the default time
// of symptoms.
func parseTimeCell(column, s string) (civil.Time, error) {
	if strings.TrimSpace(s) == "" {
		return civil.Time{}, nil
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return civil.Time{}, fmt.Errorf("%s: %w", column, err)
	}
	return t, nil
}

// FormatDate renders d as YYYY-MM-DD.
func FormatDate(d civil.Date) string {
	return d.String()
}

// FormatTimeOfDay renders t as HH:MM:SS. Sub-second precision is dropped.
func FormatTimeOfDay(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// ParseDate parses a date cell or form value.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseTimeOfDay parses a time-of-day cell or form value (HH:MM:SS or HH:MM).
func ParseTimeOfDay(s string) (civil.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.TimeOf(t), nil
		}
	}
	return civil.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// InRange reports whether d lies in [start, end], inclusive on both bounds.
func InRange(d, start, end civil.Date) bool {
	return !d.Before(start) && !d.After(end)
}
