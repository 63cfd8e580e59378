package model

import (
	"fmt"
	"strings"
)

// MealType represents the kind of meal a MealEntry records.
type MealType string

const (
	MealTypeBreakfast MealType = "Breakfast"
	MealTypeLunch     MealType = "Lunch"
	MealTypeDinner    MealType = "Dinner"
	MealTypeSnacks    MealType = "Snacks"
)

// MealTypes lists the selectable meal types in display order.
var MealTypes = []MealType{
	MealTypeBreakfast,
	MealTypeLunch,
	MealTypeDinner,
	MealTypeSnacks,
}

// Valid reports whether m is one of the four selectable meal types.
func (m MealType) Valid() bool {
	for _, known := range MealTypes {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMealType maps user input to a MealType, ignoring case and surrounding
// whitespace. Unknown values wrap ErrInvalidInput.
func ParseMealType(s string) (MealType, error) {
	s = strings.TrimSpace(s)
	for _, known := range MealTypes {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: unknown meal type %q", ErrInvalidInput, s)
}
