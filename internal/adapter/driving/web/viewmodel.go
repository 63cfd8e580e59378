package web

import (
	vm "github.com/ericfisherdev/mealtracker/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

// toMealRowViewModel converts a domain MealEntry to a table row. Free text is
// rendered as sanitized Markdown.
func toMealRowViewModel(e model.MealEntry) vm.MealRowViewModel {
	return vm.MealRowViewModel{
		Date:           model.FormatDate(e.Date),
		MealType:       string(e.MealType),
		FoodHTML:       RenderMarkdown(e.Food),
		IllEffectsHTML: RenderMarkdown(e.IllEffects),
		TimeOfMeal:     model.FormatTimeOfDay(e.TimeOfMeal),
		TimeOfSymptoms: model.FormatTimeOfDay(e.TimeOfSymptoms),
	}
}

// toMealRowViewModels converts entries in order.
func toMealRowViewModels(entries []model.MealEntry) []vm.MealRowViewModel {
	rows := make([]vm.MealRowViewModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toMealRowViewModel(e))
	}
	return rows
}

// mealTypeOptions lists the selectable meal types.
func mealTypeOptions() []string {
	opts := make([]string, 0, len(model.MealTypes))
	for _, mt := range model.MealTypes {
		opts = append(opts, string(mt))
	}
	return opts
}

func successFlash(msg string) *vm.Flash {
	return &vm.Flash{Kind: vm.FlashSuccess, Message: msg}
}

func errorFlash(msg string) *vm.Flash {
	return &vm.Flash{Kind: vm.FlashError, Message: msg}
}
