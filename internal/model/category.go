package model

import "strings"

// TaskCategory groups tasks by area (work, health, meal, etc.).
// The empty value means the task has no category.
type TaskCategory string

const (
	CategoryWork     TaskCategory = "work"
	CategoryPersonal TaskCategory = "personal"
	CategoryHealth   TaskCategory = "health"
	CategoryMeal     TaskCategory = "meal"
	CategoryExercise TaskCategory = "exercise"
	CategoryStudy    TaskCategory = "study"
	CategorySocial   TaskCategory = "social"
	CategoryBreak    TaskCategory = "break"
	CategoryOther    TaskCategory = "other"
)

// Categories lists every known category in display order.
var Categories = []TaskCategory{
	CategoryWork,
	CategoryStudy,
	CategoryPersonal,
	CategoryHealth,
	CategoryExercise,
	CategoryMeal,
	CategorySocial,
	CategoryBreak,
	CategoryOther,
}

// ParseCategory maps a stored or typed value to a category; unknown values yield "".
func ParseCategory(raw string) TaskCategory {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range Categories {
		if string(c) == value {
			return c
		}
	}
	if alias, ok := categoryAliases[value]; ok {
		return alias
	}
	return ""
}

var categoryAliases = map[string]TaskCategory{
	"работа":   CategoryWork,
	"учеба":    CategoryStudy,
	"учёба":    CategoryStudy,
	"личное":   CategoryPersonal,
	"здоровье": CategoryHealth,
	"спорт":    CategoryExercise,
	"еда":      CategoryMeal,
	"встречи":  CategorySocial,
	"перерыв":  CategoryBreak,
	"другое":   CategoryOther,
}
