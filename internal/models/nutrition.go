// internal/models/nutrition.go
package models

import (
	"math"
	"time"
)

// NutrientQuantities holds the four tracked nutrient values. All fields are
// always present; a value the analysis text did not mention is simply 0.
type NutrientQuantities struct {
	Calories float64 `json:"calories"`
	Proteins float64 `json:"proteins"`
	Fats     float64 `json:"fats"`
	Carbs    float64 `json:"carbs"`
}

// Rounded returns a copy with every field rounded to one decimal place.
func (q NutrientQuantities) Rounded() NutrientQuantities {
	return NutrientQuantities{
		Calories: round1(q.Calories),
		Proteins: round1(q.Proteins),
		Fats:     round1(q.Fats),
		Carbs:    round1(q.Carbs),
	}
}

// IsZero reports whether nothing was extracted at all.
func (q NutrientQuantities) IsZero() bool {
	return q.Calories == 0 && q.Proteins == 0 && q.Fats == 0 && q.Carbs == 0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// PendingRecord is a nutrition candidate held per chat until the user
// confirms or rejects it. PromptMessageID references the confirmation
// prompt so the reject path can retract it.
type PendingRecord struct {
	UserID          int64              `json:"user_id"`
	Text            string             `json:"text"`
	Quantities      NutrientQuantities `json:"quantities"`
	PromptMessageID int64              `json:"prompt_message_id"`
	CreatedAt       time.Time          `json:"created_at"`
}

// DiaryEntry is a committed diary record. Immutable once written.
type DiaryEntry struct {
	ID         int64              `json:"id"`
	UserID     int64              `json:"user_id"`
	Text       string             `json:"text"`
	Quantities NutrientQuantities `json:"quantities"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Supplement is a named reusable nutrient definition, unique per (user, name).
type Supplement struct {
	UserID      int64              `json:"user_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Quantities  NutrientQuantities `json:"quantities"`
}
