// internal/nutrition/scaler.go
package nutrition

import (
	"regexp"
	"strconv"

	"diet-diary-bot/internal/models"
)

// referenceGrams is the portion the analysis figures are assumed to describe.
const referenceGrams = 100

var portionRe = regexp.MustCompile(`(?i)([0-9]+)\s*(?:грамм|г)`)

// PortionGrams extracts the requested portion size from the raw user text
// ("омлет из 2 яиц, 150 г" -> 150). Without an explicit portion the
// reference portion is assumed, which makes the scale factor 1.0.
func PortionGrams(text string) int {
	m := portionRe.FindStringSubmatch(text)
	if m == nil {
		return referenceGrams
	}
	grams, err := strconv.Atoi(m[1])
	if err != nil {
		return referenceGrams
	}
	return grams
}

// Scale multiplies every nutrient by grams/100. Full precision is kept;
// rounding happens at display and persistence time.
func Scale(q models.NutrientQuantities, grams int) models.NutrientQuantities {
	factor := float64(grams) / referenceGrams
	return models.NutrientQuantities{
		Calories: q.Calories * factor,
		Proteins: q.Proteins * factor,
		Fats:     q.Fats * factor,
		Carbs:    q.Carbs * factor,
	}
}
