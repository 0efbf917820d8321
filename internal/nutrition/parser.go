// internal/nutrition/parser.go
package nutrition

import (
	"regexp"
	"strconv"
	"strings"

	"diet-diary-bot/internal/models"
)

// Extraction is heuristic by design: the input is AI-generated prose, and the
// only contract is "label followed by the first numeric token". Analysis text
// often lists per-ingredient figures before a totals section, so when a
// summary marker is present everything before it is discarded — the per-field
// search below takes the first match after the anchor.
var (
	summaryRe  = regexp.MustCompile(`(?:итог|общее количество|сумма)[^0-9]*[0-9]`)
	caloriesRe = labelPattern(`калории|ккал`)
	proteinsRe = labelPattern(`белки|белок`)
	fatsRe     = labelPattern(`жиры|жир`)
	carbsRe    = labelPattern(`углеводы|углевода`)
)

// labelPattern matches a nutrient label, the first number after it, and an
// optional ranged tail ("180-220", hyphen or en-dash).
func labelPattern(labels string) *regexp.Regexp {
	return regexp.MustCompile(`(?:` + labels + `)[^0-9]*([0-9]+(?:\.[0-9]+)?)(?:\s*[-–]\s*([0-9]+(?:\.[0-9]+)?))?`)
}

// Extract pulls nutrient quantities out of free-form analysis text. A label
// that never appears yields 0 for its field; Extract itself never fails.
// Ranged values resolve to their arithmetic mean. Results are rounded to one
// decimal place.
func Extract(text string) models.NutrientQuantities {
	text = strings.ToLower(text)

	if loc := summaryRe.FindStringIndex(text); loc != nil {
		text = text[loc[0]:]
	}

	return models.NutrientQuantities{
		Calories: firstValue(caloriesRe, text),
		Proteins: firstValue(proteinsRe, text),
		Fats:     firstValue(fatsRe, text),
		Carbs:    firstValue(carbsRe, text),
	}.Rounded()
}

func firstValue(re *regexp.Regexp, text string) float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	lo, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if m[2] == "" {
		return lo
	}
	hi, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return lo
	}
	return (lo + hi) / 2
}
