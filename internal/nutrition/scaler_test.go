// internal/nutrition/scaler_test.go
package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"diet-diary-bot/internal/models"
)

func TestPortionGrams(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "trailing grams", text: "омлет из 2 яиц, 150 г", want: 150},
		{name: "full unit word", text: "200 грамм риса", want: 200},
		{name: "no portion defaults to reference", text: "овсянка с молоком", want: 100},
		{name: "empty text", text: "", want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PortionGrams(tt.text))
		})
	}
}

func TestScale(t *testing.T) {
	q := models.NutrientQuantities{Calories: 100, Proteins: 10, Fats: 5, Carbs: 20}

	scaled := Scale(q, 250)
	assert.Equal(t, models.NutrientQuantities{Calories: 250, Proteins: 25, Fats: 12.5, Carbs: 50}, scaled)

	// Reference portion is the identity.
	assert.Equal(t, q, Scale(q, 100))
}

func TestScaleKeepsFullPrecision(t *testing.T) {
	q := models.NutrientQuantities{Proteins: 15}
	assert.Equal(t, 22.5, Scale(q, 150).Proteins)
}
