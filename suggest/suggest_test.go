package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jghoshh/streakr/models"
)

func TestSuggestSkipsExistingTitles(t *testing.T) {
	existing := []models.Quest{
		{Title: "Plan your day", Category: models.CategoryWork},
		{Title: "take a bath", Category: models.CategoryHealth},
	}

	for i := 0; i < 50; i++ {
		s := Suggest(existing)
		assert.NotEqual(t, "Plan your day", s.Title)
		assert.NotEqual(t, "Take a bath", s.Title)
	}
}

func TestSuggestReturnsValidCategory(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := Suggest(nil)
		assert.True(t, s.Category.Valid())
		assert.NotEmpty(t, s.Title)
		assert.LessOrEqual(t, len(s.Title), models.MaxQuestTitleLen)
	}
}

func TestSuggestFallsBackWhenLibraryExhausted(t *testing.T) {
	existing := make([]models.Quest, 0, len(library))
	for _, entry := range library {
		existing = append(existing, models.Quest{Title: entry.Title, Category: entry.Category})
	}

	s := Suggest(existing)
	assert.NotEmpty(t, s.Title)
}
