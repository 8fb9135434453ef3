// Package suggest picks quest ideas from a fixed library, skipping titles
// the user already has.
package suggest

import (
	"math/rand"
	"strings"

	"github.com/jghoshh/streakr/models"
)

// Suggestion is a quest idea the user can accept into their list.
type Suggestion struct {
	Title    string
	Category models.QuestCategory
}

var library = []Suggestion{
	{Title: "Take a 20-minute walk", Category: models.CategoryHealth},
	{Title: "Drink enough water today", Category: models.CategoryHealth},
	{Title: "Do 10 minutes of stretching", Category: models.CategoryHealth},
	{Title: "Eat at least one healthy meal", Category: models.CategoryHealth},
	{Title: "Avoid junk food today", Category: models.CategoryHealth},
	{Title: "Go to bed before midnight", Category: models.CategoryHealth},
	{Title: "Spend 10 minutes in fresh air", Category: models.CategoryHealth},
	{Title: "Move your body for 15 minutes", Category: models.CategoryHealth},
	{Title: "Take a short screen break", Category: models.CategoryHealth},
	{Title: "10 000 steps today", Category: models.CategoryHealth},
	{Title: "Take a bath", Category: models.CategoryHealth},
	{Title: "Prepare something homemade", Category: models.CategoryHealth},

	{Title: "Read 20 pages of a book", Category: models.CategoryStudy},
	{Title: "Learn something new today", Category: models.CategoryStudy},
	{Title: "Watch an educational video", Category: models.CategoryStudy},
	{Title: "Write down one new idea", Category: models.CategoryStudy},
	{Title: "Reflect on what you learned today", Category: models.CategoryStudy},
	{Title: "Practice a skill for 20 minutes", Category: models.CategoryStudy},
	{Title: "Listen to something educational", Category: models.CategoryStudy},
	{Title: "Review your goals", Category: models.CategoryStudy},
	{Title: "Research a topic you're curious about", Category: models.CategoryStudy},
	{Title: "Improve one small skill", Category: models.CategoryStudy},
	{Title: "Spend time reading instead of scrolling", Category: models.CategoryStudy},
	{Title: "Take notes on something useful", Category: models.CategoryStudy},

	{Title: "Clear your email inbox", Category: models.CategoryWork},
	{Title: "Plan your day", Category: models.CategoryWork},
	{Title: "Complete one important task", Category: models.CategoryWork},
	{Title: "Organize a small area around you", Category: models.CategoryWork},
	{Title: "Set priorities for tomorrow", Category: models.CategoryWork},
	{Title: "Focus without distractions for 30 minutes", Category: models.CategoryWork},
	{Title: "Finish something you started", Category: models.CategoryWork},
	{Title: "Review your responsibilities", Category: models.CategoryWork},
	{Title: "Take initiative on one task", Category: models.CategoryWork},
	{Title: "Reduce one source of clutter", Category: models.CategoryWork},
	{Title: "Plan tomorrows quests", Category: models.CategoryWork},
	{Title: "Make progress on a long-term goal", Category: models.CategoryWork},
}

// Suggest returns a random idea whose title the user does not already have.
// When every library entry is taken it falls back to the full library so the
// button never comes up empty.
func Suggest(existing []models.Quest) Suggestion {
	taken := make(map[string]bool, len(existing))
	for _, q := range existing {
		taken[strings.ToLower(q.Title)] = true
	}
	pool := make([]Suggestion, 0, len(library))
	for _, s := range library {
		if !taken[strings.ToLower(s.Title)] {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		pool = library
	}
	return pool[rand.Intn(len(pool))]
}
