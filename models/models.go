package models

import (
	"time"
)

// QuestCategory classifies a quest. The set is fixed by the product.
type QuestCategory string

const (
	CategoryHealth QuestCategory = "HEALTH"
	CategoryStudy  QuestCategory = "STUDY"
	CategoryWork   QuestCategory = "WORK"
)

// Valid reports whether c is one of the known categories.
func (c QuestCategory) Valid() bool {
	switch c {
	case CategoryHealth, CategoryStudy, CategoryWork:
		return true
	}
	return false
}

// MaxQuestTitleLen bounds user-entered quest titles.
const MaxQuestTitleLen = 60

// XPPerLevel is the amount of experience needed per level.
// Level is always derived as floor(xp/XPPerLevel)+1.
const XPPerLevel = 500

// UserProgress holds the synchronized progress fields of a user.
// XP never decreases; Level is always derived from XP.
type UserProgress struct {
	XP             int    `bson:"xp" json:"xp"`
	Level          int    `bson:"level" json:"level"`
	Streak         int    `bson:"streak" json:"streak"`
	LastActiveDate string `bson:"last_active_date" json:"lastActiveDate"`
}

// LevelForXP derives the level for a given amount of experience.
func LevelForXP(xp int) int {
	return xp/XPPerLevel + 1
}

// Quest is a single daily quest.
type Quest struct {
	ID          string        `bson:"id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Category    QuestCategory `bson:"category" json:"category"`
	Completed   bool          `bson:"completed" json:"completed"`
	CompletedAt *time.Time    `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// QuestAggregate is the synchronized quest state of a user: the quest list
// plus the completion counters. TotalCompletedQuests never decreases and
// doubles as the logical clock for conflict resolution.
type QuestAggregate struct {
	Quests               []Quest `bson:"quests" json:"quests"`
	TotalCompletedQuests int     `bson:"total_completed_quests" json:"totalCompletedQuests"`
	TodayCompletedCount  int     `bson:"today_completed_count" json:"todayCompletedCount"`
	LastResetDate        string  `bson:"last_reset_date" json:"lastResetDate"`
}

// Medal is a single achievement. Unlocked never reverts to false.
// ViewedInVault is per-device presentation state and is never synchronized,
// so it is excluded from the remote document encoding.
type Medal struct {
	ID            string     `bson:"id" json:"id"`
	Title         string     `bson:"title" json:"title"`
	Description   string     `bson:"description" json:"description"`
	Unlocked      bool       `bson:"unlocked" json:"unlocked"`
	UnlockedAt    *time.Time `bson:"unlocked_at,omitempty" json:"unlockedAt,omitempty"`
	ViewedInVault bool       `bson:"-" json:"viewedInVault"`
}

// MedalSet is the synchronized medal state of a user.
type MedalSet struct {
	Medals []Medal `bson:"medals" json:"medals"`
}

// ActivityLog records which calendar days had any activity.
// ActiveDays is append-only and kept sorted.
type ActivityLog struct {
	ActiveDays     []string `bson:"active_days" json:"activeDays"`
	LastActiveDate string   `bson:"last_active_date" json:"lastActiveDate"`
}

// Day renders t as the calendar-date string used throughout the module
// ("2006-01-02"). All day-boundary arithmetic works on these strings.
func Day(t time.Time) string {
	return t.Format("2006-01-02")
}

// DaysBetween returns the number of calendar days from one date string to
// another. A malformed date parses as the zero date, which shows up as a
// large delta. The result is negative when to precedes from.
func DaysBetween(from, to string) int {
	f, _ := time.Parse("2006-01-02", from)
	t, _ := time.Parse("2006-01-02", to)
	return int(t.Sub(f).Hours() / 24)
}
