// Package medals holds the fixed achievement catalog and the rules deciding
// when each medal unlocks. The rules only ever unlock; reverting an unlock
// is impossible by construction, matching the medal monotonicity invariant.
package medals

import (
	"context"

	"github.com/jghoshh/streakr/models"
)

// Medal ids. The catalog is fixed; ids are stable across devices and are
// what the merge policy joins on.
const (
	IDFirstTask    = "1"
	IDStreak7      = "2"
	IDAllFeatures  = "3"
	IDComeback     = "4"
	IDConsistent30 = "5"
	IDStreak30     = "6"
	IDHundredTasks = "7"
	IDRoyal        = "8"
	IDSuperHappy   = "9"
)

// Catalog returns the full medal set, all locked. Entity stores seed from it
// and merge remote unlock state over it.
func Catalog() []models.Medal {
	return []models.Medal{
		{ID: IDFirstTask, Title: "First Task Completed", Description: "Complete your first quest"},
		{ID: IDStreak7, Title: "7-Day Streak", Description: "Maintain a 7-day streak"},
		{ID: IDAllFeatures, Title: "All Features Explored", Description: "Try every feature in the app"},
		{ID: IDComeback, Title: "Comeback", Description: "Return after a break"},
		{ID: IDConsistent30, Title: "Consistent User", Description: "Use the app for 30 days"},
		{ID: IDStreak30, Title: "30-Day Streak", Description: "Maintain a 30-day streak"},
		{ID: IDHundredTasks, Title: "100 Tasks Finished", Description: "Complete 100 quests"},
		{ID: IDRoyal, Title: "Royal Achievement", Description: "Reach level 50"},
		{ID: IDSuperHappy, Title: "Super Happy", Description: "Complete 10 quests in one day"},
	}
}

// Unlocker is the slice of the medal store the rules need. Unlock reports
// whether the medal transitioned to unlocked on this call.
type Unlocker interface {
	Unlock(ctx context.Context, id string) (bool, error)
}

// CheckQuestMedals unlocks the medals driven by completion counters.
func CheckQuestMedals(ctx context.Context, u Unlocker, totalCompleted, todayCount int) {
	if totalCompleted >= 1 {
		u.Unlock(ctx, IDFirstTask)
	}
	if totalCompleted >= 100 {
		u.Unlock(ctx, IDHundredTasks)
	}
	if todayCount >= 10 {
		u.Unlock(ctx, IDSuperHappy)
	}
}

// CheckStreakMedals unlocks the streak-length medals.
func CheckStreakMedals(ctx context.Context, u Unlocker, streak int) {
	if streak >= 7 {
		u.Unlock(ctx, IDStreak7)
	}
	if streak >= 30 {
		u.Unlock(ctx, IDStreak30)
	}
}

// CheckLevelMedal unlocks the level-milestone medal.
func CheckLevelMedal(ctx context.Context, u Unlocker, level int) {
	if level >= 50 {
		u.Unlock(ctx, IDRoyal)
	}
}

// CheckConsistencyMedal unlocks the long-term usage medal.
func CheckConsistencyMedal(ctx context.Context, u Unlocker, activeDayCount int) {
	if activeDayCount >= 30 {
		u.Unlock(ctx, IDConsistent30)
	}
}

// CheckComebackMedal unlocks the comeback medal. Callers invoke it when a
// streak loss is detected: losing the streak means the user went away and
// came back.
func CheckComebackMedal(ctx context.Context, u Unlocker) {
	u.Unlock(ctx, IDComeback)
}
