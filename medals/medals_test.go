package medals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeUnlocker records unlock calls.
type fakeUnlocker struct {
	unlocked []string
}

func (f *fakeUnlocker) Unlock(ctx context.Context, id string) (bool, error) {
	f.unlocked = append(f.unlocked, id)
	return true, nil
}

func TestCatalogIsComplete(t *testing.T) {
	catalog := Catalog()
	assert.Len(t, catalog, 9)
	seen := make(map[string]bool)
	for _, m := range catalog {
		assert.False(t, m.Unlocked)
		assert.Nil(t, m.UnlockedAt)
		assert.NotEmpty(t, m.Title)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestCheckQuestMedals(t *testing.T) {
	ctx := context.Background()

	u := &fakeUnlocker{}
	CheckQuestMedals(ctx, u, 0, 0)
	assert.Empty(t, u.unlocked)

	u = &fakeUnlocker{}
	CheckQuestMedals(ctx, u, 1, 1)
	assert.Equal(t, []string{IDFirstTask}, u.unlocked)

	u = &fakeUnlocker{}
	CheckQuestMedals(ctx, u, 100, 10)
	assert.ElementsMatch(t, []string{IDFirstTask, IDHundredTasks, IDSuperHappy}, u.unlocked)
}

func TestCheckStreakMedals(t *testing.T) {
	ctx := context.Background()

	u := &fakeUnlocker{}
	CheckStreakMedals(ctx, u, 6)
	assert.Empty(t, u.unlocked)

	u = &fakeUnlocker{}
	CheckStreakMedals(ctx, u, 7)
	assert.Equal(t, []string{IDStreak7}, u.unlocked)

	u = &fakeUnlocker{}
	CheckStreakMedals(ctx, u, 30)
	assert.ElementsMatch(t, []string{IDStreak7, IDStreak30}, u.unlocked)
}

func TestCheckLevelMedal(t *testing.T) {
	ctx := context.Background()

	u := &fakeUnlocker{}
	CheckLevelMedal(ctx, u, 49)
	assert.Empty(t, u.unlocked)

	CheckLevelMedal(ctx, u, 50)
	assert.Equal(t, []string{IDRoyal}, u.unlocked)
}

func TestCheckConsistencyMedal(t *testing.T) {
	ctx := context.Background()

	u := &fakeUnlocker{}
	CheckConsistencyMedal(ctx, u, 29)
	assert.Empty(t, u.unlocked)

	CheckConsistencyMedal(ctx, u, 30)
	assert.Equal(t, []string{IDConsistent30}, u.unlocked)
}
