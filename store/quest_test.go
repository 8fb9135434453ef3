package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghoshh/streakr/models"
)

func TestNewQuestStoreSeedsStarters(t *testing.T) {
	f := newFixture(t)
	quests := NewQuestStore(context.Background(), f.deps)

	list := quests.Quests()
	require.Len(t, list, 3)
	for _, q := range list {
		assert.NotEmpty(t, q.ID)
		assert.False(t, q.Completed)
	}
}

func TestAddQuestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quests := NewQuestStore(ctx, f.deps)

	_, err := quests.AddQuest(ctx, "", models.CategoryHealth)
	assert.Error(t, err)

	_, err = quests.AddQuest(ctx, strings.Repeat("x", models.MaxQuestTitleLen+1), models.CategoryHealth)
	assert.Error(t, err)

	_, err = quests.AddQuest(ctx, "Nap aggressively", models.QuestCategory("SLEEP"))
	assert.Error(t, err)

	quest, err := quests.AddQuest(ctx, "Morning stretch", models.CategoryHealth)
	require.NoError(t, err)
	assert.NotEmpty(t, quest.ID)
	assert.Len(t, quests.Quests(), 4)
}

func TestToggleQuestCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quests := NewQuestStore(ctx, f.deps)
	quest, err := quests.AddQuest(ctx, "Write tests", models.CategoryWork)
	require.NoError(t, err)

	result, err := quests.ToggleQuest(ctx, quest.ID)
	require.NoError(t, err)
	assert.True(t, result.CompletedNow)
	assert.NotNil(t, result.Quest.CompletedAt)
	assert.Equal(t, 1, result.TotalCompleted)
	assert.Equal(t, 1, result.TodayCount)

	// Uncompleting clears the timestamp but the counters stay.
	result, err = quests.ToggleQuest(ctx, quest.ID)
	require.NoError(t, err)
	assert.False(t, result.CompletedNow)
	assert.Nil(t, result.Quest.CompletedAt)
	assert.Equal(t, 1, result.TotalCompleted)
	assert.Equal(t, 1, result.TodayCount)
}

func TestToggleUnknownQuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quests := NewQuestStore(ctx, f.deps)

	_, err := quests.ToggleQuest(ctx, "nope")
	assert.Error(t, err)
}

func TestDailyCountResetsOnNewDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quests := NewQuestStore(ctx, f.deps)
	quest, err := quests.AddQuest(ctx, "Inbox zero", models.CategoryWork)
	require.NoError(t, err)

	quests.ToggleQuest(ctx, quest.ID)
	assert.Equal(t, 1, quests.TodayCompletedCount(ctx))

	f.clock.SetDay("2024-03-08")
	assert.Equal(t, 0, quests.TodayCompletedCount(ctx))
	// Lifetime total is untouched by the rollover.
	assert.Equal(t, 1, quests.Aggregate().TotalCompletedQuests)
}

func TestDeleteQuestIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quests := NewQuestStore(ctx, f.deps)
	quest, err := quests.AddQuest(ctx, "Call the bank", models.CategoryWork)
	require.NoError(t, err)

	before := len(quests.Quests())
	quests.DeleteQuest(ctx, quest.ID)
	assert.Len(t, quests.Quests(), before-1)

	// Deleting again (or deleting a made-up id) is a silent no-op.
	quests.DeleteQuest(ctx, quest.ID)
	quests.DeleteQuest(ctx, "made-up")
	assert.Len(t, quests.Quests(), before-1)
}

func TestQuestStateSurvivesReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quests := NewQuestStore(ctx, f.deps)
	quest, err := quests.AddQuest(ctx, "Stretch", models.CategoryHealth)
	require.NoError(t, err)
	quests.ToggleQuest(ctx, quest.ID)

	reloaded := NewQuestStore(ctx, f.deps)
	assert.Equal(t, 1, reloaded.Aggregate().TotalCompletedQuests)
	assert.Len(t, reloaded.Quests(), 4)
}

func TestQuestPullRemoteAheadWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quests := NewQuestStore(ctx, f.deps)

	remoteAgg := &models.QuestAggregate{
		Quests: []models.Quest{
			{ID: "r1", Title: "Remote quest", Category: models.CategoryStudy, Completed: true},
		},
		TotalCompletedQuests: 5,
		LastResetDate:        "2024-03-06",
	}
	require.NoError(t, f.remote.SetQuests(ctx, testUserID, remoteAgg))

	require.NoError(t, quests.PullAndMerge(ctx))

	agg := quests.Aggregate()
	assert.Equal(t, 5, agg.TotalCompletedQuests)
	require.Len(t, agg.Quests, 1)
	assert.Equal(t, "r1", agg.Quests[0].ID)
}

func TestQuestPullLocalAheadPushesBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quests := NewQuestStore(ctx, f.deps)
	quest, err := quests.AddQuest(ctx, "Deep work", models.CategoryWork)
	require.NoError(t, err)
	quests.ToggleQuest(ctx, quest.ID)
	f.drain(t)

	require.NoError(t, f.remote.SetQuests(ctx, testUserID, &models.QuestAggregate{
		TotalCompletedQuests: 0,
	}))

	require.NoError(t, quests.PullAndMerge(ctx))
	f.drain(t)

	stored, err := f.remote.GetQuests(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalCompletedQuests)
	assert.Len(t, stored.Quests, 4)
}

func TestQuestPullTieIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quests := NewQuestStore(ctx, f.deps)
	f.drain(t)

	require.NoError(t, f.remote.SetQuests(ctx, testUserID, &models.QuestAggregate{
		Quests:               []models.Quest{{ID: "r1", Title: "Other device quest", Category: models.CategoryWork}},
		TotalCompletedQuests: 0,
	}))
	writesBefore := f.remote.SetCount("quests")

	before := quests.Aggregate()
	require.NoError(t, quests.PullAndMerge(ctx))
	f.drain(t)

	// Equal totals: neither side overwrites the other.
	assert.Equal(t, before, quests.Aggregate())
	assert.Equal(t, writesBefore, f.remote.SetCount("quests"))
}
