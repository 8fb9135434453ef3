package streak

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jghoshh/streakr/event"
	"github.com/jghoshh/streakr/models"
	local "github.com/jghoshh/streakr/storage/local"
)

// fakeProgress is an in-memory stand-in for the user store.
type fakeProgress struct {
	state models.UserProgress
}

func (f *fakeProgress) Progress() models.UserProgress {
	return f.state
}

func (f *fakeProgress) SetStreak(ctx context.Context, streak int, lastActiveDate string) models.UserProgress {
	f.state.Streak = streak
	f.state.LastActiveDate = lastActiveDate
	return f.state
}

type harness struct {
	users   *fakeProgress
	machine *Machine
	day     string
	updates []int
	losses  []int
}

func newHarness(t *testing.T, streak int, lastActiveDate string) *harness {
	t.Helper()
	h := &harness{
		users: &fakeProgress{state: models.UserProgress{Streak: streak, LastActiveDate: lastActiveDate}},
		day:   "2024-03-07",
	}
	bus := event.NewBus()
	bus.On(event.StreakUpdated, func(args ...interface{}) {
		h.updates = append(h.updates, args[0].(int))
	})
	bus.On(event.StreakLost, func(args ...interface{}) {
		h.losses = append(h.losses, args[0].(int))
	})
	clock := func() time.Time {
		d, _ := time.Parse("2006-01-02", h.day)
		return d
	}
	h.machine = New(h.users, local.NewMemoryLocal(), bus, clock, nil)
	return h
}

func TestFirstEverCompletionStartsStreak(t *testing.T) {
	h := newHarness(t, 0, "")
	ctx := context.Background()

	require.NoError(t, h.machine.OnQuestCompleted(ctx, 1))

	assert.Equal(t, 1, h.users.state.Streak)
	assert.Equal(t, "2024-03-07", h.users.state.LastActiveDate)
	assert.Equal(t, []int{1}, h.updates)
	assert.Empty(t, h.losses)
}

func TestNextDayCompletionAdvancesStreak(t *testing.T) {
	h := newHarness(t, 3, "2024-03-06")
	ctx := context.Background()

	require.NoError(t, h.machine.OnQuestCompleted(ctx, 1))

	assert.Equal(t, 4, h.users.state.Streak)
	assert.Equal(t, []int{4}, h.updates)
}

func TestOnlyFirstCompletionOfDayAdvances(t *testing.T) {
	h := newHarness(t, 3, "2024-03-06")
	ctx := context.Background()

	require.NoError(t, h.machine.OnQuestCompleted(ctx, 1))
	require.NoError(t, h.machine.OnQuestCompleted(ctx, 2))
	require.NoError(t, h.machine.OnQuestCompleted(ctx, 3))

	assert.Equal(t, 4, h.users.state.Streak)
	assert.Equal(t, []int{4}, h.updates)
}

func TestSameDayCompletionIsNoop(t *testing.T) {
	h := newHarness(t, 5, "2024-03-07")
	ctx := context.Background()

	require.NoError(t, h.machine.OnQuestCompleted(ctx, 1))

	assert.Equal(t, 5, h.users.state.Streak)
	assert.Empty(t, h.updates)
	assert.Empty(t, h.losses)
}

func TestResumeAfterOneDayGapKeepsStreakAtRisk(t *testing.T) {
	h := newHarness(t, 5, "2024-03-06")
	ctx := context.Background()

	require.NoError(t, h.machine.CheckOnResume(ctx))

	// One calendar day elapsed: the streak is at risk but not lost, and
	// lastActiveDate is untouched so a completion today still advances it.
	assert.Equal(t, 5, h.users.state.Streak)
	assert.Equal(t, "2024-03-06", h.users.state.LastActiveDate)
	assert.Empty(t, h.updates)
	assert.Empty(t, h.losses)
}

func TestResumeAfterGapLosesStreak(t *testing.T) {
	h := newHarness(t, 7, "2024-03-04")
	ctx := context.Background()

	require.NoError(t, h.machine.CheckOnResume(ctx))

	assert.Equal(t, 1, h.users.state.Streak)
	assert.Equal(t, "2024-03-07", h.users.state.LastActiveDate)
	assert.Equal(t, []int{7}, h.losses)
	assert.Empty(t, h.updates)
}

func TestLossMarkerConsumedExactlyOnce(t *testing.T) {
	h := newHarness(t, 9, "2024-03-01")
	ctx := context.Background()

	require.NoError(t, h.machine.CheckOnResume(ctx))

	lost, ok, err := h.machine.ConsumeLossMarker(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 9, lost)

	// Second consumer sees nothing.
	_, ok, err = h.machine.ConsumeLossMarker(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumeWithoutLossIsEmpty(t *testing.T) {
	h := newHarness(t, 2, "2024-03-07")
	ctx := context.Background()

	_, ok, err := h.machine.ConsumeLossMarker(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompletionAfterGapLosesThenRestarts(t *testing.T) {
	h := newHarness(t, 6, "2024-03-03")
	ctx := context.Background()

	// The app stayed open across the gap, so the completion path detects
	// the loss itself.
	require.NoError(t, h.machine.OnQuestCompleted(ctx, 1))

	assert.Equal(t, 1, h.users.state.Streak)
	assert.Equal(t, []int{6}, h.losses)
	assert.Equal(t, []int{1}, h.updates)
}

func TestBackwardsClockTreatedAsSameDay(t *testing.T) {
	h := newHarness(t, 4, "2024-03-09")
	ctx := context.Background()

	require.NoError(t, h.machine.CheckOnResume(ctx))

	assert.Equal(t, 4, h.users.state.Streak)
	assert.Equal(t, "2024-03-07", h.users.state.LastActiveDate)
	assert.Empty(t, h.updates)
	assert.Empty(t, h.losses)

	require.NoError(t, h.machine.OnQuestCompleted(ctx, 1))
	assert.Equal(t, 4, h.users.state.Streak)
	assert.Empty(t, h.updates)
}

func TestResumeBeforeFirstActivityIsNoop(t *testing.T) {
	h := newHarness(t, 1, "")
	ctx := context.Background()

	require.NoError(t, h.machine.CheckOnResume(ctx))

	assert.Empty(t, h.updates)
	assert.Empty(t, h.losses)
}
