// Package streak implements the day-streak state machine. It derives all
// transitions from the persisted lastActiveDate and the current calendar
// day, fires STREAK_UPDATED / STREAK_LOST events, and persists a one-shot
// loss marker so a loss detected before any subscriber is mounted is still
// delivered exactly once.
package streak

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"

	"github.com/jghoshh/streakr/event"
	"github.com/jghoshh/streakr/models"
	local "github.com/jghoshh/streakr/storage/local"
)

// lossMarkerKey holds the lost streak length as a JSON-encoded integer
// until the next mounted surface consumes it.
const lossMarkerKey = "STREAK_LOST"

// Progress is the slice of the user store the machine drives: it reads the
// streak counter and lastActiveDate and writes both back atomically.
type Progress interface {
	Progress() models.UserProgress
	SetStreak(ctx context.Context, streak int, lastActiveDate string) models.UserProgress
}

// Machine evaluates the streak transition rules. It holds no streak state
// of its own; the user store is the single owner.
type Machine struct {
	users  Progress
	local  local.LocalInterface
	events *event.Bus
	clock  func() time.Time
	logger *log.Logger
}

// New creates a streak machine. A nil clock means time.Now; a nil logger
// gets a stderr default.
func New(users Progress, localStore local.LocalInterface, events *event.Bus, clock func() time.Time, logger *log.Logger) *Machine {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[streak] ", log.LstdFlags)
	}
	return &Machine{users: users, local: localStore, events: events, clock: clock, logger: logger}
}

func (m *Machine) today() string {
	return models.Day(m.clock())
}

// CheckOnResume detects a streak loss across an inactivity gap. It runs on
// every app resume, before any quest completion: a gap of more than one
// calendar day resets the streak to 1, persists the loss marker and emits
// STREAK_LOST with the lost value. A backwards clock is treated as same-day.
func (m *Machine) CheckOnResume(ctx context.Context) error {
	progress := m.users.Progress()
	if progress.LastActiveDate == "" {
		return nil
	}
	today := m.today()
	switch delta := models.DaysBetween(progress.LastActiveDate, today); {
	case delta > 1:
		return m.lose(ctx, progress.Streak, today)
	case delta < 0:
		m.logger.Printf("lastActiveDate %s is after today %s, treating as same day", progress.LastActiveDate, today)
		m.users.SetStreak(ctx, progress.Streak, today)
	}
	return nil
}

// OnQuestCompleted advances the streak on the first quest completion of a
// calendar day. Later completions the same day are no-ops here; they still
// earn xp and medals elsewhere.
func (m *Machine) OnQuestCompleted(ctx context.Context, todayCompletedCount int) error {
	if todayCompletedCount != 1 {
		return nil
	}
	progress := m.users.Progress()
	today := m.today()

	if progress.LastActiveDate == "" {
		m.users.SetStreak(ctx, 1, today)
		m.events.Emit(event.StreakUpdated, 1)
		return nil
	}

	switch delta := models.DaysBetween(progress.LastActiveDate, today); {
	case delta == 0:
		return nil
	case delta == 1:
		streak := progress.Streak + 1
		m.users.SetStreak(ctx, streak, today)
		m.events.Emit(event.StreakUpdated, streak)
	case delta > 1:
		// Resume normally catches this first; handle it here too for the
		// app that stayed open across the gap.
		if err := m.lose(ctx, progress.Streak, today); err != nil {
			return err
		}
		m.events.Emit(event.StreakUpdated, 1)
	default:
		m.logger.Printf("lastActiveDate %s is after today %s, treating as same day", progress.LastActiveDate, today)
		m.users.SetStreak(ctx, progress.Streak, today)
	}
	return nil
}

// lose records the loss marker, resets the streak and emits STREAK_LOST.
func (m *Machine) lose(ctx context.Context, lostStreak int, today string) error {
	buf, err := json.Marshal(lostStreak)
	if err != nil {
		return err
	}
	if err := m.local.Set(ctx, lossMarkerKey, buf); err != nil {
		m.logger.Printf("failed to persist streak loss marker: %v", err)
	}
	m.users.SetStreak(ctx, 1, today)
	m.events.Emit(event.StreakLost, lostStreak)
	return nil
}

// ConsumeLossMarker reads and clears the pending loss marker. The second
// caller sees nothing: the first mounted surface wins the notification.
func (m *Machine) ConsumeLossMarker(ctx context.Context) (int, bool, error) {
	buf, err := m.local.Get(ctx, lossMarkerKey)
	if err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	var lost int
	if err := json.Unmarshal(buf, &lost); err != nil {
		m.logger.Printf("unparseable streak loss marker, discarding: %v", err)
		lost = 0
	}
	if err := m.local.Delete(ctx, lossMarkerKey); err != nil {
		m.logger.Printf("failed to clear streak loss marker: %v", err)
	}
	if lost == 0 {
		return 0, false, nil
	}
	return lost, true, nil
}
