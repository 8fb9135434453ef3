package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jghoshh/streakr/models"
	remote "github.com/jghoshh/streakr/storage/remote"
)

// ToggleResult reports the outcome of a quest toggle so callers can drive
// xp, streak and medal side effects without re-reading the aggregate.
type ToggleResult struct {
	Quest          models.Quest
	CompletedNow   bool
	TotalCompleted int
	TodayCount     int
}

// QuestStore owns the quest aggregate: the quest list and the completion
// counters. TotalCompletedQuests never decreases and serves as the logical
// clock when reconciling against the remote document.
type QuestStore struct {
	mu    sync.Mutex
	state models.QuestAggregate
	deps  *Deps
}

// starterQuests seeds a brand-new device so the home screen is never empty.
func starterQuests() []models.Quest {
	return []models.Quest{
		{ID: uuid.NewString(), Title: "Morning Run", Category: models.CategoryHealth},
		{ID: uuid.NewString(), Title: "Read 10 pages", Category: models.CategoryStudy},
		{ID: uuid.NewString(), Title: "Finish report", Category: models.CategoryWork},
	}
}

// NewQuestStore creates the store and loads persisted state from the local
// store. A missing or unparseable value falls back to the starter aggregate.
func NewQuestStore(ctx context.Context, deps *Deps) *QuestStore {
	s := &QuestStore{
		state: models.QuestAggregate{
			Quests:        starterQuests(),
			LastResetDate: models.Day(deps.now()),
		},
		deps: deps,
	}
	if buf, err := deps.Local.Get(ctx, questStorageKey); err == nil {
		var loaded models.QuestAggregate
		if err := json.Unmarshal(buf, &loaded); err == nil {
			s.state = loaded
		} else {
			deps.logf("unparseable %s, starting fresh: %v", questStorageKey, err)
		}
	}
	return s
}

// Aggregate returns a snapshot of the quest aggregate.
func (s *QuestStore) Aggregate() models.QuestAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *QuestStore) snapshotLocked() models.QuestAggregate {
	out := s.state
	out.Quests = make([]models.Quest, len(s.state.Quests))
	copy(out.Quests, s.state.Quests)
	return out
}

// Quests returns a snapshot of the quest list.
func (s *QuestStore) Quests() []models.Quest {
	return s.Aggregate().Quests
}

// TodayCompletedCount returns today's completion count, applying the daily
// reset the first time a new day is observed.
func (s *QuestStore) TodayCompletedCount(ctx context.Context) int {
	s.mu.Lock()
	changed := s.resetDailyLocked()
	count := s.state.TodayCompletedCount
	state := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.save(ctx, state)
	}
	return count
}

// EnsureDailyReset applies the daily counter reset if a new day has started.
// The reconciler calls it on every resume.
func (s *QuestStore) EnsureDailyReset(ctx context.Context) {
	s.TodayCompletedCount(ctx)
}

// resetDailyLocked zeroes todayCompletedCount the first time lastResetDate
// differs from today. Caller holds the lock.
func (s *QuestStore) resetDailyLocked() bool {
	today := models.Day(s.deps.now())
	if s.state.LastResetDate == today {
		return false
	}
	s.state.TodayCompletedCount = 0
	s.state.LastResetDate = today
	return true
}

// AddQuest validates and appends a new quest, then enqueues a push.
func (s *QuestStore) AddQuest(ctx context.Context, title string, category models.QuestCategory) (models.Quest, error) {
	if title == "" {
		return models.Quest{}, errors.New("quest title cannot be empty")
	}
	if len(title) > models.MaxQuestTitleLen {
		return models.Quest{}, fmt.Errorf("quest title cannot exceed %d characters", models.MaxQuestTitleLen)
	}
	if !category.Valid() {
		return models.Quest{}, fmt.Errorf("unknown quest category %q", category)
	}

	quest := models.Quest{
		ID:       uuid.NewString(),
		Title:    title,
		Category: category,
	}

	s.mu.Lock()
	s.state.Quests = append(s.state.Quests, quest)
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.save(ctx, state)
	s.PushToRemote()
	return quest, nil
}

// ToggleQuest flips a quest's completion. Completing sets completedAt and
// bumps both counters (after the daily reset check); uncompleting clears
// completedAt but never decrements the counters, which are monotonic.
func (s *QuestStore) ToggleQuest(ctx context.Context, id string) (ToggleResult, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.state.Quests {
		if s.state.Quests[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ToggleResult{}, fmt.Errorf("no quest found with id %s", id)
	}

	s.resetDailyLocked()

	quest := &s.state.Quests[idx]
	completedNow := !quest.Completed
	quest.Completed = completedNow
	if completedNow {
		now := s.deps.now()
		quest.CompletedAt = &now
		s.state.TotalCompletedQuests++
		s.state.TodayCompletedCount++
	} else {
		quest.CompletedAt = nil
	}

	result := ToggleResult{
		Quest:          *quest,
		CompletedNow:   completedNow,
		TotalCompleted: s.state.TotalCompletedQuests,
		TodayCount:     s.state.TodayCompletedCount,
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.save(ctx, state)
	s.PushToRemote()
	return result, nil
}

// DeleteQuest removes a quest by id. Deleting an unknown id is a no-op,
// matching the idempotent delete the UI expects.
func (s *QuestStore) DeleteQuest(ctx context.Context, id string) {
	s.mu.Lock()
	kept := s.state.Quests[:0]
	for _, q := range s.state.Quests {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	s.state.Quests = kept
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.save(ctx, state)
	s.PushToRemote()
}

// ResetDailyCount zeroes today's counter and stamps today as the reset date.
func (s *QuestStore) ResetDailyCount(ctx context.Context) {
	s.mu.Lock()
	s.state.TodayCompletedCount = 0
	s.state.LastResetDate = models.Day(s.deps.now())
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.save(ctx, state)
}

func (s *QuestStore) save(ctx context.Context, state models.QuestAggregate) {
	buf, err := json.Marshal(state)
	if err != nil {
		s.deps.logf("failed to encode quest aggregate: %v", err)
		return
	}
	s.deps.persist(ctx, questStorageKey, buf)
}

// PushToRemote enqueues a debounced push of the quest aggregate.
func (s *QuestStore) PushToRemote() {
	s.deps.Queue.Enqueue(questSyncKey, s.deps.window(questSyncWindow), func(ctx context.Context) error {
		sess := s.deps.Session.Current()
		if sess.Guest {
			s.deps.logf("guest session, skipping quest push")
			return nil
		}
		state := s.Aggregate()
		if err := s.deps.Remote.SetQuests(ctx, sess.UserID, &state); err != nil {
			if errors.Is(err, remote.ErrUnavailable) {
				s.deps.logf("offline - quest push will retry on next change")
				return nil
			}
			return err
		}
		return nil
	})
}

// PullAndMerge fetches the remote quest document and reconciles it against
// local state. The completion total is monotonic, so the side with the
// higher total wins outright; a tie is a no-op.
func (s *QuestStore) PullAndMerge(ctx context.Context) error {
	sess := s.deps.Session.Current()
	if sess.Guest {
		return nil
	}

	remoteState, err := s.deps.Remote.GetQuests(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			s.PushToRemote()
			return nil
		}
		if errors.Is(err, remote.ErrUnavailable) {
			s.deps.logf("offline - quest pull will retry on next resume")
			return nil
		}
		return err
	}

	s.mu.Lock()
	var pushBack bool
	switch {
	case remoteState.TotalCompletedQuests > s.state.TotalCompletedQuests:
		s.state = *remoteState
		if s.state.LastResetDate == "" {
			s.state.LastResetDate = models.Day(s.deps.now())
		}
	case s.state.TotalCompletedQuests > remoteState.TotalCompletedQuests:
		pushBack = true
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.save(ctx, state)
	if pushBack {
		s.PushToRemote()
	}
	return nil
}
