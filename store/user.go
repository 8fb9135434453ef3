package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jghoshh/streakr/models"
	remote "github.com/jghoshh/streakr/storage/remote"
)

// UserStore owns the user's progress state: xp, derived level, streak
// counter and last-active date. XP never decreases; the level invariant
// level == xp/500+1 is re-derived on every mutation and every merge.
type UserStore struct {
	mu    sync.Mutex
	state models.UserProgress
	deps  *Deps
}

// NewUserStore creates the store and loads persisted state from the local
// store. A missing or unparseable value falls back to a fresh profile.
func NewUserStore(ctx context.Context, deps *Deps) *UserStore {
	s := &UserStore{
		state: models.UserProgress{Level: 1, Streak: 1},
		deps:  deps,
	}
	if buf, err := deps.Local.Get(ctx, userStorageKey); err == nil {
		var loaded models.UserProgress
		if err := json.Unmarshal(buf, &loaded); err == nil {
			loaded.Level = models.LevelForXP(loaded.XP)
			s.state = loaded
		} else {
			deps.logf("unparseable %s, starting fresh: %v", userStorageKey, err)
		}
	}
	return s
}

// Progress returns a snapshot of the current progress state.
func (s *UserStore) Progress() models.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddXP grants experience and re-derives the level. Negative amounts are
// rejected: xp is monotonically non-decreasing. The updated progress is
// returned and a remote push is enqueued.
func (s *UserStore) AddXP(ctx context.Context, amount int) (models.UserProgress, error) {
	if amount < 0 {
		return s.Progress(), errors.New("xp amount cannot be negative")
	}
	s.mu.Lock()
	s.state.XP += amount
	s.state.Level = models.LevelForXP(s.state.XP)
	state := s.state
	s.mu.Unlock()

	s.save(ctx, state)
	s.PushToRemote()
	return state, nil
}

// SetStreak records a streak transition decided by the streak machine and
// stamps the last-active date.
func (s *UserStore) SetStreak(ctx context.Context, streak int, lastActiveDate string) models.UserProgress {
	s.mu.Lock()
	s.state.Streak = streak
	s.state.LastActiveDate = lastActiveDate
	state := s.state
	s.mu.Unlock()

	s.save(ctx, state)
	s.PushToRemote()
	return state
}

// ResetProgress destroys the user's progress: the only operation allowed to
// lower xp, reserved for explicit account reset.
func (s *UserStore) ResetProgress(ctx context.Context) {
	s.mu.Lock()
	s.state = models.UserProgress{Level: 1, Streak: 1}
	state := s.state
	s.mu.Unlock()

	s.save(ctx, state)
	s.PushToRemote()
}

func (s *UserStore) save(ctx context.Context, state models.UserProgress) {
	buf, err := json.Marshal(state)
	if err != nil {
		s.deps.logf("failed to encode user progress: %v", err)
		return
	}
	s.deps.persist(ctx, userStorageKey, buf)
}

// PushToRemote enqueues a debounced push of the progress state. The task
// reads current state when it fires, so a burst of mutations sends one
// write carrying the final values.
func (s *UserStore) PushToRemote() {
	s.deps.Queue.Enqueue(userSyncKey, s.deps.window(userSyncWindow), func(ctx context.Context) error {
		sess := s.deps.Session.Current()
		if sess.Guest {
			s.deps.logf("guest session, skipping user progress push")
			return nil
		}
		state := s.Progress()
		if err := s.deps.Remote.SetUserProgress(ctx, sess.UserID, &state); err != nil {
			if errors.Is(err, remote.ErrUnavailable) {
				s.deps.logf("offline - user progress push will retry on next change")
				return nil
			}
			return err
		}
		return nil
	})
}

// PullAndMerge fetches the remote progress document and reconciles it with
// local state. XP is monotonic, so whichever side has higher xp is the more
// advanced state: if remote wins, local is overwritten fully; if local wins,
// a push is enqueued. A missing remote document triggers the initial push.
func (s *UserStore) PullAndMerge(ctx context.Context) error {
	sess := s.deps.Session.Current()
	if sess.Guest {
		return nil
	}

	remoteState, err := s.deps.Remote.GetUserProgress(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			s.PushToRemote()
			return nil
		}
		if errors.Is(err, remote.ErrUnavailable) {
			s.deps.logf("offline - user progress pull will retry on next resume")
			return nil
		}
		return err
	}

	s.mu.Lock()
	local := s.state
	var pushBack bool
	switch {
	case remoteState.XP > local.XP:
		merged := *remoteState
		merged.Level = models.LevelForXP(merged.XP)
		s.state = merged
	case local.XP > remoteState.XP:
		pushBack = true
	}
	state := s.state
	s.mu.Unlock()

	s.save(ctx, state)
	if pushBack {
		s.PushToRemote()
	}
	return nil
}
