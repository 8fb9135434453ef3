package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/jghoshh/streakr/models"
	remote "github.com/jghoshh/streakr/storage/remote"
)

// ActivityStore owns the activity log: the append-only set of calendar days
// with any activity, plus the most recent one. It persists the two pieces
// under separate local keys so either survives independently.
type ActivityStore struct {
	mu    sync.Mutex
	state models.ActivityLog
	deps  *Deps
}

// NewActivityStore creates the store and loads persisted state.
func NewActivityStore(ctx context.Context, deps *Deps) *ActivityStore {
	s := &ActivityStore{deps: deps}
	if buf, err := deps.Local.Get(ctx, activeDaysKey); err == nil {
		var days []string
		if err := json.Unmarshal(buf, &days); err == nil {
			s.state.ActiveDays = days
		} else {
			deps.logf("unparseable %s, starting fresh: %v", activeDaysKey, err)
		}
	}
	if buf, err := deps.Local.Get(ctx, lastActiveKey); err == nil {
		s.state.LastActiveDate = string(buf)
	}
	return s
}

// Log returns a snapshot of the activity log.
func (s *ActivityStore) Log() models.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ActivityStore) snapshotLocked() models.ActivityLog {
	out := s.state
	out.ActiveDays = make([]string, len(s.state.ActiveDays))
	copy(out.ActiveDays, s.state.ActiveDays)
	return out
}

// ActiveDayCount returns how many distinct days had activity.
func (s *ActivityStore) ActiveDayCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.ActiveDays)
}

// LastActiveDate returns the most recent active day, empty if none.
func (s *ActivityStore) LastActiveDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastActiveDate
}

// MarkActiveToday records today as active. An already-recorded day only
// refreshes lastActiveDate. Reports whether today was newly added.
func (s *ActivityStore) MarkActiveToday(ctx context.Context) bool {
	today := models.Day(s.deps.now())

	s.mu.Lock()
	added := false
	if !containsDay(s.state.ActiveDays, today) {
		s.state.ActiveDays = append(s.state.ActiveDays, today)
		sort.Strings(s.state.ActiveDays)
		added = true
	}
	changed := added || s.state.LastActiveDate != today
	s.state.LastActiveDate = today
	state := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.save(ctx, state)
		s.PushToRemote()
	}
	return added
}

func containsDay(days []string, day string) bool {
	i := sort.SearchStrings(days, day)
	return i < len(days) && days[i] == day
}

func (s *ActivityStore) save(ctx context.Context, state models.ActivityLog) {
	buf, err := json.Marshal(state.ActiveDays)
	if err != nil {
		s.deps.logf("failed to encode active days: %v", err)
		return
	}
	s.deps.persist(ctx, activeDaysKey, buf)
	s.deps.persist(ctx, lastActiveKey, []byte(state.LastActiveDate))
}

// PushToRemote enqueues a debounced push of the activity log.
func (s *ActivityStore) PushToRemote() {
	s.deps.Queue.Enqueue(activitySyncKey, s.deps.window(activitySyncWindow), func(ctx context.Context) error {
		sess := s.deps.Session.Current()
		if sess.Guest {
			s.deps.logf("guest session, skipping activity push")
			return nil
		}
		state := s.Log()
		if err := s.deps.Remote.SetActivity(ctx, sess.UserID, &state); err != nil {
			if errors.Is(err, remote.ErrUnavailable) {
				s.deps.logf("offline - activity push will retry on next change")
				return nil
			}
			return err
		}
		return nil
	})
}

// PullAndMerge unions the remote day set into the local one and keeps the
// later lastActiveDate. The merged result is pushed back unconditionally:
// the union is almost always a superset of what either side held.
func (s *ActivityStore) PullAndMerge(ctx context.Context) error {
	sess := s.deps.Session.Current()
	if sess.Guest {
		return nil
	}

	remoteState, err := s.deps.Remote.GetActivity(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			s.PushToRemote()
			return nil
		}
		if errors.Is(err, remote.ErrUnavailable) {
			s.deps.logf("offline - activity pull will retry on next resume")
			return nil
		}
		return err
	}

	s.mu.Lock()
	merged := make(map[string]struct{}, len(s.state.ActiveDays)+len(remoteState.ActiveDays))
	for _, d := range s.state.ActiveDays {
		merged[d] = struct{}{}
	}
	for _, d := range remoteState.ActiveDays {
		merged[d] = struct{}{}
	}
	days := make([]string, 0, len(merged))
	for d := range merged {
		days = append(days, d)
	}
	sort.Strings(days)
	s.state.ActiveDays = days
	if remoteState.LastActiveDate > s.state.LastActiveDate {
		s.state.LastActiveDate = remoteState.LastActiveDate
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.save(ctx, state)
	s.PushToRemote()
	return nil
}
