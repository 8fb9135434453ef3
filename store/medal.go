package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jghoshh/streakr/event"
	"github.com/jghoshh/streakr/medals"
	"github.com/jghoshh/streakr/models"
	remote "github.com/jghoshh/streakr/storage/remote"
)

// MedalStore owns the medal set. Unlocks are one-way and idempotent; the
// per-device viewed flags live in a separate local-only map so the merge
// never clobbers what this vault has already shown the user.
type MedalStore struct {
	mu     sync.Mutex
	state  models.MedalSet
	viewed map[string]bool
	deps   *Deps
}

// NewMedalStore creates the store, seeding from the fixed catalog and
// overlaying any persisted unlock state and viewed flags.
func NewMedalStore(ctx context.Context, deps *Deps) *MedalStore {
	s := &MedalStore{
		state:  models.MedalSet{Medals: medals.Catalog()},
		viewed: make(map[string]bool),
		deps:   deps,
	}
	if buf, err := deps.Local.Get(ctx, medalStorageKey); err == nil {
		var loaded models.MedalSet
		if err := json.Unmarshal(buf, &loaded); err == nil {
			s.overlayLocked(loaded.Medals)
		} else {
			deps.logf("unparseable %s, starting fresh: %v", medalStorageKey, err)
		}
	}
	if buf, err := deps.Local.Get(ctx, medalViewedKey); err == nil {
		var viewed map[string]bool
		if err := json.Unmarshal(buf, &viewed); err == nil {
			s.viewed = viewed
		} else {
			deps.logf("unparseable %s, starting fresh: %v", medalViewedKey, err)
		}
	}
	return s
}

// overlayLocked applies persisted unlock state over the catalog by id so a
// catalog change (new medal, reworded title) never loses unlocks. Caller
// holds the lock or is the constructor.
func (s *MedalStore) overlayLocked(persisted []models.Medal) {
	byID := make(map[string]models.Medal, len(persisted))
	for _, m := range persisted {
		byID[m.ID] = m
	}
	for i := range s.state.Medals {
		if p, ok := byID[s.state.Medals[i].ID]; ok {
			s.state.Medals[i].Unlocked = p.Unlocked
			s.state.Medals[i].UnlockedAt = p.UnlockedAt
		}
	}
}

// Medals returns a snapshot of the medal set with the per-device viewed
// flags folded in.
func (s *MedalStore) Medals() []models.Medal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Medal, len(s.state.Medals))
	copy(out, s.state.Medals)
	for i := range out {
		out[i].ViewedInVault = s.viewed[out[i].ID]
	}
	return out
}

// Unlock transitions a medal to unlocked. Already-unlocked medals are a
// no-op and report false; a fresh unlock stamps the time, persists, emits
// MEDAL_UNLOCKED and enqueues a push.
func (s *MedalStore) Unlock(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.state.Medals {
		if s.state.Medals[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, fmt.Errorf("no medal found with id %s", id)
	}
	if s.state.Medals[idx].Unlocked {
		s.mu.Unlock()
		return false, nil
	}
	now := s.deps.now()
	s.state.Medals[idx].Unlocked = true
	s.state.Medals[idx].UnlockedAt = &now
	unlocked := s.state.Medals[idx]
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.save(ctx, state)
	s.deps.Events.Emit(event.MedalUnlocked, unlocked)
	s.PushToRemote()
	return true, nil
}

// MarkViewed records that the vault has shown this medal on this device.
func (s *MedalStore) MarkViewed(ctx context.Context, id string) {
	s.mu.Lock()
	s.viewed[id] = true
	viewed := s.viewedSnapshotLocked()
	s.mu.Unlock()
	s.saveViewed(ctx, viewed)
}

// MarkAllViewed marks every currently unlocked medal as viewed.
func (s *MedalStore) MarkAllViewed(ctx context.Context) {
	s.mu.Lock()
	for _, m := range s.state.Medals {
		if m.Unlocked {
			s.viewed[m.ID] = true
		}
	}
	viewed := s.viewedSnapshotLocked()
	s.mu.Unlock()
	s.saveViewed(ctx, viewed)
}

// UnviewedCount returns how many unlocked medals the vault has not shown
// yet. The UI badges the vault tab with it.
func (s *MedalStore) UnviewedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.state.Medals {
		if m.Unlocked && !s.viewed[m.ID] {
			count++
		}
	}
	return count
}

func (s *MedalStore) snapshotLocked() models.MedalSet {
	out := models.MedalSet{Medals: make([]models.Medal, len(s.state.Medals))}
	copy(out.Medals, s.state.Medals)
	return out
}

func (s *MedalStore) viewedSnapshotLocked() map[string]bool {
	out := make(map[string]bool, len(s.viewed))
	for k, v := range s.viewed {
		out[k] = v
	}
	return out
}

func (s *MedalStore) save(ctx context.Context, state models.MedalSet) {
	buf, err := json.Marshal(state)
	if err != nil {
		s.deps.logf("failed to encode medal set: %v", err)
		return
	}
	s.deps.persist(ctx, medalStorageKey, buf)
}

func (s *MedalStore) saveViewed(ctx context.Context, viewed map[string]bool) {
	buf, err := json.Marshal(viewed)
	if err != nil {
		s.deps.logf("failed to encode medal viewed map: %v", err)
		return
	}
	s.deps.persist(ctx, medalViewedKey, buf)
}

// PushToRemote enqueues a debounced push of the medal set. Viewed flags are
// device-local and excluded from the remote document by the bson encoding.
func (s *MedalStore) PushToRemote() {
	s.deps.Queue.Enqueue(medalSyncKey, s.deps.window(medalSyncWindow), func(ctx context.Context) error {
		sess := s.deps.Session.Current()
		if sess.Guest {
			s.deps.logf("guest session, skipping medal push")
			return nil
		}
		s.mu.Lock()
		state := s.snapshotLocked()
		s.mu.Unlock()
		if err := s.deps.Remote.SetMedals(ctx, sess.UserID, &state); err != nil {
			if errors.Is(err, remote.ErrUnavailable) {
				s.deps.logf("offline - medal push will retry on next change")
				return nil
			}
			return err
		}
		return nil
	})
}

// PullAndMerge reconciles the remote medal set per id: unlocked is the OR of
// both sides, unlockedAt is the earliest stamp, and viewed flags stay
// whatever this device recorded. If the merge unlocked anything the remote
// did not have, the result is pushed back.
func (s *MedalStore) PullAndMerge(ctx context.Context) error {
	sess := s.deps.Session.Current()
	if sess.Guest {
		return nil
	}

	remoteState, err := s.deps.Remote.GetMedals(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			s.PushToRemote()
			return nil
		}
		if errors.Is(err, remote.ErrUnavailable) {
			s.deps.logf("offline - medal pull will retry on next resume")
			return nil
		}
		return err
	}

	remoteByID := make(map[string]models.Medal, len(remoteState.Medals))
	for _, m := range remoteState.Medals {
		remoteByID[m.ID] = m
	}

	s.mu.Lock()
	pushBack := false
	var freshlyUnlocked []models.Medal
	for i := range s.state.Medals {
		local := &s.state.Medals[i]
		rm, ok := remoteByID[local.ID]
		if !ok {
			if local.Unlocked {
				pushBack = true
			}
			continue
		}
		switch {
		case rm.Unlocked && !local.Unlocked:
			local.Unlocked = true
			local.UnlockedAt = rm.UnlockedAt
			freshlyUnlocked = append(freshlyUnlocked, *local)
		case local.Unlocked && !rm.Unlocked:
			pushBack = true
		case local.Unlocked && rm.Unlocked:
			if rm.UnlockedAt != nil && (local.UnlockedAt == nil || rm.UnlockedAt.Before(*local.UnlockedAt)) {
				local.UnlockedAt = rm.UnlockedAt
			} else if local.UnlockedAt != nil && (rm.UnlockedAt == nil || local.UnlockedAt.Before(*rm.UnlockedAt)) {
				pushBack = true
			}
		}
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.save(ctx, state)
	for _, m := range freshlyUnlocked {
		s.deps.Events.Emit(event.MedalUnlocked, m)
	}
	if pushBack {
		s.PushToRemote()
	}
	return nil
}
