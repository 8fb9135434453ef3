// Package store holds the four entity stores the sync layer reconciles:
// user progress, the quest aggregate, the medal set, and the activity log.
// Each store is the sole owner of its in-memory state, persists it to the
// device-local store on every mutation, and enqueues a debounced remote push
// so offline mutation is always instant and synchronization catches up
// silently.
package store

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jghoshh/streakr/event"
	"github.com/jghoshh/streakr/queue"
	"github.com/jghoshh/streakr/session"
	local "github.com/jghoshh/streakr/storage/local"
	remote "github.com/jghoshh/streakr/storage/remote"
)

// Local-store keys, one per entity aggregate plus the raw activity pair and
// the local-only medal viewed map.
const (
	userStorageKey   = "user-storage"
	questStorageKey  = "quest-storage"
	medalStorageKey  = "medal-storage"
	activeDaysKey    = "activeDays"
	lastActiveKey    = "lastActiveDate"
	medalViewedKey   = "medalViewedStatus"
)

// Debounce keys and windows per entity. A stable key per entity means a
// burst of mutations coalesces into one remote write carrying final state.
const (
	userSyncKey     = "user-progress-sync"
	questSyncKey    = "quest-sync"
	medalSyncKey    = "medal-sync"
	activitySyncKey = "activity-sync"

	userSyncWindow     = 1500 * time.Millisecond
	questSyncWindow    = 1000 * time.Millisecond
	medalSyncWindow    = 1000 * time.Millisecond
	activitySyncWindow = 2000 * time.Millisecond
)

// Deps bundles the collaborators every entity store needs. Stores are
// constructed once at startup and passed by reference; nothing in this
// package is a global.
type Deps struct {
	Local   local.LocalInterface
	Remote  remote.RemoteInterface
	Queue   *queue.Queue
	Session session.Source
	Events  *event.Bus
	// Clock supplies the current time; nil means time.Now. Injected so
	// tests can simulate day rollovers deterministically.
	Clock  func() time.Time
	Logger *log.Logger
	// DebounceOverride, when positive, replaces every per-entity debounce
	// window. Tests use it to keep windows short.
	DebounceOverride time.Duration
}

func (d *Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

func (d *Deps) window(w time.Duration) time.Duration {
	if d.DebounceOverride > 0 {
		return d.DebounceOverride
	}
	return w
}

func (d *Deps) logf(format string, args ...interface{}) {
	if d.Logger == nil {
		d.Logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}
	d.Logger.Printf(format, args...)
}

// persist JSON-encodes state under key. Local durability failures are logged
// and swallowed: the in-memory mutation already succeeded and is the
// user-visible result.
func (d *Deps) persist(ctx context.Context, key string, value []byte) {
	if err := d.Local.Set(ctx, key, value); err != nil {
		d.logf("failed to persist %s: %v", key, err)
	}
}
