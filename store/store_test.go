package store

import (
	"bytes"
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jghoshh/streakr/event"
	"github.com/jghoshh/streakr/queue"
	"github.com/jghoshh/streakr/session"
	local "github.com/jghoshh/streakr/storage/local"
	remote "github.com/jghoshh/streakr/storage/remote"
)

const testUserID = "user-1"

// testClock is a settable clock injected into the stores so day rollovers
// are deterministic.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(day string) *testClock {
	t, _ := time.Parse("2006-01-02", day)
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *testClock) SetDay(day string) {
	t, _ := time.Parse("2006-01-02", day)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fixture bundles a full set of in-memory collaborators around a Deps.
type fixture struct {
	deps   *Deps
	remote *remote.MemoryRemote
	clock  *testClock
	logBuf *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newTestClock("2024-03-07")
	mem := remote.NewMemoryRemote()
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	q := queue.New(logger)
	t.Cleanup(q.Close)

	return &fixture{
		deps: &Deps{
			Local:            local.NewMemoryLocal(),
			Remote:           mem,
			Queue:            q,
			Session:          session.Static{UserID: testUserID},
			Events:           event.NewBus(),
			Clock:            clock.Now,
			Logger:           logger,
			DebounceOverride: time.Millisecond,
		},
		remote: mem,
		clock:  clock,
		logBuf: &buf,
	}
}

func (f *fixture) guest() *fixture {
	f.deps.Session = session.Static{Guest: true}
	return f
}

// drain waits for every enqueued push to finish.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.deps.Queue.Drain(ctx))
}
