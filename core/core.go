// Package core is the public facade of the sync layer. It wires the entity
// stores, the debounced write queue, the streak machine and the event bus
// together behind one API the UI calls; nothing in here is a global.
package core

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jghoshh/streakr/event"
	"github.com/jghoshh/streakr/medals"
	"github.com/jghoshh/streakr/models"
	"github.com/jghoshh/streakr/notify"
	"github.com/jghoshh/streakr/queue"
	"github.com/jghoshh/streakr/session"
	local "github.com/jghoshh/streakr/storage/local"
	remote "github.com/jghoshh/streakr/storage/remote"
	"github.com/jghoshh/streakr/store"
	"github.com/jghoshh/streakr/streak"
	"github.com/jghoshh/streakr/suggest"
)

// XPPerQuest is the experience granted per quest completion.
const XPPerQuest = 50

// Deps are the collaborators Core is built from. Local, Remote and Session
// are required; everything else has a working default.
type Deps struct {
	Local   local.LocalInterface
	Remote  remote.RemoteInterface
	Session session.Source
	// Producer publishes the daily quest-count signal. Nil disables it.
	Producer notify.Producer
	// Clock supplies the current time; nil means time.Now.
	Clock  func() time.Time
	Logger *log.Logger
	// DebounceOverride, when positive, replaces every per-entity debounce
	// window.
	DebounceOverride time.Duration
}

// Core is the facade the UI talks to.
type Core struct {
	deps     Deps
	queue    *queue.Queue
	events   *event.Bus
	users    *store.UserStore
	quests   *store.QuestStore
	medalSet *store.MedalStore
	activity *store.ActivityStore
	streaks  *streak.Machine
	logger   *log.Logger
}

// New builds a Core from explicit dependencies. It loads each store's
// persisted state from the local store and subscribes the comeback medal
// rule to streak losses.
func New(ctx context.Context, deps Deps) *Core {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[core] ", log.LstdFlags)
	}

	q := queue.New(logger)
	events := event.NewBus()
	storeDeps := &store.Deps{
		Local:            deps.Local,
		Remote:           deps.Remote,
		Queue:            q,
		Session:          deps.Session,
		Events:           events,
		Clock:            deps.Clock,
		Logger:           logger,
		DebounceOverride: deps.DebounceOverride,
	}

	c := &Core{
		deps:     deps,
		queue:    q,
		events:   events,
		users:    store.NewUserStore(ctx, storeDeps),
		quests:   store.NewQuestStore(ctx, storeDeps),
		medalSet: store.NewMedalStore(ctx, storeDeps),
		activity: store.NewActivityStore(ctx, storeDeps),
		logger:   logger,
	}
	c.streaks = streak.New(c.users, deps.Local, events, deps.Clock, logger)

	events.On(event.StreakLost, func(args ...interface{}) {
		medals.CheckComebackMedal(ctx, c.medalSet)
	})

	return c
}

// Open builds a Core wired to the real backends described by cfg.
func Open(ctx context.Context, cfg Config) (*Core, error) {
	localStore, err := local.NewLocalStore(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	remoteStore, err := remote.NewRemoteStore(cfg.DBName, cfg.MongoURI)
	if err != nil {
		localStore.Disconnect()
		return nil, err
	}

	var src session.Source = session.Static{Guest: true}
	if cfg.KeyringService != "" {
		src = &session.KeyringSource{
			Service:    cfg.KeyringService,
			Key:        cfg.KeyringKey,
			SigningKey: cfg.JWTSigningKey,
		}
	}

	var producer notify.Producer
	if cfg.AMQPURL != "" {
		producer, err = notify.NewAMQPProducer(cfg.AMQPURL)
		if err != nil {
			remoteStore.Disconnect()
			localStore.Disconnect()
			return nil, err
		}
	}

	return New(ctx, Deps{
		Local:            localStore,
		Remote:           remoteStore,
		Session:          src,
		Producer:         producer,
		DebounceOverride: cfg.DebounceOverride,
	}), nil
}

func (c *Core) now() time.Time {
	if c.deps.Clock != nil {
		return c.deps.Clock()
	}
	return time.Now()
}

// Progress returns the current user progress snapshot.
func (c *Core) Progress() models.UserProgress {
	return c.users.Progress()
}

// Quests returns the current quest list snapshot.
func (c *Core) Quests() []models.Quest {
	return c.quests.Quests()
}

// Medals returns the current medal set snapshot, viewed flags included.
func (c *Core) Medals() []models.Medal {
	return c.medalSet.Medals()
}

// AddXP grants experience directly. Level is re-derived and the royal medal
// rule is re-checked.
func (c *Core) AddXP(ctx context.Context, amount int) (models.UserProgress, error) {
	progress, err := c.users.AddXP(ctx, amount)
	if err != nil {
		return progress, err
	}
	medals.CheckLevelMedal(ctx, c.medalSet, progress.Level)
	return progress, nil
}

// AddQuest creates a new quest.
func (c *Core) AddQuest(ctx context.Context, title string, category models.QuestCategory) (models.Quest, error) {
	return c.quests.AddQuest(ctx, title, category)
}

// DeleteQuest removes a quest; unknown ids are a silent no-op.
func (c *Core) DeleteQuest(ctx context.Context, id string) {
	c.quests.DeleteQuest(ctx, id)
}

// ToggleQuest flips a quest's completion and, when the flip is a
// completion, runs the full completion side effects.
func (c *Core) ToggleQuest(ctx context.Context, id string) error {
	result, err := c.quests.ToggleQuest(ctx, id)
	if err != nil {
		return err
	}
	if !result.CompletedNow {
		return nil
	}
	return c.afterCompletion(ctx, result)
}

// CompleteQuest marks a quest complete. Completing an already-complete
// quest is a no-op; this never uncompletes.
func (c *Core) CompleteQuest(ctx context.Context, id string) error {
	for _, q := range c.quests.Quests() {
		if q.ID == id && q.Completed {
			return nil
		}
	}
	return c.ToggleQuest(ctx, id)
}

// afterCompletion runs the side effects of one quest completion: xp, the
// streak transition, activity, medal rules and the notification signal.
func (c *Core) afterCompletion(ctx context.Context, result store.ToggleResult) error {
	progress, err := c.users.AddXP(ctx, XPPerQuest)
	if err != nil {
		return err
	}
	if err := c.streaks.OnQuestCompleted(ctx, result.TodayCount); err != nil {
		return err
	}
	c.activity.MarkActiveToday(ctx)

	progress = c.users.Progress()
	medals.CheckQuestMedals(ctx, c.medalSet, result.TotalCompleted, result.TodayCount)
	medals.CheckStreakMedals(ctx, c.medalSet, progress.Streak)
	medals.CheckLevelMedal(ctx, c.medalSet, progress.Level)
	medals.CheckConsistencyMedal(ctx, c.medalSet, c.activity.ActiveDayCount())

	c.publishQuestCount(result.TodayCount)
	return nil
}

// publishQuestCount sends the quest-count signal. Failures are logged and
// dropped: losing a signal only delays a reminder.
func (c *Core) publishQuestCount(todayCount int) {
	if c.deps.Producer == nil {
		return
	}
	sess := c.deps.Session.Current()
	if sess.Guest {
		return
	}
	signal := notify.Signal{
		UserID:              sess.UserID,
		TodayCompletedCount: todayCount,
		Date:                models.Day(c.now()),
	}
	if err := c.deps.Producer.Publish(signal); err != nil {
		c.logger.Printf("failed to publish quest count signal: %v", err)
	}
}

// TodayQuestCount returns today's completion count, after the daily reset
// check.
func (c *Core) TodayQuestCount(ctx context.Context) int {
	return c.quests.TodayCompletedCount(ctx)
}

// SuggestQuest returns a quest idea not already on the user's list.
func (c *Core) SuggestQuest() suggest.Suggestion {
	return suggest.Suggest(c.quests.Quests())
}

// UnlockMedal unlocks a medal directly, for rules living outside this
// module (e.g. the all-features medal driven by UI navigation). Reports
// whether the medal transitioned on this call.
func (c *Core) UnlockMedal(ctx context.Context, id string) (bool, error) {
	return c.medalSet.Unlock(ctx, id)
}

// MarkMedalViewed records that the vault has shown a medal on this device.
func (c *Core) MarkMedalViewed(ctx context.Context, id string) {
	c.medalSet.MarkViewed(ctx, id)
}

// MarkAllMedalsViewed marks every unlocked medal as viewed.
func (c *Core) MarkAllMedalsViewed(ctx context.Context) {
	c.medalSet.MarkAllViewed(ctx)
}

// UnviewedMedalCount returns how many unlocked medals the vault has not
// shown yet.
func (c *Core) UnviewedMedalCount() int {
	return c.medalSet.UnviewedCount()
}

// Resume runs the app-resume sequence: streak loss detection, the daily
// counter reset, then the pull-and-merge pass.
func (c *Core) Resume(ctx context.Context) error {
	if err := c.streaks.CheckOnResume(ctx); err != nil {
		return err
	}
	c.quests.EnsureDailyReset(ctx)
	return c.PullAllFromRemote(ctx)
}

// PullAllFromRemote pulls and merges each entity independently. One
// entity's failure is logged and never blocks another's pull.
func (c *Core) PullAllFromRemote(ctx context.Context) error {
	if err := c.users.PullAndMerge(ctx); err != nil {
		c.logger.Printf("user progress pull failed: %v", err)
	}
	if err := c.quests.PullAndMerge(ctx); err != nil {
		c.logger.Printf("quest pull failed: %v", err)
	}
	if err := c.medalSet.PullAndMerge(ctx); err != nil {
		c.logger.Printf("medal pull failed: %v", err)
	}
	if err := c.activity.PullAndMerge(ctx); err != nil {
		c.logger.Printf("activity pull failed: %v", err)
	}
	return nil
}

// PushAllToRemote enqueues a debounced push for every entity.
func (c *Core) PushAllToRemote() {
	c.users.PushToRemote()
	c.quests.PushToRemote()
	c.medalSet.PushToRemote()
	c.activity.PushToRemote()
}

// SubscribeStreakUpdated registers a handler for streak advances. Returns
// an unsubscribe function.
func (c *Core) SubscribeStreakUpdated(handler func(streak int)) func() {
	return c.events.On(event.StreakUpdated, func(args ...interface{}) {
		if len(args) == 1 {
			if s, ok := args[0].(int); ok {
				handler(s)
			}
		}
	})
}

// SubscribeStreakLost registers a handler for streak losses, called with
// the lost streak length.
func (c *Core) SubscribeStreakLost(handler func(lostStreak int)) func() {
	return c.events.On(event.StreakLost, func(args ...interface{}) {
		if len(args) == 1 {
			if s, ok := args[0].(int); ok {
				handler(s)
			}
		}
	})
}

// SubscribeMedalUnlocked registers a handler for fresh medal unlocks.
func (c *Core) SubscribeMedalUnlocked(handler func(medal models.Medal)) func() {
	return c.events.On(event.MedalUnlocked, func(args ...interface{}) {
		if len(args) == 1 {
			if m, ok := args[0].(models.Medal); ok {
				handler(m)
			}
		}
	})
}

// ConsumeStreakLossMarker reads and clears the pending streak loss
// notification exactly once.
func (c *Core) ConsumeStreakLossMarker(ctx context.Context) (int, bool, error) {
	return c.streaks.ConsumeLossMarker(ctx)
}

// ResetProgress destroys the user's progress. The only operation that
// lowers xp.
func (c *Core) ResetProgress(ctx context.Context) {
	c.users.ResetProgress(ctx)
}

// Drain blocks until every pending and in-flight sync task has finished.
func (c *Core) Drain(ctx context.Context) error {
	return c.queue.Drain(ctx)
}

// Close drains the queue, stops the worker and disconnects the backends.
func (c *Core) Close(ctx context.Context) error {
	if err := c.queue.Drain(ctx); err != nil {
		c.logger.Printf("drain on close: %v", err)
	}
	c.queue.Close()

	var firstErr error
	if c.deps.Producer != nil {
		if err := c.deps.Producer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := c.deps.Remote.Disconnect(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.deps.Local.Disconnect(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
