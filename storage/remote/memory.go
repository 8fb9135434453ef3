package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jghoshh/streakr/models"
)

// MemoryRemote is an in-memory implementation of RemoteInterface used by
// tests and by hosts that want to run fully offline. Documents are stored
// JSON-encoded per collection and user, which gives Set/Get the same
// copy-on-write semantics as a real backend.
//
// GetErr and SetErr, when set, are returned by every read/write; tests use
// them to simulate unavailable or permission-denied backends.
type MemoryRemote struct {
	mu     sync.Mutex
	docs   map[string]map[string][]byte // collection -> userID -> doc
	sets   map[string]int               // collection -> write count
	GetErr error
	SetErr error
}

// NewMemoryRemote creates a new, empty in-memory remote store.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{
		docs: make(map[string]map[string][]byte),
		sets: make(map[string]int),
	}
}

// Connect is a no-op for the in-memory store.
func (m *MemoryRemote) Connect(dbName, uri string) error { return nil }

// Disconnect is a no-op for the in-memory store.
func (m *MemoryRemote) Disconnect() error { return nil }

// Clear drops every stored document. Write counts are preserved.
func (m *MemoryRemote) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]map[string][]byte)
}

// SetCount returns how many writes the named collection has received.
func (m *MemoryRemote) SetCount(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets[collection]
}

func (m *MemoryRemote) get(collection, userID string, out interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return m.GetErr
	}
	coll, ok := m.docs[collection]
	if !ok {
		return ErrNotFound
	}
	doc, ok := coll[userID]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(doc, out)
}

func (m *MemoryRemote) set(collection, userID string, doc interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string][]byte)
	}
	m.docs[collection][userID] = buf
	m.sets[collection]++
	return nil
}

// GetUserProgress reads the user's progress document.
func (m *MemoryRemote) GetUserProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	progress := &models.UserProgress{}
	if err := m.get("users", userID, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// SetUserProgress writes the user's progress document.
func (m *MemoryRemote) SetUserProgress(ctx context.Context, userID string, progress *models.UserProgress) error {
	return m.set("users", userID, progress)
}

// GetQuests reads the user's quest aggregate document.
func (m *MemoryRemote) GetQuests(ctx context.Context, userID string) (*models.QuestAggregate, error) {
	quests := &models.QuestAggregate{}
	if err := m.get("quests", userID, quests); err != nil {
		return nil, err
	}
	return quests, nil
}

// SetQuests writes the user's quest aggregate document.
func (m *MemoryRemote) SetQuests(ctx context.Context, userID string, quests *models.QuestAggregate) error {
	return m.set("quests", userID, quests)
}

// GetMedals reads the user's medal set document. The viewed flags are
// stripped the way the wire encoding does for the real backend.
func (m *MemoryRemote) GetMedals(ctx context.Context, userID string) (*models.MedalSet, error) {
	medals := &models.MedalSet{}
	if err := m.get("medals", userID, medals); err != nil {
		return nil, err
	}
	for i := range medals.Medals {
		medals.Medals[i].ViewedInVault = false
	}
	return medals, nil
}

// SetMedals writes the user's medal set document.
func (m *MemoryRemote) SetMedals(ctx context.Context, userID string, medals *models.MedalSet) error {
	stripped := &models.MedalSet{Medals: make([]models.Medal, len(medals.Medals))}
	copy(stripped.Medals, medals.Medals)
	for i := range stripped.Medals {
		stripped.Medals[i].ViewedInVault = false
	}
	return m.set("medals", userID, stripped)
}

// GetActivity reads the user's activity log document.
func (m *MemoryRemote) GetActivity(ctx context.Context, userID string) (*models.ActivityLog, error) {
	activity := &models.ActivityLog{}
	if err := m.get("activity", userID, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// SetActivity writes the user's activity log document.
func (m *MemoryRemote) SetActivity(ctx context.Context, userID string, activity *models.ActivityLog) error {
	return m.set("activity", userID, activity)
}
