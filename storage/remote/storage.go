package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jghoshh/streakr/models"
)

// Sentinel errors used by the sync layer to pick a recovery path.
// ErrNotFound means the user has no document for the entity yet, which the
// merge policies treat as "push local as the initial document", not a failure.
var (
	ErrNotFound         = errors.New("document does not exist")
	ErrUnavailable      = errors.New("remote store unavailable")
	ErrPermissionDenied = errors.New("remote store permission denied")
)

// RemoteInterface defines the set of methods that any remote document store
// backend needs to implement. Each user owns one document per entity,
// addressed by user id; Set performs a merge write (missing documents are
// created, unrelated server-side fields are left alone).
type RemoteInterface interface {
	// Establishes a connection to the storage backend.
	Connect(dbName, uri string) error
	// Disconnects from the storage backend.
	Disconnect() error
	// Reads the user's progress document.
	GetUserProgress(ctx context.Context, userID string) (*models.UserProgress, error)
	// Merge-writes the user's progress document.
	SetUserProgress(ctx context.Context, userID string, progress *models.UserProgress) error
	// Reads the user's quest aggregate document.
	GetQuests(ctx context.Context, userID string) (*models.QuestAggregate, error)
	// Merge-writes the user's quest aggregate document.
	SetQuests(ctx context.Context, userID string, quests *models.QuestAggregate) error
	// Reads the user's medal set document.
	GetMedals(ctx context.Context, userID string) (*models.MedalSet, error)
	// Merge-writes the user's medal set document.
	SetMedals(ctx context.Context, userID string, medals *models.MedalSet) error
	// Reads the user's activity log document.
	GetActivity(ctx context.Context, userID string) (*models.ActivityLog, error)
	// Merge-writes the user's activity log document.
	SetActivity(ctx context.Context, userID string, activity *models.ActivityLog) error
}

// NewRemoteStore creates a new RemoteInterface with a MongoDB backend,
// using the provided URI to connect to the MongoDB server.
func NewRemoteStore(dbName, uri string) (RemoteInterface, error) {
	remote := NewMongoRemote()
	if err := remote.Connect(dbName, uri); err != nil {
		return nil, fmt.Errorf("failed to initialize remote storage: %w", err)
	}
	return remote, nil
}
