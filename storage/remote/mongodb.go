package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jghoshh/streakr/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names, one per synchronized entity. Every collection is keyed
// by user id: collection/{userID} holds that user's single document.
const (
	usersCollection    = "users"
	questsCollection   = "quests"
	medalsCollection   = "medals"
	activityCollection = "activity"
)

// MongoRemote is a struct representing a MongoDB-backed remote document store.
// It provides an interface to read and merge-write the per-user entity
// documents the sync layer reconciles against.
type MongoRemote struct {
	client *mongo.Client
	dbName string
}

// NewMongoRemote creates a new instance of MongoRemote.
// This function doesn't establish a connection to the MongoDB server.
// To connect to the server, use the Connect method of the returned MongoRemote instance.
func NewMongoRemote() *MongoRemote {
	return &MongoRemote{}
}

// Connect establishes a connection to the MongoDB server at the given URI and
// database name. Returns an error if any issues are encountered.
func (m *MongoRemote) Connect(dbName, uri string) error {

	// Set a timeout for the connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("error connecting to MongoDB: %v", err)
	}

	m.client = client
	m.dbName = dbName

	return nil
}

// Disconnect closes the connection to the MongoDB server.
// It should be called when the MongoRemote instance is no longer needed.
// Returns an error if the disconnection process fails.
func (m *MongoRemote) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := m.client.Disconnect(ctx)
	if err != nil {
		return fmt.Errorf("error disconnecting from MongoDB: %v", err)
	}

	return nil
}

// classify maps driver errors onto the package's sentinel errors so the sync
// layer can branch on errors.Is without knowing the backend.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsTimeout(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// 13 Unauthorized, 18 AuthenticationFailed
		if cmdErr.Code == 13 || cmdErr.Code == 18 {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	return err
}

// getDoc decodes the single document for userID in the named collection.
func (m *MongoRemote) getDoc(ctx context.Context, collection, userID string, out interface{}) error {
	coll := m.client.Database(m.dbName).Collection(collection)
	result := coll.FindOne(ctx, bson.M{"_id": userID})
	if err := result.Decode(out); err != nil {
		return classify(err)
	}
	return nil
}

// setDoc merge-writes the document for userID in the named collection.
// The upsert creates the document on first write; updated_at is assigned
// server-side on every write.
func (m *MongoRemote) setDoc(ctx context.Context, collection, userID string, doc interface{}) error {
	coll := m.client.Database(m.dbName).Collection(collection)
	update := bson.M{
		"$set":         doc,
		"$currentDate": bson.M{"updated_at": true},
	}
	_, err := coll.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	return classify(err)
}

// GetUserProgress reads the user's progress document from the 'users' collection.
func (m *MongoRemote) GetUserProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	progress := &models.UserProgress{}
	if err := m.getDoc(ctx, usersCollection, userID, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// SetUserProgress merge-writes the user's progress document. Profile fields
// the auth collaborator keeps in the same document are left untouched.
func (m *MongoRemote) SetUserProgress(ctx context.Context, userID string, progress *models.UserProgress) error {
	return m.setDoc(ctx, usersCollection, userID, progress)
}

// GetQuests reads the user's quest aggregate document from the 'quests' collection.
func (m *MongoRemote) GetQuests(ctx context.Context, userID string) (*models.QuestAggregate, error) {
	quests := &models.QuestAggregate{}
	if err := m.getDoc(ctx, questsCollection, userID, quests); err != nil {
		return nil, err
	}
	return quests, nil
}

// SetQuests merge-writes the user's quest aggregate document.
func (m *MongoRemote) SetQuests(ctx context.Context, userID string, quests *models.QuestAggregate) error {
	return m.setDoc(ctx, questsCollection, userID, quests)
}

// GetMedals reads the user's medal set document from the 'medals' collection.
func (m *MongoRemote) GetMedals(ctx context.Context, userID string) (*models.MedalSet, error) {
	medals := &models.MedalSet{}
	if err := m.getDoc(ctx, medalsCollection, userID, medals); err != nil {
		return nil, err
	}
	return medals, nil
}

// SetMedals merge-writes the user's medal set document. The per-device
// viewed flags never reach the wire; the Medal bson encoding excludes them.
func (m *MongoRemote) SetMedals(ctx context.Context, userID string, medals *models.MedalSet) error {
	return m.setDoc(ctx, medalsCollection, userID, medals)
}

// GetActivity reads the user's activity log document from the 'activity' collection.
func (m *MongoRemote) GetActivity(ctx context.Context, userID string) (*models.ActivityLog, error) {
	activity := &models.ActivityLog{}
	if err := m.getDoc(ctx, activityCollection, userID, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// SetActivity merge-writes the user's activity log document.
func (m *MongoRemote) SetActivity(ctx context.Context, userID string, activity *models.ActivityLog) error {
	return m.setDoc(ctx, activityCollection, userID, activity)
}
