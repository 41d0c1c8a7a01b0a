package calls

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	mongoCallsCollection      = "call_details"
	mongoVoicemailsCollection = "voicemail_details"
)

// MongoStore implements Store on two MongoDB collections.
// The client owns a connection pool; construct it once and share it.
type MongoStore struct {
	client     *mongo.Client
	calls      *mongo.Collection
	voicemails *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:     client,
		calls:      db.Collection(mongoCallsCollection),
		voicemails: db.Collection(mongoVoicemailsCollection),
	}
}

// EnsureIndexes creates the unique callId indexes on both collections.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "callId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.calls.Indexes().CreateOne(ctx, unique); err != nil {
		return persistErr("ensure indexes", "", err)
	}
	if _, err := s.voicemails.Indexes().CreateOne(ctx, unique); err != nil {
		return persistErr("ensure indexes", "", err)
	}
	return nil
}

func (s *MongoStore) SaveCall(ctx context.Context, rec CallRecord) error {
	_, err := s.calls.InsertOne(ctx, rec)
	return persistErr("save call", rec.CallID, err)
}

func (s *MongoStore) SaveVoicemail(ctx context.Context, vm VoicemailRecord) error {
	err := s.calls.FindOne(ctx, bson.M{"callId": vm.CallID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return persistErr("save voicemail", vm.CallID, ErrUnknownCall)
	}
	if err != nil {
		return persistErr("save voicemail", vm.CallID, err)
	}

	if _, err := s.voicemails.InsertOne(ctx, vm); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = ErrDuplicateVoicemail
		}
		return persistErr("save voicemail", vm.CallID, err)
	}
	return nil
}

func (s *MongoStore) ListCalls(ctx context.Context) ([]CallRecord, error) {
	cur, err := s.calls.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, persistErr("list calls", "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
	}
	out := make([]CallRecord, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, persistErr("list calls", "", err)
	}
	return out, nil
}

func (s *MongoStore) FindVoicemail(ctx context.Context, callID string) (VoicemailRecord, bool, error) {
	var vm VoicemailRecord
	err := s.voicemails.FindOne(ctx, bson.M{"callId": callID}).Decode(&vm)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return VoicemailRecord{}, false, nil
	}
	if err != nil {
		return VoicemailRecord{}, false, persistErr("find voicemail", callID, err)
	}
	return vm, true, nil
}

func (s *MongoStore) FindVoicemails(ctx context.Context, callIDs []string) (map[string]VoicemailRecord, error) {
	out := make(map[string]VoicemailRecord, len(callIDs))
	if len(callIDs) == 0 {
		return out, nil
	}
	cur, err := s.voicemails.Find(ctx, bson.M{"callId": bson.M{"$in": callIDs}})
	if err != nil {
		return nil, persistErr("find voicemails", "", err)
	}
	var found []VoicemailRecord
	if err := cur.All(ctx, &found); err != nil {
		return nil, persistErr("find voicemails", "", err)
	}
	for _, vm := range found {
		out[vm.CallID] = vm
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return persistErr("ping", "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
