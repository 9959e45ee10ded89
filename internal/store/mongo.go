package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babcheck/babcheck/backend/internal/models"
)

// MongoStore keeps records in MongoDB, one collection per record kind.
type MongoStore struct {
	db *mongo.Database
}

var _ RecordStore = (*MongoStore)(nil)

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func recordKey(userID, date, kind string) bson.M {
	return bson.M{"userId": userID, "date": date, "type": kind}
}

func (s *MongoStore) UpsertFoodRecord(ctx context.Context, rec *models.FoodRecord) (bool, error) {
	collection := s.db.Collection(models.CollectionFoodRecords)
	filter := recordKey(rec.UserID, rec.Date, string(rec.Type))

	var existing models.FoodRecord
	err := collection.FindOne(ctx, filter).Decode(&existing)
	now := time.Now()
	rec.UpdatedAt = now

	if errors.Is(err, mongo.ErrNoDocuments) {
		rec.ID = uuid.New().String()
		rec.CreatedAt = now
		if _, err := collection.InsertOne(ctx, rec); err != nil {
			return false, mongoError("create food record", err)
		}
		return true, nil
	}
	if err != nil {
		return false, mongoError("look up food record", err)
	}

	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	if _, err := collection.ReplaceOne(ctx, bson.M{"_id": existing.ID}, rec); err != nil {
		return false, mongoError("update food record", err)
	}
	return false, nil
}

func (s *MongoStore) GetFoodRecord(ctx context.Context, userID, date string, kind models.RecordKind) (*models.FoodRecord, error) {
	var rec models.FoodRecord
	err := s.db.Collection(models.CollectionFoodRecords).
		FindOne(ctx, recordKey(userID, date, string(kind))).
		Decode(&rec)
	if err != nil {
		return nil, mongoError("get food record", err)
	}
	return &rec, nil
}

func (s *MongoStore) ListFoodRecordsByDate(ctx context.Context, date string) ([]models.FoodRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := s.db.Collection(models.CollectionFoodRecords).Find(ctx, bson.M{"date": date}, opts)
	if err != nil {
		return nil, mongoError("list food records", err)
	}
	defer cursor.Close(ctx)

	recs := []models.FoodRecord{}
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, mongoError("decode food records", err)
	}
	return recs, nil
}

func (s *MongoStore) UpsertChatHistory(ctx context.Context, h *models.ChatHistory) (bool, error) {
	collection := s.db.Collection(models.CollectionChatHistory)
	filter := recordKey(h.UserID, h.Date, h.Type)

	var existing models.ChatHistory
	err := collection.FindOne(ctx, filter).Decode(&existing)
	now := time.Now()
	h.UpdatedAt = now

	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ID = uuid.New().String()
		h.CreatedAt = now
		if _, err := collection.InsertOne(ctx, h); err != nil {
			return false, mongoError("create chat history", err)
		}
		return true, nil
	}
	if err != nil {
		return false, mongoError("look up chat history", err)
	}

	h.ID = existing.ID
	h.CreatedAt = existing.CreatedAt
	if _, err := collection.ReplaceOne(ctx, bson.M{"_id": existing.ID}, h); err != nil {
		return false, mongoError("update chat history", err)
	}
	return false, nil
}

func (s *MongoStore) SaveProfile(ctx context.Context, rec *models.UserRecord) error {
	profiles := s.db.Collection(models.CollectionUserRecords)
	now := time.Now()

	var existing models.UserRecord
	err := profiles.FindOne(ctx, bson.M{"_id": rec.UserID}).Decode(&existing)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		rec.CreatedAt = now
	case err != nil:
		return mongoError("look up profile", err)
	default:
		rec.CreatedAt = existing.CreatedAt
	}
	rec.UpdatedAt = now

	_, err = profiles.ReplaceOne(ctx, bson.M{"_id": rec.UserID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return mongoError("save profile", err)
	}

	daily := rec.Daily()
	daily.CreatedAt = now
	_, err = s.db.Collection(models.CollectionDailyRecords).UpdateOne(ctx,
		bson.M{"userId": daily.UserID, "date": daily.Date},
		bson.M{"$set": daily},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return mongoError("save daily record", err)
	}
	return nil
}

func (s *MongoStore) GetProfile(ctx context.Context, userID string) (*models.UserRecord, error) {
	var rec models.UserRecord
	err := s.db.Collection(models.CollectionUserRecords).FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if err != nil {
		return nil, mongoError("get profile", err)
	}
	return &rec, nil
}

func (s *MongoStore) ListDailyRecords(ctx context.Context, userID, start, end string) ([]models.DailyRecord, error) {
	filter := bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": start, "$lte": end},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := s.db.Collection(models.CollectionDailyRecords).Find(ctx, filter, opts)
	if err != nil {
		return nil, mongoError("list daily records", err)
	}
	defer cursor.Close(ctx)

	recs := []models.DailyRecord{}
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, mongoError("decode daily records", err)
	}
	return recs, nil
}

func (s *MongoStore) SaveUser(ctx context.Context, u *models.User) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"email":     u.Email,
			"name":      u.Name,
			"role":      u.Role,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := s.db.Collection(models.CollectionUsers).UpdateOne(ctx, bson.M{"_id": u.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return mongoError("save user", err)
	}
	return nil
}

func (s *MongoStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.db.Collection(models.CollectionUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
		return nil, mongoError("get user", err)
	}
	return &u, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.db.Client().Disconnect(ctx)
}

// mongoUnauthorized is the server error code for a missing privilege.
const mongoUnauthorized = 13

func mongoError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	var cmdErr mongo.CommandError
	switch {
	case errors.As(err, &cmdErr) && cmdErr.Code == mongoUnauthorized:
		return fmt.Errorf("failed to %s: %w: %v", op, ErrPermissionDenied, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return fmt.Errorf("failed to %s: %w: %v", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
