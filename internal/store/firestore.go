package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/babcheck/babcheck/backend/internal/models"
)

// FirestoreStore keeps records in Cloud Firestore using the collection
// layout of the original web client, so both can share one project.
type FirestoreStore struct {
	client *firestore.Client
}

var _ RecordStore = (*FirestoreStore)(nil)

// NewFirestoreStore wraps an initialized client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) UpsertFoodRecord(ctx context.Context, rec *models.FoodRecord) (bool, error) {
	coll := s.client.Collection(models.CollectionFoodRecords)
	docs, err := coll.
		Where("userId", "==", rec.UserID).
		Where("date", "==", rec.Date).
		Where("type", "==", string(rec.Type)).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, firestoreError("look up food record", err)
	}

	now := time.Now()
	rec.UpdatedAt = now
	if len(docs) == 0 {
		ref := coll.NewDoc()
		rec.ID = ref.ID
		rec.CreatedAt = now
		if _, err := ref.Set(ctx, rec); err != nil {
			return false, firestoreError("create food record", err)
		}
		return true, nil
	}

	var existing models.FoodRecord
	if err := docs[0].DataTo(&existing); err != nil {
		return false, fmt.Errorf("failed to decode food record: %w", err)
	}
	rec.ID = docs[0].Ref.ID
	rec.CreatedAt = existing.CreatedAt
	if _, err := docs[0].Ref.Set(ctx, rec); err != nil {
		return false, firestoreError("update food record", err)
	}
	return false, nil
}

func (s *FirestoreStore) GetFoodRecord(ctx context.Context, userID, date string, kind models.RecordKind) (*models.FoodRecord, error) {
	docs, err := s.client.Collection(models.CollectionFoodRecords).
		Where("userId", "==", userID).
		Where("date", "==", date).
		Where("type", "==", string(kind)).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, firestoreError("get food record", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	var rec models.FoodRecord
	if err := docs[0].DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode food record: %w", err)
	}
	rec.ID = docs[0].Ref.ID
	return &rec, nil
}

// ListFoodRecordsByDate filters on date only so no composite index is
// needed; ordering happens here.
func (s *FirestoreStore) ListFoodRecordsByDate(ctx context.Context, date string) ([]models.FoodRecord, error) {
	docs, err := s.client.Collection(models.CollectionFoodRecords).
		Where("date", "==", date).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, firestoreError("list food records", err)
	}
	recs := make([]models.FoodRecord, 0, len(docs))
	for _, d := range docs {
		var rec models.FoodRecord
		if err := d.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode food record %s: %w", d.Ref.ID, err)
		}
		rec.ID = d.Ref.ID
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].UpdatedAt.After(recs[j].UpdatedAt) })
	return recs, nil
}

func (s *FirestoreStore) UpsertChatHistory(ctx context.Context, h *models.ChatHistory) (bool, error) {
	coll := s.client.Collection(models.CollectionChatHistory)
	docs, err := coll.
		Where("userId", "==", h.UserID).
		Where("date", "==", h.Date).
		Where("type", "==", h.Type).
		Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, firestoreError("look up chat history", err)
	}

	now := time.Now()
	h.UpdatedAt = now
	if len(docs) == 0 {
		ref := coll.NewDoc()
		h.ID = ref.ID
		h.CreatedAt = now
		if _, err := ref.Set(ctx, h); err != nil {
			return false, firestoreError("create chat history", err)
		}
		return true, nil
	}

	var existing models.ChatHistory
	if err := docs[0].DataTo(&existing); err != nil {
		return false, fmt.Errorf("failed to decode chat history: %w", err)
	}
	h.ID = docs[0].Ref.ID
	h.CreatedAt = existing.CreatedAt
	if _, err := docs[0].Ref.Set(ctx, h); err != nil {
		return false, firestoreError("update chat history", err)
	}
	return false, nil
}

func (s *FirestoreStore) SaveProfile(ctx context.Context, rec *models.UserRecord) error {
	ref := s.client.Collection(models.CollectionUserRecords).Doc(rec.UserID)
	dailyRef := ref.Collection(models.CollectionDailyRecords).Doc(rec.Date)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now()
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			rec.CreatedAt = now
		case err != nil:
			return err
		default:
			var existing models.UserRecord
			if err := snap.DataTo(&existing); err != nil {
				return err
			}
			rec.CreatedAt = existing.CreatedAt
		}
		rec.UpdatedAt = now

		daily := rec.Daily()
		daily.CreatedAt = now
		if err := tx.Set(ref, rec); err != nil {
			return err
		}
		return tx.Set(dailyRef, daily)
	})
	if err != nil {
		return firestoreError("save profile", err)
	}
	return nil
}

func (s *FirestoreStore) GetProfile(ctx context.Context, userID string) (*models.UserRecord, error) {
	snap, err := s.client.Collection(models.CollectionUserRecords).Doc(userID).Get(ctx)
	if err != nil {
		return nil, firestoreError("get profile", err)
	}
	var rec models.UserRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	rec.UserID = userID
	return &rec, nil
}

func (s *FirestoreStore) ListDailyRecords(ctx context.Context, userID, start, end string) ([]models.DailyRecord, error) {
	docs, err := s.client.Collection(models.CollectionUserRecords).Doc(userID).
		Collection(models.CollectionDailyRecords).
		Where("date", ">=", start).
		Where("date", "<=", end).
		OrderBy("date", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, firestoreError("list daily records", err)
	}
	recs := make([]models.DailyRecord, 0, len(docs))
	for _, d := range docs {
		var rec models.DailyRecord
		if err := d.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode daily record %s: %w", d.Ref.ID, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *FirestoreStore) SaveUser(ctx context.Context, u *models.User) error {
	_, err := s.client.Collection(models.CollectionUsers).Doc(u.ID).Set(ctx, map[string]interface{}{
		"email":     u.Email,
		"name":      u.Name,
		"role":      u.Role,
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return firestoreError("save user", err)
	}
	return nil
}

func (s *FirestoreStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	snap, err := s.client.Collection(models.CollectionUsers).Doc(userID).Get(ctx)
	if err != nil {
		return nil, firestoreError("get user", err)
	}
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	u.ID = userID
	return &u, nil
}

func (s *FirestoreStore) Ping(ctx context.Context) error {
	_, err := s.client.Collection(models.CollectionUsers).Limit(1).Documents(ctx).GetAll()
	return firestoreError("ping", err)
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// firestoreError maps gRPC status codes onto the store sentinels. A nil err
// stays nil.
func firestoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var sentinel error
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.PermissionDenied, codes.Unauthenticated:
		sentinel = ErrPermissionDenied
	case codes.FailedPrecondition:
		sentinel = ErrFailedPrecondition
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = ErrUnavailable
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %v", op, sentinel, err)
}
