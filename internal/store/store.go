// Package store persists meal records, chat transcripts and health profiles.
// Every backend keeps at most one food record and one chat transcript per
// (user, date, type) by looking the key up before writing.
package store

import (
	"context"
	"errors"

	"github.com/babcheck/babcheck/backend/internal/models"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrFailedPrecondition = errors.New("failed precondition")
	ErrUnavailable        = errors.New("store unavailable")
)

// RecordStore is implemented by GormStore, FirestoreStore and MongoStore.
type RecordStore interface {
	// UpsertFoodRecord writes rec under its (UserID, Date, Type) key. created
	// is true when no record existed. rec.ID and timestamps are filled in.
	UpsertFoodRecord(ctx context.Context, rec *models.FoodRecord) (created bool, err error)
	GetFoodRecord(ctx context.Context, userID, date string, kind models.RecordKind) (*models.FoodRecord, error)
	ListFoodRecordsByDate(ctx context.Context, date string) ([]models.FoodRecord, error)

	UpsertChatHistory(ctx context.Context, h *models.ChatHistory) (created bool, err error)

	// SaveProfile merges rec into the latest profile and overwrites the
	// snapshot for rec.Date.
	SaveProfile(ctx context.Context, rec *models.UserRecord) error
	GetProfile(ctx context.Context, userID string) (*models.UserRecord, error)
	// ListDailyRecords returns snapshots with start <= date <= end, oldest first.
	ListDailyRecords(ctx context.Context, userID, start, end string) ([]models.DailyRecord, error)

	SaveUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)

	Ping(ctx context.Context) error
	Close() error
}
