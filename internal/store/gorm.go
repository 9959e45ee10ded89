package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/babcheck/babcheck/backend/internal/models"
)

// GormStore keeps records in Postgres (production) or SQLite (local, tests).
type GormStore struct {
	db *gorm.DB
}

var _ RecordStore = (*GormStore)(nil)

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) UpsertFoodRecord(ctx context.Context, rec *models.FoodRecord) (bool, error) {
	var existing models.FoodRecord
	err := s.db.WithContext(ctx).
		Where(&models.FoodRecord{UserID: rec.UserID, Date: rec.Date, Type: rec.Type}).
		First(&existing).Error

	now := time.Now()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec.ID = uuid.New().String()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
			return false, fmt.Errorf("failed to create food record: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up food record: %w", err)
	}

	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return false, fmt.Errorf("failed to update food record: %w", err)
	}
	return false, nil
}

func (s *GormStore) GetFoodRecord(ctx context.Context, userID, date string, kind models.RecordKind) (*models.FoodRecord, error) {
	var rec models.FoodRecord
	err := s.db.WithContext(ctx).
		Where(&models.FoodRecord{UserID: userID, Date: date, Type: kind}).
		First(&rec).Error
	if err != nil {
		return nil, gormError("get food record", err)
	}
	return &rec, nil
}

func (s *GormStore) ListFoodRecordsByDate(ctx context.Context, date string) ([]models.FoodRecord, error) {
	var recs []models.FoodRecord
	err := s.db.WithContext(ctx).
		Where(&models.FoodRecord{Date: date}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "updated_at"}, Desc: true}).
		Find(&recs).Error
	if err != nil {
		return nil, gormError("list food records", err)
	}
	return recs, nil
}

func (s *GormStore) UpsertChatHistory(ctx context.Context, h *models.ChatHistory) (bool, error) {
	var existing models.ChatHistory
	err := s.db.WithContext(ctx).
		Where(&models.ChatHistory{UserID: h.UserID, Date: h.Date, Type: h.Type}).
		First(&existing).Error

	now := time.Now()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.ID = uuid.New().String()
		h.CreatedAt = now
		h.UpdatedAt = now
		if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
			return false, fmt.Errorf("failed to create chat history: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up chat history: %w", err)
	}

	h.ID = existing.ID
	h.CreatedAt = existing.CreatedAt
	h.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(h).Error; err != nil {
		return false, fmt.Errorf("failed to update chat history: %w", err)
	}
	return false, nil
}

func (s *GormStore) SaveProfile(ctx context.Context, rec *models.UserRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var existing models.UserRecord
		err := tx.Where(&models.UserRecord{UserID: rec.UserID}).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec.CreatedAt = now
		case err != nil:
			return fmt.Errorf("failed to look up profile: %w", err)
		default:
			rec.CreatedAt = existing.CreatedAt
		}
		rec.UpdatedAt = now
		if err := tx.Save(rec).Error; err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}

		daily := rec.Daily()
		daily.CreatedAt = now
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			UpdateAll: true,
		}).Create(daily).Error
		if err != nil {
			return fmt.Errorf("failed to save daily record: %w", err)
		}
		return nil
	})
}

func (s *GormStore) GetProfile(ctx context.Context, userID string) (*models.UserRecord, error) {
	var rec models.UserRecord
	if err := s.db.WithContext(ctx).Where(&models.UserRecord{UserID: userID}).First(&rec).Error; err != nil {
		return nil, gormError("get profile", err)
	}
	return &rec, nil
}

func (s *GormStore) ListDailyRecords(ctx context.Context, userID, start, end string) ([]models.DailyRecord, error) {
	date := clause.Column{Name: "date"}
	var recs []models.DailyRecord
	err := s.db.WithContext(ctx).
		Where(&models.DailyRecord{UserID: userID}).
		Where(clause.Gte{Column: date, Value: start}).
		Where(clause.Lte{Column: date, Value: end}).
		Order(clause.OrderByColumn{Column: date}).
		Find(&recs).Error
	if err != nil {
		return nil, gormError("list daily records", err)
	}
	return recs, nil
}

func (s *GormStore) SaveUser(ctx context.Context, u *models.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "role", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where(&models.User{ID: userID}).First(&u).Error; err != nil {
		return nil, gormError("get user", err)
	}
	return &u, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("failed to %s: %w: %v", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
