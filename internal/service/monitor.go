package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/models"
	"github.com/babcheck/babcheck/backend/internal/store"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// Messages shown on the monitor when the day's records cannot be read.
const (
	MonitorIndexMessage      = "⚠️ Firebase 인덱스가 필요합니다.\nFirebase Console에서 인덱스를 생성해주세요.\n(콘솔에 표시된 링크를 클릭하면 자동 생성됩니다)"
	MonitorPermissionMessage = "⚠️ 데이터 읽기 권한이 없습니다.\nFirebase Firestore 규칙을 확인해주세요."
	MonitorGenericMessage    = "데이터를 불러오는 중 오류가 발생했습니다."
)

// MonitorMessage maps a store error to the text shown to the teacher.
func MonitorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrFailedPrecondition):
		return MonitorIndexMessage
	case errors.Is(err, store.ErrPermissionDenied):
		return MonitorPermissionMessage
	default:
		return MonitorGenericMessage
	}
}

// MonitorService builds the teacher's per-student view of a day.
type MonitorService struct {
	records store.RecordStore
	loc     *time.Location
	log     logrus.FieldLogger
}

var _ IMonitorService = (*MonitorService)(nil)

func NewMonitorService(records store.RecordStore, loc *time.Location, log logrus.FieldLogger) *MonitorService {
	return &MonitorService{records: records, loc: loc, log: log.WithField("service", "monitor")}
}

// Records returns one entry per student with records on date, newest first.
// Opening the monitor marks the caller as a teacher.
func (s *MonitorService) Records(ctx context.Context, user types.Identity, date string) (*types.MonitorResponse, error) {
	day, err := menu.NormalizeDate(date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s.ensureTeacher(ctx, user)

	iso := menu.ISODate(day)
	recs, err := s.records.ListFoodRecordsByDate(ctx, iso)
	if err != nil {
		s.log.WithError(err).WithField("date", iso).Error("Failed to list food records")
		return nil, err
	}

	entries := GroupByStudent(recs)
	return &types.MonitorResponse{Date: iso, StudentCount: len(entries), Entries: entries}, nil
}

// GroupByStudent merges each student's latest lunch and snack records.
func GroupByStudent(recs []models.FoodRecord) []types.MonitorEntry {
	lunches := make(map[string]*models.FoodRecord)
	snacks := make(map[string]*models.FoodRecord)
	var order []string
	seen := make(map[string]bool)

	for i := range recs {
		rec := &recs[i]
		var latest map[string]*models.FoodRecord
		switch rec.Type {
		case models.KindLunch:
			latest = lunches
		case models.KindSnack:
			latest = snacks
		default:
			continue
		}
		if cur, ok := latest[rec.UserID]; !ok || stamp(rec).After(stamp(cur)) {
			latest[rec.UserID] = rec
		}
		if !seen[rec.UserID] {
			seen[rec.UserID] = true
			order = append(order, rec.UserID)
		}
	}

	entries := make([]types.MonitorEntry, 0, len(order))
	for _, uid := range order {
		e := types.MonitorEntry{UserID: uid, Lunch: []string{}, Snacks: []string{}}
		for _, rec := range []*models.FoodRecord{lunches[uid], snacks[uid]} {
			if rec == nil {
				continue
			}
			if e.UserName == "" {
				e.UserName = rec.UserName
			}
			if e.UserEmail == "" {
				e.UserEmail = rec.UserEmail
			}
			if t := stamp(rec); t.After(e.UpdatedAt) {
				e.UpdatedAt = t
			}
		}
		if e.UserName == "" {
			e.UserName = e.UserEmail
		}
		if e.UserName == "" {
			e.UserName = models.AnonymousName
		}

		if lunch := lunches[uid]; lunch != nil {
			for _, it := range lunch.MenuItems {
				if it.Count > 0 {
					e.Lunch = append(e.Lunch, fmt.Sprintf("%s %d인분", it.Name, it.Count))
				}
			}
			e.TotalCalories = lunch.TotalCalories
		}
		if snack := snacks[uid]; snack != nil {
			e.Snacks = append(e.Snacks, snack.Snacks...)
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries
}

func stamp(rec *models.FoodRecord) time.Time {
	if !rec.UpdatedAt.IsZero() {
		return rec.UpdatedAt
	}
	return rec.CreatedAt
}

func (s *MonitorService) ensureTeacher(ctx context.Context, user types.Identity) {
	u, err := s.records.GetUser(ctx, user.UserID)
	if err == nil && u.Role == models.RoleTeacher {
		return
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.WithError(err).Warn("Failed to read user role")
		return
	}
	teacher := &models.User{ID: user.UserID, Email: user.Email, Name: user.StoredName(), Role: models.RoleTeacher}
	if err := s.records.SaveUser(ctx, teacher); err != nil {
		s.log.WithError(err).Warn("Failed to update user role")
	}
}
