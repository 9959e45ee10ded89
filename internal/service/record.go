package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/models"
	"github.com/babcheck/babcheck/backend/internal/store"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// RecordService stores lunch and snack records. Lunch calories are computed
// here from the day's menu, never taken from the client.
type RecordService struct {
	menus   IMenuService
	records store.RecordStore
	log     logrus.FieldLogger
}

var _ IRecordService = (*RecordService)(nil)

func NewRecordService(menus IMenuService, records store.RecordStore, log logrus.FieldLogger) *RecordService {
	return &RecordService{menus: menus, records: records, log: log.WithField("service", "record")}
}

// SubmitLunch upserts the caller's lunch for req.Date. The bool is true when
// the record was created rather than updated.
func (s *RecordService) SubmitLunch(ctx context.Context, user types.Identity, req *types.LunchRequest) (*models.FoodRecord, bool, error) {
	if len(req.Items) == 0 {
		return nil, false, fmt.Errorf("%w: at least one menu item is required", ErrInvalidInput)
	}
	eaten := 0
	for _, it := range req.Items {
		if it.Count < 0 {
			return nil, false, fmt.Errorf("%w: count for %q must not be negative", ErrInvalidInput, it.Name)
		}
		eaten += it.Count
	}
	if eaten == 0 {
		return nil, false, fmt.Errorf("%w: select at least one serving", ErrInvalidInput)
	}

	daily, err := s.menus.ForDate(ctx, req.Date)
	if err != nil {
		return nil, false, err
	}

	items := make([]models.LunchItem, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	var sum float64
	for _, in := range req.Items {
		dish, ok := daily.Find(in.Name)
		if !ok {
			return nil, false, fmt.Errorf("%w: %q is not on the %s menu", ErrInvalidInput, in.Name, daily.Date)
		}
		if seen[dish.Name] {
			return nil, false, fmt.Errorf("%w: %q is listed more than once", ErrInvalidInput, in.Name)
		}
		seen[dish.Name] = true

		// Stored calories follow the per-dish figure the menu shows.
		item := models.LunchItem{
			Name:         dish.Name,
			Count:        in.Count,
			Calories:     dish.Calories * float64(in.Count),
			AllergyNames: dish.AllergyNames,
		}
		sum += item.Calories
		items = append(items, item)
	}

	total := math.Round(sum)
	if sum == 0 {
		total = daily.TotalCalories
	}

	rec := &models.FoodRecord{
		UserID:        user.UserID,
		UserEmail:     user.Email,
		UserName:      user.StoredName(),
		Date:          menu.ISODate(daily.Date),
		Type:          models.KindLunch,
		MenuItems:     items,
		TotalCalories: total,
	}
	created, err := s.records.UpsertFoodRecord(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id": user.UserID,
		"date":    rec.Date,
		"created": created,
	}).Info("Lunch record saved")
	return rec, created, nil
}

// SubmitSnack upserts the caller's snack list for req.Date.
func (s *RecordService) SubmitSnack(ctx context.Context, user types.Identity, req *types.SnackRequest) (*models.FoodRecord, bool, error) {
	snacks := make([]string, 0, len(req.Snacks))
	for _, name := range req.Snacks {
		if name = strings.TrimSpace(name); name != "" {
			snacks = append(snacks, name)
		}
	}
	if len(snacks) == 0 {
		return nil, false, fmt.Errorf("%w: at least one snack is required", ErrInvalidInput)
	}

	day, err := s.menus.Normalize(req.Date)
	if err != nil {
		return nil, false, err
	}

	rec := &models.FoodRecord{
		UserID:    user.UserID,
		UserEmail: user.Email,
		UserName:  user.StoredName(),
		Date:      menu.ISODate(day),
		Type:      models.KindSnack,
		Snacks:    snacks,
		Count:     len(snacks),
	}
	created, err := s.records.UpsertFoodRecord(ctx, rec)
	if err != nil {
		return nil, false, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id": user.UserID,
		"date":    rec.Date,
		"count":   rec.Count,
	}).Info("Snack record saved")
	return rec, created, nil
}

// Get returns the caller's record of kind for date.
func (s *RecordService) Get(ctx context.Context, user types.Identity, date string, kind models.RecordKind) (*models.FoodRecord, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown record type %q", ErrInvalidInput, kind)
	}
	day, err := s.menus.Normalize(date)
	if err != nil {
		return nil, err
	}
	return s.records.GetFoodRecord(ctx, user.UserID, menu.ISODate(day), kind)
}
