package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/neis"
)

// MenuService resolves the normalized lunch menu for a date. NEIS failures
// never reach the caller; the default menu is served instead.
type MenuService struct {
	fetcher MealFetcher
	redis   *redis.Client
	prefix  string
	ttl     time.Duration
	loc     *time.Location
	missing []string
	log     logrus.FieldLogger
}

var _ IMenuService = (*MenuService)(nil)

// NewMenuService creates a MenuService. rdb may be nil to disable caching.
func NewMenuService(fetcher MealFetcher, rdb *redis.Client, cfg *config.Config, log logrus.FieldLogger) *MenuService {
	return &MenuService{
		fetcher: fetcher,
		redis:   rdb,
		prefix:  fmt.Sprintf("menu:%s:%s", cfg.NEISOfficeCode, cfg.NEISSchoolCode),
		ttl:     cfg.MenuCacheTTL,
		loc:     cfg.Location(),
		missing: cfg.MissingNEIS(),
		log:     log.WithField("service", "menu"),
	}
}

// Normalize returns date as YYYYMMDD; empty means today in the school's
// timezone.
func (s *MenuService) Normalize(date string) (string, error) {
	day, err := menu.NormalizeDate(date, s.loc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return day, nil
}

// ForDate returns the menu for date (YYYYMMDD or YYYY-MM-DD, empty for
// today). Only a malformed date is an error.
func (s *MenuService) ForDate(ctx context.Context, date string) (menu.Daily, error) {
	day, err := s.Normalize(date)
	if err != nil {
		return menu.Daily{}, err
	}
	log := s.log.WithField("date", day)

	if len(s.missing) > 0 {
		log.WithField("missing", s.missing).Warn("NEIS configuration missing, serving default menu")
		return menu.Default(day), nil
	}

	if daily, ok := s.cached(ctx, day); ok {
		return daily, nil
	}

	row, err := s.fetcher.Meal(ctx, day)
	if err != nil {
		var resultErr *neis.ResultError
		if errors.As(err, &resultErr) {
			log.WithField("code", resultErr.Code).Warn("No meal data from NEIS, serving default menu")
		} else {
			log.WithError(err).Warn("Failed to fetch meal, serving default menu")
		}
		return menu.Default(day), nil
	}

	daily, ok := dailyFromRow(day, row)
	if !ok {
		log.Warn("Meal row has no dishes, serving default menu")
		return menu.Default(day), nil
	}
	s.store(ctx, day, daily)
	return daily, nil
}

func dailyFromRow(date string, row *neis.MealRow) (menu.Daily, bool) {
	if row == nil || row.Dishes == "" {
		return menu.Daily{}, false
	}
	items := menu.ParseDishes(row.Dishes)
	if len(items) == 0 {
		return menu.Daily{}, false
	}
	total := menu.ParseTotalCalories(row.Calories)
	return menu.Daily{
		Date:          date,
		Items:         menu.ApplyAdjusted(items, total),
		TotalCalories: total,
		Nutrition:     menu.ParseNutrition(row.Nutrition),
		Origin:        row.Origin,
	}, true
}

func (s *MenuService) key(date string) string {
	return s.prefix + ":" + date
}

func (s *MenuService) cached(ctx context.Context, date string) (menu.Daily, bool) {
	if s.redis == nil {
		return menu.Daily{}, false
	}
	raw, err := s.redis.Get(ctx, s.key(date)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WithError(err).Warn("Menu cache read failed")
		}
		return menu.Daily{}, false
	}
	var daily menu.Daily
	if err := json.Unmarshal(raw, &daily); err != nil {
		return menu.Daily{}, false
	}
	return daily, true
}

func (s *MenuService) store(ctx context.Context, date string, daily menu.Daily) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(daily)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, s.key(date), raw, s.ttl).Err(); err != nil {
		s.log.WithError(err).Warn("Menu cache write failed")
	}
}
