package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/internal/health"
	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/models"
	"github.com/babcheck/babcheck/backend/internal/store"
	"github.com/babcheck/babcheck/backend/internal/types"
)

// DefaultHistoryDays is the trend window when no range is given.
const DefaultHistoryDays = 30

// ProfileService manages the health profile and its daily snapshots.
type ProfileService struct {
	records store.RecordStore
	loc     *time.Location
	log     logrus.FieldLogger
}

var _ IProfileService = (*ProfileService)(nil)

func NewProfileService(records store.RecordStore, loc *time.Location, log logrus.FieldLogger) *ProfileService {
	return &ProfileService{records: records, loc: loc, log: log.WithField("service", "profile")}
}

func (s *ProfileService) GetProfile(ctx context.Context, user types.Identity) (*types.ProfileResponse, error) {
	rec, err := s.records.GetProfile(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &types.ProfileResponse{UserRecord: rec, BMIStatus: health.BMIStatus(rec.BMI)}, nil
}

// SaveProfile computes BMI and BMR from the form and stores both the latest
// profile and the snapshot for the date.
func (s *ProfileService) SaveProfile(ctx context.Context, user types.Identity, req *types.ProfileRequest) (*types.ProfileResponse, error) {
	bmi, err := health.CalculateBMI(req.Height, req.Weight)
	if err != nil || req.Age <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, health.ErrInvalidMeasurement)
	}

	day, err := menu.NormalizeDate(req.Date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rec := &models.UserRecord{
		UserID:       user.UserID,
		UserEmail:    user.Email,
		UserName:     user.StoredName(),
		Height:       req.Height,
		Weight:       req.Weight,
		TargetWeight: req.TargetWeight,
		Age:          req.Age,
		Gender:       req.Gender,
		BMI:          bmi,
		Allergies:    cleanAllergies(req.Allergies),
		Date:         menu.ISODate(day),
	}
	if bmr, ok := health.CalculateBMR(req.Weight, req.Height, req.Age, req.Gender); ok {
		rec.BMR = &bmr
	}

	if err := s.records.SaveProfile(ctx, rec); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.UserID, "date": rec.Date}).Info("Profile saved")
	return &types.ProfileResponse{UserRecord: rec, BMIStatus: health.BMIStatus(bmi)}, nil
}

// History returns the daily snapshots between start and end inclusive. An
// empty end is today; an empty start is DefaultHistoryDays before end.
func (s *ProfileService) History(ctx context.Context, user types.Identity, start, end string) ([]models.DailyRecord, error) {
	endDay, err := menu.NormalizeDate(end, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	var startDay string
	if strings.TrimSpace(start) == "" {
		t, _ := time.Parse(menu.DateLayout, endDay)
		startDay = t.AddDate(0, 0, -(DefaultHistoryDays - 1)).Format(menu.DateLayout)
	} else if startDay, err = menu.NormalizeDate(start, s.loc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if startDay > endDay {
		return nil, fmt.Errorf("%w: start date is after end date", ErrInvalidInput)
	}

	records, err := s.records.ListDailyRecords(ctx, user.UserID, menu.ISODate(startDay), menu.ISODate(endDay))
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.DailyRecord{}
	}
	return records, nil
}

// cleanAllergies trims names and drops blanks and duplicates.
func cleanAllergies(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// UserService reports the caller's role and admin status.
type UserService struct {
	records store.RecordStore
	admins  AdminChecker
	log     logrus.FieldLogger
}

var _ IUserService = (*UserService)(nil)

func NewUserService(records store.RecordStore, admins AdminChecker, log logrus.FieldLogger) *UserService {
	return &UserService{records: records, admins: admins, log: log.WithField("service", "user")}
}

func (s *UserService) Me(ctx context.Context, user types.Identity) (*types.MeResponse, error) {
	me := &types.MeResponse{
		UserID:  user.UserID,
		Email:   user.Email,
		Name:    user.Name,
		Role:    models.RoleStudent,
		IsAdmin: s.admins.IsAdmin(user.UserID),
	}
	u, err := s.records.GetUser(ctx, user.UserID)
	switch {
	case err == nil:
		me.Role = u.Role
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, err
	}
	return me, nil
}

// SetRole upserts users/{uid} with role.
func (s *UserService) SetRole(ctx context.Context, user types.Identity, role string) (*models.User, error) {
	if role != models.RoleStudent && role != models.RoleTeacher {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	u := &models.User{ID: user.UserID, Email: user.Email, Name: user.StoredName(), Role: role}
	if err := s.records.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": user.UserID, "role": role}).Info("User role updated")
	return u, nil
}
