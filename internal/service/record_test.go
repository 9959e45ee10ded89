package service_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babcheck/babcheck/backend/internal/logger"
	"github.com/babcheck/babcheck/backend/internal/models"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/store"
	"github.com/babcheck/babcheck/backend/internal/testhelpers"
	"github.com/babcheck/babcheck/backend/internal/types"
)

func TestSubmitLunch(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	req := &types.LunchRequest{Date: testDate, Items: []types.LunchItemInput{
		{Name: "쌀밥", Count: 2},
		{Name: "우유", Count: 1},
		{Name: "돈까스", Count: 0},
		{Name: "배추김치", Count: 1},
	}}
	rec, created, err := e.records.SubmitLunch(ctx, student, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, isoDate, rec.Date)
	assert.Equal(t, models.KindLunch, rec.Type)
	assert.Equal(t, "지민", rec.UserName)

	scale := 800.0 / 425
	assert.InDelta(t, 2*210*scale, rec.MenuItems[0].Calories, 0.001)
	assert.Equal(t, []string{"우유"}, rec.MenuItems[1].AllergyNames)
	assert.Zero(t, rec.MenuItems[2].Calories)
	assert.Equal(t, math.Round(535*scale), rec.TotalCalories)

	req.Items[0].Count = 1
	_, created, err = e.records.SubmitLunch(ctx, student, req)
	require.NoError(t, err)
	assert.False(t, created, "second submit updates the same record")

	got, err := e.records.Get(ctx, student, isoDate, models.KindLunch)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MenuItems[0].Count)
}

func TestSubmitLunchValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	tests := []struct {
		name  string
		items []types.LunchItemInput
	}{
		{"no items", nil},
		{"negative count", []types.LunchItemInput{{Name: "쌀밥", Count: -1}}},
		{"nothing eaten", []types.LunchItemInput{{Name: "쌀밥", Count: 0}}},
		{"dish not on the menu", []types.LunchItemInput{{Name: "피자", Count: 5}, {Name: "쌀밥", Count: 1}}},
		{"dish listed twice", []types.LunchItemInput{{Name: "쌀밥", Count: 1}, {Name: "쌀밥", Count: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.records.SubmitLunch(ctx, student, &types.LunchRequest{Date: testDate, Items: tt.items})
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}

	_, err := e.records.Get(ctx, student, testDate, models.KindLunch)
	assert.ErrorIs(t, err, store.ErrNotFound, "rejected lunches are not stored")
}

func TestSubmitLunchOnDefaultMenu(t *testing.T) {
	ctx := context.Background()
	cfg := testhelpers.Config("", "")
	log := logger.Discard()
	menus := service.NewMenuService(nil, nil, cfg, log)
	records := service.NewRecordService(menus, store.NewGormStore(testhelpers.NewSQLiteDB(t)), log)

	daily, err := menus.ForDate(ctx, testDate)
	require.NoError(t, err)
	require.True(t, daily.Fallback)
	egg, ok := daily.Find("계란후라이")
	require.True(t, ok)

	rec, _, err := records.SubmitLunch(ctx, student, &types.LunchRequest{Date: testDate, Items: []types.LunchItemInput{
		{Name: "밥", Count: 1},
		{Name: "계란후라이", Count: 2},
	}})
	require.NoError(t, err)
	assert.Equal(t, 210.0, rec.MenuItems[0].Calories)
	assert.Equal(t, 2*egg.Calories, rec.MenuItems[1].Calories, "stored calories match the menu shown")
	assert.Equal(t, 390.0, rec.TotalCalories)
}

func TestSubmitSnack(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	anon := types.Identity{UserID: "u2"}

	rec, created, err := e.records.SubmitSnack(ctx, anon, &types.SnackRequest{
		Date:   "2024-03-15",
		Snacks: []string{" 바나나 ", "", "우유"},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{"바나나", "우유"}, rec.Snacks)
	assert.Equal(t, 2, rec.Count)
	assert.Equal(t, models.AnonymousName, rec.UserName)

	_, _, err = e.records.SubmitSnack(ctx, anon, &types.SnackRequest{Snacks: []string{"  "}})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = e.records.Get(ctx, anon, testDate, models.KindLunch)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = e.records.Get(ctx, anon, testDate, models.RecordKind("dinner"))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
