package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babcheck/babcheck/backend/internal/models"
	"github.com/babcheck/babcheck/backend/internal/service"
	"github.com/babcheck/babcheck/backend/internal/store"
	"github.com/babcheck/babcheck/backend/internal/types"
)

func TestGroupByStudent(t *testing.T) {
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	recs := []models.FoodRecord{
		{UserID: "a", UserName: "가은", Type: models.KindLunch, TotalCalories: 700, UpdatedAt: base,
			MenuItems: []models.LunchItem{{Name: "쌀밥", Count: 2}, {Name: "김치", Count: 0}}},
		{UserID: "b", UserEmail: "b@school.kr", Type: models.KindSnack, Snacks: []string{"사과"}, UpdatedAt: base.Add(time.Minute)},
		{UserID: "a", Type: models.KindSnack, Snacks: []string{"우유", "빵"}, UpdatedAt: base.Add(2 * time.Minute)},
		{UserID: "c", Type: models.RecordKind("dinner"), UpdatedAt: base.Add(time.Hour)},
	}

	entries := service.GroupByStudent(recs)
	require.Len(t, entries, 2)

	assert.Equal(t, "a", entries[0].UserID, "newest first")
	assert.Equal(t, "가은", entries[0].UserName)
	assert.Equal(t, []string{"쌀밥 2인분"}, entries[0].Lunch)
	assert.Equal(t, []string{"우유", "빵"}, entries[0].Snacks)
	assert.Equal(t, 700.0, entries[0].TotalCalories)
	assert.Equal(t, base.Add(2*time.Minute), entries[0].UpdatedAt)

	assert.Equal(t, "b@school.kr", entries[1].UserName)
	assert.Empty(t, entries[1].Lunch)
}

func TestMonitorRecords(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	for i := 1; i <= 3; i++ {
		user := types.Identity{UserID: fmt.Sprintf("s%d", i), Name: fmt.Sprintf("학생%d", i)}
		_, _, err := e.records.SubmitSnack(ctx, user, &types.SnackRequest{Date: testDate, Snacks: []string{"귤"}})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	teacher := types.Identity{UserID: "teacher-1", Email: "t@school.kr", Name: "김선생"}
	res, err := e.monitor.Records(ctx, teacher, isoDate)
	require.NoError(t, err)
	assert.Equal(t, isoDate, res.Date)
	assert.Equal(t, 3, res.StudentCount)
	assert.Equal(t, "s3", res.Entries[0].UserID)

	u, err := e.store.GetUser(ctx, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, u.Role)
}

func TestMonitorMessage(t *testing.T) {
	assert.Equal(t, service.MonitorIndexMessage, service.MonitorMessage(fmt.Errorf("wrap: %w", store.ErrFailedPrecondition)))
	assert.Equal(t, service.MonitorPermissionMessage, service.MonitorMessage(store.ErrPermissionDenied))
	assert.Equal(t, service.MonitorGenericMessage, service.MonitorMessage(store.ErrUnavailable))
}
