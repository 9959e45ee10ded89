package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babcheck/babcheck/backend/internal/service"
)

func TestMenuServiceForDate(t *testing.T) {
	ctx := context.Background()

	t.Run("parses, adjusts and caches", func(t *testing.T) {
		e := newEnv(t)

		daily, err := e.menus.ForDate(ctx, testDate)
		require.NoError(t, err)
		assert.False(t, daily.Fallback)
		assert.Equal(t, testDate, daily.Date)
		assert.Equal(t, 800.0, daily.TotalCalories)
		require.Len(t, daily.Items, 4)
		assert.Equal(t, "돈까스", daily.Items[2].Name)
		assert.Equal(t, []string{"난류", "우유", "대두", "밀", "돼지고기"}, daily.Items[2].AllergyNames)
		assert.Len(t, daily.Nutrition, 2)

		var sum float64
		for _, it := range daily.Items {
			sum += it.Calories
		}
		assert.InDelta(t, 800.0, sum, 0.01)
		assert.InDelta(t, 210*800.0/425, daily.Items[0].Calories, 0.001)

		assert.True(t, e.mr.Exists("menu:B10:7010000:"+testDate))

		again, err := e.menus.ForDate(ctx, "2024-03-15")
		require.NoError(t, err)
		assert.Equal(t, daily.Items, again.Items)
		assert.Equal(t, 1, e.neis.Calls(), "second lookup served from cache")
	})

	t.Run("no data falls back without caching", func(t *testing.T) {
		e := newEnv(t)
		e.neis.Respond(http.StatusOK, `{"RESULT":{"CODE":"INFO-200","MESSAGE":"해당하는 데이터가 없습니다."}}`)

		daily, err := e.menus.ForDate(ctx, testDate)
		require.NoError(t, err)
		assert.True(t, daily.Fallback)
		assert.Equal(t, 465.0, daily.TotalCalories)
		assert.Len(t, daily.Items, 5)
		assert.False(t, e.mr.Exists("menu:B10:7010000:"+testDate))
	})

	t.Run("upstream error falls back", func(t *testing.T) {
		e := newEnv(t)
		e.neis.Respond(http.StatusInternalServerError, "boom")

		daily, err := e.menus.ForDate(ctx, testDate)
		require.NoError(t, err)
		assert.True(t, daily.Fallback)
	})

	t.Run("empty dishes fall back", func(t *testing.T) {
		e := newEnv(t)
		e.neis.Respond(http.StatusOK, `{"mealServiceDietInfo":[{"head":[]},{"row":[{"MLSV_YMD":"20240315","DDISH_NM":"<br/>"}]}]}`)

		daily, err := e.menus.ForDate(ctx, testDate)
		require.NoError(t, err)
		assert.True(t, daily.Fallback)
	})

	t.Run("missing configuration skips NEIS", func(t *testing.T) {
		e := newEnv(t)
		e.cfg.NEISAPIKey = ""
		e.build()

		daily, err := e.menus.ForDate(ctx, testDate)
		require.NoError(t, err)
		assert.True(t, daily.Fallback)
		assert.Zero(t, e.neis.Calls())
	})

	t.Run("invalid date", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.menus.ForDate(ctx, "15/03/2024")
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("empty date is today", func(t *testing.T) {
		e := newEnv(t)
		day, err := e.menus.Normalize("")
		require.NoError(t, err)
		assert.Len(t, day, 8)
	})
}
