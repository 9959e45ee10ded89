package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndReadiness(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/health", anonymous, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = e.do(t, http.MethodGet, "/api/ready", anonymous, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"store": "ok", "redis": "ok"}, decode(t, w)["checks"])
}

func TestAppRoutesRequireToken(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodGet, "/api/v1/menu", anonymous, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMenuRoute(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/menu?date="+isoDate, student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, testDate, body["date"])
	assert.Equal(t, float64(800), body["totalCalories"])
	assert.Len(t, body["items"], 4)
	assert.Equal(t, false, body["fallback"])

	w = e.do(t, http.MethodGet, "/api/v1/menu?date=yesterday", student, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordRoutes(t *testing.T) {
	e := newEnv(t)
	lunch := map[string]any{
		"date":  testDate,
		"items": []map[string]any{{"name": "쌀밥", "count": 2}, {"name": "우유", "count": 1}},
	}

	w := e.do(t, http.MethodPost, "/api/v1/records/lunch", student, lunch)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["created"])
	rec := body["record"].(map[string]any)
	assert.Equal(t, isoDate, rec["date"])
	assert.Equal(t, "지민", rec["userName"])

	w = e.do(t, http.MethodPost, "/api/v1/records/lunch", student, lunch)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["created"])

	w = e.do(t, http.MethodGet, "/api/v1/records/lunch?date="+testDate, student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["menuItems"], 2)

	t.Run("no servings", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/records/lunch", student, map[string]any{
			"date": testDate, "items": []map[string]any{{"name": "쌀밥", "count": 0}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("snack", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/records/snack", student, map[string]any{
			"date": testDate, "snacks": []string{" 바나나 ", "", "우유"},
		})
		require.Equal(t, http.StatusCreated, w.Code)
		rec := decode(t, w)["record"].(map[string]any)
		assert.Equal(t, []any{"바나나", "우유"}, rec["snacks"])
		assert.Equal(t, float64(2), rec["count"])
	})

	t.Run("unknown kind and missing record", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/v1/records/dinner", student, nil).Code)
		assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/v1/records/lunch?date=20240316", student, nil).Code)
	})
}

func TestChatRoutes(t *testing.T) {
	e := newEnv(t, "좋은 하루 보내!", "돈까스 맛있겠다!", "응 그렇구나")

	w := e.do(t, http.MethodPost, "/api/v1/chat/start", student, map[string]string{"date": testDate})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	start := decode(t, w)
	id := start["sessionId"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "mealChat", start["kind"])
	assert.Len(t, start["steps"], 3)

	send := func(msg string) map[string]any {
		w := e.do(t, http.MethodPost, "/api/v1/chat/"+id+"/messages", student, map[string]string{"message": msg})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode(t, w)
	}

	reply := send("배고파")
	assert.Equal(t, float64(1), reply["turn"])
	assert.Equal(t, false, reply["canEnd"])

	w = e.do(t, http.MethodPost, "/api/v1/chat/"+id+"/end", student, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	send("돈까스 좋아")
	reply = send("응")
	assert.Equal(t, true, reply["canEnd"])

	w = e.do(t, http.MethodPost, "/api/v1/chat/"+id+"/end", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ended"])

	w = e.do(t, http.MethodPost, "/api/v1/chat/"+id+"/messages", student, map[string]string{"message": "또"})
	assert.Equal(t, http.StatusConflict, w.Code)

	t.Run("other users cannot see the session", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/chat/"+id+"/messages", teacher, map[string]string{"message": "hi"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("empty message", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/chat/"+id+"/messages", student, map[string]string{"message": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNutritionNeedsLunch(t *testing.T) {
	e := newEnv(t, "쌀밥을 많이 먹었네요. 오늘 간식을 추천해드릴까요?")

	w := e.do(t, http.MethodPost, "/api/v1/chat/nutrition", student, map[string]string{"date": testDate})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/records/lunch", student, map[string]any{
		"date": testDate, "items": []map[string]any{{"name": "쌀밥", "count": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodPost, "/api/v1/chat/nutrition", student, map[string]string{"date": testDate})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "nutritionChat", body["kind"])
	assert.Len(t, body["steps"], 2, "the model already asked about snacks")
}

func TestProfileRoutes(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/profile", student, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPut, "/api/v1/profile", student, map[string]any{
		"height": 160, "weight": 50, "age": 15, "gender": "female",
		"allergies": []string{"우유", " 우유 ", ""}, "date": testDate,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.InDelta(t, 19.53, body["bmi"], 0.01)
	assert.Equal(t, "정상", body["bmiStatus"])
	assert.Equal(t, []any{"우유"}, body["allergies"])

	w = e.do(t, http.MethodGet, "/api/v1/profile", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, isoDate, decode(t, w)["date"])

	w = e.do(t, http.MethodGet, "/api/v1/profile/history?start=20240301&end=20240331", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = e.do(t, http.MethodGet, "/api/v1/profile/history?start=20240331&end=20240301", student, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, "/api/v1/profile", student, map[string]any{"height": 0, "weight": 50, "age": 15})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeAndRole(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/api/v1/me", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":"u1","email":"u1@school.kr","name":"지민","role":"student","isAdmin":false}`, w.Body.String())

	w = e.do(t, http.MethodPut, "/api/v1/users/me/role", student, map[string]string{"role": "principal"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPut, "/api/v1/users/me/role", teacher, map[string]string{"role": "teacher"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/me", teacher, nil)
	body := decode(t, w)
	assert.Equal(t, "teacher", body["role"])
	assert.Equal(t, true, body["isAdmin"])
}

func TestMonitorRoute(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/v1/records/snack", student, map[string]any{"date": testDate, "snacks": []string{"바나나"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/monitor/records?date="+testDate, student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/monitor/records?date="+testDate, teacher, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, isoDate, body["date"])
	assert.Equal(t, float64(1), body["studentCount"])
	entry := body["entries"].([]any)[0].(map[string]any)
	assert.Equal(t, "지민", entry["userName"])
	assert.Equal(t, []any{"바나나"}, entry["snacks"])
}

func TestSnackAnalyzeRoute(t *testing.T) {
	e := newEnv(t, "초콜릿 쿠키, 사과.")

	w := e.do(t, http.MethodPost, "/api/v1/snacks/analyze", student, map[string]string{
		"image": "data:image/png;base64,iVBORw0KGgo=",
		"date":  testDate,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"초콜릿 쿠키", "사과"}, decode(t, w)["snacks"])

	w = e.do(t, http.MethodPost, "/api/v1/snacks/analyze", student, map[string]string{"image": "data:text/plain;base64,aGVsbG8="})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.openai.Fail(http.StatusTooManyRequests, "Rate limit reached")
	w = e.do(t, http.MethodPost, "/api/v1/snacks/analyze", student, map[string]string{"image": "iVBORw0KGgo="})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
