package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/models"
)

func sampleDaily() menu.Daily {
	items := menu.ParseDishes("쌀밥<br/>우유(2)<br/>돈까스(1.2.5.6.10)<br/>배추김치(9.13)")
	return menu.Daily{
		Date:          "20240315",
		Items:         menu.ApplyAdjusted(items, 800),
		TotalCalories: 800,
		Nutrition:     []menu.NutritionFact{{Name: "탄수화물(g)", Value: "100.5"}},
	}
}

func TestAllergyNotice(t *testing.T) {
	items := sampleDaily().Items

	t.Run("dangerous dishes", func(t *testing.T) {
		msg := AllergyNotice("지민", []string{"우유", "새우"}, items)
		assert.Equal(t, "참! 지민는 우유, 새우 알레르기가 있네. 아래와 같은 음식을 조심해야 해:\n\n1. 우유 (우유)\n2. 돈까스 (우유)\n3. 배추김치 (새우)", msg)
	})

	t.Run("all clear", func(t *testing.T) {
		msg := AllergyNotice("", []string{"잣"}, items)
		assert.Equal(t, "너는 잣 알레르기가 있지만, 오늘 급식에는 해당 알레르기 성분이 포함된 메뉴가 없어서 안전하게 먹을 수 있어!", msg)
	})

	t.Run("no allergies", func(t *testing.T) {
		assert.Empty(t, AllergyNotice("지민", nil, items))
	})
}

func TestIsHealthReply(t *testing.T) {
	assert.True(t, IsHealthReply("오늘 좀 피곤해"))
	assert.True(t, IsHealthReply("컨디션 최고!"))
	assert.False(t, IsHealthReply("급식 뭐야?"))
}

func TestMealChat(t *testing.T) {
	daily := sampleDaily()
	profile := &models.UserRecord{Allergies: []string{"우유"}}

	p := MealChat(profile, daily, "지민")
	assert.Contains(t, p, "1. 쌀밥\n")
	assert.Contains(t, p, "3. 돈까스 (알레르기: 난류, 우유, 대두, 밀, 돼지고기)")
	assert.Contains(t, p, "총 칼로리: 800.0kcal")
	assert.Contains(t, p, "학생 이름: 지민")
	assert.Contains(t, p, "학생의 알레르기 정보: 우유")
	assert.Contains(t, p, "탄수화물(g): 100.5")
	assert.Contains(t, p, "18 = 조개류(굴,전복,홍합 포함)")

	noProfile := MealChat(nil, daily, "")
	assert.NotContains(t, noProfile, "학생 이름")
}

func TestNutritionGreeting(t *testing.T) {
	daily := sampleDaily()
	lunch := &models.FoodRecord{MenuItems: []models.LunchItem{
		{Name: "쌀밥", Count: 2},
		{Name: "우유", Count: 1},
		{Name: "돈까스", Count: 0},
	}}

	got := NutritionGreeting(daily, lunch)
	want := "안녕! 오늘 점심에 쌀밥 2인분, 우유 1인분를 드셨군요!" +
		"\n\n기본 양보다 더 드신 음식:\n- 쌀밥: 기본 1인분 → 실제 2인분 (+1인분)" +
		"\n\n기본 양보다 덜 드신 음식:\n- 돈까스: 기본 1인분 → 실제 0인분\n- 배추김치: 기본 1인분 → 실제 0인분"
	assert.Equal(t, want, got)
}

func TestNutritionBriefing(t *testing.T) {
	daily := sampleDaily()
	profile := &models.UserRecord{Allergies: []string{"우유"}}
	lunch := &models.FoodRecord{TotalCalories: 900, MenuItems: []models.LunchItem{
		{Name: "쌀밥", Count: 3},
		{Name: "돈까스", Count: 1},
	}}

	p := NutritionBriefing(profile, daily, lunch)
	assert.Contains(t, p, "쌀밥 3인분, 돈까스 1인분")
	assert.Contains(t, p, "- 돈까스 (알레르기: 우유)")
	assert.Contains(t, p, "[과다 섭취 음식]\n- 쌀밥: 3인분")
	assert.Contains(t, p, "[탄수화물이 많은 음식]\n- 쌀밥: 3인분")
	// six base guidelines, then allergies, carbs, dangers and excess in order
	assert.Contains(t, p, "7. 간식을 추천할 때는 우유")
	assert.Contains(t, p, "8. 탄수화물 과다 섭취")
	assert.Contains(t, p, "9. [알레르기 주의 사항]")
	assert.Contains(t, p, "10. 지나치게 많이")

	plain := NutritionBriefing(nil, daily, &models.FoodRecord{MenuItems: []models.LunchItem{{Name: "우유", Count: 1}}})
	assert.NotContains(t, plain, "7.")
	assert.False(t, strings.Contains(plain, "[알레르기 주의 사항"))
}

func TestNutritionAnalysisRequest(t *testing.T) {
	lunch := &models.FoodRecord{MenuItems: []models.LunchItem{{Name: "쌀밥", Count: 1}}}
	req := NutritionAnalysisRequest(&models.UserRecord{Allergies: []string{"밀"}}, sampleDaily(), lunch)
	assert.Contains(t, req, "- 쌀밥: 1인분")
	assert.Contains(t, req, "학생의 알레르기: 밀")
	assert.True(t, strings.HasSuffix(req, "\"오늘 간식을 추천해드릴까요?\"라고 질문해주세요."))
}

func TestAsksAboutSnack(t *testing.T) {
	assert.True(t, AsksAboutSnack("오늘 간식을 추천해드릴까요?"))
	assert.True(t, AsksAboutSnack("간식 추천 필요해?"))
	assert.False(t, AsksAboutSnack("잘 먹었어요!"))
}
