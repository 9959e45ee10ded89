package prompt

import (
	"fmt"
	"strings"

	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/models"
)

// SnackQuestion closes the first nutrition analysis.
const SnackQuestion = "오늘 간식을 추천해드릴까요?"

// Serving thresholds for the nutrition briefing.
const (
	ExcessiveServings = 3
	CarbServings      = 2
)

// AsksAboutSnack reports whether a reply already offers snack suggestions.
func AsksAboutSnack(reply string) bool {
	return strings.Contains(reply, "간식을 추천") || strings.Contains(reply, "간식 추천")
}

// Eaten returns the lunch items with at least one serving.
func Eaten(lunch *models.FoodRecord) []models.LunchItem {
	if lunch == nil {
		return nil
	}
	var out []models.LunchItem
	for _, it := range lunch.MenuItems {
		if it.Count > 0 {
			out = append(out, it)
		}
	}
	return out
}

// EatenSummary renders "밥 2인분, 김치 1인분".
func EatenSummary(eaten []models.LunchItem) string {
	parts := make([]string, 0, len(eaten))
	for _, it := range eaten {
		parts = append(parts, fmt.Sprintf("%s %d인분", it.Name, it.Count))
	}
	return strings.Join(parts, ", ")
}

// Comparison describes servings against the default single serving: dishes
// eaten more than once and menu dishes not eaten at all.
func Comparison(daily menu.Daily, lunch *models.FoodRecord) string {
	counts := make(map[string]int)
	if lunch != nil {
		for _, it := range lunch.MenuItems {
			counts[it.Name] = it.Count
		}
	}

	var b strings.Builder
	var more []string
	for _, it := range Eaten(lunch) {
		if it.Count > 1 {
			more = append(more, fmt.Sprintf("- %s: 기본 1인분 → 실제 %d인분 (+%d인분)", it.Name, it.Count, it.Count-1))
		}
	}
	if len(more) > 0 {
		b.WriteString("\n\n기본 양보다 더 드신 음식:\n")
		b.WriteString(strings.Join(more, "\n"))
	}

	var less []string
	for _, it := range daily.Items {
		if counts[it.Name] == 0 {
			less = append(less, fmt.Sprintf("- %s: 기본 1인분 → 실제 0인분", it.Name))
		}
	}
	if len(less) > 0 {
		b.WriteString("\n\n기본 양보다 덜 드신 음식:\n")
		b.WriteString(strings.Join(less, "\n"))
	}
	return b.String()
}

// NutritionGreeting opens the briefing.
func NutritionGreeting(daily menu.Daily, lunch *models.FoodRecord) string {
	return fmt.Sprintf("안녕! 오늘 점심에 %s를 드셨군요!%s", EatenSummary(Eaten(lunch)), Comparison(daily, lunch))
}

// NutritionAnalysisRequest is the hidden first user turn that asks the model
// for the serving analysis.
func NutritionAnalysisRequest(profile *models.UserRecord, daily menu.Daily, lunch *models.FoodRecord) string {
	var b strings.Builder
	b.WriteString("오늘 점심에 먹은 음식들:\n")
	for _, it := range Eaten(lunch) {
		fmt.Fprintf(&b, "- %s: %d인분\n", it.Name, it.Count)
	}
	b.WriteString("\n")
	b.WriteString(Comparison(daily, lunch))

	if allergies := allergiesOf(profile); len(allergies) > 0 {
		list := strings.Join(allergies, ", ")
		fmt.Fprintf(&b, "\n\n[알레르기 정보 - 간식 추천 시 필수 확인]\n학생의 알레르기: %s\n", list)
		fmt.Fprintf(&b, "- 간식을 추천할 때는 %s 알레르기 유발 성분이 포함된 간식은 절대 추천하지 마세요.\n", list)
		b.WriteString("- 알레르기가 없는 안전한 간식만 추천하세요.")
	}

	fmt.Fprintf(&b, "\n\n위 정보를 바탕으로 먹은 것들을 언급하고, 기본 양(1인분) 대비 무엇을 얼마나 더 먹었는지, 덜 먹었는지 안내해주세요. 그리고 마지막에 \"%s\"라고 질문해주세요.", SnackQuestion)
	return b.String()
}

// EatenDangers lists eaten dishes that contain the student's allergies.
func EatenDangers(profile *models.UserRecord, daily menu.Daily, lunch *models.FoodRecord) []Danger {
	allergies := allergiesOf(profile)
	if len(allergies) == 0 {
		return nil
	}
	var out []Danger
	for _, it := range Eaten(lunch) {
		item, ok := daily.Find(it.Name)
		if !ok {
			continue
		}
		if hits := menu.DangerousAllergens(allergies, item); len(hits) > 0 {
			out = append(out, Danger{Name: it.Name, Allergies: hits})
		}
	}
	return out
}

// NutritionBriefing is the system prompt of the post-lunch nutrition chat.
func NutritionBriefing(profile *models.UserRecord, daily menu.Daily, lunch *models.FoodRecord) string {
	eaten := Eaten(lunch)
	allergies := allergiesOf(profile)
	dangers := EatenDangers(profile, daily, lunch)

	var excessive, carbs []models.LunchItem
	for _, it := range eaten {
		if it.Count >= ExcessiveServings {
			excessive = append(excessive, it)
		}
		if it.Count >= CarbServings && menu.IsCarbRich(it.Name) {
			carbs = append(carbs, it)
		}
	}

	var b strings.Builder
	b.WriteString("당신은 영양사이자 건강 관리 전문가입니다. 학생들이 먹은 점심 식사의 영양을 분석하고 건강한 식습관을 위한 조언을 제공합니다.\n\n")
	fmt.Fprintf(&b, "오늘 학생이 먹은 점심 식사:\n%s\n", EatenSummary(eaten))
	if lunch != nil {
		fmt.Fprintf(&b, "총 칼로리: %gkcal\n", lunch.TotalCalories)
	}
	if len(allergies) > 0 {
		fmt.Fprintf(&b, "\n알레르기 정보: %s\n", strings.Join(allergies, ", "))
	}

	if len(dangers) > 0 {
		b.WriteString("\n[알레르기 주의 사항 - 매우 중요]\n학생이 먹은 음식 중 알레르기 반응을 유발할 수 있는 음식이 있습니다:\n")
		for _, d := range dangers {
			fmt.Fprintf(&b, "- %s (알레르기: %s)\n", d.Name, strings.Join(d.Allergies, ", "))
		}
		b.WriteString("1. 먼저 \"점심에 알레르기가 유발될 수 있는 음식을 드셨군요. 컨디션이 괜찮으신가요?\"라고 물어보세요.\n")
		b.WriteString("2. 컨디션 답변을 받은 뒤 해당 음식을 줄이는 것이 좋다고 조언하세요.\n")
		fmt.Fprintf(&b, "3. 예시: \"%s은(는) %s 알레르기가 있으니 좀 줄이는 게 좋을 것 같아요.\"\n",
			dangers[0].Name, strings.Join(dangers[0].Allergies, ", "))
	}

	if len(excessive) > 0 {
		b.WriteString("\n[과다 섭취 음식]\n")
		for _, it := range excessive {
			fmt.Fprintf(&b, "- %s: %d인분\n", it.Name, it.Count)
		}
		b.WriteString("지나치게 많이 섭취된 음식에 대해 언급하고 적절한 섭취량을 조언하세요.\n")
	}

	if len(carbs) > 0 {
		b.WriteString("\n[탄수화물이 많은 음식]\n")
		for _, it := range carbs {
			fmt.Fprintf(&b, "- %s: %d인분\n", it.Name, it.Count)
		}
		b.WriteString("탄수화물을 많이 섭취했으니 구체적인 운동 종류와 시간(예: 걷기 30분, 줄넘기 10분)을 함께 제안하세요.\n")
	}

	writeNutrition(&b, "오늘 급식의 전체 영양 정보:", daily.Nutrition)

	guidelines := []string{
		"모든 답변은 3문장 이내의 짧은 문장으로 작성하세요.",
		"기본 양(1인분) 대비 무엇을 얼마나 더 먹었는지, 덜 먹었는지만 안내하세요.",
		"기초대사량(BMR), BMI, 목표 몸무게, 식사 비율은 언급하지 마세요.",
		"건강한 식습관을 위한 구체적이고 실용적인 조언을 제공하세요.",
		"긍정적이고 격려하는 톤으로 답변하세요.",
		"학생의 건강을 위한 따뜻한 조언을 해주세요.",
	}
	if len(allergies) > 0 {
		guidelines = append(guidelines, fmt.Sprintf("간식을 추천할 때는 %s 알레르기가 있는 음식을 절대 추천하지 마세요. 추천한 뒤 피하라고 말하는 모순된 답변도 하지 마세요.", strings.Join(allergies, ", ")))
	}
	if len(carbs) > 0 {
		guidelines = append(guidelines, "탄수화물 과다 섭취 시 반드시 운동 처방을 함께 제공하세요.")
	}
	if len(dangers) > 0 {
		guidelines = append(guidelines, "[알레르기 주의 사항]의 음식은 대화 전체에서 계속 주의해야 하는 음식으로 설명하고, 컨디션 확인 후 조언하세요.")
	}
	if len(excessive) > 0 {
		guidelines = append(guidelines, "지나치게 많이 섭취된 음식에 대해서는 반드시 언급하고 조언을 제공하세요.")
	}

	b.WriteString("\n중요 지침:\n")
	for i, g := range guidelines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g)
	}
	b.WriteString("\n절대 금지: 모순된 표현, 알레르기 정보를 확인하지 않은 간식 추천, 이전 대화와 모순되는 알레르기 안내")
	return b.String()
}

func allergiesOf(profile *models.UserRecord) []string {
	if profile == nil {
		return nil
	}
	return profile.Allergies
}
