// Package prompt builds the system prompts and scripted messages of the
// lunch chat and the nutrition briefing. Everything here is pure; callers
// load the profile and menu and rebuild the prompt on every turn.
package prompt

import (
	"fmt"
	"strings"

	"github.com/babcheck/babcheck/backend/internal/menu"
	"github.com/babcheck/babcheck/backend/internal/models"
)

// Scripted lunch chat lines.
const (
	MealGreeting   = "안녕! 오늘 점심메뉴를 알려줄게."
	HealthQuestion = "오늘 건강은 어때? 컨디션이 어떤지 궁금해!"
	Apology        = "죄송합니다. 응답을 생성하는 중 오류가 발생했습니다. 다시 시도해주세요."
	TruncationNote = "\n\n(응답이 길어서 일부가 잘렸을 수 있습니다. 더 짧게 질문해주시면 더 자세히 답변드릴 수 있어요!)"

	// HealthFollowUpDelayMs paces the allergy notice after the model reply.
	HealthFollowUpDelayMs = 1500
	// HealthFollowUpTurns is the last turn that can trigger the notice.
	HealthFollowUpTurns = 2
)

var healthKeywords = []string{"좋", "괜찮", "안좋", "나쁘", "피곤", "아픈", "컨디션", "건강"}

// IsHealthReply reports whether a student message answers the condition
// question.
func IsHealthReply(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range healthKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DisplayName falls back to "너" so scripted lines stay grammatical.
func DisplayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "너"
	}
	return name
}

// Danger is a dish together with the student's allergies it contains.
type Danger struct {
	Name      string   `json:"name"`
	Allergies []string `json:"allergies"`
}

// DangerousDishes lists dishes on the menu that contain any of allergies.
func DangerousDishes(allergies []string, items []menu.Item) []Danger {
	var out []Danger
	for _, it := range items {
		if hits := menu.DangerousAllergens(allergies, it); len(hits) > 0 {
			out = append(out, Danger{Name: it.Name, Allergies: hits})
		}
	}
	return out
}

// AllergyNotice is the scripted follow-up after the student answers the
// condition question. It is empty when the student has no allergies.
func AllergyNotice(name string, allergies []string, items []menu.Item) string {
	if len(allergies) == 0 {
		return ""
	}
	who := DisplayName(name)
	list := strings.Join(allergies, ", ")

	dangers := DangerousDishes(allergies, items)
	if len(dangers) == 0 {
		return fmt.Sprintf("%s는 %s 알레르기가 있지만, 오늘 급식에는 해당 알레르기 성분이 포함된 메뉴가 없어서 안전하게 먹을 수 있어!", who, list)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "참! %s는 %s 알레르기가 있네. 아래와 같은 음식을 조심해야 해:\n\n", who, list)
	for i, d := range dangers {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s (%s)", i+1, d.Name, strings.Join(d.Allergies, ", "))
	}
	return b.String()
}

// MealChat is the system prompt for the lunch chat. profile may be nil.
func MealChat(profile *models.UserRecord, daily menu.Daily, displayName string) string {
	var b strings.Builder

	b.WriteString(`당신은 학교 급식 관리 챗봇입니다. 학생들과 친근하고 따뜻하게 대화하며 오늘의 급식에 대해 이야기합니다.

**말투 규칙**
- 반드시 반말을 사용하세요. ("~해", "~야", "~지")
- 친절하고 따뜻한 톤을 유지하고, 초등학생도 이해할 수 있는 쉬운 말을 쓰세요.
- 절대로 존댓말("~하세요", "~하시다")을 사용하지 마세요.

**알레르기 정보 일관성**
- 한 번 주의해야 한다고 안내한 음식은 같은 대화 안에서 계속 주의해야 하는 음식으로 설명하세요.
- 이전 대화 히스토리에서 언급한 알레르기, 건강 상태, 추천 내용을 기억하고 번복하지 마세요.

`)

	b.WriteString("오늘의 급식 메뉴 정보:\n")
	for i, it := range daily.Items {
		fmt.Fprintf(&b, "%d. %s", i+1, it.Name)
		if len(it.AllergyNames) > 0 {
			fmt.Fprintf(&b, " (알레르기: %s)", strings.Join(it.AllergyNames, ", "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "총 칼로리: %.1fkcal\n", positive(daily.TotalCalories))

	if profile != nil && len(profile.Allergies) > 0 {
		name := displayName
		if name == "" {
			name = "학생"
		}
		fmt.Fprintf(&b, "\n[기록 관리 탭에 입력한 학생 정보 - 참고용]\n학생 이름: %s\n학생의 알레르기 정보: %s\n", name, strings.Join(profile.Allergies, ", "))
		b.WriteString("- 알레르기 정보는 컨디션 질문에 대한 답변 후 자동으로 별도 안내됩니다. 컨디션 답변에는 컨디션 피드백만 주고 알레르기는 언급하지 마세요.\n")
	}

	writeNutrition(&b, "상세 영양 정보:", daily.Nutrition)

	b.WriteString("\n알레르기 번호 매핑표 (급식 메뉴의 괄호 안 숫자는 알레르기 번호입니다):\n")
	b.WriteString(menu.AllergenLegend())
	b.WriteString("\n")

	b.WriteString(`
중요 지침:
1. 모든 답변은 5문장 이내의 짧은 문장으로 작성하세요.
2. 위 "오늘의 급식 메뉴 정보"에 있는 메뉴만 사용하고, 메뉴를 지어내거나 추가하지 마세요.
3. 메뉴를 알려줄 때는 한 줄에 하나씩 개조식으로 표시하세요.
4. 상세 영양 정보(탄수화물, 단백질, 지방 등)를 활용해 정확하게 답변하세요.
5. 대화는 3~7회 정도로 자연스럽게 진행하세요.
6. 긍정적이고 격려하는 톤으로 답변하세요.
7. 기초대사량(BMR), BMI, 목표 몸무게, 식사 비율은 언급하지 마세요.
8. 칼로리가 맞는지 확인하는 질문 대신 학생에게 맞는 메뉴를 추천하는 방향으로 대화를 이끄세요.`)

	return b.String()
}

func writeNutrition(b *strings.Builder, title string, facts []menu.NutritionFact) {
	if len(facts) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", title)
	for _, f := range facts {
		fmt.Fprintf(b, "%s: %s\n", f.Name, f.Value)
	}
}

func positive(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
