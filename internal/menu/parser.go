package menu

import (
	"regexp"
	"strconv"
	"strings"
)

// Item is one dish of a day's menu.
type Item struct {
	Name         string   `json:"name"`
	Calories     float64  `json:"calories"`
	AllergyCodes []int    `json:"allergyCodes"`
	AllergyInfo  string   `json:"allergyInfo"`
	AllergyNames []string `json:"allergyNames"`
}

// NutritionFact is one "key : value" pair of the NEIS nutrition block.
type NutritionFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var (
	lineBreakPattern  = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	parenGroupPattern = regexp.MustCompile(`\(([^)]*)\)`)
	allergyPattern    = regexp.MustCompile(`^[\d.]+$`)
	trailingDigits    = regexp.MustCompile(`\d+$`)
	kcalPattern       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kcal`)
	nutritionPair     = regexp.MustCompile(`^(.+?)\s*:\s*(.+)$`)

	unitSuffix = regexp.MustCompile(`(공기|개|그릇|접시|마리|조각|쪽|장|줄|포기|송이|알|봉지|팩|병|컵|잔|인분)\s*\d*$`)

	countableSuffix = regexp.MustCompile(`(` + strings.Join([]string{
		// grilled
		"구이",
		// fruit
		"과일", "귤", "사과", "배", "바나나", "오렌지", "포도", "딸기", "참외", "수박", "멜론", "키위",
		"망고", "파인애플", "자두", "복숭아", "살구", "체리", "감", "감귤", "한라봉", "레몬", "라임",
		"석류", "무화과", "대추", "밤",
		// nuts and seeds
		"호두", "땅콩", "잣", "아몬드", "캐슈넛", "피스타치오", "마카다미아", "브라질넛", "헤이즐넛",
		"피칸", "피넛", "해바라기씨", "호박씨", "참깨", "들깨", "깨",
		// beans, tubers, eggs
		"콩", "완두콩", "강낭콩", "병아리콩", "렌틸콩", "녹두", "팥", "서리태", "검은콩", "고구마",
		"옥수수", "감자", "계란",
		// snacks
		"쿠키", "과자", "비스킷", "크래커", "스낵", "사탕", "젤리", "초콜릿", "초코", "캔디", "껌",
	}, "|") + `)\d*$`)
)

// keepsTrailingCount reports whether a trailing number on name is a count
// worth keeping rather than a NEIS footnote marker.
var keepsTrailingCount = []Rule[bool]{
	{Match: unitSuffix.MatchString, Outcome: true},
	{Match: countableSuffix.MatchString, Outcome: true},
}

// ParseDishes turns the DDISH_NM field into menu items. Calories are left at
// zero; only the day's aggregate figure is trusted.
func ParseDishes(raw string) []Item {
	text := lineBreakPattern.ReplaceAllString(raw, "|")
	text = tagPattern.ReplaceAllString(text, "")

	candidates := splitNonEmpty(text, "|")
	if len(candidates) == 1 && strings.Contains(candidates[0], ",") {
		candidates = splitNonEmpty(candidates[0], ",")
	}

	items := make([]Item, 0, len(candidates))
	for _, c := range candidates {
		item, ok := parseDish(c)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

func parseDish(candidate string) (Item, bool) {
	var info string
	for _, m := range parenGroupPattern.FindAllStringSubmatch(candidate, -1) {
		content := strings.TrimSpace(m[1])
		if content != "" && allergyPattern.MatchString(content) {
			info = content
			break
		}
	}

	name := strings.TrimSpace(parenGroupPattern.ReplaceAllString(candidate, ""))
	if !FirstMatch(keepsTrailingCount, name, false) {
		name = strings.TrimSpace(trailingDigits.ReplaceAllString(name, ""))
	}
	if name == "" {
		return Item{}, false
	}

	codes := ParseAllergyCodes(info)
	return Item{
		Name:         name,
		AllergyCodes: codes,
		AllergyInfo:  info,
		AllergyNames: AllergenNames(codes),
	}, true
}

// ParseTotalCalories extracts the kcal figure from CAL_INFO, or 0.
func ParseTotalCalories(calInfo string) float64 {
	m := kcalPattern.FindStringSubmatch(calInfo)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseNutrition splits NTR_INFO into ordered facts. Entries are separated by
// line-break markup or semicolons.
func ParseNutrition(ntrInfo string) []NutritionFact {
	text := lineBreakPattern.ReplaceAllString(ntrInfo, ";")
	var facts []NutritionFact
	for _, part := range splitNonEmpty(text, ";") {
		m := nutritionPair.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		facts = append(facts, NutritionFact{
			Name:  strings.TrimSpace(m[1]),
			Value: strings.TrimSpace(m[2]),
		})
	}
	return facts
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
