package menu

// DefaultCalories is the estimate for dishes no keyword matches.
const DefaultCalories = 100

// calorieRules is order sensitive: "김치볶음밥" is rice, "김치찌개" is stew.
var calorieRules = []Rule[float64]{
	{Match: Contains("밥", "쌀밥"), Outcome: 210},
	{Match: Contains("국", "탕"), Outcome: 50},
	{Match: Contains("찌개", "전골"), Outcome: 120},
	{Match: Contains("나물", "무침"), Outcome: 30},
	{Match: Contains("볶음"), Outcome: 150},
	{Match: Contains("구이", "조림"), Outcome: 180},
	{Match: Contains("튀김"), Outcome: 200},
	{Match: Contains("김치"), Outcome: 15},
}

var carbRules = []Rule[bool]{
	{Match: Contains(
		"밥", "쌀밥", "볶음밥", "비빔밥", "빵", "식빵", "토스트", "샌드위치",
		"면", "국수", "라면", "우동", "파스타", "스파게티", "떡", "떡볶이",
		"과자", "쿠키", "비스킷", "크래커", "도넛", "케이크", "만두",
		"수제비", "칼국수", "냉면", "짜장면", "짬뽕", "라멘", "당면", "쫄면",
	), Outcome: true},
}

// Estimate returns the keyword-based calorie guess for one serving.
func Estimate(name string) float64 {
	return FirstMatch(calorieRules, name, DefaultCalories)
}

// IsCarbRich reports whether name looks like a carbohydrate-heavy dish.
func IsCarbRich(name string) bool {
	return FirstMatch(carbRules, name, false)
}

// Adjusted rescales Estimate(name) so that the estimates of items sum to
// total. It returns the raw estimate when total is not positive or the
// estimates sum to zero.
func Adjusted(name string, items []Item, total float64) float64 {
	est := Estimate(name)
	if total <= 0 || len(items) == 0 {
		return est
	}
	var sum float64
	for _, it := range items {
		sum += Estimate(it.Name)
	}
	if sum == 0 {
		return est
	}
	return est * total / sum
}

// ApplyAdjusted returns a copy of items with Calories set to the adjusted
// estimate of each dish.
func ApplyAdjusted(items []Item, total float64) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.Calories = Adjusted(it.Name, items, total)
		out[i] = it
	}
	return out
}
