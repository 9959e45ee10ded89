package menu

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the NEIS MLSV_YMD format.
const DateLayout = "20060102"

// Daily is the normalized lunch menu for one date.
type Daily struct {
	Date          string          `json:"date"`
	Items         []Item          `json:"items"`
	TotalCalories float64         `json:"totalCalories"`
	Nutrition     []NutritionFact `json:"nutrition,omitempty"`
	Origin        string          `json:"origin,omitempty"`
	Fallback      bool            `json:"fallback"`
}

// Default returns the fixed five-dish menu used whenever NEIS data is
// unavailable.
func Default(date string) Daily {
	items := []Item{
		{Name: "밥", Calories: 210},
		{Name: "된장찌개", Calories: 120},
		{Name: "김치", Calories: 15},
		{Name: "계란후라이", Calories: 90},
		{Name: "시금치나물", Calories: 30},
	}
	var total float64
	for i := range items {
		items[i].AllergyCodes = []int{}
		items[i].AllergyNames = []string{}
		total += items[i].Calories
	}
	return Daily{Date: date, Items: items, TotalCalories: total, Fallback: true}
}

// Find returns the item with the given name.
func (d Daily) Find(name string) (Item, bool) {
	for _, it := range d.Items {
		if it.Name == name {
			return it, true
		}
	}
	return Item{}, false
}

// NormalizeDate accepts YYYYMMDD or YYYY-MM-DD and returns YYYYMMDD. An empty
// input yields today's date in loc.
func NormalizeDate(date string, loc *time.Location) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Now().In(loc).Format(DateLayout), nil
	}
	for _, layout := range []string{DateLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date %q: want YYYYMMDD or YYYY-MM-DD", date)
}

// ISODate converts YYYYMMDD to the YYYY-MM-DD form used by stored records.
func ISODate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("2006-01-02")
}

// FormatList renders the numbered menu shown at the start of a meal chat.
func (d Daily) FormatList() string {
	if len(d.Items) == 0 {
		return "오늘은 급식 메뉴 정보를 가져올 수 없어. (주말이거나 공휴일일 수 있어)"
	}
	var b strings.Builder
	if t, err := time.Parse(DateLayout, d.Date); err == nil {
		fmt.Fprintf(&b, "📅 %d년 %d월 %d일 오늘의 점심 메뉴\n\n", t.Year(), int(t.Month()), t.Day())
	} else {
		b.WriteString("📅 오늘의 점심 메뉴\n\n")
	}
	for i, it := range d.Items {
		fmt.Fprintf(&b, "%d. %s", i+1, it.Name)
		if len(it.AllergyNames) > 0 {
			fmt.Fprintf(&b, " (알레르기: %s)", strings.Join(it.AllergyNames, ", "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n총 칼로리: %.1fkcal", d.TotalCalories)
	return b.String()
}
