package menu

import (
	"fmt"
	"strconv"
	"strings"
)

// allergenNames is the NEIS allergen numbering, codes 1 through 19.
var allergenNames = map[int]string{
	1:  "난류",
	2:  "우유",
	3:  "메밀",
	4:  "땅콩",
	5:  "대두",
	6:  "밀",
	7:  "고등어",
	8:  "게",
	9:  "새우",
	10: "돼지고기",
	11: "복숭아",
	12: "토마토",
	13: "아황산류",
	14: "호두",
	15: "닭고기",
	16: "쇠고기",
	17: "오징어",
	18: "조개류(굴,전복,홍합 포함)",
	19: "잣",
}

// allergenCodes maps the names students pick in their profile back to codes.
var allergenCodes = map[string]int{
	"난류":   1,
	"우유":   2,
	"메밀":   3,
	"땅콩":   4,
	"대두":   5,
	"밀":    6,
	"고등어":  7,
	"게":    8,
	"새우":   9,
	"돼지고기": 10,
	"복숭아":  11,
	"토마토":  12,
	"아황산류": 13,
	"호두":   14,
	"닭고기":  15,
	"쇠고기":  16,
	"오징어":  17,
	"조개류":  18,
	"잣":    19,
}

// AllergenCount is the size of the allergen table.
const AllergenCount = 19

// AllergenName returns the display name for a code. Codes outside the table
// render as "알레르기N번".
func AllergenName(code int) string {
	if name, ok := allergenNames[code]; ok {
		return name
	}
	return fmt.Sprintf("알레르기%d번", code)
}

// AllergenCode looks up the code for a profile allergy name.
func AllergenCode(name string) (int, bool) {
	code, ok := allergenCodes[strings.TrimSpace(name)]
	return code, ok
}

// ProfileAllergenName is the short name used in student profiles for a code.
func ProfileAllergenName(code int) string {
	for name, c := range allergenCodes {
		if c == code {
			return name
		}
	}
	return strconv.Itoa(code)
}

// ParseAllergyCodes turns "5.6.16" into [5 6 16]. Segments that are not
// numbers are skipped.
func ParseAllergyCodes(info string) []int {
	var codes []int
	for _, part := range strings.Split(info, ".") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		codes = append(codes, n)
	}
	return codes
}

// AllergenNames maps codes to display names, preserving order.
func AllergenNames(codes []int) []string {
	names := make([]string, 0, len(codes))
	for _, c := range codes {
		names = append(names, AllergenName(c))
	}
	return names
}

// DangerousAllergens returns the student's allergies that appear in item, in
// the item's code order and using profile names.
func DangerousAllergens(userAllergies []string, item Item) []string {
	if len(userAllergies) == 0 || len(item.AllergyCodes) == 0 {
		return nil
	}
	wanted := make(map[int]bool, len(userAllergies))
	for _, a := range userAllergies {
		if code, ok := AllergenCode(a); ok {
			wanted[code] = true
		}
	}
	var hits []string
	for _, code := range item.AllergyCodes {
		if wanted[code] {
			hits = append(hits, ProfileAllergenName(code))
			delete(wanted, code)
		}
	}
	return hits
}

// AllergenLegend renders the numbered table used in chat prompts.
func AllergenLegend() string {
	var b strings.Builder
	for code := 1; code <= AllergenCount; code++ {
		fmt.Fprintf(&b, "%d = %s\n", code, AllergenName(code))
	}
	return strings.TrimRight(b.String(), "\n")
}
