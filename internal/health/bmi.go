// Package health computes body metrics shown in the student's record tab.
package health

import "errors"

// ErrInvalidMeasurement is returned for non-positive height, weight or age.
var ErrInvalidMeasurement = errors.New("키, 몸무게, 나이를 모두 입력해주세요")

// CalculateBMI expects height in centimeters and weight in kilograms.
func CalculateBMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, ErrInvalidMeasurement
	}
	h := heightCm / 100.0
	return weightKg / (h * h), nil
}

// BMIStatus uses the Korean (KSSO) cut-offs.
func BMIStatus(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "저체중"
	case bmi < 23:
		return "정상"
	case bmi < 25:
		return "과체중"
	case bmi < 30:
		return "비만"
	default:
		return "고도비만"
	}
}

// CalculateBMR uses the Mifflin-St Jeor equation. gender "male" adds 5,
// anything else subtracts 161. ok is false when any input is not positive.
func CalculateBMR(weightKg, heightCm float64, age int, gender string) (bmr float64, ok bool) {
	if weightKg <= 0 || heightCm <= 0 || age <= 0 {
		return 0, false
	}
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == "male" {
		return base + 5, true
	}
	return base - 161, true
}
