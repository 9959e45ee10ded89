package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBMI(t *testing.T) {
	bmi, err := CalculateBMI(160, 51.2)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, bmi, 1e-9)

	_, err = CalculateBMI(0, 50)
	assert.ErrorIs(t, err, ErrInvalidMeasurement)
	_, err = CalculateBMI(160, -1)
	assert.ErrorIs(t, err, ErrInvalidMeasurement)
}

func TestBMIStatus(t *testing.T) {
	tests := []struct {
		bmi  float64
		want string
	}{
		{17.9, "저체중"},
		{18.5, "정상"},
		{22.99, "정상"},
		{23, "과체중"},
		{25, "비만"},
		{29.9, "비만"},
		{30, "고도비만"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BMIStatus(tt.bmi), "bmi %.2f", tt.bmi)
	}
}

func TestCalculateBMR(t *testing.T) {
	bmr, ok := CalculateBMR(60, 170, 16, "male")
	require.True(t, ok)
	assert.InDelta(t, 600+1062.5-80+5, bmr, 1e-9)

	bmr, ok = CalculateBMR(50, 160, 15, "female")
	require.True(t, ok)
	assert.InDelta(t, 500+1000-75-161, bmr, 1e-9)

	_, ok = CalculateBMR(50, 160, 0, "female")
	assert.False(t, ok)
}
