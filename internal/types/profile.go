package types

import (
	"time"

	"github.com/babcheck/babcheck/backend/internal/models"
)

// ProfileRequest represents the health profile form
type ProfileRequest struct {
	Height       float64  `json:"height" binding:"required,gt=0"`
	Weight       float64  `json:"weight" binding:"required,gt=0"`
	TargetWeight float64  `json:"targetWeight" binding:"gte=0"`
	Age          int      `json:"age" binding:"required,gt=0"`
	Gender       string   `json:"gender" binding:"omitempty,oneof=male female"`
	Allergies    []string `json:"allergies"`
	Date         string   `json:"date"`
}

// ProfileResponse is the stored profile with its derived BMI category.
type ProfileResponse struct {
	*models.UserRecord
	BMIStatus string `json:"bmiStatus"`
}

// MeResponse describes the caller.
type MeResponse struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
}

// MonitorEntry is one student's records for the monitored day.
type MonitorEntry struct {
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	Lunch         []string  `json:"lunch"`
	Snacks        []string  `json:"snacks"`
	TotalCalories float64   `json:"totalCalories"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MonitorResponse lists the day's entries, newest first.
type MonitorResponse struct {
	Date         string         `json:"date"`
	StudentCount int            `json:"studentCount"`
	Entries      []MonitorEntry `json:"entries"`
}
