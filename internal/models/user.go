package models

import "time"

// Roles a signed-in account can hold.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User is the users/{uid} document. ID is the identity provider uid.
type User struct {
	ID        string    `gorm:"size:128;primarykey" json:"id" firestore:"-" bson:"_id"`
	Email     string    `gorm:"size:255" json:"email" firestore:"email" bson:"email"`
	Name      string    `gorm:"size:100" json:"name" firestore:"name" bson:"name"`
	Role      string    `gorm:"size:16;not null;default:'student'" json:"role" firestore:"role" bson:"role"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

// UserRecord is the latest health profile, userRecords/{uid}.
type UserRecord struct {
	UserID       string    `gorm:"size:128;primarykey" json:"userId" firestore:"userId" bson:"_id"`
	UserEmail    string    `gorm:"size:255" json:"userEmail" firestore:"userEmail" bson:"userEmail"`
	UserName     string    `gorm:"size:100" json:"userName" firestore:"userName" bson:"userName"`
	Height       float64   `json:"height" firestore:"height" bson:"height"`
	Weight       float64   `json:"weight" firestore:"weight" bson:"weight"`
	TargetWeight float64   `json:"targetWeight,omitempty" firestore:"targetWeight,omitempty" bson:"targetWeight,omitempty"`
	Age          int       `json:"age" firestore:"age" bson:"age"`
	Gender       string    `gorm:"size:16" json:"gender" firestore:"gender" bson:"gender"`
	BMI          float64   `json:"bmi" firestore:"bmi" bson:"bmi"`
	BMR          *float64  `json:"bmr" firestore:"bmr" bson:"bmr"`
	Allergies    []string  `gorm:"type:text;serializer:json" json:"allergies" firestore:"allergies" bson:"allergies"`
	Date         string    `gorm:"size:10" json:"date" firestore:"date" bson:"date"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}

// DailyRecord is the per-date snapshot used for trend charts,
// userRecords/{uid}/dailyRecords/{date}.
type DailyRecord struct {
	UserID       string    `gorm:"size:128;primarykey" json:"userId" firestore:"userId" bson:"userId"`
	Date         string    `gorm:"size:10;primarykey" json:"date" firestore:"date" bson:"date"`
	UserEmail    string    `gorm:"size:255" json:"userEmail" firestore:"userEmail" bson:"userEmail"`
	UserName     string    `gorm:"size:100" json:"userName" firestore:"userName" bson:"userName"`
	Height       float64   `json:"height" firestore:"height" bson:"height"`
	Weight       float64   `json:"weight" firestore:"weight" bson:"weight"`
	TargetWeight float64   `json:"targetWeight,omitempty" firestore:"targetWeight,omitempty" bson:"targetWeight,omitempty"`
	Age          int       `json:"age" firestore:"age" bson:"age"`
	Gender       string    `gorm:"size:16" json:"gender" firestore:"gender" bson:"gender"`
	BMI          float64   `json:"bmi" firestore:"bmi" bson:"bmi"`
	BMR          *float64  `json:"bmr" firestore:"bmr" bson:"bmr"`
	Allergies    []string  `gorm:"type:text;serializer:json" json:"allergies" firestore:"allergies" bson:"allergies"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
}

// Daily returns the snapshot of r for its Date.
func (r *UserRecord) Daily() *DailyRecord {
	return &DailyRecord{
		UserID:       r.UserID,
		Date:         r.Date,
		UserEmail:    r.UserEmail,
		UserName:     r.UserName,
		Height:       r.Height,
		Weight:       r.Weight,
		TargetWeight: r.TargetWeight,
		Age:          r.Age,
		Gender:       r.Gender,
		BMI:          r.BMI,
		BMR:          r.BMR,
		Allergies:    r.Allergies,
	}
}
