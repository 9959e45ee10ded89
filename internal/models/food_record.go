package models

import "time"

// Document collection names. GORM tables use its default snake_case plurals.
const (
	CollectionUsers        = "users"
	CollectionUserRecords  = "userRecords"
	CollectionDailyRecords = "dailyRecords"
	CollectionFoodRecords  = "foodRecords"
	CollectionChatHistory  = "chatHistory"
)

// AnonymousName is stored when the identity provider gives no display name.
const AnonymousName = "익명"

// RecordKind is the type field of a food record.
type RecordKind string

const (
	KindLunch RecordKind = "lunch"
	KindSnack RecordKind = "snack"
)

// Valid reports whether k is a known record kind.
func (k RecordKind) Valid() bool {
	return k == KindLunch || k == KindSnack
}

// LunchItem is one dish the student ate and how many servings.
type LunchItem struct {
	Name         string   `json:"name" firestore:"name" bson:"name"`
	Count        int      `json:"count" firestore:"count" bson:"count"`
	Calories     float64  `json:"calories" firestore:"calories" bson:"calories"`
	AllergyNames []string `json:"allergyNames,omitempty" firestore:"allergyNames,omitempty" bson:"allergyNames,omitempty"`
}

// FoodRecord is a lunch or snack entry. At most one exists per
// (UserID, Date, Type).
type FoodRecord struct {
	ID            string      `gorm:"type:varchar(36);primarykey" json:"id" firestore:"-" bson:"_id"`
	UserID        string      `gorm:"size:128;not null;uniqueIndex:idx_food_records_key" json:"userId" firestore:"userId" bson:"userId"`
	UserEmail     string      `gorm:"size:255" json:"userEmail" firestore:"userEmail" bson:"userEmail"`
	UserName      string      `gorm:"size:100" json:"userName" firestore:"userName" bson:"userName"`
	Date          string      `gorm:"size:10;not null;uniqueIndex:idx_food_records_key;index" json:"date" firestore:"date" bson:"date"`
	Type          RecordKind  `gorm:"size:16;not null;uniqueIndex:idx_food_records_key" json:"type" firestore:"type" bson:"type"`
	MenuItems     []LunchItem `gorm:"type:text;serializer:json" json:"menuItems,omitempty" firestore:"menuItems,omitempty" bson:"menuItems,omitempty"`
	TotalCalories float64     `json:"totalCalories,omitempty" firestore:"totalCalories,omitempty" bson:"totalCalories,omitempty"`
	Snacks        []string    `gorm:"type:text;serializer:json" json:"snacks,omitempty" firestore:"snacks,omitempty" bson:"snacks,omitempty"`
	Count         int         `json:"count,omitempty" firestore:"count,omitempty" bson:"count,omitempty"`
	CreatedAt     time.Time   `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}
