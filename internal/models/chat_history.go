package models

import "time"

// ChatMessage is one transcript turn.
type ChatMessage struct {
	Role    string `json:"role" firestore:"role" bson:"role"`
	Content string `json:"content" firestore:"content" bson:"content"`
	Hidden  bool   `json:"hidden,omitempty" firestore:"hidden,omitempty" bson:"hidden,omitempty"`
}

// ChatHistory is the write-only audit copy of a conversation, one per
// (UserID, Date, Type).
type ChatHistory struct {
	ID        string        `gorm:"type:varchar(36);primarykey" json:"id" firestore:"-" bson:"_id"`
	UserID    string        `gorm:"size:128;not null;uniqueIndex:idx_chat_histories_key" json:"userId" firestore:"userId" bson:"userId"`
	UserEmail string        `gorm:"size:255" json:"userEmail" firestore:"userEmail" bson:"userEmail"`
	UserName  string        `gorm:"size:100" json:"userName" firestore:"userName" bson:"userName"`
	Date      string        `gorm:"size:10;not null;uniqueIndex:idx_chat_histories_key" json:"date" firestore:"date" bson:"date"`
	Type      string        `gorm:"size:32;not null;uniqueIndex:idx_chat_histories_key" json:"type" firestore:"type" bson:"type"`
	SessionID string        `gorm:"size:36" json:"sessionId" firestore:"sessionId" bson:"sessionId"`
	Turns     int           `json:"turns" firestore:"turns" bson:"turns"`
	Messages  []ChatMessage `gorm:"type:text;serializer:json" json:"messages" firestore:"messages" bson:"messages"`
	CreatedAt time.Time     `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt" firestore:"updatedAt" bson:"updatedAt"`
}
