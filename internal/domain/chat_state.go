package domain

import "time"

// ChatStateSingletonID is the primary key of the only chat_state row.
const ChatStateSingletonID = 1

// ChatState stores the last Telegram chat that talked to the bot. The table
// holds a single row keyed by ChatStateSingletonID.
type ChatState struct {
	ID         uint      `gorm:"primaryKey;autoIncrement:false"`
	LastChatID int64     `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the database table name for ChatState.
func (ChatState) TableName() string { return "chat_state" }
