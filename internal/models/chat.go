package models

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultSessionType = "REQUIREMENT_ANALYSIS"

type ChatSession struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID        uint64    `gorm:"not null;index" json:"project_id"`
	Title            string    `gorm:"type:varchar(200);not null" json:"title"`
	SessionType      string    `gorm:"type:varchar(32)" json:"session_type"`
	Summary          *string   `gorm:"type:text" json:"summary"`
	SummaryAttempted bool      `gorm:"not null;default:false" json:"-"`
	MessageCount     int       `gorm:"not null;default:0" json:"message_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `gorm:"index" json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

type ChatMessage struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  uint64         `gorm:"not null;index:idx_chat_msg_session_ts,priority:1" json:"session_id"`
	Role       MessageRole    `gorm:"type:varchar(16);not null" json:"role"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	TokenCount *int           `json:"token_count,omitempty"`
	Metadata   datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
	Timestamp  time.Time      `gorm:"not null;index:idx_chat_msg_session_ts,priority:2" json:"timestamp"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

func (m ChatMessage) IsUser() bool { return m.Role == RoleUser }
