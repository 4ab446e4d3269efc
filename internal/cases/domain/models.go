// Package domain contains recovery case types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the lifecycle state of a recovery case.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusRejected   Status = "rejected"
)

// Valid reports whether s is a known case status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed, StatusRejected:
		return true
	}
	return false
}

// Case is a client-opened recovery request.
type Case struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	UserID      snowflake.ID      `gorm:"column:user_id;not null;index"`
	Reference   string            `gorm:"column:reference;type:text;not null;uniqueIndex"`
	Title       string            `gorm:"column:title;type:text;not null"`
	Description string            `gorm:"column:description;type:text"`
	CaseType    string            `gorm:"column:case_type;type:text;not null"`
	Status      Status            `gorm:"column:status;type:text;not null;index"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}';serializer:json"`
	CreatedAt   time.Time         `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Case) TableName() string { return "cases" }

// Message is a conversation entry between a client and staff on a case.
type Message struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CaseID    snowflake.ID `gorm:"column:case_id;not null;index"`
	SenderID  snowflake.ID `gorm:"column:sender_id;not null"`
	Body      string       `gorm:"column:body;type:text;not null"`
	Read      bool         `gorm:"column:read;not null;default:false"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Message) TableName() string { return "case_messages" }

// ProgressUpdate is a staff-entered note about where a case stands.
type ProgressUpdate struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CaseID    snowflake.ID `gorm:"column:case_id;not null;index"`
	AuthorID  snowflake.ID `gorm:"column:author_id;not null"`
	Stage     string       `gorm:"column:stage;type:text;not null"`
	Note      string       `gorm:"column:note;type:text"`
	CreatedAt time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ProgressUpdate) TableName() string { return "case_progress_updates" }
