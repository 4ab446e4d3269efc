// Package domain contains case attachment types.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Attachment is a stored file tied to a case. ObjectKey identifies the
// blob in the object store; the row and the blob live and die together.
type Attachment struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	CaseID      snowflake.ID `gorm:"column:case_id;not null;index"`
	UploadedBy  snowflake.ID `gorm:"column:uploaded_by;not null"`
	FileName    string       `gorm:"column:file_name;type:text;not null"`
	ObjectKey   string       `gorm:"column:object_key;type:text;not null;uniqueIndex"`
	Size        int64        `gorm:"column:size;not null"`
	ContentType string       `gorm:"column:content_type;type:text"`
	CreatedAt   time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP;index"`
}

// TableName sets the database table name.
func (Attachment) TableName() string { return "case_attachments" }
