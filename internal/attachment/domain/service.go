package domain

import (
	"context"
	"errors"
	"io"

	"github.com/bwmarrin/snowflake"
)

// File is one member of an upload batch.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// UploadResult reports the outcome for a single file. Err is nil on
// success.
type UploadResult struct {
	FileName   string
	Attachment *Attachment
	Err        error
}

type UploadAllRequest struct {
	CaseID     snowflake.ID
	UploadedBy snowflake.ID
	Files      []File
}

type Service interface {
	// UploadAll stores each file in turn. A failed file is reported in
	// its result and the loop moves on; earlier uploads are kept.
	UploadAll(ctx context.Context, req UploadAllRequest) ([]UploadResult, error)
	List(ctx context.Context, caseID snowflake.ID) ([]Attachment, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Attachment, error)
	Open(ctx context.Context, id snowflake.ID) (io.ReadCloser, *Attachment, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrNotFound     = errors.New("attachment_not_found")
	ErrEmptyBatch   = errors.New("empty_upload_batch")
	ErrInvalidCase  = errors.New("invalid_case")
	ErrFileTooLarge = errors.New("file_too_large")
)
