package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateCaseRequest struct {
	UserID      snowflake.ID
	Title       string
	Description string
	CaseType    string
}

type ListCaseRequest struct {
	UserID snowflake.ID // zero lists all cases (staff view)
	Status *Status
	Limit  int
	Offset int
}

type AddMessageRequest struct {
	CaseID   snowflake.ID
	SenderID snowflake.ID
	Body     string
}

type AddProgressRequest struct {
	CaseID   snowflake.ID
	AuthorID snowflake.ID
	Stage    string
	Note     string
}

type Service interface {
	Create(ctx context.Context, req CreateCaseRequest) (*Case, error)
	List(ctx context.Context, req ListCaseRequest) ([]Case, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Case, error)
	GetByReference(ctx context.Context, reference string) (*Case, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, to Status) (*Case, error)
	AddMessage(ctx context.Context, req AddMessageRequest) (*Message, error)
	ListMessages(ctx context.Context, caseID snowflake.ID) ([]Message, error)
	MarkRead(ctx context.Context, caseID snowflake.ID, readerID snowflake.ID) error
	AddProgress(ctx context.Context, req AddProgressRequest) (*ProgressUpdate, error)
	ListProgress(ctx context.Context, caseID snowflake.ID) ([]ProgressUpdate, error)
	NudgeInProgress(ctx context.Context, caseID snowflake.ID) error
}

var (
	ErrNotFound        = errors.New("case_not_found")
	ErrInvalidTitle    = errors.New("invalid_case_title")
	ErrInvalidCaseType = errors.New("invalid_case_type")
	ErrInvalidStatus   = errors.New("invalid_case_status")
	ErrInvalidUser     = errors.New("invalid_user")
	ErrEmptyMessage    = errors.New("empty_message_body")
	ErrInvalidStage    = errors.New("invalid_progress_stage")
)
