package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/reclaimlabs/recoveryhub/internal/audit/domain"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/pkg/db/option"
	"github.com/reclaimlabs/recoveryhub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxListLimit = 100

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	cases    repository.Repository[casedomain.Case]
	messages repository.Repository[casedomain.Message]
	progress repository.Repository[casedomain.ProgressUpdate]
	auditSvc auditdomain.Service
}

func New(p Params) casedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("cases.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cases:    repository.ProvideStore[casedomain.Case](p.DB),
		messages: repository.ProvideStore[casedomain.Message](p.DB),
		progress: repository.ProvideStore[casedomain.ProgressUpdate](p.DB),
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req casedomain.CreateCaseRequest) (*casedomain.Case, error) {
	if req.UserID == 0 {
		return nil, casedomain.ErrInvalidUser
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, casedomain.ErrInvalidTitle
	}
	caseType := strings.TrimSpace(req.CaseType)
	if caseType == "" {
		return nil, casedomain.ErrInvalidCaseType
	}

	now := s.clock.Now()
	id := s.genID.Generate()
	c := casedomain.Case{
		ID:          id,
		UserID:      req.UserID,
		Reference:   newReference(title, id),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		CaseType:    caseType,
		Status:      casedomain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.cases.Create(ctx, &c); err != nil {
		return nil, err
	}

	s.audit(ctx, req.UserID, "case.created", c.ID, map[string]any{
		"reference": c.Reference,
		"case_type": c.CaseType,
	})
	return &c, nil
}

func (s *Service) List(ctx context.Context, req casedomain.ListCaseRequest) ([]casedomain.Case, error) {
	query := casedomain.Case{}
	if req.UserID != 0 {
		query.UserID = req.UserID
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, casedomain.ErrInvalidStatus
		}
		query.Status = *req.Status
	}

	limit := req.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Default: "created_at", Desc: true}),
		option.WithLimit(limit),
	}
	if req.Offset > 0 {
		opts = append(opts, option.WithOffset(req.Offset))
	}

	rows, err := s.cases.Find(ctx, &query, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]casedomain.Case, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*casedomain.Case, error) {
	c, err := s.cases.FindOne(ctx, &casedomain.Case{ID: id})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, casedomain.ErrNotFound
	}
	return c, nil
}

func (s *Service) GetByReference(ctx context.Context, reference string) (*casedomain.Case, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, casedomain.ErrNotFound
	}
	c, err := s.cases.FindOne(ctx, &casedomain.Case{Reference: reference})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, casedomain.ErrNotFound
	}
	return c, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, to casedomain.Status) (*casedomain.Case, error) {
	if !to.Valid() {
		return nil, casedomain.ErrInvalidStatus
	}

	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == to {
		return c, nil
	}

	from := c.Status
	now := s.clock.Now()
	if err := s.cases.Update(ctx, id.String(), map[string]any{
		"status":     to,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	c.Status = to
	c.UpdatedAt = now

	s.audit(ctx, 0, "case.status_changed", id, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	return c, nil
}

func (s *Service) AddMessage(ctx context.Context, req casedomain.AddMessageRequest) (*casedomain.Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, casedomain.ErrEmptyMessage
	}
	if _, err := s.GetByID(ctx, req.CaseID); err != nil {
		return nil, err
	}

	msg := casedomain.Message{
		ID:        s.genID.Generate(),
		CaseID:    req.CaseID,
		SenderID:  req.SenderID,
		Body:      body,
		CreatedAt: s.clock.Now(),
	}
	if err := s.messages.Create(ctx, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Service) ListMessages(ctx context.Context, caseID snowflake.ID) ([]casedomain.Message, error) {
	rows, err := s.messages.Find(ctx, &casedomain.Message{CaseID: caseID},
		option.WithSortBy(option.QuerySortBy{Column: "created_at", Allow: map[string]bool{"created_at": true}}))
	if err != nil {
		return nil, err
	}

	out := make([]casedomain.Message, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

// MarkRead flags every message on the case not sent by the reader.
func (s *Service) MarkRead(ctx context.Context, caseID snowflake.ID, readerID snowflake.ID) error {
	return s.db.WithContext(ctx).
		Model(&casedomain.Message{}).
		Where("case_id = ? AND sender_id <> ? AND read = ?", caseID, readerID, false).
		Update("read", true).Error
}

func (s *Service) AddProgress(ctx context.Context, req casedomain.AddProgressRequest) (*casedomain.ProgressUpdate, error) {
	stage := strings.TrimSpace(req.Stage)
	if stage == "" {
		return nil, casedomain.ErrInvalidStage
	}
	if _, err := s.GetByID(ctx, req.CaseID); err != nil {
		return nil, err
	}

	update := casedomain.ProgressUpdate{
		ID:        s.genID.Generate(),
		CaseID:    req.CaseID,
		AuthorID:  req.AuthorID,
		Stage:     stage,
		Note:      strings.TrimSpace(req.Note),
		CreatedAt: s.clock.Now(),
	}
	if err := s.progress.Create(ctx, &update); err != nil {
		return nil, err
	}

	s.audit(ctx, req.AuthorID, "case.progress_added", req.CaseID, map[string]any{"stage": stage})
	return &update, nil
}

func (s *Service) ListProgress(ctx context.Context, caseID snowflake.ID) ([]casedomain.ProgressUpdate, error) {
	rows, err := s.progress.Find(ctx, &casedomain.ProgressUpdate{CaseID: caseID},
		option.WithSortBy(option.QuerySortBy{Column: "created_at", Allow: map[string]bool{"created_at": true}}))
	if err != nil {
		return nil, err
	}

	out := make([]casedomain.ProgressUpdate, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

// NudgeInProgress moves a pending case to in_progress. Cases in any
// other state are left alone.
func (s *Service) NudgeInProgress(ctx context.Context, caseID snowflake.ID) error {
	c, err := s.GetByID(ctx, caseID)
	if err != nil {
		return err
	}
	if c.Status != casedomain.StatusPending {
		return nil
	}
	_, err = s.UpdateStatus(ctx, caseID, casedomain.StatusInProgress)
	return err
}

func newReference(title string, id snowflake.ID) string {
	base := slug.Make(title)
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("%s-%s", base, id.String())
}

func (s *Service) audit(ctx context.Context, actorID snowflake.ID, action string, targetID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	var actor *string
	if actorID != 0 {
		str := actorID.String()
		actor = &str
	}
	target := targetID.String()
	if err := s.auditSvc.AuditLog(ctx, "user", actor, action, "case", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.Error(err), zap.String("action", action))
	}
}
