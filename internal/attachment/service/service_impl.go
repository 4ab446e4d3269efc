package service

import (
	"context"
	"crypto/rand"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	attachmentdomain "github.com/reclaimlabs/recoveryhub/internal/attachment/domain"
	"github.com/reclaimlabs/recoveryhub/internal/attachment/store"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/pkg/db/option"
	"github.com/reclaimlabs/recoveryhub/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxFileSize = 25 << 20 // 25 MiB

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Store   store.ObjectStore
	CaseSvc casedomain.Service
}

type Service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	store   store.ObjectStore
	caseSvc casedomain.Service
	repo    repository.Repository[attachmentdomain.Attachment]
}

func New(p Params) attachmentdomain.Service {
	return &Service{
		log:     p.Log.Named("attachment.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		store:   p.Store,
		caseSvc: p.CaseSvc,
		repo:    repository.ProvideStore[attachmentdomain.Attachment](p.DB),
	}
}

func (s *Service) UploadAll(ctx context.Context, req attachmentdomain.UploadAllRequest) ([]attachmentdomain.UploadResult, error) {
	if len(req.Files) == 0 {
		return nil, attachmentdomain.ErrEmptyBatch
	}
	if _, err := s.caseSvc.GetByID(ctx, req.CaseID); err != nil {
		return nil, attachmentdomain.ErrInvalidCase
	}

	// One bad file must not take the batch down with it. Each failure
	// is reported in its slot and the loop keeps going.
	results := make([]attachmentdomain.UploadResult, 0, len(req.Files))
	for _, file := range req.Files {
		att, err := s.uploadOne(ctx, req.CaseID, req.UploadedBy, file)
		if err != nil {
			s.log.Warn("attachment upload failed",
				zap.Error(err),
				zap.String("case_id", req.CaseID.String()),
				zap.String("file_name", file.Name))
		}
		results = append(results, attachmentdomain.UploadResult{
			FileName:   file.Name,
			Attachment: att,
			Err:        err,
		})
	}
	return results, nil
}

func (s *Service) uploadOne(ctx context.Context, caseID, uploadedBy snowflake.ID, file attachmentdomain.File) (*attachmentdomain.Attachment, error) {
	if file.Size > maxFileSize {
		return nil, attachmentdomain.ErrFileTooLarge
	}

	key := ulid.MustNew(ulid.Timestamp(s.clock.Now()), rand.Reader).String()
	if err := s.store.Put(ctx, key, file.ContentType, file.Reader); err != nil {
		return nil, err
	}

	att := attachmentdomain.Attachment{
		ID:          s.genID.Generate(),
		CaseID:      caseID,
		UploadedBy:  uploadedBy,
		FileName:    strings.TrimSpace(file.Name),
		ObjectKey:   key,
		Size:        file.Size,
		ContentType: file.ContentType,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Create(ctx, &att); err != nil {
		// The row is the source of truth; drop the orphaned blob.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn("failed to remove orphaned object", zap.Error(delErr), zap.String("object_key", key))
		}
		return nil, err
	}
	return &att, nil
}

func (s *Service) List(ctx context.Context, caseID snowflake.ID) ([]attachmentdomain.Attachment, error) {
	rows, err := s.repo.Find(ctx, &attachmentdomain.Attachment{CaseID: caseID},
		option.WithSortBy(option.QuerySortBy{Column: "created_at", Allow: map[string]bool{"created_at": true}}))
	if err != nil {
		return nil, err
	}

	out := make([]attachmentdomain.Attachment, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*attachmentdomain.Attachment, error) {
	att, err := s.repo.FindOne(ctx, &attachmentdomain.Attachment{ID: id})
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, attachmentdomain.ErrNotFound
	}
	return att, nil
}

func (s *Service) Open(ctx context.Context, id snowflake.ID) (io.ReadCloser, *attachmentdomain.Attachment, error) {
	att, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.store.Get(ctx, att.ObjectKey)
	if err != nil {
		return nil, nil, err
	}
	return body, att, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	att, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, att.ObjectKey); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id.String())
}
