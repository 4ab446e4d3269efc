package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	attachmentdomain "github.com/reclaimlabs/recoveryhub/internal/attachment/domain"
	casedomain "github.com/reclaimlabs/recoveryhub/internal/cases/domain"
	caseservice "github.com/reclaimlabs/recoveryhub/internal/cases/service"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/zap"
)

// flakyStore fails Put for keys after the first n calls.
type flakyStore struct {
	puts     int
	failFrom int
	objects  map[string][]byte
}

func newFlakyStore(failFrom int) *flakyStore {
	return &flakyStore{failFrom: failFrom, objects: map[string][]byte{}}
}

func (f *flakyStore) Put(_ context.Context, key string, _ string, body io.Reader) error {
	f.puts++
	if f.failFrom > 0 && f.puts >= f.failFrom {
		return errors.New("storage unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *flakyStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (f *flakyStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func newTestService(t *testing.T, st *flakyStore) (attachmentdomain.Service, casedomain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&casedomain.Case{}, &casedomain.Message{}, &casedomain.ProgressUpdate{},
		&attachmentdomain.Attachment{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	caseSvc := caseservice.New(caseservice.Params{
		DB:    dbConn,
		Log:   log,
		GenID: node,
		Clock: fake,
	})
	svc := New(Params{
		DB:      dbConn,
		Log:     log,
		GenID:   node,
		Clock:   fake,
		Store:   st,
		CaseSvc: caseSvc,
	})
	return svc, caseSvc, node
}

func newCase(t *testing.T, caseSvc casedomain.Service, node *snowflake.Node) *casedomain.Case {
	t.Helper()
	c, err := caseSvc.Create(context.Background(), casedomain.CreateCaseRequest{
		UserID:   node.Generate(),
		Title:    "Stolen wallet funds",
		CaseType: "crypto_recovery",
	})
	if err != nil {
		t.Fatalf("failed to create case: %v", err)
	}
	return c
}

func TestUploadAllContinuesPastFailure(t *testing.T) {
	st := newFlakyStore(2) // second Put fails
	svc, caseSvc, node := newTestService(t, st)
	c := newCase(t, caseSvc, node)
	ctx := context.Background()

	results, err := svc.UploadAll(ctx, attachmentdomain.UploadAllRequest{
		CaseID:     c.ID,
		UploadedBy: c.UserID,
		Files: []attachmentdomain.File{
			{Name: "statement.pdf", ContentType: "application/pdf", Size: 12, Reader: strings.NewReader("statement 01")},
			{Name: "receipt.png", ContentType: "image/png", Size: 8, Reader: strings.NewReader("png-data")},
		},
	})
	if err != nil {
		t.Fatalf("failed to upload: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil {
		t.Fatalf("first upload should succeed, got %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Fatal("second upload should fail")
	}

	stored, err := svc.List(ctx, c.ID)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected exactly 1 attachment, got %d", len(stored))
	}
	if stored[0].FileName != "statement.pdf" {
		t.Fatalf("unexpected attachment %q", stored[0].FileName)
	}
}

func TestUploadAllEmptyBatch(t *testing.T) {
	svc, caseSvc, node := newTestService(t, newFlakyStore(0))
	c := newCase(t, caseSvc, node)

	_, err := svc.UploadAll(context.Background(), attachmentdomain.UploadAllRequest{
		CaseID:     c.ID,
		UploadedBy: c.UserID,
	})
	if err != attachmentdomain.ErrEmptyBatch {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestUploadAllUnknownCase(t *testing.T) {
	svc, _, node := newTestService(t, newFlakyStore(0))

	_, err := svc.UploadAll(context.Background(), attachmentdomain.UploadAllRequest{
		CaseID:     node.Generate(),
		UploadedBy: node.Generate(),
		Files: []attachmentdomain.File{
			{Name: "doc.txt", Size: 4, Reader: strings.NewReader("text")},
		},
	})
	if err != attachmentdomain.ErrInvalidCase {
		t.Fatalf("expected ErrInvalidCase, got %v", err)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	st := newFlakyStore(0)
	svc, caseSvc, node := newTestService(t, st)
	c := newCase(t, caseSvc, node)
	ctx := context.Background()

	results, err := svc.UploadAll(ctx, attachmentdomain.UploadAllRequest{
		CaseID:     c.ID,
		UploadedBy: c.UserID,
		Files: []attachmentdomain.File{
			{Name: "notes.txt", ContentType: "text/plain", Size: 11, Reader: strings.NewReader("hello notes")},
		},
	})
	if err != nil || results[0].Err != nil {
		t.Fatalf("failed to upload: %v %v", err, results[0].Err)
	}

	body, att, err := svc.Open(ctx, results[0].Attachment.ID)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(data) != "hello notes" {
		t.Fatalf("unexpected content %q", data)
	}
	if att.ContentType != "text/plain" {
		t.Fatalf("unexpected content type %q", att.ContentType)
	}
}
