package cleaner

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	attachmentdomain "github.com/reclaimlabs/recoveryhub/internal/attachment/domain"
	"github.com/reclaimlabs/recoveryhub/internal/clock"
	"github.com/reclaimlabs/recoveryhub/internal/config"
	"github.com/reclaimlabs/recoveryhub/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memStore struct {
	objects  map[string]bool
	failKeys map[string]bool
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]bool{}, failKeys: map[string]bool{}}
}

func (m *memStore) Put(_ context.Context, key string, _ string, _ io.Reader) error {
	m.objects[key] = true
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	if m.failKeys[key] {
		return errors.New("delete failed")
	}
	delete(m.objects, key)
	return nil
}

func newTestCleaner(t *testing.T, st *memStore) (*Cleaner, *gorm.DB, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&attachmentdomain.Attachment{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC))
	c := New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		Cfg:   config.Config{AttachmentMaxAge: 48 * time.Hour, CleanupInterval: time.Hour},
		Clock: fake,
		Store: st,
	})
	return c, dbConn, node, fake
}

func seedAttachment(t *testing.T, dbConn *gorm.DB, st *memStore, node *snowflake.Node, key string, createdAt time.Time) snowflake.ID {
	t.Helper()
	st.objects[key] = true
	att := attachmentdomain.Attachment{
		ID:         node.Generate(),
		CaseID:     node.Generate(),
		UploadedBy: node.Generate(),
		FileName:   key + ".pdf",
		ObjectKey:  key,
		Size:       10,
		CreatedAt:  createdAt,
	}
	if err := dbConn.Create(&att).Error; err != nil {
		t.Fatalf("failed to seed attachment: %v", err)
	}
	return att.ID
}

func TestRunOnceDeletesOnlyExpired(t *testing.T) {
	st := newMemStore()
	c, dbConn, node, fake := newTestCleaner(t, st)

	old := fake.Now().Add(-72 * time.Hour)
	fresh := fake.Now().Add(-2 * time.Hour)
	seedAttachment(t, dbConn, st, node, "expired-1", old)
	seedAttachment(t, dbConn, st, node, "expired-2", old)
	keepID := seedAttachment(t, dbConn, st, node, "fresh-1", fresh)

	result, err := c.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Deleted != 2 || result.Failed != 0 {
		t.Fatalf("expected 2 deleted 0 failed, got %+v", result)
	}

	var remaining []attachmentdomain.Attachment
	if err := dbConn.Find(&remaining).Error; err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keepID {
		t.Fatalf("expected only the fresh row to remain, got %+v", remaining)
	}
	if !st.objects["fresh-1"] {
		t.Fatal("fresh object should still exist")
	}
	if st.objects["expired-1"] || st.objects["expired-2"] {
		t.Fatal("expired objects should be gone")
	}
}

func TestRunOnceToleratesPerItemFailure(t *testing.T) {
	st := newMemStore()
	c, dbConn, node, fake := newTestCleaner(t, st)

	old := fake.Now().Add(-72 * time.Hour)
	seedAttachment(t, dbConn, st, node, "bad-object", old)
	seedAttachment(t, dbConn, st, node, "good-object", old)
	st.failKeys["bad-object"] = true

	result, err := c.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Deleted != 1 || result.Failed != 1 {
		t.Fatalf("expected 1 deleted 1 failed, got %+v", result)
	}

	// The failed row stays behind for the next sweep.
	var remaining []attachmentdomain.Attachment
	if err := dbConn.Find(&remaining).Error; err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ObjectKey != "bad-object" {
		t.Fatalf("expected the failed row to remain, got %+v", remaining)
	}
}
