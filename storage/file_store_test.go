package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pushtrack/models"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir())
}

func TestFileStoreNotificationRoundTrip(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	notification := &models.Notification{
		ID:          "n-1",
		Title:       "Order shipped",
		Body:        "Your order is on the way",
		Data:        map[string]string{"order_id": "42"},
		TokensCount: 3,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := fs.AppendNotification(ctx, notification); err != nil {
		t.Fatalf("AppendNotification failed: %v", err)
	}

	got, err := fs.GetNotificationByID(ctx, "n-1")
	if err != nil {
		t.Fatalf("GetNotificationByID failed: %v", err)
	}
	if got.Title != notification.Title || got.TokensCount != 3 {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Data["order_id"] != "42" {
		t.Errorf("data not preserved: %+v", got.Data)
	}

	if _, err := fs.GetNotificationByID(ctx, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestFileStoreMissingFilesReadAsEmpty(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	metrics, err := fs.ListMetricsByNotification(ctx, "n-1")
	if err != nil {
		t.Fatalf("ListMetricsByNotification failed: %v", err)
	}
	if len(metrics) != 0 {
		t.Errorf("expected empty set, got %d records", len(metrics))
	}

	if _, err := fs.GetNotificationByID(ctx, "n-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := fs.GetMetricByNotificationAndToken(ctx, "n-1", "tok"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreMetricLookupAndList(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	for _, m := range []*models.Metric{
		{ID: "m-1", NotificationID: "n-1", Token: "tok-a"},
		{ID: "m-2", NotificationID: "n-1", Token: "tok-b"},
		{ID: "m-3", NotificationID: "n-2", Token: "tok-a"},
	} {
		if err := fs.AppendMetric(ctx, m); err != nil {
			t.Fatalf("AppendMetric failed: %v", err)
		}
	}

	got, err := fs.GetMetricByNotificationAndToken(ctx, "n-1", "tok-b")
	if err != nil {
		t.Fatalf("GetMetricByNotificationAndToken failed: %v", err)
	}
	if got.ID != "m-2" {
		t.Errorf("expected m-2, got %s", got.ID)
	}

	list, err := fs.ListMetricsByNotification(ctx, "n-1")
	if err != nil {
		t.Fatalf("ListMetricsByNotification failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 metrics for n-1, got %d", len(list))
	}
}

func TestFileStoreUpdateMetricMergesFields(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	if err := fs.AppendMetric(ctx, &models.Metric{
		ID: "m-1", NotificationID: "n-1", Token: "tok-a",
		SendContext: "transactional",
	}); err != nil {
		t.Fatalf("AppendMetric failed: %v", err)
	}
	if err := fs.AppendMetric(ctx, &models.Metric{
		ID: "m-2", NotificationID: "n-1", Token: "tok-b",
	}); err != nil {
		t.Fatalf("AppendMetric failed: %v", err)
	}

	delivered := true
	deliveredAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	updated, err := fs.UpdateMetric(ctx, "n-1", "tok-a", MetricUpdate{
		Delivered:   &delivered,
		DeliveredAt: &deliveredAt,
	})
	if err != nil {
		t.Fatalf("UpdateMetric failed: %v", err)
	}
	if !updated.Delivered || updated.DeliveredAt == nil || !updated.DeliveredAt.Equal(deliveredAt) {
		t.Errorf("merge not applied: %+v", updated)
	}
	if updated.SendContext != "transactional" {
		t.Errorf("untouched field lost: %+v", updated)
	}

	// Re-read from disk to prove the rewrite persisted.
	reloaded, err := fs.GetMetricByNotificationAndToken(ctx, "n-1", "tok-a")
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if !reloaded.Delivered {
		t.Error("update not persisted to file")
	}

	other, err := fs.GetMetricByNotificationAndToken(ctx, "n-1", "tok-b")
	if err != nil {
		t.Fatalf("re-read of sibling failed: %v", err)
	}
	if other.Delivered {
		t.Error("sibling record was modified by update")
	}
}

func TestFileStoreUpdateMetricNotFound(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	delivered := true
	if _, err := fs.UpdateMetric(ctx, "n-1", "tok-a", MetricUpdate{Delivered: &delivered}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreLogsAreLineOriented(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := fs.AppendMetric(ctx, &models.Metric{ID: "m", NotificationID: "n-1", Token: "tok"}); err != nil {
			t.Fatalf("AppendMetric failed: %v", err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "metrics.txt"))
	if err != nil {
		t.Fatalf("reading log failed: %v", err)
	}
	lines := 0
	for _, b := range raw {
		if b == '\n' {
			lines++
		}
	}
	if lines != 3 {
		t.Errorf("expected 3 newline-terminated records, got %d", lines)
	}
}
