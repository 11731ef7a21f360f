package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pushtrack/models"
)

const (
	notificationsFile = "notifications.txt"
	metricsFile       = "metrics.txt"
)

// FileStore persists records as newline-delimited JSON in two append-only
// logs under a data directory. Updates rewrite the whole metrics file. A
// process-level mutex serializes read-modify-write cycles, so the store
// is safe for concurrent use within one process but not across processes.
type FileStore struct {
	dataDir string
	mu      sync.Mutex
}

// NewFileStore creates a file-backed store rooted at dataDir. The
// directory is created on first write; a missing file reads as an empty
// record set.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dataDir: dataDir}
}

func (fs *FileStore) AppendNotification(_ context.Context, notification *models.Notification) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.appendLine(notificationsFile, notification)
}

func (fs *FileStore) GetNotificationByID(_ context.Context, id string) (*models.Notification, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var notifications []models.Notification
	if err := fs.readAll(notificationsFile, &notifications); err != nil {
		return nil, err
	}
	for i := range notifications {
		if notifications[i].ID == id {
			return &notifications[i], nil
		}
	}
	return nil, ErrNotFound
}

func (fs *FileStore) AppendMetric(_ context.Context, metric *models.Metric) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.appendLine(metricsFile, metric)
}

func (fs *FileStore) GetMetricByNotificationAndToken(_ context.Context, notificationID, token string) (*models.Metric, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.findMetricLocked(notificationID, token)
}

func (fs *FileStore) ListMetricsByNotification(_ context.Context, notificationID string) ([]models.Metric, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var metrics []models.Metric
	if err := fs.readAll(metricsFile, &metrics); err != nil {
		return nil, err
	}
	matched := make([]models.Metric, 0, len(metrics))
	for _, m := range metrics {
		if m.NotificationID == notificationID {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

// UpdateMetric locates the unique record matching the natural key,
// merges the partial fields into it and rewrites the metrics file. The
// rewrite goes through a temp file and rename so a crash mid-update
// cannot truncate the log.
func (fs *FileStore) UpdateMetric(_ context.Context, notificationID, token string, update MetricUpdate) (*models.Metric, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	var metrics []models.Metric
	if err := fs.readAll(metricsFile, &metrics); err != nil {
		return nil, err
	}

	var updated *models.Metric
	for i := range metrics {
		if metrics[i].NotificationID == notificationID && metrics[i].Token == token {
			applyMetricUpdate(&metrics[i], update)
			updated = &metrics[i]
			break
		}
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	if err := fs.rewriteMetrics(metrics); err != nil {
		return nil, err
	}
	return updated, nil
}

func (fs *FileStore) Close(context.Context) error {
	return nil
}

func (fs *FileStore) findMetricLocked(notificationID, token string) (*models.Metric, error) {
	var metrics []models.Metric
	if err := fs.readAll(metricsFile, &metrics); err != nil {
		return nil, err
	}
	for i := range metrics {
		if metrics[i].NotificationID == notificationID && metrics[i].Token == token {
			return &metrics[i], nil
		}
	}
	return nil, ErrNotFound
}

func (fs *FileStore) appendLine(name string, record interface{}) error {
	if err := os.MkdirAll(fs.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(fs.dataDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append to %s: %w", name, err)
	}
	return nil
}

// readAll decodes every line of the named log into out, which must be a
// pointer to a slice of the record type. A missing file is an empty set.
func (fs *FileStore) readAll(name string, out interface{}) error {
	f, err := os.Open(filepath.Join(fs.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	switch records := out.(type) {
	case *[]models.Notification:
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if len(scanner.Bytes()) == 0 {
				continue
			}
			var n models.Notification
			if err := json.Unmarshal(scanner.Bytes(), &n); err != nil {
				return fmt.Errorf("corrupt line in %s: %w", name, err)
			}
			*records = append(*records, n)
		}
		return scanner.Err()
	case *[]models.Metric:
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if len(scanner.Bytes()) == 0 {
				continue
			}
			var m models.Metric
			if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
				return fmt.Errorf("corrupt line in %s: %w", name, err)
			}
			*records = append(*records, m)
		}
		return scanner.Err()
	default:
		return fmt.Errorf("unsupported record type %T", out)
	}
}

func (fs *FileStore) rewriteMetrics(metrics []models.Metric) error {
	if err := os.MkdirAll(fs.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(fs.dataDir, metricsFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for i := range metrics {
		line, err := json.Marshal(&metrics[i])
		if err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode record: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write temp file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(fs.dataDir, metricsFile)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", metricsFile, err)
	}
	return nil
}
