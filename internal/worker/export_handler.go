package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"caseintake/internal/admin"
	"caseintake/internal/export"
	"caseintake/internal/notify"
	"caseintake/internal/storage"
	"caseintake/internal/tasks"
)

// LinkTTL is how long published download links stay valid.
const LinkTTL = 24 * time.Hour

// ObjectStore is the storage surface used by background tasks.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// Searcher lists users for an export.
type Searcher interface {
	Search(ctx context.Context, tab admin.Tab, query string) (admin.Summaries, error)
}

// ExportHandler 负责消费导出快照任务：生成 CSV、上传并通知。
type ExportHandler struct {
	users    Searcher
	objects  ObjectStore
	notifier notify.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewExportHandler 创建任务处理器。
func NewExportHandler(users Searcher, objects ObjectStore, notifier notify.Publisher, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{users: users, objects: objects, notifier: notifier, logger: logger, now: time.Now}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.ExportSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("operator_id", uint64(payload.OperatorID)),
	)

	defer func() {
		if retErr == nil || !isFinalAttempt(ctx) {
			return
		}
		h.publish(ctx, log, notify.Event{
			Kind:          notify.KindExportFailed,
			OperatorID:    payload.OperatorID,
			CorrelationID: payload.CorrelationID,
			Message:       "Error al exportar los datos",
		})
	}()

	list, err := h.users.Search(ctx, admin.ParseTab(payload.Tab), payload.Query)
	if err != nil {
		log.Error("list users for export failed", slog.Any("error", err))
		return err
	}

	body, err := export.CSV(export.SummaryRecords(list))
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}

	now := h.now()
	objectName := storage.ExportPrefix + now.UTC().Format("20060102T150405Z") + "_" + export.Filename(export.DefaultPrefix, now)
	if _, err := h.objects.UploadFile(ctx, objectName, strings.NewReader(body), int64(len(body)), "text/csv; charset=utf-8"); err != nil {
		log.Error("upload export failed", slog.Any("error", err))
		return err
	}

	link, err := h.objects.GeneratePresignedURL(ctx, objectName, LinkTTL)
	if err != nil {
		log.Error("presign export failed", slog.Any("error", err))
		discard(ctx, log, h.objects, objectName)
		return err
	}

	h.publish(ctx, log, notify.Event{
		Kind:          notify.KindExportReady,
		OperatorID:    payload.OperatorID,
		CorrelationID: payload.CorrelationID,
		URL:           link,
	})
	log.Info("export snapshot stored", slog.String("object", objectName), slog.Int("rows", len(list)))
	return nil
}

func (h *ExportHandler) publish(ctx context.Context, log *slog.Logger, ev notify.Event) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Publish(ctx, ev); err != nil {
		log.Error("publish notification failed", slog.Any("error", err))
	}
}

// discard 删除没有链接可发的对象，重试时会重新上传。
func discard(ctx context.Context, log *slog.Logger, objects ObjectStore, objectName string) {
	if err := objects.DeleteObject(ctx, objectName); err != nil {
		log.Warn("remove orphaned object failed", slog.String("object", objectName), slog.Any("error", err))
	}
}

func isFinalAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
