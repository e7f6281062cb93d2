package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"caseintake/internal/admin"
	"caseintake/internal/notify"
	"caseintake/internal/pdf"
	"caseintake/internal/storage"
	"caseintake/internal/tasks"
)

// Detailer loads the full view of one user.
type Detailer interface {
	Detail(ctx context.Context, id uint) (*admin.Detail, error)
}

// PDFRenderer turns HTML into PDF bytes.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// SheetHandler 负责消费用户档案 PDF 任务。
type SheetHandler struct {
	users    Detailer
	renderer PDFRenderer
	objects  ObjectStore
	notifier notify.Publisher
	logger   *slog.Logger
	now      func() time.Time
	// finalAttempt 判断本次失败后是否不再重试。
	finalAttempt func(context.Context) bool
}

// NewSheetHandler 创建任务处理器。
func NewSheetHandler(users Detailer, renderer PDFRenderer, objects ObjectStore, notifier notify.Publisher, logger *slog.Logger) *SheetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetHandler{
		users:        users,
		renderer:     renderer,
		objects:      objects,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
		finalAttempt: isFinalAttempt,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *SheetHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.SheetRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("user_id", uint64(payload.UserID)),
	)

	defer func() {
		if retErr == nil {
			return
		}
		if !errors.Is(retErr, asynq.SkipRetry) && !h.finalAttempt(ctx) {
			return
		}
		h.publish(ctx, log, notify.Event{
			Kind:          notify.KindSheetFailed,
			UserID:        payload.UserID,
			OperatorID:    payload.OperatorID,
			CorrelationID: payload.CorrelationID,
			Message:       "Error al generar la ficha",
		})
	}()

	detail, err := h.users.Detail(ctx, payload.UserID)
	if errors.Is(err, admin.ErrNotFound) {
		log.Warn("user not found, skipping task")
		return nil
	}
	if err != nil {
		log.Error("load user detail failed", slog.Any("error", err))
		return err
	}

	html, err := pdf.RenderSheetHTML(detail, h.now())
	if err != nil {
		return fmt.Errorf("render sheet html: %w", asynq.SkipRetry)
	}

	data, err := h.renderer.RenderPDF(ctx, html)
	if err != nil {
		log.Error("render pdf failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("%s%d/%s.pdf", storage.SheetPrefix, payload.UserID, uuid.NewString())
	if _, err := h.objects.UploadFile(ctx, objectName, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	link, err := h.objects.GeneratePresignedURL(ctx, objectName, LinkTTL)
	if err != nil {
		log.Error("presign sheet failed", slog.Any("error", err))
		discard(ctx, log, h.objects, objectName)
		return err
	}

	h.publish(ctx, log, notify.Event{
		Kind:          notify.KindSheetReady,
		UserID:        payload.UserID,
		OperatorID:    payload.OperatorID,
		CorrelationID: payload.CorrelationID,
		URL:           link,
	})
	log.Info("sheet stored", slog.String("object", objectName), slog.Int("bytes", len(data)))
	return nil
}

func (h *SheetHandler) publish(ctx context.Context, log *slog.Logger, ev notify.Event) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Publish(ctx, ev); err != nil {
		log.Error("publish notification failed", slog.Any("error", err))
	}
}
