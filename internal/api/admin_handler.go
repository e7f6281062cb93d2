package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"caseintake/internal/admin"
	"caseintake/internal/api/middleware"
	"caseintake/internal/export"
	"caseintake/internal/notify"
	"caseintake/internal/tasks"
)

// Panel messages shown to operators.
const (
	msgUserUpdated      = "Usuario actualizado correctamente"
	msgUserDeleted      = "Usuario eliminado correctamente"
	msgUserNotFound     = "Usuario no encontrado"
	msgUpdateFailed     = "Error al actualizar el usuario"
	msgDeleteFailed     = "Error al eliminar el usuario"
	msgConfirmRequired  = "Confirma la eliminación con confirm=true"
	msgInvalidEdit      = "Datos no válidos"
	msgExportFailed     = "Error al exportar los datos"
	msgTaskQueued       = "Tarea en cola"
	msgTaskEnqueueError = "No se pudo encolar la tarea"
)

// AdminService is what the panel endpoints call.
type AdminService interface {
	Search(ctx context.Context, tab admin.Tab, query string) (admin.Summaries, error)
	Detail(ctx context.Context, id uint) (*admin.Detail, error)
	Edit(ctx context.Context, id uint, form admin.EditForm) error
	Delete(ctx context.Context, id uint) error
}

// TaskEnqueuer 抽象 asynq.Client，便于测试。
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AdminHandler 暴露管理面板的 REST 接口。
type AdminHandler struct {
	service  AdminService
	queue    TaskEnqueuer
	notifier notify.Publisher
	now      func() time.Time
}

// NewAdminHandler 构造管理面板处理器。
func NewAdminHandler(service AdminService, queue TaskEnqueuer, notifier notify.Publisher) *AdminHandler {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &AdminHandler{service: service, queue: queue, notifier: notifier, now: time.Now}
}

func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// ListUsers handles GET /users?tab=&q=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	list, err := h.service.Search(c.Request.Context(), admin.ParseTab(c.Query("tab")), c.Query("q"))
	if err != nil {
		middleware.LoggerFromContext(c).Error("list users failed", slog.Any("error", err))
		Internal(c, "Error al cargar los usuarios")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list, "total": len(list)})
}

// GetUser handles GET /users/:id.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	detail, err := h.service.Detail(c.Request.Context(), id)
	if errors.Is(err, admin.ErrNotFound) {
		NotFound(c, msgUserNotFound)
		return
	}
	if err != nil {
		middleware.LoggerFromContext(c).Error("load user detail failed", slog.Any("error", err))
		Internal(c, "Error al cargar el usuario")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateUser handles PUT /users/:id with an EditForm body.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	var form admin.EditForm
	if err := c.ShouldBindJSON(&form); err != nil {
		Outcome(c, http.StatusBadRequest, false, msgInvalidEdit)
		return
	}

	err := h.service.Edit(c.Request.Context(), id, form)
	switch {
	case errors.Is(err, admin.ErrNotFound):
		Outcome(c, http.StatusNotFound, false, msgUserNotFound)
	case errors.Is(err, admin.ErrInvalidInput):
		Outcome(c, http.StatusUnprocessableEntity, false, msgInvalidEdit)
	case err != nil:
		middleware.LoggerFromContext(c).Error("update user failed", slog.Any("error", err))
		Outcome(c, http.StatusInternalServerError, false, msgUpdateFailed)
	default:
		Outcome(c, http.StatusOK, true, msgUserUpdated)
	}
}

// DeleteUser handles DELETE /users/:id?confirm=true.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	if confirmed, _ := strconv.ParseBool(c.Query("confirm")); !confirmed {
		Outcome(c, http.StatusBadRequest, false, msgConfirmRequired)
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)
	err := h.service.Delete(ctx, id)
	switch {
	case errors.Is(err, admin.ErrNotFound):
		Outcome(c, http.StatusNotFound, false, msgUserNotFound)
		return
	case err != nil:
		log.Error("delete user failed", slog.Any("error", err))
		Outcome(c, http.StatusInternalServerError, false, msgDeleteFailed)
		return
	}

	operatorID, _ := middleware.OperatorID(c)
	ev := notify.Event{Kind: notify.KindUserDeleted, UserID: id, OperatorID: operatorID, CorrelationID: middleware.GetCorrelationID(c)}
	if err := h.notifier.Publish(ctx, ev); err != nil {
		log.Warn("publish delete notification failed", slog.Any("error", err))
	}
	Outcome(c, http.StatusOK, true, msgUserDeleted)
}

// ExportUsers streams the filtered listing as a CSV attachment.
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	list, err := h.service.Search(c.Request.Context(), admin.ParseTab(c.Query("tab")), c.Query("q"))
	if err != nil {
		middleware.LoggerFromContext(c).Error("list users for export failed", slog.Any("error", err))
		Internal(c, msgExportFailed)
		return
	}
	body, err := export.CSV(export.SummaryRecords(list))
	if err != nil {
		middleware.LoggerFromContext(c).Error("render csv failed", slog.Any("error", err))
		Internal(c, msgExportFailed)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(export.DefaultPrefix, h.now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

// EnqueueSnapshot queues an export that is stored in object storage.
func (h *AdminHandler) EnqueueSnapshot(c *gin.Context) {
	operatorID, _ := middleware.OperatorID(c)
	task, err := tasks.NewExportSnapshotTask(tasks.ExportSnapshotPayload{
		Tab:           string(admin.ParseTab(c.Query("tab"))),
		Query:         c.Query("q"),
		OperatorID:    operatorID,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		Internal(c, msgTaskEnqueueError)
		return
	}
	h.enqueue(c, task)
}

// EnqueueSheet queues the PDF sheet of one user.
func (h *AdminHandler) EnqueueSheet(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	operatorID, _ := middleware.OperatorID(c)
	task, err := tasks.NewSheetRenderTask(tasks.SheetRenderPayload{
		UserID:        id,
		OperatorID:    operatorID,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		Internal(c, msgTaskEnqueueError)
		return
	}
	h.enqueue(c, task)
}

func (h *AdminHandler) enqueue(c *gin.Context, task *asynq.Task) {
	info, err := h.queue.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		middleware.LoggerFromContext(c).Error("enqueue task failed", slog.String("type", task.Type()), slog.Any("error", err))
		Outcome(c, http.StatusServiceUnavailable, false, msgTaskEnqueueError)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": msgTaskQueued, "task_id": info.ID})
}
