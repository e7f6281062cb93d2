package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"caseintake/internal/api/middleware"
	"caseintake/internal/intake"
	"caseintake/internal/notify"
)

const maxIntakeFormMemory = 8 << 20

// Submitter stores one intake form.
type Submitter interface {
	Submit(ctx context.Context, form intake.Form) intake.Result
}

// IntakeHandler 接收公开的登记表单。
type IntakeHandler struct {
	service  Submitter
	notifier notify.Publisher
}

// NewIntakeHandler 构造表单处理器。notifier 可为 nil。
func NewIntakeHandler(service Submitter, notifier notify.Publisher) *IntakeHandler {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &IntakeHandler{service: service, notifier: notifier}
}

// Submit accepts multipart or urlencoded forms and answers {success, message}.
func (h *IntakeHandler) Submit(c *gin.Context) {
	log := middleware.LoggerFromContext(c)

	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		err = c.Request.ParseMultipartForm(maxIntakeFormMemory)
	} else {
		err = c.Request.ParseForm()
	}
	if err != nil {
		log.Info("parse intake form failed", slog.Any("error", err))
		Outcome(c, http.StatusBadRequest, false, intake.MessageFailed)
		return
	}

	ctx := c.Request.Context()
	res := h.service.Submit(ctx, intake.FormFromValues(c.Request.PostForm))

	switch res.Outcome {
	case intake.OutcomeSaved, intake.OutcomePartial:
		ev := notify.Event{
			Kind:          notify.KindIntakeSaved,
			UserID:        res.UserID,
			CorrelationID: middleware.GetCorrelationID(c),
		}
		if err := h.notifier.Publish(ctx, ev); err != nil {
			log.Warn("publish intake notification failed", slog.Any("error", err))
		}
		c.JSON(http.StatusCreated, res)
	case intake.OutcomeInvalid:
		c.JSON(http.StatusUnprocessableEntity, res)
	default:
		c.JSON(http.StatusInternalServerError, res)
	}
}
