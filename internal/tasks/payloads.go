package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportSnapshot = "export:snapshot"
	TypeSheetRender    = "sheet:render"
)

// MaxRetry bounds the queue's own retries for every task type.
const MaxRetry = 3

// ExportSnapshotPayload selects the listing to export.
type ExportSnapshotPayload struct {
	Tab           string `json:"tab"`
	Query         string `json:"query"`
	OperatorID    uint   `json:"operator_id"`
	CorrelationID string `json:"correlation_id"`
}

// SheetRenderPayload identifies the user whose sheet is printed.
type SheetRenderPayload struct {
	UserID        uint   `json:"user_id"`
	OperatorID    uint   `json:"operator_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportSnapshotTask 构造一个导出快照任务。
func NewExportSnapshotTask(p ExportSnapshotPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", TypeExportSnapshot, err)
	}
	return asynq.NewTask(TypeExportSnapshot, payload, asynq.MaxRetry(MaxRetry)), nil
}

// NewSheetRenderTask 构造一个用户档案 PDF 任务。
func NewSheetRenderTask(p SheetRenderPayload) (*asynq.Task, error) {
	if p.UserID == 0 {
		return nil, fmt.Errorf("%s: user id is required", TypeSheetRender)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", TypeSheetRender, err)
	}
	return asynq.NewTask(TypeSheetRender, payload, asynq.MaxRetry(MaxRetry)), nil
}
