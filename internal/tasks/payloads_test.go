package tasks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExportSnapshotTask(t *testing.T) {
	task, err := NewExportSnapshotTask(ExportSnapshotPayload{Tab: "active", Query: "garcía", OperatorID: 2, CorrelationID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, TypeExportSnapshot, task.Type())

	var got ExportSnapshotPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	assert.Equal(t, "garcía", got.Query)
	assert.Equal(t, uint(2), got.OperatorID)
}

func TestNewSheetRenderTask_RequiresUser(t *testing.T) {
	_, err := NewSheetRenderTask(SheetRenderPayload{})
	assert.Error(t, err)

	task, err := NewSheetRenderTask(SheetRenderPayload{UserID: 5})
	require.NoError(t, err)
	assert.Equal(t, TypeSheetRender, task.Type())
}
