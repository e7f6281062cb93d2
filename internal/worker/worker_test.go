package worker

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"caseintake/internal/admin"
	"caseintake/internal/database"
	"caseintake/internal/notify"
	"caseintake/internal/tasks"
)

type fakeObjects struct {
	uploaded   map[string][]byte
	types      map[string]string
	err        error
	presignErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{uploaded: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) UploadFile(_ context.Context, name string, r io.Reader, _ int64, contentType string) (*minio.UploadInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(r)
	f.uploaded[name] = b
	f.types[name] = contentType
	return &minio.UploadInfo{Key: name}, nil
}

func (f *fakeObjects) GeneratePresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://files.example.org/" + key + "?sig=1", nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, key string) error {
	delete(f.uploaded, key)
	return nil
}

type recordingPublisher struct {
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev notify.Event) error {
	p.events = append(p.events, ev)
	return nil
}

type fakeSearcher struct {
	tab   admin.Tab
	query string
	list  admin.Summaries
}

func (s *fakeSearcher) Search(_ context.Context, tab admin.Tab, query string) (admin.Summaries, error) {
	s.tab, s.query = tab, query
	return s.list, nil
}

type fakeDetailer struct {
	detail *admin.Detail
	err    error
}

func (d fakeDetailer) Detail(context.Context, uint) (*admin.Detail, error) {
	return d.detail, d.err
}

type fakeRenderer struct {
	html string
}

func (r *fakeRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	r.html = html
	return []byte("%PDF-1.7"), nil
}

func TestExportHandler_UploadsCSVAndNotifies(t *testing.T) {
	users := &fakeSearcher{list: admin.Summaries{{User: database.User{
		ID: 1, NIF: "1A", FirstName: "Ana", FirstSurname: "García", Email: "a@x.es",
		IntakeDate: datatypes.Date(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	}}}}
	objects := newFakeObjects()
	pub := &recordingPublisher{}
	h := NewExportHandler(users, objects, pub, nil)
	h.now = func() time.Time { return time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC) }

	task, err := tasks.NewExportSnapshotTask(tasks.ExportSnapshotPayload{Tab: "pasivos", Query: "gar", OperatorID: 4})
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))

	assert.Equal(t, admin.TabPassive, users.tab)
	assert.Equal(t, "gar", users.query)

	key := "exports/20250607T080910Z_usuarios_2025-06-07.csv"
	require.Contains(t, objects.uploaded, key)
	assert.True(t, strings.HasPrefix(string(objects.uploaded[key]), "ID,NIF,Nombre"))
	assert.Equal(t, "text/csv; charset=utf-8", objects.types[key])

	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.KindExportReady, pub.events[0].Kind)
	assert.Equal(t, uint(4), pub.events[0].OperatorID)
	assert.Contains(t, pub.events[0].URL, key)
}

func TestExportHandler_BadPayloadSkipsRetry(t *testing.T) {
	h := NewExportHandler(&fakeSearcher{}, newFakeObjects(), nil, nil)
	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeExportSnapshot, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSheetHandler_RendersAndStores(t *testing.T) {
	detail := &admin.Detail{User: database.User{ID: 12, NIF: "9Z", FirstName: "Luis", FirstSurname: "Pérez"}}
	renderer := &fakeRenderer{}
	objects := newFakeObjects()
	pub := &recordingPublisher{}
	h := NewSheetHandler(fakeDetailer{detail: detail}, renderer, objects, pub, nil)

	task, err := tasks.NewSheetRenderTask(tasks.SheetRenderPayload{UserID: 12, OperatorID: 1})
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))

	assert.Contains(t, renderer.html, "Luis Pérez")
	require.Len(t, objects.uploaded, 1)
	for key, body := range objects.uploaded {
		assert.True(t, strings.HasPrefix(key, "sheets/12/"))
		assert.Equal(t, "%PDF-1.7", string(body))
	}
	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.KindSheetReady, pub.events[0].Kind)
}

func TestSheetHandler_MissingUserIsDropped(t *testing.T) {
	pub := &recordingPublisher{}
	h := NewSheetHandler(fakeDetailer{err: admin.ErrNotFound}, &fakeRenderer{}, newFakeObjects(), pub, nil)

	task, err := tasks.NewSheetRenderTask(tasks.SheetRenderPayload{UserID: 3})
	require.NoError(t, err)
	assert.NoError(t, h.ProcessTask(context.Background(), task))
	assert.Empty(t, pub.events)
}

func TestSheetHandler_UploadFailureIsRetried(t *testing.T) {
	objects := newFakeObjects()
	objects.err = errors.New("minio down")
	h := NewSheetHandler(fakeDetailer{detail: &admin.Detail{}}, &fakeRenderer{}, objects, nil, nil)

	task, err := tasks.NewSheetRenderTask(tasks.SheetRenderPayload{UserID: 3})
	require.NoError(t, err)
	err = h.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSheetHandler_DetailFailureOnLastAttemptNotifies(t *testing.T) {
	pub := &recordingPublisher{}
	h := NewSheetHandler(fakeDetailer{err: errors.New("db down")}, &fakeRenderer{}, newFakeObjects(), pub, nil)

	task, err := tasks.NewSheetRenderTask(tasks.SheetRenderPayload{UserID: 8, OperatorID: 2, CorrelationID: "c-8"})
	require.NoError(t, err)

	h.finalAttempt = func(context.Context) bool { return false }
	require.Error(t, h.ProcessTask(context.Background(), task))
	assert.Empty(t, pub.events)

	h.finalAttempt = func(context.Context) bool { return true }
	require.Error(t, h.ProcessTask(context.Background(), task))
	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.KindSheetFailed, pub.events[0].Kind)
	assert.Equal(t, uint(8), pub.events[0].UserID)
	assert.Equal(t, "c-8", pub.events[0].CorrelationID)
}

func TestExportHandler_PresignFailureRemovesObject(t *testing.T) {
	objects := newFakeObjects()
	objects.presignErr = errors.New("presign refused")
	pub := &recordingPublisher{}
	h := NewExportHandler(&fakeSearcher{}, objects, pub, nil)

	task, err := tasks.NewExportSnapshotTask(tasks.ExportSnapshotPayload{})
	require.NoError(t, err)
	require.Error(t, h.ProcessTask(context.Background(), task))

	assert.Empty(t, objects.uploaded)
	assert.Empty(t, pub.events)
}
