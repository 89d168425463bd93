package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studynotes-api/internal/dto"
	"github.com/noah-isme/studynotes-api/internal/models"
	"github.com/noah-isme/studynotes-api/pkg/jobs"
)

type queueRecorder struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *queueRecorder) Enqueue(job jobs.Job) error { return q.TryEnqueue(job) }

func (q *queueRecorder) TryEnqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newReconcileFixture(t *testing.T) (*notesFixture, *ReconcileService, *queueRecorder) {
	t.Helper()
	f := newNotesFixture(t)
	svc := NewReconcileService(f.files, f.chapters, f.students, f.gate, nil, nil, nil, time.Minute)
	queue := &queueRecorder{}
	svc.UseQueue(queue)
	return f, svc, queue
}

func TestReconcileServiceReportOrphanQueuesJob(t *testing.T) {
	_, svc, queue := newReconcileFixture(t)

	svc.ReportOrphan("file-1", "chapter link failed")
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobOrphanFile, queue.jobs[0].Type)
	assert.Equal(t, OrphanPayload{FileID: "file-1", Reason: "chapter link failed"}, queue.jobs[0].Payload)
}

func TestReconcileServiceResolveOrphanRemovesUnreferenced(t *testing.T) {
	f, svc, _ := newReconcileFixture(t)
	f.chapters.appendErr = errStub
	ctx := context.Background()

	_, err := f.service.Upload(ctx, f.request(), pdfUpload("content"))
	require.Error(t, err)
	require.Len(t, f.orphans.reports, 1)
	orphanID := f.orphans.reports[0]

	job := jobs.Job{Type: JobOrphanFile, Payload: OrphanPayload{FileID: orphanID}}
	require.NoError(t, svc.Handlers().Handle(ctx, job))
	assert.Empty(t, f.files.files)
	assert.Empty(t, f.blobs.blobs)

	require.NoError(t, svc.ResolveOrphan(ctx, orphanID))
}

func TestReconcileServiceResolveOrphanInvalidatesFileCache(t *testing.T) {
	f := newNotesFixture(t)
	cache, srv := newRedisCache(t)
	f.service.cache = cache
	svc := NewReconcileService(f.files, f.chapters, f.students, f.gate, cache, nil, nil, time.Minute)
	f.chapters.appendErr = errStub
	ctx := context.Background()

	_, err := f.service.Upload(ctx, f.request(), pdfUpload("content"))
	require.Error(t, err)
	require.Len(t, f.orphans.reports, 1)

	query := dto.FileQuery{StudentID: f.studentID}
	list, hit, err := f.service.List(ctx, query)
	require.NoError(t, err)
	require.False(t, hit)
	require.Len(t, list.Files, 1)
	require.Len(t, srv.Keys(), 1)

	require.NoError(t, svc.ResolveOrphan(ctx, f.orphans.reports[0]))
	assert.Empty(t, srv.Keys())

	list, hit, err = f.service.List(ctx, query)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, list.Files)
}

func TestReconcileServiceResolveOrphanKeepsReferenced(t *testing.T) {
	f, svc, _ := newReconcileFixture(t)
	ctx := context.Background()

	desc, err := f.service.Upload(ctx, f.request(), pdfUpload("content"))
	require.NoError(t, err)

	require.NoError(t, svc.ResolveOrphan(ctx, desc.ID))
	assert.Len(t, f.files.files, 1)
	assert.Len(t, f.blobs.blobs, 1)
}

func TestReconcileServiceSweep(t *testing.T) {
	f, svc, queue := newReconcileFixture(t)
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)

	f.blobs.blobs["stray-old"] = []byte("x")
	f.blobs.uploaded["stray-old"] = old
	f.blobs.blobs["stray-new"] = []byte("x")
	f.blobs.uploaded["stray-new"] = time.Now()

	orphan := &models.File{ID: "record-old", Filename: "a.pdf", ChapterID: f.chapterID, UploadDate: old}
	require.NoError(t, f.files.Create(ctx, orphan))
	f.blobs.blobs[orphan.ID] = []byte("x")
	f.blobs.uploaded[orphan.ID] = old

	result, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BlobsRemoved)
	assert.Equal(t, 1, result.FilesEnqueued)

	_, kept := f.blobs.blobs["stray-new"]
	assert.True(t, kept)
	_, removed := f.blobs.blobs["stray-old"]
	assert.False(t, removed)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "record-old", queue.jobs[0].ID)
}

func TestReconcileServiceSweepResolvesInlineWhenQueueFull(t *testing.T) {
	f, svc, queue := newReconcileFixture(t)
	queue.err = jobs.ErrQueueFull
	ctx := context.Background()

	orphan := &models.File{ID: "record-old", ChapterID: f.chapterID, UploadDate: time.Now().Add(-time.Hour)}
	require.NoError(t, f.files.Create(ctx, orphan))

	result, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.FilesEnqueued)
	assert.Empty(t, f.files.files)
}

func TestReconcileServiceRejectsBadPayload(t *testing.T) {
	_, svc, _ := newReconcileFixture(t)
	err := svc.Handlers().Handle(context.Background(), jobs.Job{Type: JobOrphanFile, Payload: "file-1"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid orphan payload"))

	err = svc.Handlers().Handle(context.Background(), jobs.Job{Type: "unknown"})
	require.Error(t, err)
}
