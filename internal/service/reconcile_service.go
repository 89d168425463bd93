package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studynotes-api/internal/models"
	"github.com/noah-isme/studynotes-api/pkg/jobs"
	"github.com/noah-isme/studynotes-api/pkg/storage"
)

// Reconcile job types.
const (
	JobOrphanFile = "orphan_file"
	JobSweep      = "sweep"
)

type reconcileFileRepository interface {
	Delete(ctx context.Context, id string) error
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	ListUnreferencedBefore(ctx context.Context, cutoff time.Time) ([]models.File, error)
}

type chapterReferenceChecker interface {
	ReferencesFile(ctx context.Context, fileID string) (bool, error)
}

type personalReferenceChecker interface {
	PersonalFileReferenced(ctx context.Context, fileID string) (bool, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
	TryEnqueue(job jobs.Job) error
}

// OrphanPayload identifies a file suspected to be unreferenced.
type OrphanPayload struct {
	FileID string
	Reason string
}

// SweepResult summarises one sweep pass.
type SweepResult struct {
	BlobsRemoved  int
	FilesEnqueued int
}

// ReconcileService repairs the blob store and the entity store after partial
// failures of uploads and deletions.
type ReconcileService struct {
	files    reconcileFileRepository
	chapters chapterReferenceChecker
	personal personalReferenceChecker
	blobs    blobProvider
	cache    *CacheService
	queue    jobEnqueuer
	metrics  *MetricsService
	logger   *zap.Logger
	grace    time.Duration
	now      func() time.Time
}

// NewReconcileService constructs a ReconcileService. Grace protects in-flight
// uploads from being swept. Cache may be nil.
func NewReconcileService(files reconcileFileRepository, chapters chapterReferenceChecker, personal personalReferenceChecker, blobs blobProvider, cache *CacheService, metrics *MetricsService, logger *zap.Logger, grace time.Duration) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if grace <= 0 {
		grace = 30 * time.Minute
	}
	return &ReconcileService{
		files:    files,
		chapters: chapters,
		personal: personal,
		blobs:    blobs,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		grace:    grace,
		now:      time.Now,
	}
}

// UseQueue attaches the queue jobs are dispatched through.
func (s *ReconcileService) UseQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Handlers returns the job routes served by this service.
func (s *ReconcileService) Handlers() jobs.Mux {
	return jobs.Mux{
		JobOrphanFile: s.handleOrphan,
		JobSweep: func(ctx context.Context, _ jobs.Job) error {
			_, err := s.Sweep(ctx)
			return err
		},
	}
}

// ReportOrphan schedules a check of fileID without blocking the caller.
func (s *ReconcileService) ReportOrphan(fileID, reason string) {
	s.metrics.RecordReconcile("orphan_reported")
	if s.queue == nil {
		s.logger.Warn("orphan left for sweep", zap.String("file_id", fileID), zap.String("reason", reason))
		return
	}
	job := jobs.Job{ID: fileID, Type: JobOrphanFile, Payload: OrphanPayload{FileID: fileID, Reason: reason}}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Warn("orphan job not queued", zap.String("file_id", fileID), zap.Error(err))
	}
}

// TriggerSweep queues a sweep pass.
func (s *ReconcileService) TriggerSweep() error {
	if s.queue == nil {
		return errors.New("reconcile queue not attached")
	}
	return s.queue.TryEnqueue(jobs.Job{Type: JobSweep})
}

func (s *ReconcileService) handleOrphan(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(OrphanPayload)
	if !ok || payload.FileID == "" {
		return fmt.Errorf("invalid orphan payload %T", job.Payload)
	}
	return s.ResolveOrphan(ctx, payload.FileID)
}

// ResolveOrphan deletes fileID's blob and record when nothing references it.
func (s *ReconcileService) ResolveOrphan(ctx context.Context, fileID string) error {
	referenced, err := s.chapters.ReferencesFile(ctx, fileID)
	if err != nil {
		return err
	}
	if !referenced {
		if referenced, err = s.personal.PersonalFileReferenced(ctx, fileID); err != nil {
			return err
		}
	}
	if referenced {
		s.logger.Debug("file referenced, keeping", zap.String("file_id", fileID))
		return nil
	}

	store, err := s.blobs.Store()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, fileID); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		return fmt.Errorf("delete orphan blob: %w", err)
	}
	if err := s.files.Delete(ctx, fileID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete orphan record: %w", err)
	}
	_ = s.cache.Invalidate(context.WithoutCancel(ctx), fileCachePrefix+"*")
	s.metrics.RecordReconcile("orphan_file_removed")
	s.logger.Info("orphan file removed", zap.String("file_id", fileID))
	return nil
}

// Sweep removes blobs without records and schedules unreferenced records, in
// both cases only past the grace period.
func (s *ReconcileService) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	store, err := s.blobs.Store()
	if err != nil {
		return result, err
	}
	cutoff := s.now().Add(-s.grace)

	blobs, err := store.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list blobs: %w", err)
	}
	candidates := make([]string, 0, len(blobs))
	for _, blob := range blobs {
		if blob.UploadedAt.Before(cutoff) {
			candidates = append(candidates, blob.Key)
		}
	}
	existing, err := s.files.ExistingIDs(ctx, candidates)
	if err != nil {
		return result, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}
	for _, key := range candidates {
		if _, ok := known[key]; ok {
			continue
		}
		if err := store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
			s.logger.Warn("failed to delete stray blob", zap.String("key", key), zap.Error(err))
			continue
		}
		result.BlobsRemoved++
		s.metrics.RecordReconcile("orphan_blob_removed")
	}

	files, err := s.files.ListUnreferencedBefore(ctx, cutoff)
	if err != nil {
		return result, err
	}
	for _, file := range files {
		if s.queue != nil {
			job := jobs.Job{ID: file.ID, Type: JobOrphanFile, Payload: OrphanPayload{FileID: file.ID, Reason: "sweep"}}
			if err := s.queue.TryEnqueue(job); err == nil {
				result.FilesEnqueued++
				continue
			}
		}
		if err := s.ResolveOrphan(ctx, file.ID); err != nil {
			s.logger.Warn("failed to resolve orphan file", zap.String("file_id", file.ID), zap.Error(err))
		}
	}

	s.logger.Info("reconcile sweep finished",
		zap.Int("blobs_removed", result.BlobsRemoved), zap.Int("files_enqueued", result.FilesEnqueued))
	return result, nil
}
