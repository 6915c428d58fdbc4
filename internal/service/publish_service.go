package service

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-site-api/internal/dto"
	"github.com/noah-isme/course-site-api/internal/models"
	appErrors "github.com/noah-isme/course-site-api/pkg/errors"
	"github.com/noah-isme/course-site-api/pkg/jobs"
)

// PublishJobType is the queue job type handled by PublishService.
const PublishJobType = "publish_offering"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// PublishConfig governs download links, retries and cleanup.
type PublishConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// PublishDownload is an opened published file.
type PublishDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// PublishService renders offering pages in the background and serves them through signed links.
type PublishService struct {
	store     *PublishStore
	queue     jobDispatcher
	offerings offeringViewer
	renderer  *PageRenderer
	exporter  *ExportService
	storage   fileStorage
	signer    urlSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PublishConfig
}

// NewPublishService constructs the publish service. The queue is attached with SetQueue
// because the queue handler is the service itself.
func NewPublishService(store *PublishStore, offerings offeringViewer, renderer *PageRenderer, exporter *ExportService, storage fileStorage, signer urlSigner, metrics *MetricsService, logger *zap.Logger, cfg PublishConfig) *PublishService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewPublishStore()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &PublishService{
		store:     store,
		offerings: offerings,
		renderer:  renderer,
		exporter:  exporter,
		storage:   storage,
		signer:    signer,
		metrics:   metrics,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
	}
}

// SetQueue attaches the dispatcher used by Enqueue.
func (s *PublishService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// Enqueue validates that the offering schedules and queues rendering of its pages.
func (s *PublishService) Enqueue(ctx context.Context, offeringID string, req dto.PublishRequest) (*models.PublishJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid publish payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "publish queue not configured")
	}
	if _, err := s.offerings.View(ctx, offeringID, false); err != nil {
		return nil, err
	}

	pages := req.Pages
	if len(pages) == 0 {
		pages = OfferingPages
	}
	now := time.Now().UTC()
	job := models.PublishJob{
		ID:         uuid.NewString(),
		OfferingID: offeringID,
		Pages:      pages,
		Status:     models.PublishStatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.store.Put(job)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: PublishJobType, Payload: offeringID}); err != nil {
		s.finish(job.ID, models.PublishStatusFailed, nil, "failed to enqueue job")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue publish job")
	}
	return &job, nil
}

// Status returns the current state of a publish job.
func (s *PublishService) Status(ctx context.Context, id string) (*models.PublishJob, error) {
	job, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "publish job not found")
	}
	return &job, nil
}

// Handle renders and stores the pages of one job. It is the queue handler.
func (s *PublishService) Handle(ctx context.Context, job jobs.Job) error {
	record, ok := s.store.Get(job.ID)
	if !ok {
		s.logger.Warn("publish job vanished", zap.String("job_id", job.ID))
		return nil
	}
	s.store.Update(job.ID, func(j *models.PublishJob) { j.Status = models.PublishStatusProcessing })

	files, err := s.publish(ctx, record)
	if err != nil {
		// the queue retries; GiveUp marks the job failed for good
		s.store.Update(job.ID, func(j *models.PublishJob) {
			j.Status = models.PublishStatusQueued
			j.Error = err.Error()
		})
		return err
	}
	s.finish(job.ID, models.PublishStatusFinished, files, "")
	s.logger.Info("offering published", zap.String("job_id", job.ID), zap.String("offering_id", record.OfferingID), zap.Int("files", len(files)))
	return nil
}

// GiveUp marks a job failed after the queue exhausted its retries.
func (s *PublishService) GiveUp(job jobs.Job, err error) {
	if job.Type != PublishJobType {
		return
	}
	s.finish(job.ID, models.PublishStatusFailed, nil, err.Error())
	s.logger.Error("publish job failed", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
}

func (s *PublishService) publish(ctx context.Context, job models.PublishJob) ([]models.PublishedFile, error) {
	view, err := s.offerings.View(ctx, job.OfferingID, false)
	if err != nil {
		return nil, err
	}
	dir := path.Join(job.OfferingID, job.ID)

	files := make([]models.PublishedFile, 0, len(job.Pages)+1)
	for _, page := range job.Pages {
		html, err := s.renderer.Render(page, *view)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", page, err)
		}
		file, err := s.saveFile(job.ID, page, path.Join(dir, page+".html"), html)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if s.exporter != nil {
		calendar, err := s.exporter.Render(*view, models.ExportFormatICS)
		if err != nil {
			return nil, err
		}
		file, err := s.saveFile(job.ID, "calendar", path.Join(dir, calendar.Filename), calendar.Data)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func (s *PublishService) saveFile(jobID, page, name string, data []byte) (models.PublishedFile, error) {
	relPath, err := s.storage.Save(name, data)
	if err != nil {
		return models.PublishedFile{}, err
	}
	token, expiresAt, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return models.PublishedFile{}, err
	}
	return models.PublishedFile{
		Page:      page,
		Path:      relPath,
		URL:       fmt.Sprintf("%s/files/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *PublishService) finish(id string, status models.PublishStatus, files []models.PublishedFile, message string) {
	s.store.Update(id, func(j *models.PublishJob) {
		j.Status = status
		j.Files = files
		j.Error = message
	})
	s.metrics.RecordPublishJob(status)
}

// ResolveDownload validates a signed token and opens the referenced file.
func (s *PublishService) ResolveDownload(ctx context.Context, token string) (*PublishDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, ok := s.store.Get(jobID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "publish job not found")
	}
	if job.Status != models.PublishStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "publish job not finished")
	}
	known := false
	for _, f := range job.Files {
		if f.Path == relPath {
			known = true
			break
		}
	}
	if !known {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open published file")
	}
	filename := filepath.Base(relPath)
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &PublishDownload{File: file, Filename: filename, ContentType: contentType, ExpiresAt: expiresAt}, nil
}

// StartCleanup purges expired jobs and their files periodically until ctx is cancelled.
func (s *PublishService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Cleanup removes jobs and files older than the result TTL.
func (s *PublishService) Cleanup() {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	for _, job := range s.store.PurgeFinishedBefore(cutoff) {
		for _, f := range job.Files {
			if err := s.storage.Delete(f.Path); err != nil {
				s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("published files cleaned up", zap.Int("files", len(removed)))
	}
}
