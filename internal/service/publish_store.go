package service

import (
	"sync"
	"time"

	"github.com/noah-isme/course-site-api/internal/models"
)

// PublishStore keeps publish job status in memory until it expires.
type PublishStore struct {
	mu   sync.RWMutex
	jobs map[string]models.PublishJob
}

// NewPublishStore creates an empty store.
func NewPublishStore() *PublishStore {
	return &PublishStore{jobs: make(map[string]models.PublishJob)}
}

// Put inserts or replaces a job.
func (s *PublishStore) Put(job models.PublishJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a copy of the job.
func (s *PublishStore) Get(id string) (models.PublishJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Update applies fn to the stored job and stamps UpdatedAt. It reports false for unknown ids.
func (s *PublishStore) Update(id string, fn func(job *models.PublishJob)) (models.PublishJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.PublishJob{}, false
	}
	fn(&job)
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job
	return job, true
}

// PurgeFinishedBefore drops finished or failed jobs last updated before cutoff and returns them.
func (s *PublishStore) PurgeFinishedBefore(cutoff time.Time) []models.PublishJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged []models.PublishJob
	for id, job := range s.jobs {
		if job.Done() && job.UpdatedAt.Before(cutoff) {
			purged = append(purged, job)
			delete(s.jobs, id)
		}
	}
	return purged
}
