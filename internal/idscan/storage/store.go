package storage

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medflow/medflow-idscan/internal/idscan/domain"
)

// JobStore keeps scan jobs in memory so the review screen can fetch a result
// again. Jobs hold personal data and expire after the TTL; nothing is written to disk.
type JobStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewJobStore creates a job store that expires jobs after ttl
func NewJobStore(ttl time.Duration) *JobStore {
	cleanup := ttl / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	return &JobStore{
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// GenerateJobID creates a random job ID
func GenerateJobID() string {
	return uuid.NewString()
}

// Store saves a job, replacing any job with the same ID
func (s *JobStore) Store(job *domain.ScanJob) {
	s.cache.Set(job.JobID, job, s.ttl)
}

// Get returns the job with the given ID, or nil if it expired or never existed
func (s *JobStore) Get(jobID string) *domain.ScanJob {
	if v, found := s.cache.Get(jobID); found {
		return v.(*domain.ScanJob)
	}
	return nil
}

// Delete removes a job
func (s *JobStore) Delete(jobID string) {
	s.cache.Delete(jobID)
}

// Len returns the number of jobs held, including expired ones not yet cleaned up
func (s *JobStore) Len() int {
	return s.cache.ItemCount()
}
