package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crawlkit/shopscraper/internal/models"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
)

// Job tracks a batch of URLs submitted together. Results accumulate as
// the crawler works through the batch.
type Job struct {
	ID        string            `json:"id"`
	Status    JobStatus         `json:"status"`
	Total     int               `json:"total"`
	Done      int               `json:"done"`
	Failed    int               `json:"failed"`
	Products  []*models.Product `json:"products"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// snapshot copies the job so callers can read and encode it outside the
// store lock while the crawler keeps recording results. Product pointers
// are shared; products are never mutated after emission.
func (j *Job) snapshot() *Job {
	copied := *j
	copied.Products = append([]*models.Product(nil), j.Products...)
	return &copied
}

// JobStore is an in-memory registry of jobs. Jobs do not survive a
// process restart. Accessors return snapshots, never live entries.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

func (s *JobStore) Create(total int) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobPending,
		Total:     total,
		Products:  make([]*models.Product, 0, total),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job
	return job.snapshot()
}

func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return job.snapshot(), true
}

func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.snapshot())
	}
	return out
}

// RecordResult attaches one finished product to its job and advances the
// job status. Unknown job IDs are ignored so ad-hoc tasks can share the
// queue with job tasks.
func (s *JobStore) RecordResult(jobID string, product *models.Product) {
	if jobID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return
	}

	job.Products = append(job.Products, product)
	job.Done++
	if product.Error != "" {
		job.Failed++
	}
	job.UpdatedAt = time.Now()

	if job.Done >= job.Total {
		job.Status = JobCompleted
	} else {
		job.Status = JobRunning
	}
}
