package server

import (
	"sync"
	"time"

	"github.com/magpress/magpress/pkg/pipeline"
)

// Job is one export job tracked by the server.
type Job struct {
	ID        string           `json:"id"`
	Identity  string           `json:"identity"`
	Template  string           `json:"template"`
	State     pipeline.State   `json:"state"`
	Result    *pipeline.Result `json:"result,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// jobRetention is how long terminal jobs stay queryable.
const jobRetention = time.Hour

// JobRegistry tracks export jobs in memory. Jobs in a terminal state are
// pruned after jobRetention.
type JobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobRegistry creates an empty registry.
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[string]*Job)}
}

// Create registers a new pending job.
func (r *JobRegistry) Create(id, identity, template string) *Job {
	now := time.Now()
	job := &Job{
		ID:        id,
		Identity:  identity,
		Template:  template,
		State:     pipeline.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(now)
	r.jobs[id] = job
	return job
}

// SetState updates a job's state.
func (r *JobRegistry) SetState(id string, state pipeline.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.State = state
		job.UpdatedAt = time.Now()
	}
}

// Complete records a job's final result.
func (r *JobRegistry) Complete(id string, result *pipeline.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.State = result.State
		job.Result = result
		job.UpdatedAt = time.Now()
	}
}

// Get returns a copy of the job, or nil if unknown.
func (r *JobRegistry) Get(id string) *Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// prune removes terminal jobs older than jobRetention. Caller holds the lock.
func (r *JobRegistry) prune(now time.Time) {
	for id, job := range r.jobs {
		if job.State.Terminal() && now.Sub(job.UpdatedAt) > jobRetention {
			delete(r.jobs, id)
		}
	}
}
