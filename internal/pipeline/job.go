package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a harvest job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// JobStats counts what happened to each harvested link.
type JobStats struct {
	LinksFound    int `json:"links_found"`
	Skipped       int `json:"skipped"`
	FetchFailures int `json:"fetch_failures"`
	Rejected      int `json:"rejected"`
	Stored        int `json:"stored"`
	Volumes       int `json:"volumes"`
}

// JobView is a serializable snapshot of a job.
type JobView struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Target      string    `json:"target"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	Stats       JobStats  `json:"stats"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Job tracks one harvest run. All mutation goes through its methods so
// a job can be snapshotted while the pipeline is writing to it.
type Job struct {
	mu sync.Mutex

	id          string
	query       string
	target      string
	status      JobStatus
	err         string
	stats       JobStats
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
}

// NewJob creates a pending job for a query.
func NewJob(query, target string) *Job {
	return &Job{
		id:        uuid.New().String(),
		query:     query,
		target:    target,
		status:    StatusPending,
		createdAt: time.Now().UTC(),
	}
}

func (j *Job) ID() string     { return j.id }
func (j *Job) Query() string  { return j.query }
func (j *Job) Target() string { return j.target }

// Snapshot returns a copy safe to serialize while the job is running.
func (j *Job) Snapshot() JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobView{
		ID:          j.id,
		Query:       j.query,
		Target:      j.target,
		Status:      j.status,
		Error:       j.err,
		Stats:       j.stats,
		CreatedAt:   j.createdAt,
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
	}
}

func (j *Job) begin() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusRunning
	j.startedAt = time.Now().UTC()
}

func (j *Job) complete() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusCompleted
	j.completedAt = time.Now().UTC()
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusFailed
	j.err = err.Error()
	j.completedAt = time.Now().UTC()
}

func (j *Job) setLinksFound(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stats.LinksFound = n
}

func (j *Job) addSkipped() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stats.Skipped++
}

func (j *Job) addFetchFailure() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stats.FetchFailures++
}

func (j *Job) addRejected() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stats.Rejected++
}

// tryStore increments the stored count unless the cap is reached.
func (j *Job) tryStore(max int) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stats.Stored >= max {
		return false
	}
	j.stats.Stored++
	return true
}

func (j *Job) addVolume() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stats.Volumes++
}

func (j *Job) storedCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stats.Stored
}

// Tracker is an in-memory registry of harvest jobs.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewTracker creates an empty job tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Job)}
}

// Create registers a new pending job.
func (t *Tracker) Create(query, target string) *Job {
	job := NewJob(query, target)
	t.mu.Lock()
	t.jobs[job.id] = job
	t.mu.Unlock()
	return job
}

// Get returns the job with the given ID.
func (t *Tracker) Get(id string) (*Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	return job, ok
}

// List returns snapshots of all jobs, newest first.
func (t *Tracker) List() []JobView {
	t.mu.RLock()
	defer t.mu.RUnlock()

	views := make([]JobView, 0, len(t.jobs))
	for _, job := range t.jobs {
		views = append(views, job.Snapshot())
	}
	sort.Slice(views, func(i, k int) bool {
		return views[i].CreatedAt.After(views[k].CreatedAt)
	})
	return views
}
