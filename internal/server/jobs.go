package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aronrissato/CarboPratos/internal/models"
)

const (
	jobStatusProcessing = "processing"
	jobStatusCompleted  = "completed"
	jobStatusFailed     = "failed"
)

// BatchJob tracks one asynchronous directory run.
type BatchJob struct {
	ID        string               `json:"id"`
	Directory string               `json:"directory"`
	Status    string               `json:"status"`
	Progress  float64              `json:"progress"`
	StartTime time.Time            `json:"start_time"`
	Summary   *models.BatchSummary `json:"summary,omitempty"`
	Results   []models.PlateResult `json:"results,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// jobEvent is one progress notification pushed to websocket subscribers.
type jobEvent struct {
	Type    string               `json:"type"`
	Done    int                  `json:"done,omitempty"`
	Total   int                  `json:"total,omitempty"`
	Result  *models.PlateResult  `json:"result,omitempty"`
	Summary *models.BatchSummary `json:"summary,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// terminal reports whether this event ends the job's stream.
func (e jobEvent) terminal() bool {
	return e.Type == "summary" || e.Type == "error"
}

// jobTracker owns the in-memory job table and fan-out to subscribers.
type jobTracker struct {
	mutex       sync.RWMutex
	jobs        map[string]*BatchJob
	subscribers map[string][]chan jobEvent
}

func newJobTracker() *jobTracker {
	return &jobTracker{
		jobs:        make(map[string]*BatchJob),
		subscribers: make(map[string][]chan jobEvent),
	}
}

func (t *jobTracker) create(directory string) *BatchJob {
	job := &BatchJob{
		ID:        uuid.NewString(),
		Directory: directory,
		Status:    jobStatusProcessing,
		StartTime: time.Now(),
	}

	t.mutex.Lock()
	t.jobs[job.ID] = job
	t.mutex.Unlock()

	return job
}

// snapshot returns a copy of the job taken under the tracker lock, safe to
// serialize while the batch goroutine keeps mutating the original.
func (t *jobTracker) snapshot(id string) (BatchJob, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return BatchJob{}, false
	}
	return *job, true
}

// subscribe registers a progress channel for a job. The channel is buffered;
// slow consumers drop events rather than blocking the batch.
func (t *jobTracker) subscribe(id string) chan jobEvent {
	ch := make(chan jobEvent, 64)
	t.mutex.Lock()
	t.subscribers[id] = append(t.subscribers[id], ch)
	t.mutex.Unlock()
	return ch
}

func (t *jobTracker) unsubscribe(id string, ch chan jobEvent) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subs := t.subscribers[id]
	for i, sub := range subs {
		if sub == ch {
			t.subscribers[id] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// publish fans an event out to every subscriber. Slow consumers drop
// intermediate result events, but a terminal event always lands: it evicts
// the oldest buffered event to make room, so the stream can never end
// without its summary or error.
func (t *jobTracker) publish(id string, event jobEvent) {
	t.mutex.RLock()
	subs := t.subscribers[id]
	t.mutex.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
			continue
		default:
		}
		if !event.terminal() {
			continue
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}

func (t *jobTracker) updateProgress(id string, done, total int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if job, ok := t.jobs[id]; ok && total > 0 {
		job.Progress = float64(done) / float64(total) * 100
	}
}

func (t *jobTracker) complete(id string, results []models.PlateResult, summary *models.BatchSummary) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if job, ok := t.jobs[id]; ok {
		job.Status = jobStatusCompleted
		job.Progress = 100
		job.Results = results
		job.Summary = summary
	}
}

func (t *jobTracker) fail(id string, err error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if job, ok := t.jobs[id]; ok {
		job.Status = jobStatusFailed
		job.Error = err.Error()
	}
}
