// Package tasks owns the in-memory task state machine consumed by the
// progress endpoints. Tasks are never persisted.
package tasks

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending      Status = "pending"
	StatusProcessing   Status = "processing"
	StatusDownloading  Status = "downloading"
	StatusTranscribing Status = "transcribing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// LogEntry is one append-only, timestamped progress line.
type LogEntry struct {
	Timestamp float64 `json:"timestamp"`
	Level     string  `json:"level"`
	Message   string  `json:"message"`
}

// Snapshot is the copy handed to consumers; mutating it never touches the
// live task.
type Snapshot struct {
	TaskID     string      `json:"task_id"`
	Status     Status      `json:"status"`
	Progress   float64     `json:"progress"`
	Message    string      `json:"message"`
	Result     interface{} `json:"result"`
	Error      string      `json:"error"`
	CreateTime float64     `json:"create_time"`
	UpdateTime float64     `json:"update_time"`
	EndTime    *float64    `json:"end_time"`
	Logs       []LogEntry  `json:"logs"`
}

type task struct {
	status     Status
	progress   float64
	message    string
	result     interface{}
	err        string
	createTime time.Time
	updateTime time.Time
	endTime    *time.Time
	logs       []LogEntry
}

// Update carries the fields to change on a task. Nil fields are left alone.
type Update struct {
	Status   *Status
	Progress *float64
	Message  string
	Result   interface{}
	Error    string
}

// Registry is the single source of truth for task state. One map-level lock
// guards all entries.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*task

	now func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*task),
		now:   time.Now,
	}
}

// Create registers a new pending task and returns its id.
func (r *Registry) Create() string {
	id := uuid.New().String()
	now := r.now()
	r.mu.Lock()
	r.tasks[id] = &task{
		status:     StatusPending,
		createTime: now,
		updateTime: now,
	}
	r.mu.Unlock()
	return id
}

// Apply mutates a task. Once a task reached a terminal status, further status
// transitions are ignored; progress, message and result may still attach. A
// non-empty Error always forces the failed status (when not already
// terminal) and stamps the end time.
func (r *Registry) Apply(id string, u Update) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return false
	}
	now := r.now()
	t.updateTime = now

	if u.Status != nil && !t.status.Terminal() {
		t.status = *u.Status
		if t.status.Terminal() {
			end := now
			t.endTime = &end
		}
	}
	if u.Progress != nil {
		t.progress = *u.Progress
	}
	if u.Message != "" {
		t.message = u.Message
	}
	if u.Result != nil {
		t.result = u.Result
	}
	if u.Error != "" {
		t.err = u.Error
		if !t.status.Terminal() {
			t.status = StatusFailed
			end := now
			t.endTime = &end
		}
	}
	return true
}

// AddLog appends a timestamped entry and mirrors it into the task message.
func (r *Registry) AddLog(id, level, message string) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	if ok {
		t.logs = append(t.logs, LogEntry{
			Timestamp: toUnix(r.now()),
			Level:     level,
			Message:   message,
		})
		t.message = message
		t.updateTime = r.now()
	}
	r.mu.Unlock()
}

// Get returns a snapshot copy, or nil when the task is unknown.
func (r *Registry) Get(id string) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil
	}
	snap := &Snapshot{
		TaskID:     id,
		Status:     t.status,
		Progress:   t.progress,
		Message:    t.message,
		Result:     t.result,
		Error:      t.err,
		CreateTime: toUnix(t.createTime),
		UpdateTime: toUnix(t.updateTime),
		Logs:       make([]LogEntry, len(t.logs)),
	}
	copy(snap.Logs, t.logs)
	if t.endTime != nil {
		end := toUnix(*t.endTime)
		snap.EndTime = &end
	}
	return snap
}

// Remove drops a task once its consumer has observed a terminal state.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.tasks, id)
	r.mu.Unlock()
}

// CleanOld sweeps terminal tasks whose end time is older than maxAge and
// returns how many were removed.
func (r *Registry) CleanOld(maxAge time.Duration) int {
	now := r.now()
	removed := 0
	r.mu.Lock()
	for id, t := range r.tasks {
		if t.endTime != nil && now.Sub(*t.endTime) > maxAge {
			delete(r.tasks, id)
			removed++
		}
	}
	r.mu.Unlock()
	return removed
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
