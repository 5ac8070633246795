package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// remoteWriteTimeout bounds the single attempt of a remote write.
const remoteWriteTimeout = 20 * time.Second

// maxTrackedTasks caps how many finished tasks a Store remembers for polling.
const maxTrackedTasks = 64

// Task is the outcome of the remote half of a mutation. The local half has
// already been applied when a Task exists.
type Task struct {
	id        string
	kind      string
	subject   string
	createdAt time.Time

	done chan struct{}

	mu         sync.Mutex
	status     TaskStatus
	err        error
	finishedAt time.Time
}

// TaskInfo is a serializable view of a Task.
type TaskInfo struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Subject    string     `json:"subject,omitempty"`
	Status     TaskStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

func newTask(kind, subject string, now time.Time) *Task {
	return &Task{
		id:        uuid.NewString(),
		kind:      kind,
		subject:   subject,
		createdAt: now,
		done:      make(chan struct{}),
		status:    TaskPending,
	}
}

func (t *Task) ID() string { return t.id }

// Done is closed when the remote attempt has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the remote failure, or nil while pending or after success.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) Info() TaskInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	info := TaskInfo{
		ID:        t.id,
		Kind:      t.kind,
		Subject:   t.subject,
		Status:    t.status,
		CreatedAt: t.createdAt,
	}
	if t.err != nil {
		info.Error = t.err.Error()
	}
	if !t.finishedAt.IsZero() {
		f := t.finishedAt
		info.FinishedAt = &f
	}
	return info
}

func (t *Task) finish(err error, at time.Time) {
	t.mu.Lock()
	t.err = err
	t.finishedAt = at
	if err != nil {
		t.status = TaskFailed
	} else {
		t.status = TaskSucceeded
	}
	t.mu.Unlock()
	close(t.done)
}

// taskLog keeps the most recent tasks by id.
type taskLog struct {
	order []string
	byID  map[string]*Task
}

func newTaskLog() *taskLog {
	return &taskLog{byID: make(map[string]*Task)}
}

func (l *taskLog) add(t *Task) {
	l.byID[t.id] = t
	l.order = append(l.order, t.id)
	for len(l.order) > maxTrackedTasks {
		oldest := l.byID[l.order[0]]
		// Never forget a task that is still running.
		if oldest != nil && oldest.Info().Status == TaskPending {
			break
		}
		delete(l.byID, l.order[0])
		l.order = l.order[1:]
	}
}

// Task returns a tracked task by id.
func (s *Store) Task(id string) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks.byID[id]
	return t, ok
}

// submit applies local under the Store lock, publishes the new state, then
// makes exactly one attempt at remote in the background. A local error
// aborts the mutation before anything changes.
func (s *Store) submit(kind, subject string, local func() error, remote func(ctx context.Context) error) (*Task, error) {
	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if err := local(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	t := newTask(kind, subject, s.now())
	s.tasks.add(t)
	s.inflight.Add(1)
	s.mu.Unlock()

	s.publishState()
	go s.runRemote(t, remote)
	return t, nil
}

func (s *Store) runRemote(t *Task, remote func(ctx context.Context) error) {
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
	defer cancel()

	err := remote(ctx)
	t.finish(err, s.now())
	info := t.Info()
	if err != nil {
		s.logger.Error("session.runRemote: remote write failed",
			zap.String("kind", t.kind),
			zap.String("subject", t.subject),
			zap.Error(err))
		s.publish(Event{Type: EventTaskFailed, Task: &info})
		return
	}
	s.logger.Debug("session.runRemote: remote write committed",
		zap.String("kind", t.kind), zap.String("subject", t.subject))
	s.publish(Event{Type: EventTaskSucceeded, Task: &info})
}
