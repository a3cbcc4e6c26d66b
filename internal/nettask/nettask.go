// Package nettask implements the net task manager: monotonically
// assigned task IDs correlating async fetches, polled rather than
// awaited from inside the VM (§4.6, §5).
package nettask

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"lingoplayer/internal/playererr"
)

// State is a NetTask's lifecycle state.
type State int

const (
	Pending State = iota
	DoneOK
	DoneErr
)

// Task is one outstanding or completed network operation.
type Task struct {
	ID     int
	Token  string // uuid cancellation/correlation token, distinct from ID
	URL    string
	State  State
	Bytes  []byte
	ErrMsg string
	cancel context.CancelFunc
}

// Client is the host's async network collaborator (§6 "Net client").
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
}

// Manager assigns integer task IDs and correlates them to the async
// work a Client performs, polling results at VM suspension points
// (§5 "completion is observed only at suspension points").
type Manager struct {
	mu       sync.Mutex
	client   Client
	nextID   int
	tasks    map[int]*Task
	// completed is a FIFO queue of task IDs whose completion hasn't yet
	// been observed by PollCompleted, giving a deterministic polling
	// order when multiple tasks finish concurrently (§5).
	completed []int
}

// New returns a Manager backed by client.
func New(client Client) *Manager {
	return &Manager{client: client, nextID: 1, tasks: make(map[int]*Task)}
}

func (m *Manager) newTask(url string) (*Task, context.Context) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{ID: id, Token: uuid.NewString(), URL: url, State: Pending, cancel: cancel}
	m.tasks[id] = t
	m.mu.Unlock()
	return t, ctx
}

func (m *Manager) finish(t *Task, data []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		t.State = DoneErr
		t.ErrMsg = err.Error()
	} else {
		t.State = DoneOK
		t.Bytes = data
	}
	m.completed = append(m.completed, t.ID)
}

// PreloadNetThing starts an async GET for url and returns its task ID.
func (m *Manager) PreloadNetThing(url string) int {
	t, ctx := m.newTask(url)
	go func() {
		data, err := m.client.Get(ctx, url)
		m.finish(t, data, err)
	}()
	return t.ID
}

// PostNetText starts an async POST for url with body and returns its
// task ID.
func (m *Manager) PostNetText(url string, body []byte) int {
	t, ctx := m.newTask(url)
	go func() {
		data, err := m.client.Post(ctx, url, body)
		m.finish(t, data, err)
	}()
	return t.ID
}

// IsTaskDone reports whether id has completed (ok or err).
func (m *Manager) IsTaskDone(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return ok && t.State != Pending
}

// Result describes the outcome of GetTaskResult.
type Result struct {
	Pending bool
	OK      bool
	Bytes   []byte
	Err     error
}

// GetTaskResult returns the current result for id. Unknown ids report
// pending=false, ok=false with a NetError — scripts only ever observe
// this via netError/getStreamStatus (§7), never a thrown exception.
func (m *Manager) GetTaskResult(id int) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return Result{Err: playererr.New(playererr.NetError, "unknown task id %d", id)}
	}
	switch t.State {
	case Pending:
		return Result{Pending: true}
	case DoneOK:
		return Result{OK: true, Bytes: t.Bytes}
	default:
		return Result{Err: playererr.New(playererr.NetError, "%s", t.ErrMsg)}
	}
}

// Cancel cancels a pending task; its result will surface as err(cancelled).
func (m *Manager) Cancel(id int) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	m.mu.Unlock()
	if ok && t.cancel != nil {
		t.cancel()
	}
}

// PollCompleted drains and returns, in FIFO completion order, the IDs
// of tasks that finished since the last poll. The score player does
// not call it; the host decides when to poll.
func (m *Manager) PollCompleted() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.completed
	m.completed = nil
	return ids
}

// Drop releases a task's retained result (§4.6 "no auto-GC").
func (m *Manager) Drop(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
}
