package sync

import (
	"sync"
	"time"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
)

// ModalMode distinguishes what the task modal was opened for.
type ModalMode string

const (
	ModalCreate ModalMode = "create"
	ModalEdit   ModalMode = "edit"
	ModalView   ModalMode = "view"
)

// state holds the collection plus the ephemeral modal/selection state.
// Every mutation happens under the mutex, so snapshot-then-apply is atomic
// with respect to any other local operation.
type state struct {
	mu        sync.Mutex
	tasks     []domain.Task
	loading   bool
	errMsg    string
	selected  *domain.Task
	modalOpen bool
	modalMode ModalMode
}

// Tasks returns a deep copy of the collection.
func (e *Engine) Tasks() []domain.Task {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return cloneTasks(e.state.tasks)
}

// TasksByStatus returns the tasks in one board column, in collection order.
func (e *Engine) TasksByStatus(status domain.TaskStatus) []domain.Task {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	var out []domain.Task
	for i := range e.state.tasks {
		if e.state.tasks[i].Status == status {
			out = append(out, cloneTask(e.state.tasks[i]))
		}
	}
	return out
}

// Loading reports whether a fetch is in flight. It is independent of whether
// previously loaded tasks remain visible.
func (e *Engine) Loading() bool {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.loading
}

// Err returns the last recorded failure message for passive UI consumption.
func (e *Engine) Err() string {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.errMsg
}

// ClearError resets the recorded failure message.
func (e *Engine) ClearError() {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	e.state.errMsg = ""
}

// OpenModal opens the task modal in the given mode. A nil task is valid for
// create mode.
func (e *Engine) OpenModal(mode ModalMode, task *domain.Task) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	e.state.modalOpen = true
	e.state.modalMode = mode
	if task != nil {
		copied := cloneTask(*task)
		e.state.selected = &copied
	} else {
		e.state.selected = nil
	}
}

// CloseModal closes the modal and drops the selection.
func (e *Engine) CloseModal() {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	e.state.modalOpen = false
	e.state.selected = nil
}

// SetSelectedTask replaces the current selection without touching the modal.
func (e *Engine) SetSelectedTask(task *domain.Task) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	if task == nil {
		e.state.selected = nil
		return
	}
	copied := cloneTask(*task)
	e.state.selected = &copied
}

// Selected returns a copy of the currently selected task, nil when none.
func (e *Engine) Selected() *domain.Task {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	if e.state.selected == nil {
		return nil
	}
	copied := cloneTask(*e.state.selected)
	return &copied
}

// ModalOpen reports whether the modal is showing.
func (e *Engine) ModalOpen() bool {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.modalOpen
}

// Mode returns the current modal mode.
func (e *Engine) Mode() ModalMode {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.modalMode
}

func (s *state) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
	if loading {
		s.errMsg = ""
	}
}

// finishLoad installs a fetched collection, or records the failure while
// keeping the tasks already on screen.
func (s *state) finishLoad(tasks []domain.Task, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.errMsg = errMsg
	if errMsg == "" {
		s.tasks = tasks
	}
}

func (s *state) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

func (s *state) append(task domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
}

func (s *state) removeByID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

func (s *state) replaceByID(id string, task domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = task
			return
		}
	}
}

// applyPatch snapshots the task and applies the patch in one atomic step.
// Returns ok=false when the id is not in the collection.
func (s *state) applyPatch(id string, patch transport.TaskUpdate, now time.Time) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, false
	}
	snapshot := cloneTask(s.tasks[idx])

	task := &s.tasks[idx]
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		task.Priority = domain.TaskPriority(*patch.Priority)
	}
	if patch.DueDate != nil {
		if *patch.DueDate == "" {
			task.DueDate = nil
		} else if due, err := time.Parse(time.RFC3339, *patch.DueDate); err == nil {
			task.DueDate = &due
		}
	}
	if patch.Status != nil {
		task.SetStatus(domain.TaskStatus(*patch.Status), now)
	} else {
		task.UpdatedAt = now
	}
	s.errMsg = ""
	return snapshot, true
}

// applyStatus snapshots the task and transitions its status, deriving the
// completion timestamp locally.
func (s *state) applyStatus(id string, status domain.TaskStatus, now time.Time) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Task{}, false
	}
	snapshot := cloneTask(s.tasks[idx])
	s.tasks[idx].SetStatus(status, now)
	s.errMsg = ""
	return snapshot, true
}

// removeWithSnapshot deletes the task and returns a copy of the whole prior
// collection. Closing the modal for the removed task happens here, inside
// the optimistic step.
func (s *state) removeWithSnapshot(id string) ([]domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	snapshot := cloneTasks(s.tasks)
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	if s.selected != nil && s.selected.ID == id {
		s.modalOpen = false
		s.selected = nil
	}
	s.errMsg = ""
	return snapshot, true
}

// restoreTask puts a single-task snapshot back in place.
func (s *state) restoreTask(snapshot domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == snapshot.ID {
			s.tasks[i] = snapshot
			return
		}
	}
	s.tasks = append(s.tasks, snapshot)
}

// restoreAll reinstates a whole-collection snapshot.
func (s *state) restoreAll(snapshot []domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = snapshot
}

// adoptServerTask replaces the optimistic value with the server's
// authoritative one; the selection follows when it shows the same task.
func (s *state) adoptServerTask(id string, task domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = task
			break
		}
	}
	if s.selected != nil && s.selected.ID == id {
		copied := cloneTask(task)
		s.selected = &copied
	}
}

func (s *state) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTask(t domain.Task) domain.Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		t.CompletedAt = &completed
	}
	return t
}

func cloneTasks(tasks []domain.Task) []domain.Task {
	if tasks == nil {
		return nil
	}
	out := make([]domain.Task, len(tasks))
	for i := range tasks {
		out[i] = cloneTask(tasks[i])
	}
	return out
}
