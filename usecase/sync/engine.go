// Package sync maintains the local task collection and reconciles it with
// the server through an optimistic-apply, confirm-or-rollback discipline:
// snapshot the affected state, mutate locally for zero-latency feedback,
// issue the remote call, then adopt the server's value or restore the
// snapshot exactly.
package sync

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
	"github.com/fastygo/client/pkg/logger"
	"github.com/fastygo/client/repository"
)

// Engine owns the task collection. No other component writes it.
//
// Two overlapping mutations on the same task id race at the network layer and
// the last response to land wins; serializing per-id traffic is left to the
// caller (e.g. disabling a control while its request is in flight).
type Engine struct {
	api    repository.TaskAPI
	logger *zap.Logger
	now    func() time.Time

	state state
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for optimistic timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(api repository.TaskAPI, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		api:    api,
		logger: logger,
		now:    time.Now,
	}
	e.state.modalMode = ModalCreate
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchTasks replaces the collection with the server's view. Reads carry no
// optimistic step; a failed refresh keeps previously loaded tasks visible.
func (e *Engine) FetchTasks(ctx context.Context) error {
	e.state.setLoading(true)

	tasks, err := e.api.List(ctx)
	if err != nil {
		e.state.finishLoad(nil, domain.MessageOf(err))
		return err
	}
	e.state.finishLoad(tasks, "")
	return nil
}

// CreateTask appends a placeholder task immediately and swaps it for the
// server-assigned one on acknowledgment. On failure the placeholder is
// removed by its temporary id.
func (e *Engine) CreateTask(ctx context.Context, req transport.TaskCreate) (*domain.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		// Refused before any optimistic apply.
		err := domain.NewError(domain.ErrCodeInvalid, "task title is required")
		e.state.setError(err.Message)
		return nil, err
	}

	placeholder := e.buildPlaceholder(req)
	e.state.append(placeholder)

	created, err := e.api.Create(ctx, req)
	if err != nil {
		e.state.removeByID(placeholder.ID)
		e.state.setError(domain.MessageOf(err))
		e.opLogger("create_task").Warn("placeholder removed after create failure",
			zap.String("temp_id", placeholder.ID), zap.Error(err))
		return nil, err
	}

	e.state.replaceByID(placeholder.ID, *created)
	e.logger.Debug("placeholder replaced",
		zap.String("temp_id", placeholder.ID),
		zap.String("task_id", created.ID))
	return created, nil
}

// UpdateTask applies a partial patch optimistically and reconciles with the
// server's returned task. An id absent from the local collection is a caller
// contract violation and fails without a network call.
func (e *Engine) UpdateTask(ctx context.Context, id string, patch transport.TaskUpdate) (*domain.Task, error) {
	snapshot, ok := e.state.applyPatch(id, patch, e.now())
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	updated, err := e.api.Update(ctx, id, patch)
	if err != nil {
		e.state.restoreTask(snapshot)
		e.state.setError(domain.MessageOf(err))
		e.opLogger("update_task").Warn("rolled back optimistic update",
			zap.String("task_id", id), zap.Error(err))
		return nil, err
	}

	e.state.adoptServerTask(id, *updated)
	return updated, nil
}

// UpdateTaskStatus is the drag-and-drop path: it derives CompletedAt locally
// before the optimistic apply and sends a status-only patch. Rollback
// restores the full prior task object.
func (e *Engine) UpdateTaskStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	if !domain.ValidStatus(status) {
		err := domain.NewError(domain.ErrCodeInvalid, "unknown task status")
		e.state.setError(err.Message)
		return err
	}

	snapshot, ok := e.state.applyStatus(id, status, e.now())
	if !ok {
		return domain.ErrTaskNotFound
	}

	wire := string(status)
	updated, err := e.api.Update(ctx, id, transport.TaskUpdate{Status: &wire})
	if err != nil {
		e.state.restoreTask(snapshot)
		e.state.setError(domain.MessageOf(err))
		e.opLogger("update_task_status").Warn("rolled back status change",
			zap.String("task_id", id), zap.String("status", wire), zap.Error(err))
		return err
	}

	if updated != nil {
		e.state.adoptServerTask(id, *updated)
	}
	return nil
}

// DeleteTask removes the task optimistically, snapshotting the whole
// collection since removal changes ordering context. Deleting the task shown
// in the modal closes the modal as part of the optimistic step; a rollback
// restores the task but does not reopen the modal.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	snapshot, ok := e.state.removeWithSnapshot(id)
	if !ok {
		return domain.ErrTaskNotFound
	}

	if err := e.api.Delete(ctx, id); err != nil {
		e.state.restoreAll(snapshot)
		e.state.setError(domain.MessageOf(err))
		e.opLogger("delete_task").Warn("restored task after delete failure",
			zap.String("task_id", id), zap.Error(err))
		return err
	}
	return nil
}

// CompleteTask marks the task done through the dedicated completion endpoint,
// with the same rollback discipline as a status update.
func (e *Engine) CompleteTask(ctx context.Context, id string) error {
	snapshot, ok := e.state.applyStatus(id, domain.StatusDone, e.now())
	if !ok {
		return domain.ErrTaskNotFound
	}

	completed, err := e.api.Complete(ctx, id)
	if err != nil {
		e.state.restoreTask(snapshot)
		e.state.setError(domain.MessageOf(err))
		e.opLogger("complete_task").Warn("rolled back completion",
			zap.String("task_id", id), zap.Error(err))
		return err
	}

	if completed != nil {
		e.state.adoptServerTask(id, *completed)
	}
	return nil
}

func (e *Engine) opLogger(op string) *zap.Logger {
	return logger.WithOperation(e.logger, op)
}

func (e *Engine) buildPlaceholder(req transport.TaskCreate) domain.Task {
	now := e.now()

	status := domain.TaskStatus(req.Status)
	if !domain.ValidStatus(status) {
		status = domain.StatusTodo
	}
	priority := domain.TaskPriority(req.Priority)
	if !domain.ValidPriority(priority) {
		priority = domain.PriorityMedium
	}

	task := domain.Task{
		ID:          domain.NewTempID(now),
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		CreatedAt:   now,
	}
	if req.DueDate != "" {
		if due, err := time.Parse(time.RFC3339, req.DueDate); err == nil {
			task.DueDate = &due
		}
	}
	task.SetStatus(status, now)
	return task
}
