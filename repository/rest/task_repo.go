package rest

import (
	"context"
	"net/http"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
	"github.com/fastygo/client/internal/gateway"
)

type TaskRepository struct {
	gw *gateway.Client
}

func NewTaskRepository(gw *gateway.Client) *TaskRepository {
	return &TaskRepository{gw: gw}
}

func (r *TaskRepository) List(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.gw.JSON(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, req transport.TaskCreate) (*domain.Task, error) {
	var task domain.Task
	if err := r.gw.JSON(ctx, http.MethodPost, "/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, req transport.TaskUpdate) (*domain.Task, error) {
	var task domain.Task
	if err := r.gw.JSON(ctx, http.MethodPut, "/tasks/"+id, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.gw.JSON(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
}

func (r *TaskRepository) Complete(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.gw.JSON(ctx, http.MethodPatch, "/tasks/"+id+"/complete", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
