package repository

import (
	"context"

	"github.com/fastygo/client/api/transport"
	"github.com/fastygo/client/domain"
)

// TaskAPI covers the remote task endpoints the sync engine reconciles
// against. Returned tasks are the server's authoritative values and replace
// optimistic local copies.
type TaskAPI interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, req transport.TaskCreate) (*domain.Task, error)
	Update(ctx context.Context, id string, req transport.TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) (*domain.Task, error)
}
