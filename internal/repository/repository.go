package repository

import (
	"context"
	"errors"
	"taskTracker/internal/models/task"
)

var ErrNotFound = errors.New("task not found")

// Session - операции над задачами в рамках одной транзакции
type Session interface {
	List(ctx context.Context) ([]*task.Task, error)
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, id int64) error
}

// Store владеет соединением на всё время жизни процесса.
// Session открывает сессию, коммитит её если fn вернула nil,
// иначе откатывает; сессия освобождается при любом выходе.
type Store interface {
	Migrate(ctx context.Context) error
	Session(ctx context.Context, fn func(Session) error) error
	HealthCheck(ctx context.Context) error
	Close()
}

type Type string

const (
	TypePostgres Type = "postgres"
	TypeSQLite   Type = "sqlite"
	TypeInMemory Type = "inmemory"
)
