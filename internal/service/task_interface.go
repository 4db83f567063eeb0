package service

import (
	"context"
	"taskTracker/internal/repository"
)

// TaskRepository - то, что сервису нужно от хранилища
type TaskRepository interface {
	Session(ctx context.Context, fn func(repository.Session) error) error
	HealthCheck(ctx context.Context) error
}
