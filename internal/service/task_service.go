package service

import (
	"context"
	"errors"
	"fmt"
	"taskTracker/internal/logger"
	"taskTracker/internal/models/task"
	"taskTracker/internal/repository"

	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	var tasks []*task.Task
	err := s.repo.Session(ctx, func(sess repository.Session) error {
		var err error
		tasks, err = sess.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, text string, options ...task.TaskOption) (*task.Task, error) {
	if text == "" {
		return nil, NewValidationError("task", "field required")
	}

	newTask := task.New(text, options...)
	err := s.repo.Session(ctx, func(sess repository.Session) error {
		return sess.Create(ctx, newTask)
	})
	if err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана", zap.Int64("task_id", newTask.ID))
	return newTask, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	var found *task.Task
	err := s.repo.Session(ctx, func(sess repository.Session) error {
		var err error
		found, err = s.getExisting(ctx, sess, id)
		return err
	})
	if err != nil {
		return nil, wrapUnlessBusiness(err, "получение задачи")
	}
	return found, nil
}

// UpdateTask меняет только поля, для которых передана опция
func (s *TaskService) UpdateTask(ctx context.Context, id int64, options ...task.TaskOption) (*task.Task, error) {
	var updated *task.Task
	err := s.repo.Session(ctx, func(sess repository.Session) error {
		existing, err := s.getExisting(ctx, sess, id)
		if err != nil {
			return err
		}

		existing.Apply(options...)
		if existing.Task == "" {
			return NewValidationError("task", "must not be empty")
		}

		if err := sess.Update(ctx, existing); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewNotFound(id, err)
			}
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, wrapUnlessBusiness(err, "обновление задачи")
	}

	logger.Info("Service: Задача обновлена", zap.Int64("task_id", id))
	return updated, nil
}

// DeleteTask возвращает удалённую задачу, чтобы ответ мог назвать её текст
func (s *TaskService) DeleteTask(ctx context.Context, id int64) (*task.Task, error) {
	var deleted *task.Task
	err := s.repo.Session(ctx, func(sess repository.Session) error {
		existing, err := s.getExisting(ctx, sess, id)
		if err != nil {
			return err
		}

		if err := sess.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewNotFound(id, err)
			}
			return err
		}
		deleted = existing
		return nil
	})
	if err != nil {
		return nil, wrapUnlessBusiness(err, "удаление задачи")
	}

	logger.Info("Service: Задача удалена", zap.Int64("task_id", id))
	return deleted, nil
}

func (s *TaskService) getExisting(ctx context.Context, sess repository.Session, id int64) (*task.Task, error) {
	found, err := sess.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return nil, NewNotFound(id, err)
		}
		return nil, err
	}
	return found, nil
}

func wrapUnlessBusiness(err error, op string) error {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr
	}
	return fmt.Errorf("%s: %w", op, err)
}
