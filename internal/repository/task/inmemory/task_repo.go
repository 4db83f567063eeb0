package inmemory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"taskTracker/internal/logger"
	"taskTracker/internal/models/task"
	repo "taskTracker/internal/repository"
)

type TaskStorage struct {
	storage map[int64]*task.Task
	mtx     *sync.Mutex
	ids     []int64
	lastID  int64
}

var _ repo.Store = (*TaskStorage)(nil)

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*task.Task),
		mtx:     &sync.Mutex{},
		ids:     []int64{},
	}
}

func (s *TaskStorage) Migrate(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Close() {
	logger.Info("Repository: Закрытие хранилища в памяти")
}

// Session работает на копии данных под общим локом;
// изменения видны остальным только после успешного fn.
func (s *TaskStorage) Session(ctx context.Context, fn func(repo.Session) error) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	sess := &session{
		storage: maps.Clone(s.storage),
		ids:     slices.Clone(s.ids),
		lastID:  s.lastID,
	}

	if err := fn(sess); err != nil {
		return err
	}

	s.storage = sess.storage
	s.ids = sess.ids
	s.lastID = sess.lastID
	return nil
}

type session struct {
	storage map[int64]*task.Task
	ids     []int64
	lastID  int64
}

func clone(t *task.Task) *task.Task {
	c := *t
	return &c
}

func (s *session) List(ctx context.Context) ([]*task.Task, error) {
	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, clone(s.storage[id]))
	}
	return res, nil
}

func (s *session) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return clone(taskToGet), nil
}

func (s *session) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.lastID++
	taskToCreate.ID = s.lastID

	s.storage[taskToCreate.ID] = clone(taskToCreate)
	s.ids = append(s.ids, taskToCreate.ID)
	return nil
}

func (s *session) Update(ctx context.Context, taskToUpdate *task.Task) error {
	if _, ok := s.storage[taskToUpdate.ID]; !ok {
		return repo.ErrNotFound
	}
	s.storage[taskToUpdate.ID] = clone(taskToUpdate)
	return nil
}

func (s *session) Delete(ctx context.Context, id int64) error {
	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	s.ids = slices.DeleteFunc(s.ids, func(v int64) bool { return v == id })
	return nil
}
