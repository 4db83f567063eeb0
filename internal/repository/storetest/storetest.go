// Package storetest - общий набор проверок для реализаций repository.Store
package storetest

import (
	"context"
	"errors"
	"taskTracker/internal/models/task"
	"taskTracker/internal/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func create(t *testing.T, store repository.Store, tsk *task.Task) *task.Task {
	t.Helper()
	err := store.Session(context.Background(), func(s repository.Session) error {
		return s.Create(context.Background(), tsk)
	})
	require.NoError(t, err)
	return tsk
}

func get(store repository.Store, id int64) (*task.Task, error) {
	var found *task.Task
	err := store.Session(context.Background(), func(s repository.Session) error {
		var err error
		found, err = s.GetByID(context.Background(), id)
		return err
	})
	return found, err
}

func list(t *testing.T, store repository.Store) []*task.Task {
	t.Helper()
	var tasks []*task.Task
	err := store.Session(context.Background(), func(s repository.Session) error {
		var err error
		tasks, err = s.List(context.Background())
		return err
	})
	require.NoError(t, err)
	return tasks
}

// Run прогоняет проверки; newStore должен отдавать пустое хранилище со схемой
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("create assigns id and keeps fields", func(t *testing.T) {
		store := newStore(t)

		created := create(t, store, task.New("Buy milk",
			task.WithPic(strPtr("https://img/milk.png")),
			task.WithDate(strPtr("2025-01-01"))))
		assert.NotZero(t, created.ID)

		found, err := get(store, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Buy milk", found.Task)
		require.NotNil(t, found.Pic)
		assert.Equal(t, "https://img/milk.png", *found.Pic)
		require.NotNil(t, found.Date)
		assert.Equal(t, "2025-01-01", *found.Date)
		assert.False(t, found.IsDone)
	})

	t.Run("ids are unique", func(t *testing.T) {
		store := newStore(t)

		first := create(t, store, task.New("one"))
		second := create(t, store, task.New("two"))
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("optional fields stay null", func(t *testing.T) {
		store := newStore(t)

		created := create(t, store, task.New("plain"))
		found, err := get(store, created.ID)
		require.NoError(t, err)
		assert.Nil(t, found.Pic)
		assert.Nil(t, found.Date)
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)

		_, err := get(store, 99999)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		store := newStore(t)
		assert.Empty(t, list(t, store))

		for _, text := range []string{"a", "b", "c"} {
			create(t, store, task.New(text))
		}

		tasks := list(t, store)
		require.Len(t, tasks, 3)
		assert.Equal(t, "a", tasks[0].Task)
		assert.Equal(t, "c", tasks[2].Task)
		assert.Less(t, tasks[0].ID, tasks[1].ID)
	})

	t.Run("update writes the row back", func(t *testing.T) {
		store := newStore(t)
		created := create(t, store, task.New("draft", task.WithPic(strPtr("x"))))

		created.Apply(task.WithDone(true), task.WithPic(nil), task.WithText("final"))
		err := store.Session(context.Background(), func(s repository.Session) error {
			return s.Update(context.Background(), created)
		})
		require.NoError(t, err)

		found, err := get(store, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "final", found.Task)
		assert.True(t, found.IsDone)
		assert.Nil(t, found.Pic)
	})

	t.Run("update missing returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)

		err := store.Session(context.Background(), func(s repository.Session) error {
			return s.Update(context.Background(), &task.Task{ID: 99999, Task: "ghost"})
		})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		store := newStore(t)
		created := create(t, store, task.New("temp"))
		create(t, store, task.New("keep"))

		err := store.Session(context.Background(), func(s repository.Session) error {
			return s.Delete(context.Background(), created.ID)
		})
		require.NoError(t, err)

		_, err = get(store, created.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Len(t, list(t, store), 1)

		err = store.Session(context.Background(), func(s repository.Session) error {
			return s.Delete(context.Background(), created.ID)
		})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("failed session is rolled back", func(t *testing.T) {
		store := newStore(t)
		boom := errors.New("boom")

		err := store.Session(context.Background(), func(s repository.Session) error {
			if err := s.Create(context.Background(), task.New("lost")); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, list(t, store))
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		store := newStore(t)
		create(t, store, task.New("survivor"))

		require.NoError(t, store.Migrate(context.Background()))
		assert.Len(t, list(t, store), 1)
	})

	t.Run("health check", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.HealthCheck(context.Background()))
	})
}
