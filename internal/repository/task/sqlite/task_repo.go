package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"taskTracker/internal/logger"
	"taskTracker/internal/models/task"
	repo "taskTracker/internal/repository"
	"taskTracker/internal/repository/migrations"
	"time"

	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const DefaultPath = "database.db"

const slowQuery = time.Millisecond * 100

type Storage struct {
	db   *sql.DB
	path string
}

var _ repo.Store = (*Storage)(nil)

// New открывает (или создаёт) файл базы
func New(ctx context.Context, path string) (*Storage, error) {
	if path == "" {
		path = DefaultPath
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("Repository: Не удалось открыть SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}
	// sqlite допускает одного писателя
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Используется локальная база SQLite", zap.String("path", path))
	return &Storage{db: db, path: path}, nil
}

func (s *Storage) Close() {
	s.db.Close()
	logger.Info("Repository: Закрытие базы SQLite", zap.String("path", s.path))
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Применение миграций SQLite")

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("драйвер миграций: %w", err)
	}
	// driver.Close закрыл бы s.db
	return migrations.Up(ctx, migrations.DialectSQLite, driver)
}

func (s *Storage) Session(ctx context.Context, fn func(repo.Session) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Error("Repository: Ошибка отката транзакции", rbErr)
			}
		}
	}()

	if err = fn(&session{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	return nil
}

type session struct {
	tx *sql.Tx
}

func warnIfSlow(op string, start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос",
			zap.String("operation", op),
			zap.Duration("ms", time.Since(start)))
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*task.Task, error) {
	t := &task.Task{}
	var text, pic, date sql.NullString
	if err := row.Scan(&t.ID, &text, &pic, &date, &t.IsDone); err != nil {
		return nil, err
	}
	t.Task = text.String
	if pic.Valid {
		t.Pic = &pic.String
	}
	if date.Valid {
		t.Date = &date.String
	}
	return t, nil
}

func (s *session) List(ctx context.Context) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("list", start)

	rows, err := s.tx.QueryContext(ctx, `SELECT id, task, pic, date, is_done FROM tasks ORDER BY id`)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return tasks, nil
}

func (s *session) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("get", start)

	row := s.tx.QueryRowContext(ctx, `SELECT id, task, pic, date, is_done FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Int64("task_id", id))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *session) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer warnIfSlow("create", start)

	res, err := s.tx.ExecContext(ctx,
		`INSERT INTO tasks (task, pic, date, is_done) VALUES (?, ?, ?, ?)`,
		taskToCreate.Task,
		taskToCreate.Pic,
		taskToCreate.Date,
		taskToCreate.IsDone,
	)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("получение id задачи: %w", err)
	}
	taskToCreate.ID = id
	return nil
}

func (s *session) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer warnIfSlow("update", start)

	res, err := s.tx.ExecContext(ctx,
		`UPDATE tasks SET task = ?, pic = ?, date = ?, is_done = ? WHERE id = ?`,
		taskToUpdate.Task,
		taskToUpdate.Pic,
		taskToUpdate.Date,
		taskToUpdate.IsDone,
		taskToUpdate.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Int64("task_id", taskToUpdate.ID))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return checkAffected(res)
}

func (s *session) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	defer warnIfSlow("delete", start)

	res, err := s.tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Int64("task_id", id))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("подсчёт строк: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}
