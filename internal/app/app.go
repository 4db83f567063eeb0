package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskTracker/internal/config"
	"taskTracker/internal/handlers"
	"taskTracker/internal/logger"
	"taskTracker/internal/media"
	"taskTracker/internal/repository"
	"taskTracker/internal/repository/task/inmemory"
	"taskTracker/internal/repository/task/postgres"
	"taskTracker/internal/repository/task/sqlite"
	"taskTracker/internal/service"

	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    http.Handler
	store     repository.Store
	service   *service.TaskService
	uploader  handlers.Uploader
	shutdowns []func() // функции для graceful shutdown, вызываются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init поднимает логгер, хранилище со схемой, загрузчик картинок и роутер.
// Ошибка подключения к базе фатальна - без неё сервис не работает.
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(logger.Options{
		Development: a.config.Logging.Development,
		Level:       a.config.Logging.Level,
	}); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	store, err := a.openStore(ctx)
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("подключение к хранилищу: %w", err)
	}
	a.store = store
	a.shutdowns = append(a.shutdowns, store.Close)

	if err := store.Migrate(ctx); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("инициализация схемы: %w", err)
	}

	a.uploader = a.newUploader()
	a.service = service.NewTaskService(store)
	a.router = handlers.NewRouter(
		handlers.NewTaskHandler(a.service),
		handlers.NewUploadHandler(a.uploader),
	)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	storeType := a.config.StoreType()
	logger.Info("App: Выбор хранилища", zap.String("type", string(storeType)))

	switch storeType {
	case repository.TypePostgres:
		if a.config.Database.URL == "" {
			return nil, errors.New("для postgres нужен DATABASE_URL")
		}
		return postgres.New(ctx, a.config.Database.URL, postgres.Options{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
	case repository.TypeSQLite:
		return sqlite.New(ctx, a.config.Database.SQLitePath)
	case repository.TypeInMemory:
		logger.Warn("App: Данные хранятся только в памяти процесса")
		return inmemory.NewTaskStorage(), nil
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %s", storeType)
	}
}

// без ключей Cloudinary сервис стартует, но /upload отвечает ошибкой настройки
func (a *App) newUploader() handlers.Uploader {
	creds := media.Credentials{
		CloudName: a.config.Media.CloudName,
		APIKey:    a.config.Media.APIKey,
		APISecret: a.config.Media.APISecret,
	}
	uploader, err := media.NewCloudinary(creds, a.config.Media.Folder)
	if err != nil {
		logger.Warn("App: Загрузка картинок недоступна", zap.Error(err))
		return media.Disabled{Err: err}
	}
	return uploader
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Run блокируется до отмены ctx или ошибки сервера, затем корректно останавливает сервер
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.Shutdown()
		if err != nil {
			return fmt.Errorf("сервер остановился: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("App: Получен сигнал остановки")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		logger.Error("App: Ошибка остановки сервера", err)
	}
	a.Shutdown()
	return err
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
