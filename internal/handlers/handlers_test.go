package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"taskTracker/internal/handlers"
	"taskTracker/internal/handlers/dto"
	"taskTracker/internal/logger"
	"taskTracker/internal/models/task"
	"taskTracker/internal/service"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockTaskService - мок сервиса
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) ListTasks(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

// опции применяются к пустой задаче, чтобы тест мог проверить, какие поля передал хендлер
func (m *MockTaskService) CreateTask(ctx context.Context, text string, options ...task.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, task.New(text, options...))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, id int64, options ...task.TaskOption) (*task.Task, error) {
	applied := &task.Task{Task: "unchanged"}
	applied.Apply(options...)
	args := m.Called(ctx, id, applied)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

var _ handlers.Service = (*MockTaskService)(nil)

// MockUploader - мок загрузчика картинок
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	body, _ := io.ReadAll(file)
	args := m.Called(filename, string(body))
	return args.String(0), args.Error(1)
}

func newRouter(svc *MockTaskService, up *MockUploader) http.Handler {
	return handlers.NewRouter(handlers.NewTaskHandler(svc), handlers.NewUploadHandler(up))
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Detail
}

func strPtr(s string) *string {
	return &s
}

// TestTaskHandler_HealthCheck тестирует HealthCheck
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{name: "success - healthy", expectedStatus: http.StatusOK},
		{name: "error - unhealthy", serviceErr: errors.New("service unavailable"), expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			mockService.On("HealthCheck", mock.Anything).Return(tt.serviceErr)

			w := doRequest(newRouter(mockService, new(MockUploader)), http.MethodGet, "/health", "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "task-tracker")
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_ListTasks(t *testing.T) {
	t.Run("success - array of tasks", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ListTasks", mock.Anything).Return([]*task.Task{
			{ID: 1, Task: "a"},
			{ID: 2, Task: "b", IsDone: true, Pic: strPtr("https://img/b.png")},
		}, nil)

		w := doRequest(newRouter(mockService, new(MockUploader)), http.MethodGet, "/tasks", "")

		require.Equal(t, http.StatusOK, w.Code)
		var resp []dto.TaskResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp, 2)
		assert.Equal(t, "b", resp[1].Task)
		assert.True(t, resp[1].IsDone)
	})

	t.Run("success - empty list encodes as []", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ListTasks", mock.Anything).Return([]*task.Task{}, nil)

		w := doRequest(newRouter(mockService, new(MockUploader)), http.MethodGet, "/tasks", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("error - service error", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("ListTasks", mock.Anything).Return(nil, errors.New("db down"))

		w := doRequest(newRouter(mockService, new(MockUploader)), http.MethodGet, "/tasks", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, decodeDetail(t, w), "db down")
	})
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "success - minimal task",
			requestBody: `{"task": "Buy milk"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, &task.Task{Task: "Buy milk"}).
					Return(&task.Task{ID: 1, Task: "Buy milk"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":1,"task":"Buy milk","pic":null,"date":null,"is_done":false}`,
		},
		{
			name:        "success - all fields, client id ignored",
			requestBody: `{"id": 500, "task": "Photo", "pic": "https://img/p.png", "date": "2025-05-01", "is_done": true}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, &task.Task{
					Task:   "Photo",
					Pic:    strPtr("https://img/p.png"),
					Date:   strPtr("2025-05-01"),
					IsDone: true,
				}).Return(&task.Task{ID: 2, Task: "Photo", Pic: strPtr("https://img/p.png"), Date: strPtr("2025-05-01"), IsDone: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":2,"task":"Photo","pic":"https://img/p.png","date":"2025-05-01","is_done":true}`,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - missing task",
			requestBody:    `{"pic": "https://img/p.png"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - wrong type",
			requestBody:    `{"task": 12}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - service error",
			requestBody: `{"task": "Test Task"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			newRouter(mockService, new(MockUploader)).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTaskByID тестирует получение задачи по ID
func TestTaskHandler_GetTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedDetail string
	}{
		{
			name:   "success - get task",
			taskID: "1",
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, int64(1)).Return(&task.Task{ID: 1, Task: "Test Task"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - non-integer id",
			taskID:         "abc",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - task not found",
			taskID: "99999",
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, int64(99999)).Return(nil, service.NewNotFound(99999, nil))
			},
			expectedStatus: http.StatusNotFound,
			expectedDetail: "Task 99999 not found",
		},
		{
			name:   "error - service error",
			taskID: "1",
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, int64(1)).Return(nil, errors.New("internal error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUploader)), http.MethodGet, "/tasks/"+tt.taskID, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, int64(1), response.ID)
				assert.Equal(t, "Test Task", response.Task)
			}
			if tt.expectedDetail != "" {
				assert.Equal(t, tt.expectedDetail, decodeDetail(t, w))
			}
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_UpdateTaskByID тестирует обновление задачи
func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		requestBody    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - only is_done",
			taskID:      "3",
			requestBody: `{"is_done": true}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(3), &task.Task{Task: "unchanged", IsDone: true}).
					Return(&task.Task{ID: 3, Task: "Buy milk", IsDone: true}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "success - pic set, unknown keys ignored",
			taskID:      "3",
			requestBody: `{"pic": "http://x/y.png", "date": "ignored", "color": "red"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(3), &task.Task{Task: "unchanged", Pic: strPtr("http://x/y.png")}).
					Return(&task.Task{ID: 3, Task: "Buy milk", Pic: strPtr("http://x/y.png")}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "success - pic null clears",
			taskID:      "3",
			requestBody: `{"pic": null, "task": "renamed"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(3), &task.Task{Task: "renamed"}).
					Return(&task.Task{ID: 3, Task: "renamed"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - task null",
			taskID:         "3",
			requestBody:    `{"task": null}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - invalid JSON",
			taskID:         "3",
			requestBody:    `{"is_done": tru`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - non-integer id",
			taskID:         "x1",
			requestBody:    `{"is_done": true}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - not found",
			taskID:      "99999",
			requestBody: `{"is_done": true}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, int64(99999), mock.Anything).Return(nil, service.NewNotFound(99999, nil))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := doRequest(newRouter(mockService, new(MockUploader)), http.MethodPut, "/tasks/"+tt.taskID, tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_DeleteTaskByID тестирует удаление задачи
func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	t.Run("success - message names the task", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("DeleteTask", mock.Anything, int64(5)).Return(&task.Task{ID: 5, Task: "Buy milk"}, nil)

		w := doRequest(newRouter(mockService, new(MockUploader)), http.MethodDelete, "/tasks/5", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"msg": "'Buy milk' has been deleted."}`, w.Body.String())
	})

	t.Run("error - not found", func(t *testing.T) {
		mockService := new(MockTaskService)
		mockService.On("DeleteTask", mock.Anything, int64(99999)).Return(nil, service.NewNotFound(99999, nil))

		w := doRequest(newRouter(mockService, new(MockUploader)), http.MethodDelete, "/tasks/99999", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Task 99999 not found", decodeDetail(t, w))
	})
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("note", "skipped"))
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// TestUploadHandler_Upload тестирует загрузку картинки
func TestUploadHandler_Upload(t *testing.T) {
	t.Run("success - returns secure url", func(t *testing.T) {
		uploader := new(MockUploader)
		uploader.On("Upload", "cat.png", "png-bytes").Return("https://res.example.com/my_todo_app/cat.png", nil)

		body, contentType := multipartBody(t, "file", "cat.png", "png-bytes")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		newRouter(new(MockTaskService), uploader).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"url": "https://res.example.com/my_todo_app/cat.png"}`, w.Body.String())
		uploader.AssertExpectations(t)
	})

	t.Run("error - upload service failure", func(t *testing.T) {
		uploader := new(MockUploader)
		uploader.On("Upload", "cat.png", "png-bytes").Return("", errors.New("Invalid image file"))

		body, contentType := multipartBody(t, "file", "cat.png", "png-bytes")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		newRouter(new(MockTaskService), uploader).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Invalid image file", decodeDetail(t, w))
	})

	t.Run("error - no file part", func(t *testing.T) {
		uploader := new(MockUploader)

		body, contentType := multipartBody(t, "other", "cat.png", "png-bytes")
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		newRouter(new(MockTaskService), uploader).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	})

	t.Run("error - not multipart", func(t *testing.T) {
		w := doRequest(newRouter(new(MockTaskService), new(MockUploader)), http.MethodPost, "/upload", `{"file": "x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRouter_CORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()

	newRouter(new(MockTaskService), new(MockUploader)).ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestRouter_RequestID(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("ListTasks", mock.Anything).Return([]*task.Task{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	newRouter(mockService, new(MockUploader)).ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestHandleServiceError_LogsDetails(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	prev := logger.Logger
	logger.Logger = zap.New(core)
	t.Cleanup(func() { logger.Logger = prev })

	mockService := new(MockTaskService)
	mockService.On("GetTaskByID", mock.Anything, int64(42)).Return(nil, service.NewNotFound(42, nil))

	w := doRequest(newRouter(mockService, new(MockUploader)), http.MethodGet, "/tasks/42", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	entries := logs.FilterMessage("HTTP: Бизнес-ошибка").All()
	require.Len(t, entries, 1)
	details, ok := entries[0].ContextMap()["details"].(map[string]any)
	require.True(t, ok, "details должны логироваться как объект")
	assert.Equal(t, "task", details["resource"])
	assert.EqualValues(t, 42, details["id"])
}

// паника в обработчике отдаёт 500 и попадает в http_requests_total
func TestRouter_PanicIsCounted(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("DeleteTask", mock.Anything, int64(7)).Run(func(mock.Arguments) {
		panic("db exploded")
	})
	router := newRouter(mockService, new(MockUploader))

	w := doRequest(router, http.MethodDelete, "/tasks/7", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "db exploded", decodeDetail(t, w))

	metrics := doRequest(router, http.MethodGet, "/metrics", "")
	assert.Regexp(t, `http_requests_total\{method="DELETE",route="/tasks/\{id\}/?",status="500"\} 1`, metrics.Body.String())
}
