package dto

import (
	"bytes"
	"encoding/json"
	"taskTracker/internal/models/task"
)

// Optional различает "ключ не передан", "передан null" и "передано значение"
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Some - значение, переданное явно
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

type CreateTaskRequest struct {
	Task   string  `json:"task" validate:"required"`
	Pic    *string `json:"pic"`
	Date   *string `json:"date"`
	IsDone bool    `json:"is_done"`
}

func (r CreateTaskRequest) Options() []task.TaskOption {
	return []task.TaskOption{
		task.WithPic(r.Pic),
		task.WithDate(r.Date),
		task.WithDone(r.IsDone),
	}
}

// UpdateTaskRequest - частичное обновление; прочие ключи тела игнорируются
type UpdateTaskRequest struct {
	Task   Optional[string] `json:"task"`
	IsDone Optional[bool]   `json:"is_done"`
	Pic    Optional[string] `json:"pic"`
}

// NullField возвращает имя поля, которому нельзя быть null
func (r UpdateTaskRequest) NullField() string {
	switch {
	case r.Task.Null:
		return "task"
	case r.IsDone.Null:
		return "is_done"
	}
	return ""
}

func (r UpdateTaskRequest) Options() []task.TaskOption {
	var options []task.TaskOption
	if r.Task.Set {
		options = append(options, task.WithText(r.Task.Value))
	}
	if r.IsDone.Set {
		options = append(options, task.WithDone(r.IsDone.Value))
	}
	if r.Pic.Set {
		if r.Pic.Null {
			options = append(options, task.WithPic(nil))
		} else {
			options = append(options, task.WithPic(&r.Pic.Value))
		}
	}
	return options
}

type TaskResponse struct {
	ID     int64   `json:"id"`
	Task   string  `json:"task"`
	Pic    *string `json:"pic"`
	Date   *string `json:"date"`
	IsDone bool    `json:"is_done"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:     t.ID,
		Task:   t.Task,
		Pic:    t.Pic,
		Date:   t.Date,
		IsDone: t.IsDone,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type DeleteResponse struct {
	Msg string `json:"msg"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
