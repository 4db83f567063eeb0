package task

// TaskOption меняет одно поле задачи; отсутствующая опция - поле не трогаем
type TaskOption func(*Task)

func WithText(text string) TaskOption {
	return func(task *Task) {
		task.Task = text
	}
}

// WithPic с nil очищает картинку
func WithPic(pic *string) TaskOption {
	return func(task *Task) {
		if pic == nil {
			task.Pic = nil
			return
		}
		value := *pic
		task.Pic = &value
	}
}

func WithDate(date *string) TaskOption {
	return func(task *Task) {
		if date == nil {
			task.Date = nil
			return
		}
		value := *date
		task.Date = &value
	}
}

func WithDone(done bool) TaskOption {
	return func(task *Task) {
		task.IsDone = done
	}
}
