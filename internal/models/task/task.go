package task

// Task - единственная сущность трекера
type Task struct {
	ID     int64   `json:"id"`
	Task   string  `json:"task"`
	Pic    *string `json:"pic"`
	Date   *string `json:"date"`
	IsDone bool    `json:"is_done"`
}

func New(text string, options ...TaskOption) *Task {
	t := &Task{Task: text}
	t.Apply(options...)
	return t
}

// Apply применяет опции по порядку, nil-опции пропускаются
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
}

