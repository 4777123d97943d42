package domain

type Encouragement struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// Task is a unit of work with a stopwatch. Running and Done are never both
// true; the single-running-task rule is enforced by Member.StartTask.
type Task struct {
	Name           string          `json:"name"`
	Elapsed        int             `json:"elapsed"`
	Target         int             `json:"target"`
	Running        bool            `json:"running"`
	Done           bool            `json:"done"`
	Encouragements []Encouragement `json:"encouragements"`
}

// TaskInput is what a client may supply when replacing its list.
type TaskInput struct {
	Name    string
	Elapsed int
	Target  int
}

// NewTask returns a fresh, stopped task.
func NewTask(name string) Task {
	return Task{Name: name, Encouragements: []Encouragement{}}
}

// Sanitize turns client input into a stopped, not-done task with no
// encouragements, whatever the input implied.
func (in TaskInput) Sanitize() Task {
	t := NewTask(in.Name)
	t.Elapsed = max(in.Elapsed, 0)
	t.Target = max(in.Target, 0)
	return t
}

// Clone deep-copies the task so snapshots never alias live state.
func (t Task) Clone() Task {
	out := t
	out.Encouragements = append([]Encouragement{}, t.Encouragements...)
	return out
}
