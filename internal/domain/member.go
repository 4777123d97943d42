// Package domain holds the room's data entities and the rules that keep
// them consistent. Nothing here knows about transport or locking.
package domain

import "strings"

// MaxNameLen caps display names, in runes.
const MaxNameLen = 36

// CleanName trims raw and cuts it to MaxNameLen runes.
func CleanName(raw string) string {
	name := strings.TrimSpace(raw)
	if r := []rune(name); len(r) > MaxNameLen {
		name = strings.TrimSpace(string(r[:MaxNameLen]))
	}
	return name
}

// MemberKey is a member's identity within a room: the lowercased, trimmed
// display name. It never changes once a session exists.
type MemberKey string

// KeyOf derives the canonical member key from a display name.
func KeyOf(name string) MemberKey {
	return MemberKey(strings.ToLower(strings.TrimSpace(name)))
}

// Member is the durable part of a member session: everything that survives
// a disconnect.
type Member struct {
	Key           MemberKey
	Name          string
	Tasks         []Task
	Points        int
	Streak        int
	LastCompleted *Date
	Pending       []Event
}

func NewMember(name string) *Member {
	name = CleanName(name)
	return &Member{Key: KeyOf(name), Name: name, Tasks: []Task{}}
}

// Rename updates the display casing. The key is left alone.
func (m *Member) Rename(name string) {
	if name = CleanName(name); name != "" {
		m.Name = name
	}
}

func (m *Member) validIndex(i int) bool { return i >= 0 && i < len(m.Tasks) }

// Task returns the task at i, or nil when i is out of range.
func (m *Member) Task(i int) *Task {
	if !m.validIndex(i) {
		return nil
	}
	return &m.Tasks[i]
}

// SetTasks replaces the whole list. Every item starts stopped and not done.
func (m *Member) SetTasks(in []TaskInput) {
	tasks := make([]Task, 0, len(in))
	for _, t := range in {
		tasks = append(tasks, t.Sanitize())
	}
	m.Tasks = tasks
}

// AddTask appends a task. Blank names are rejected.
func (m *Member) AddTask(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	m.Tasks = append(m.Tasks, NewTask(name))
	return true
}

// StartTask runs task i and stops every other task. A done task stays
// stopped, so the call can leave nothing running.
func (m *Member) StartTask(i int) bool {
	if !m.validIndex(i) {
		return false
	}
	for j := range m.Tasks {
		m.Tasks[j].Running = j == i && !m.Tasks[j].Done
	}
	return true
}

func (m *Member) PauseTask(i int) bool {
	t := m.Task(i)
	if t == nil {
		return false
	}
	t.Running = false
	return true
}

// ResetTask clears the stopwatch and target. Done is kept.
func (m *Member) ResetTask(i int) bool {
	t := m.Task(i)
	if t == nil {
		return false
	}
	t.Elapsed, t.Target, t.Running = 0, 0, false
	return true
}

func (m *Member) SetTarget(i, seconds int) bool {
	t := m.Task(i)
	if t == nil {
		return false
	}
	t.Target = max(seconds, 0)
	return true
}

// CompleteTask marks task i done. It reports false for an invalid index or
// a task that was already done.
func (m *Member) CompleteTask(i int) bool {
	t := m.Task(i)
	if t == nil || t.Done {
		return false
	}
	t.Running, t.Done = false, true
	return true
}

// AllDone reports whether the list is non-empty and fully completed.
func (m *Member) AllDone() bool {
	if len(m.Tasks) == 0 {
		return false
	}
	for _, t := range m.Tasks {
		if !t.Done {
			return false
		}
	}
	return true
}

// Encourage records a message on task i.
func (m *Member) Encourage(i int, from, message string) bool {
	t := m.Task(i)
	if t == nil {
		return false
	}
	t.Encouragements = append(t.Encouragements, Encouragement{From: from, Message: message})
	return true
}

// Tick advances every running task by one second and reports whether
// anything changed.
func (m *Member) Tick() bool {
	changed := false
	for j := range m.Tasks {
		if t := &m.Tasks[j]; t.Running && !t.Done {
			t.Elapsed++
			changed = true
		}
	}
	return changed
}

// Enqueue stores an event for later delivery, keeping at most limit
// entries (oldest dropped). A limit <= 0 means unbounded.
func (m *Member) Enqueue(ev Event, limit int) {
	m.Pending = append(m.Pending, ev)
	if limit > 0 && len(m.Pending) > limit {
		m.Pending = append([]Event(nil), m.Pending[len(m.Pending)-limit:]...)
	}
}

// AckPending drops the first n queued events once they have been delivered.
func (m *Member) AckPending(n int) {
	switch {
	case n <= 0:
	case n >= len(m.Pending):
		m.Pending = nil
	default:
		m.Pending = append([]Event(nil), m.Pending[n:]...)
	}
}

// TasksSnapshot deep-copies the task list for serialization.
func (m *Member) TasksSnapshot() []Task {
	out := make([]Task, len(m.Tasks))
	for i, t := range m.Tasks {
		out[i] = t.Clone()
	}
	return out
}
