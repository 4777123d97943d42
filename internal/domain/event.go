package domain

// Outbound event type tags.
const (
	EventJoined        = "joined"
	EventRoomState     = "room_state"
	EventTaskCompleted = "task_completed"
	EventCelebration   = "all_done_celebration"
	EventEncouragement = "encouragement"
	EventKicked        = "kicked"
)

// Event is any serializable message pushed to a client.
type Event interface {
	EventType() string
}

type JoinedEvent struct {
	Type      string    `json:"type"`
	MemberKey MemberKey `json:"memberKey"`
	YourTasks []Task    `json:"yourTasks"`
}

type MemberView struct {
	Key    MemberKey `json:"key"`
	Name   string    `json:"name"`
	Tasks  []Task    `json:"tasks"`
	Online bool      `json:"online"`
	Points int       `json:"points"`
	Streak int       `json:"streak"`
}

type RoomStateEvent struct {
	Type    string       `json:"type"`
	Members []MemberView `json:"members"`
}

type TaskCompletedEvent struct {
	Type       string    `json:"type"`
	MemberKey  MemberKey `json:"memberKey"`
	MemberName string    `json:"memberName"`
	TaskName   string    `json:"taskName"`
	TaskIndex  int       `json:"taskIndex"`
}

type CelebrationEvent struct {
	Type       string    `json:"type"`
	MemberKey  MemberKey `json:"memberKey"`
	MemberName string    `json:"memberName"`
}

type EncouragementEvent struct {
	Type      string `json:"type"`
	From      string `json:"from"`
	Message   string `json:"message"`
	TaskIndex int    `json:"taskIndex"`
}

type KickedEvent struct {
	Type string `json:"type"`
}

func NewJoinedEvent(key MemberKey, tasks []Task) JoinedEvent {
	return JoinedEvent{Type: EventJoined, MemberKey: key, YourTasks: tasks}
}

func NewTaskCompletedEvent(m *Member, index int) TaskCompletedEvent {
	return TaskCompletedEvent{
		Type:       EventTaskCompleted,
		MemberKey:  m.Key,
		MemberName: m.Name,
		TaskName:   m.Tasks[index].Name,
		TaskIndex:  index,
	}
}

func NewCelebrationEvent(m *Member) CelebrationEvent {
	return CelebrationEvent{Type: EventCelebration, MemberKey: m.Key, MemberName: m.Name}
}

func NewEncouragementEvent(from, message string, index int) EncouragementEvent {
	return EncouragementEvent{Type: EventEncouragement, From: from, Message: message, TaskIndex: index}
}

func NewKickedEvent() KickedEvent { return KickedEvent{Type: EventKicked} }

func (JoinedEvent) EventType() string        { return EventJoined }
func (RoomStateEvent) EventType() string     { return EventRoomState }
func (TaskCompletedEvent) EventType() string { return EventTaskCompleted }
func (CelebrationEvent) EventType() string   { return EventCelebration }
func (EncouragementEvent) EventType() string { return EventEncouragement }
func (KickedEvent) EventType() string        { return EventKicked }
