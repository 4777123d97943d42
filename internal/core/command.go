package core

import "github.com/dkeye/TaskRoom/internal/domain"

// Command is a parsed inbound client message. The set of variants is
// closed: every variant dispatches to its own CommandHandler method, so a
// handler that misses one does not compile.
type Command interface {
	Dispatch(h CommandHandler, conn ConnID)
	command()
}

// CommandHandler has one method per Command variant.
type CommandHandler interface {
	Join(conn ConnID, cmd JoinCommand)
	SetTasks(conn ConnID, cmd SetTasksCommand)
	AddTask(conn ConnID, cmd AddTaskCommand)
	StartTask(conn ConnID, cmd StartTaskCommand)
	PauseTask(conn ConnID, cmd PauseTaskCommand)
	DoneTask(conn ConnID, cmd DoneTaskCommand)
	ResetTask(conn ConnID, cmd ResetTaskCommand)
	SetTarget(conn ConnID, cmd SetTargetCommand)
	KickUser(conn ConnID, cmd KickUserCommand)
	Encourage(conn ConnID, cmd EncourageCommand)
}

type JoinCommand struct {
	Room string
	Name string
}

type SetTasksCommand struct {
	Tasks []domain.TaskInput
}

type AddTaskCommand struct {
	Name string
}

type StartTaskCommand struct{ TaskIndex int }

type PauseTaskCommand struct{ TaskIndex int }

type DoneTaskCommand struct{ TaskIndex int }

type ResetTaskCommand struct{ TaskIndex int }

type SetTargetCommand struct {
	TaskIndex int
	Target    int
}

type KickUserCommand struct {
	TargetKey string
}

type EncourageCommand struct {
	TargetKey string
	TaskIndex int
	Message   string
}

func (c JoinCommand) Dispatch(h CommandHandler, id ConnID)      { h.Join(id, c) }
func (c SetTasksCommand) Dispatch(h CommandHandler, id ConnID)  { h.SetTasks(id, c) }
func (c AddTaskCommand) Dispatch(h CommandHandler, id ConnID)   { h.AddTask(id, c) }
func (c StartTaskCommand) Dispatch(h CommandHandler, id ConnID) { h.StartTask(id, c) }
func (c PauseTaskCommand) Dispatch(h CommandHandler, id ConnID) { h.PauseTask(id, c) }
func (c DoneTaskCommand) Dispatch(h CommandHandler, id ConnID)  { h.DoneTask(id, c) }
func (c ResetTaskCommand) Dispatch(h CommandHandler, id ConnID) { h.ResetTask(id, c) }
func (c SetTargetCommand) Dispatch(h CommandHandler, id ConnID) { h.SetTarget(id, c) }
func (c KickUserCommand) Dispatch(h CommandHandler, id ConnID)  { h.KickUser(id, c) }
func (c EncourageCommand) Dispatch(h CommandHandler, id ConnID) { h.Encourage(id, c) }

func (JoinCommand) command()      {}
func (SetTasksCommand) command()  {}
func (AddTaskCommand) command()   {}
func (StartTaskCommand) command() {}
func (PauseTaskCommand) command() {}
func (DoneTaskCommand) command()  {}
func (ResetTaskCommand) command() {}
func (SetTargetCommand) command() {}
func (KickUserCommand) command()  {}
func (EncourageCommand) command() {}
