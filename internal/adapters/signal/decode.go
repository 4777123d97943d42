package signal

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/dkeye/TaskRoom/internal/core"
	"github.com/dkeye/TaskRoom/internal/domain"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingField   = errors.New("missing field")
)

type taskPayload struct {
	Name    string `json:"name"`
	Elapsed int    `json:"elapsed"`
	Target  int    `json:"target"`
}

// envelope is the union of every inbound field. Pointers tell a missing
// field from a zero one.
type envelope struct {
	Type      string         `json:"type"`
	Room      string         `json:"room"`
	Name      *string        `json:"name"`
	Tasks     *[]taskPayload `json:"tasks"`
	TaskIndex *int           `json:"taskIndex"`
	Target    *int           `json:"target"`
	TargetKey *string        `json:"targetKey"`
	Message   string         `json:"message"`
}

// Decode parses one client message into a command.
func Decode(data []byte) (core.Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case "join":
		return core.JoinCommand{Room: env.Room, Name: deref(env.Name)}, nil
	case "set_tasks":
		if env.Tasks == nil || *env.Tasks == nil {
			return nil, fmt.Errorf("%s: %w: tasks", env.Type, ErrMissingField)
		}
		tasks := make([]domain.TaskInput, 0, len(*env.Tasks))
		for _, t := range *env.Tasks {
			tasks = append(tasks, domain.TaskInput{Name: t.Name, Elapsed: t.Elapsed, Target: t.Target})
		}
		return core.SetTasksCommand{Tasks: tasks}, nil
	case "add_task":
		if env.Name == nil {
			return nil, fmt.Errorf("%s: %w: name", env.Type, ErrMissingField)
		}
		return core.AddTaskCommand{Name: *env.Name}, nil
	case "start_task", "pause_task", "done_task", "reset_task":
		if env.TaskIndex == nil {
			return nil, fmt.Errorf("%s: %w: taskIndex", env.Type, ErrMissingField)
		}
		return indexCommand(env.Type, *env.TaskIndex), nil
	case "set_target":
		if env.TaskIndex == nil {
			return nil, fmt.Errorf("%s: %w: taskIndex", env.Type, ErrMissingField)
		}
		if env.Target == nil {
			return nil, fmt.Errorf("%s: %w: target", env.Type, ErrMissingField)
		}
		return core.SetTargetCommand{TaskIndex: *env.TaskIndex, Target: *env.Target}, nil
	case "kick_user":
		if env.TargetKey == nil {
			return nil, fmt.Errorf("%s: %w: targetKey", env.Type, ErrMissingField)
		}
		return core.KickUserCommand{TargetKey: *env.TargetKey}, nil
	case "encourage":
		if env.TargetKey == nil {
			return nil, fmt.Errorf("%s: %w: targetKey", env.Type, ErrMissingField)
		}
		if env.TaskIndex == nil {
			return nil, fmt.Errorf("%s: %w: taskIndex", env.Type, ErrMissingField)
		}
		return core.EncourageCommand{TargetKey: *env.TargetKey, TaskIndex: *env.TaskIndex, Message: env.Message}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}
}

func indexCommand(typ string, i int) core.Command {
	switch typ {
	case "start_task":
		return core.StartTaskCommand{TaskIndex: i}
	case "pause_task":
		return core.PauseTaskCommand{TaskIndex: i}
	case "done_task":
		return core.DoneTaskCommand{TaskIndex: i}
	default:
		return core.ResetTaskCommand{TaskIndex: i}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
