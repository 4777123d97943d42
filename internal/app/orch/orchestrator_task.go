package orch

import (
	"github.com/dkeye/TaskRoom/internal/app"
	"github.com/dkeye/TaskRoom/internal/core"
	"github.com/dkeye/TaskRoom/internal/domain"
)

func (o *Orchestrator) SetTasks(id core.ConnID, cmd core.SetTasksCommand) {
	o.withMember(id, "set_tasks", func(_ *core.RoomState, ms *core.MemberSession) bool {
		ms.Meta().SetTasks(cmd.Tasks)
		return true
	})
}

func (o *Orchestrator) AddTask(id core.ConnID, cmd core.AddTaskCommand) {
	o.withMember(id, "add_task", func(_ *core.RoomState, ms *core.MemberSession) bool {
		return ms.Meta().AddTask(cmd.Name)
	})
}

func (o *Orchestrator) StartTask(id core.ConnID, cmd core.StartTaskCommand) {
	o.withMember(id, "start_task", func(_ *core.RoomState, ms *core.MemberSession) bool {
		return ms.Meta().StartTask(cmd.TaskIndex)
	})
}

func (o *Orchestrator) PauseTask(id core.ConnID, cmd core.PauseTaskCommand) {
	o.withMember(id, "pause_task", func(_ *core.RoomState, ms *core.MemberSession) bool {
		return ms.Meta().PauseTask(cmd.TaskIndex)
	})
}

func (o *Orchestrator) ResetTask(id core.ConnID, cmd core.ResetTaskCommand) {
	o.withMember(id, "reset_task", func(_ *core.RoomState, ms *core.MemberSession) bool {
		return ms.Meta().ResetTask(cmd.TaskIndex)
	})
}

func (o *Orchestrator) SetTarget(id core.ConnID, cmd core.SetTargetCommand) {
	o.withMember(id, "set_target", func(_ *core.RoomState, ms *core.MemberSession) bool {
		return ms.Meta().SetTarget(cmd.TaskIndex, cmd.Target)
	})
}

// DoneTask completes a task, scores it, then tells the room: a
// celebration to everyone when the list is finished, a completion ping to
// every other member (queued for the offline ones), and the snapshot.
func (o *Orchestrator) DoneTask(id core.ConnID, cmd core.DoneTaskCommand) {
	o.withMember(id, "done_task", func(s *core.RoomState, ms *core.MemberSession) bool {
		m := ms.Meta()
		if !m.CompleteTask(cmd.TaskIndex) {
			return false
		}
		award := app.AwardCompletion(m, o.today())
		o.logger(id).Info().
			Str("room", string(s.Name())).
			Str("member", string(m.Key)).
			Int("task", cmd.TaskIndex).
			Int("points", award.Points).
			Bool("all_done", award.AllDone).
			Int("streak", m.Streak).
			Msg("task completed")

		if award.AllDone {
			o.publish(s, s.Broadcast(domain.NewCelebrationEvent(m)))
		}
		ev := domain.NewTaskCompletedEvent(m, cmd.TaskIndex)
		for _, other := range s.Members() {
			if other != ms {
				o.notify(s, other, ev)
			}
		}
		return true
	})
}

// Encourage stores a message on another member's task and credits the
// receiver, whether or not it is online.
func (o *Orchestrator) Encourage(id core.ConnID, cmd core.EncourageCommand) {
	o.withMember(id, "encourage", func(s *core.RoomState, sender *core.MemberSession) bool {
		target, ok := s.Member(domain.KeyOf(cmd.TargetKey))
		if !ok {
			return false
		}
		from := sender.Meta().Name
		if !target.Meta().Encourage(cmd.TaskIndex, from, cmd.Message) {
			return false
		}
		app.AwardEncouragement(target.Meta())
		o.notify(s, target, domain.NewEncouragementEvent(from, cmd.Message, cmd.TaskIndex))
		return true
	})
}
