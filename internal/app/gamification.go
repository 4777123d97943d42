package app

import "github.com/dkeye/TaskRoom/internal/domain"

const (
	CompletionPoints    = 10
	AllDoneBonus        = 50
	EncouragementPoints = 5
)

// Award describes what one completion earned.
type Award struct {
	Points  int
	AllDone bool
}

// AwardCompletion scores a task completion that has already been applied
// to m. Finishing the whole list adds the bonus and advances the daily
// streak at most once per calendar day.
func AwardCompletion(m *domain.Member, today domain.Date) Award {
	a := Award{Points: CompletionPoints}
	if m.AllDone() {
		a.AllDone = true
		a.Points += AllDoneBonus
		updateStreak(m, today)
	}
	m.Points += a.Points
	return a
}

func updateStreak(m *domain.Member, today domain.Date) {
	last := m.LastCompleted
	switch {
	case last != nil && *last == today:
		return
	case last != nil && *last == today.AddDays(-1):
		m.Streak++
	default:
		m.Streak = 1
	}
	m.LastCompleted = &today
}

// AwardEncouragement credits the receiver of an encouragement.
func AwardEncouragement(m *domain.Member) {
	m.Points += EncouragementPoints
}
