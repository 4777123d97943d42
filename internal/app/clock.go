package app

import (
	"time"

	"github.com/dkeye/TaskRoom/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Calendar turns a clock reading into the calendar day used for streaks.
// All streak comparisons happen in one fixed location.
type Calendar struct {
	Clock    Clock
	Location *time.Location
}

func NewCalendar(clock Clock, loc *time.Location) Calendar {
	if clock == nil {
		clock = RealClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Clock: clock, Location: loc}
}

func (c Calendar) Today() domain.Date {
	return domain.DateOf(c.Clock.Now().In(c.Location))
}
