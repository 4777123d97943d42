package orch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/TaskRoom/internal/app"
	"github.com/dkeye/TaskRoom/internal/core"
	"github.com/dkeye/TaskRoom/internal/domain"
	"github.com/dkeye/TaskRoom/internal/testutil"
)

var start = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type harness struct {
	t     *testing.T
	o     *Orchestrator
	clock *testutil.Clock
	conns map[core.ConnID]*testutil.FakeConn
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rooms := core.NewRoomManager(context.Background(), "default")
	t.Cleanup(rooms.Close)
	clock := testutil.NewClock(start)
	return &harness{
		t:     t,
		clock: clock,
		conns: make(map[core.ConnID]*testutil.FakeConn),
		o: &Orchestrator{
			Registry:     app.NewRegistry(),
			Rooms:        rooms,
			Policy:       app.PolicyFor("drop"),
			Calendar:     app.NewCalendar(clock, time.UTC),
			AdminName:    "Mihir",
			PendingLimit: 10,
		},
	}
}

func (h *harness) connect(id core.ConnID) *testutil.FakeConn {
	conn := testutil.NewFakeConn()
	h.conns[id] = conn
	h.o.Connect(id, conn)
	return conn
}

func (h *harness) join(id core.ConnID, room, name string) *testutil.FakeConn {
	conn, ok := h.conns[id]
	if !ok {
		conn = h.connect(id)
	}
	h.o.OnCommand(id, core.JoinCommand{Room: room, Name: name})
	return conn
}

func (h *harness) send(id core.ConnID, cmd core.Command) { h.o.OnCommand(id, cmd) }

type memberState struct {
	domain.Member
	Online bool
}

func (h *harness) member(room string, key domain.MemberKey) (memberState, bool) {
	h.t.Helper()
	r, ok := h.o.Rooms.Get(room)
	if !ok {
		return memberState{}, false
	}
	var out memberState
	found := false
	r.Do(func(s *core.RoomState) {
		ms, ok := s.Member(key)
		if !ok {
			return
		}
		found = true
		out.Member = *ms.Meta()
		out.Tasks = ms.Meta().TasksSnapshot()
		out.Pending = append([]domain.Event(nil), ms.Meta().Pending...)
		out.Online = ms.Online()
	})
	return out, found
}

func (h *harness) tick(n int) {
	tk := &app.Ticker{Rooms: h.o.Rooms}
	for range n {
		tk.Tick()
	}
}

func TestJoinNormalizesIdentityAndPersistsAcrossReconnects(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	c1 := h.join("c1", " StandUp ", "Mihir")
	joined := c1.Last(domain.EventJoined)
	require.NotNil(t, joined)
	assert.Equal(t, "mihir", joined["memberKey"])
	assert.Equal(t, []any{}, joined["yourTasks"])

	h.send("c1", core.AddTaskCommand{Name: "Write plan"})
	h.o.OnDisconnect("c1")

	m, ok := h.member("standup", "mihir")
	require.True(t, ok)
	assert.False(t, m.Online)
	assert.Len(t, m.Tasks, 1)

	for i, variant := range []string{"mihir", "  MIHIR  ", "MiHiR"} {
		id := core.ConnID("again" + string(rune('a'+i)))
		conn := h.join(id, "standup", variant)
		joined := conn.Last(domain.EventJoined)
		require.NotNil(t, joined)
		assert.Equal(t, "mihir", joined["memberKey"])
		tasks := joined["yourTasks"].([]any)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Write plan", tasks[0].(map[string]any)["name"])
		h.o.OnDisconnect(id)
	}

	h.join("c9", "standup", "MIHIR")
	m, _ = h.member("standup", "mihir")
	assert.True(t, m.Online)
	assert.Equal(t, "MIHIR", m.Name)
}

func TestJoinDefaults(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	c := h.join("c1", "", "   ")
	assert.Equal(t, "anonymous", c.Last(domain.EventJoined)["memberKey"])
	_, ok := h.member("default", "anonymous")
	assert.True(t, ok)
}

func TestJoinBroadcastsPresenceToEveryone(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	a := h.join("a", "standup", "Ana")
	a.Reset()
	b := h.join("b", "standup", "Bo")

	assert.Equal(t, []string{domain.EventJoined, domain.EventRoomState}, b.Types())
	state := a.Last(domain.EventRoomState)
	require.NotNil(t, state)
	members := state["members"].([]any)
	require.Len(t, members, 2)
	first := members[0].(map[string]any)
	assert.Equal(t, "ana", first["key"])
	assert.Equal(t, true, first["online"])
	assert.NotContains(t, first, "pendingNotifications")
	assert.NotContains(t, first, "conn")

	a.Reset()
	h.o.OnDisconnect("b")
	state = a.Last(domain.EventRoomState)
	require.NotNil(t, state)
	assert.Equal(t, false, state["members"].([]any)[1].(map[string]any)["online"])
}

func TestCommandsFromUnidentifiedConnectionsAreDropped(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	c := h.connect("c1")
	h.send("c1", core.AddTaskCommand{Name: "x"})
	h.send("c1", core.DoneTaskCommand{TaskIndex: 0})
	h.send("ghost", core.JoinCommand{Room: "r", Name: "ghost"})
	h.o.OnDisconnect("ghost")

	assert.Empty(t, c.Types())
	assert.Empty(t, h.o.Rooms.All())
}

func TestTaskCommandsBroadcastOnlyOnChange(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	c := h.join("c1", "r", "ana")

	h.send("c1", core.SetTasksCommand{Tasks: []domain.TaskInput{
		{Name: "a", Elapsed: 5}, {Name: "b", Target: 60}, {Name: "c"},
	}})
	c.Reset()

	h.send("c1", core.StartTaskCommand{TaskIndex: 9})
	h.send("c1", core.PauseTaskCommand{TaskIndex: -1})
	h.send("c1", core.AddTaskCommand{Name: "  "})
	h.send("c1", core.SetTargetCommand{TaskIndex: 3, Target: 10})
	assert.Empty(t, c.Types(), "invalid references are silent no-ops")

	h.send("c1", core.StartTaskCommand{TaskIndex: 0})
	h.send("c1", core.StartTaskCommand{TaskIndex: 2})
	h.send("c1", core.SetTargetCommand{TaskIndex: 2, Target: 1500})
	assert.Len(t, c.OfType(domain.EventRoomState), 3)

	m, _ := h.member("r", "ana")
	assert.False(t, m.Tasks[0].Running)
	assert.True(t, m.Tasks[2].Running)
	assert.Equal(t, 1500, m.Tasks[2].Target)

	h.send("c1", core.ResetTaskCommand{TaskIndex: 2})
	m, _ = h.member("r", "ana")
	assert.Equal(t, domain.Task{Name: "c", Encouragements: []domain.Encouragement{}}, m.Tasks[2])
}

func TestSetTasksClearsRunningAndDone(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("c1", "r", "ana")

	h.send("c1", core.AddTaskCommand{Name: "old"})
	h.send("c1", core.StartTaskCommand{TaskIndex: 0})
	h.send("c1", core.SetTasksCommand{Tasks: []domain.TaskInput{{Name: "new", Elapsed: 12, Target: 30}}})

	m, _ := h.member("r", "ana")
	require.Len(t, m.Tasks, 1)
	assert.Equal(t, domain.Task{Name: "new", Elapsed: 12, Target: 30, Encouragements: []domain.Encouragement{}}, m.Tasks[0])
}

func TestSingleTaskWalkthrough(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("c1", "r", "Mihir")

	h.send("c1", core.AddTaskCommand{Name: "Write plan"})
	h.send("c1", core.StartTaskCommand{TaskIndex: 0})
	h.tick(3)

	m, _ := h.member("r", "mihir")
	assert.Equal(t, 3, m.Tasks[0].Elapsed)
	assert.Equal(t, 0, m.Tasks[0].Target)

	h.send("c1", core.DoneTaskCommand{TaskIndex: 0})
	m, _ = h.member("r", "mihir")
	assert.Equal(t, 60, m.Points)
	assert.Equal(t, 1, m.Streak)
	require.NotNil(t, m.LastCompleted)
	assert.Equal(t, domain.DateOf(start), *m.LastCompleted)

	h.tick(2)
	m, _ = h.member("r", "mihir")
	assert.Equal(t, 3, m.Tasks[0].Elapsed, "done tasks stop ticking")

	h.send("c1", core.DoneTaskCommand{TaskIndex: 0})
	m, _ = h.member("r", "mihir")
	assert.Equal(t, 60, m.Points, "re-completing a done task earns nothing")
}

func TestCompletingAllTasksAwardsBaseAndOneBonus(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("c1", "r", "ana")
	h.send("c1", core.SetTasksCommand{Tasks: []domain.TaskInput{{Name: "a"}, {Name: "b"}, {Name: "c"}}})

	for i := range 3 {
		h.send("c1", core.DoneTaskCommand{TaskIndex: i})
	}
	m, _ := h.member("r", "ana")
	assert.Equal(t, 3*10+50, m.Points)
}

func TestCompletionNotifiesOthersOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	a := h.join("a", "standup", "Ana")
	b := h.join("b", "standup", "Bo")
	h.send("a", core.AddTaskCommand{Name: "ship it"})
	a.Reset()
	b.Reset()

	h.send("a", core.DoneTaskCommand{TaskIndex: 0})

	assert.Equal(t, []string{domain.EventCelebration, domain.EventTaskCompleted, domain.EventRoomState}, b.Types())
	assert.Equal(t, []string{domain.EventCelebration, domain.EventRoomState}, a.Types())

	ping := b.Last(domain.EventTaskCompleted)
	assert.Equal(t, "ana", ping["memberKey"])
	assert.Equal(t, "Ana", ping["memberName"])
	assert.Equal(t, "ship it", ping["taskName"])
	assert.EqualValues(t, 0, ping["taskIndex"])

	party := b.Last(domain.EventCelebration)
	assert.Equal(t, "ana", party["memberKey"])
}

func TestPartialCompletionDoesNotCelebrate(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("a", "r", "Ana")
	b := h.join("b", "r", "Bo")
	h.send("a", core.SetTasksCommand{Tasks: []domain.TaskInput{{Name: "x"}, {Name: "y"}}})
	b.Reset()

	h.send("a", core.DoneTaskCommand{TaskIndex: 1})
	assert.Equal(t, []string{domain.EventTaskCompleted, domain.EventRoomState}, b.Types())
}

func TestOfflineMembersGetQueuedNotificationsOnReturn(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("a", "r", "Ana")
	h.join("b", "r", "Bo")
	h.o.OnDisconnect("b")

	h.send("a", core.SetTasksCommand{Tasks: []domain.TaskInput{{Name: "x"}, {Name: "y"}}})
	h.send("a", core.DoneTaskCommand{TaskIndex: 0})
	h.send("a", core.DoneTaskCommand{TaskIndex: 1})

	bo, _ := h.member("r", "bo")
	require.Len(t, bo.Pending, 2)
	assert.Equal(t, domain.EventTaskCompleted, bo.Pending[0].EventType())

	back := h.join("b2", "r", "bo")
	assert.Equal(t, []string{
		domain.EventJoined,
		domain.EventRoomState,
		domain.EventTaskCompleted,
		domain.EventTaskCompleted,
	}, back.Types())
	bo, _ = h.member("r", "bo")
	assert.Empty(t, bo.Pending)
}

func TestEncourageCreditsRecipientOnlineOrOffline(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	a := h.join("a", "r", "Ana")
	b := h.join("b", "r", "Bo")
	h.send("b", core.AddTaskCommand{Name: "focus"})
	b.Reset()

	h.send("a", core.EncourageCommand{TargetKey: "BO", TaskIndex: 0, Message: "you got this"})
	bo, _ := h.member("r", "bo")
	assert.Equal(t, 5, bo.Points)
	assert.Equal(t, []domain.Encouragement{{From: "Ana", Message: "you got this"}}, bo.Tasks[0].Encouragements)
	push := b.Last(domain.EventEncouragement)
	require.NotNil(t, push)
	assert.Equal(t, "Ana", push["from"])
	assert.Equal(t, "you got this", push["message"])

	h.o.OnDisconnect("b")
	a.Reset()
	h.send("a", core.EncourageCommand{TargetKey: "bo", TaskIndex: 0, Message: "still here"})
	bo, _ = h.member("r", "bo")
	assert.Equal(t, 10, bo.Points)
	assert.Len(t, bo.Tasks[0].Encouragements, 2)
	assert.Len(t, bo.Pending, 1)
	assert.Len(t, a.OfType(domain.EventRoomState), 1)

	h.send("a", core.EncourageCommand{TargetKey: "bo", TaskIndex: 4, Message: "x"})
	h.send("a", core.EncourageCommand{TargetKey: "nobody", TaskIndex: 0, Message: "x"})
	bo, _ = h.member("r", "bo")
	assert.Equal(t, 10, bo.Points)
}

func TestKickRemovesMemberCompletely(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("admin", "r", "mihir")
	victim := h.join("v", "r", "Bo")
	h.send("v", core.AddTaskCommand{Name: "x"})
	h.send("v", core.DoneTaskCommand{TaskIndex: 0})

	bo, _ := h.member("r", "bo")
	require.Equal(t, 60, bo.Points)

	h.send("admin", core.KickUserCommand{TargetKey: "bo"})
	assert.Equal(t, domain.EventKicked, victim.Types()[len(victim.Types())-1])
	assert.True(t, victim.Closed())
	_, ok := h.member("r", "bo")
	assert.False(t, ok)

	h.send("v", core.AddTaskCommand{Name: "sneaky"})
	_, ok = h.member("r", "bo")
	assert.False(t, ok, "commands from a kicked connection are dropped")

	h.join("v2", "r", "Bo")
	bo, ok = h.member("r", "bo")
	require.True(t, ok)
	assert.Zero(t, bo.Points)
	assert.Zero(t, bo.Streak)
	assert.Empty(t, bo.Tasks)
	assert.Nil(t, bo.LastCompleted)
}

func TestKickOfflineMember(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("admin", "r", "MIHIR")
	h.join("v", "r", "Bo")
	h.o.OnDisconnect("v")

	h.send("admin", core.KickUserCommand{TargetKey: "bo"})
	_, ok := h.member("r", "bo")
	assert.False(t, ok)
}

func TestUnauthorizedKickIsIgnored(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("a", "r", "Ana")
	victim := h.join("v", "r", "Bo")
	victim.Reset()

	h.send("a", core.KickUserCommand{TargetKey: "bo"})
	_, ok := h.member("r", "bo")
	assert.True(t, ok)
	assert.False(t, victim.Closed())
	assert.Empty(t, victim.Types())

	h.send("a", core.KickUserCommand{TargetKey: "ghost"})
}

func TestNewConnectionSupersedesOldOne(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	old := h.join("c1", "r", "ana")
	fresh := h.join("c2", "r", "Ana")

	assert.True(t, old.Closed())
	h.o.OnDisconnect("c1")
	m, _ := h.member("r", "ana")
	assert.True(t, m.Online, "stale close must not take the new connection offline")

	fresh.Reset()
	h.send("c1", core.AddTaskCommand{Name: "from old tab"})
	assert.Empty(t, fresh.Types())

	h.send("c2", core.AddTaskCommand{Name: "from new tab"})
	m, _ = h.member("r", "ana")
	require.Len(t, m.Tasks, 1)
	assert.Equal(t, "from new tab", m.Tasks[0].Name)
}

func TestRejoinElsewhereLeavesPreviousIdentity(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("c1", "alpha", "ana")
	h.join("c1", "beta", "ana")

	alpha, ok := h.member("alpha", "ana")
	require.True(t, ok)
	assert.False(t, alpha.Online)
	beta, _ := h.member("beta", "ana")
	assert.True(t, beta.Online)

	h.join("c1", "beta", "ANA")
	beta, _ = h.member("beta", "ana")
	assert.True(t, beta.Online, "same identity again keeps the connection")
}

func TestRunningTasksKeepTickingWhileOffline(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("c1", "r", "ana")
	h.send("c1", core.AddTaskCommand{Name: "deep work"})
	h.send("c1", core.StartTaskCommand{TaskIndex: 0})
	h.o.OnDisconnect("c1")

	h.tick(5)
	m, _ := h.member("r", "ana")
	assert.Equal(t, 5, m.Tasks[0].Elapsed)
	assert.True(t, m.Tasks[0].Running)
}

func TestStreakFollowsCalendarDays(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.join("c1", "r", "ana")

	finishDay := func() {
		h.send("c1", core.SetTasksCommand{Tasks: []domain.TaskInput{{Name: "daily"}}})
		h.send("c1", core.DoneTaskCommand{TaskIndex: 0})
	}

	finishDay()
	h.clock.Advance(24 * time.Hour)
	finishDay()
	h.clock.Advance(24 * time.Hour)
	finishDay()
	m, _ := h.member("r", "ana")
	assert.Equal(t, 3, m.Streak)

	finishDay()
	m, _ = h.member("r", "ana")
	assert.Equal(t, 3, m.Streak, "same day does not stack")

	h.clock.Advance(72 * time.Hour)
	finishDay()
	m, _ = h.member("r", "ana")
	assert.Equal(t, 1, m.Streak)
}

func TestPendingQueueIsBounded(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.o.PendingLimit = 2
	h.join("a", "r", "Ana")
	h.join("b", "r", "Bo")
	h.o.OnDisconnect("b")

	h.send("a", core.SetTasksCommand{Tasks: []domain.TaskInput{{Name: "1"}, {Name: "2"}, {Name: "3"}, {Name: "4"}}})
	for i := range 4 {
		h.send("a", core.DoneTaskCommand{TaskIndex: i})
	}
	bo, _ := h.member("r", "bo")
	require.Len(t, bo.Pending, 2)
	assert.Equal(t, 3, bo.Pending[1].(domain.TaskCompletedEvent).TaskIndex)
}

func TestRejoinBacklogLargerThanSendBufferIsKept(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.o.Policy = app.PolicyFor("disconnect")
	h.o.PendingLimit = 30
	h.join("a", "r", "Ana")
	h.join("b", "r", "Bo")
	h.o.OnDisconnect("b")

	inputs := make([]domain.TaskInput, 21)
	for i := range inputs {
		inputs[i] = domain.TaskInput{Name: "t"}
	}
	h.send("a", core.SetTasksCommand{Tasks: inputs})
	for i := range 20 {
		h.send("a", core.DoneTaskCommand{TaskIndex: i})
	}
	bo, _ := h.member("r", "bo")
	require.Len(t, bo.Pending, 20)

	back := h.connect("b2")
	back.SetCapacity(10)
	h.send("b2", core.JoinCommand{Room: "r", Name: "bo"})

	types := back.Types()
	require.Len(t, types, 10)
	assert.Equal(t, domain.EventJoined, types[0])
	assert.Equal(t, domain.EventRoomState, types[1])
	assert.Len(t, back.OfType(domain.EventTaskCompleted), 8)
	assert.False(t, back.Closed())

	bo, _ = h.member("r", "bo")
	assert.True(t, bo.Online)
	require.Len(t, bo.Pending, 12)
	assert.Equal(t, 8, bo.Pending[0].(domain.TaskCompletedEvent).TaskIndex)

	back.Reset()
	back.SetCapacity(0)
	h.send("a", core.DoneTaskCommand{TaskIndex: 20})
	done := back.OfType(domain.EventTaskCompleted)
	require.Len(t, done, 13)
	for i, ev := range done {
		assert.EqualValues(t, 8+i, ev["taskIndex"])
	}
	bo, _ = h.member("r", "bo")
	assert.Empty(t, bo.Pending)
}

func TestJoinCapsLongNames(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	long := strings.Repeat("x", domain.MaxNameLen+20)
	c := h.join("c1", "r", long)
	joined := c.Last(domain.EventJoined)
	require.NotNil(t, joined)
	assert.Equal(t, strings.Repeat("x", domain.MaxNameLen), joined["memberKey"])

	_, ok := h.member("r", domain.MemberKey(strings.Repeat("x", domain.MaxNameLen)))
	assert.True(t, ok)
}
