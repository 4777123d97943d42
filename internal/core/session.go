package core

import "github.com/dkeye/TaskRoom/internal/domain"

// MemberSession binds a domain.Member to its live transport endpoint.
// A session is online iff it holds a connection.
type MemberSession struct {
	meta   *domain.Member
	conn   SignalConnection
	connID ConnID
}

func NewMemberSession(meta *domain.Member) *MemberSession {
	return &MemberSession{meta: meta}
}

func (s *MemberSession) Meta() *domain.Member     { return s.meta }
func (s *MemberSession) Signal() SignalConnection { return s.conn }
func (s *MemberSession) ConnID() ConnID           { return s.connID }
func (s *MemberSession) Online() bool             { return s.conn != nil }

// Attach makes conn the session's connection and returns the one it
// replaced, if any.
func (s *MemberSession) Attach(id ConnID, conn SignalConnection) (ConnID, SignalConnection) {
	prevID, prev := s.connID, s.conn
	s.connID, s.conn = id, conn
	if prevID == id {
		return "", nil
	}
	return prevID, prev
}

// Detach drops the connection if it is still id. A stale close from a
// superseded connection leaves the session untouched.
func (s *MemberSession) Detach(id ConnID) bool {
	if s.conn == nil || s.connID != id {
		return false
	}
	s.conn, s.connID = nil, ""
	return true
}

// View is the wire form of the session. No transport or queue fields.
func (s *MemberSession) View() domain.MemberView {
	return domain.MemberView{
		Key:    s.meta.Key,
		Name:   s.meta.Name,
		Tasks:  s.meta.TasksSnapshot(),
		Online: s.Online(),
		Points: s.meta.Points,
		Streak: s.meta.Streak,
	}
}
