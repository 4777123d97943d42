package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/TaskRoom/internal/core"
	"github.com/dkeye/TaskRoom/internal/domain"
)

// RoomReader is the read side of the room registry.
type RoomReader interface {
	List() []core.RoomInfo
	Get(raw string) (*core.Room, bool)
}

type PriorityReader interface {
	Priorities() []string
}

type RoomsResponse struct {
	Rooms []core.RoomInfo `json:"rooms"`
}

type PrioritiesResponse struct {
	Priorities []string `json:"priorities"`
}

// Handlers serves the read-only REST views. None of them create rooms.
type Handlers struct {
	Rooms      RoomReader
	Priorities PriorityReader
	AdminName  string
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) ListRooms(c *gin.Context) {
	rooms := h.Rooms.List()
	if rooms == nil {
		rooms = []core.RoomInfo{}
	}
	c.JSON(http.StatusOK, RoomsResponse{Rooms: rooms})
}

func (h *Handlers) GetRoom(c *gin.Context) {
	room, ok := h.Rooms.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	var snap domain.RoomStateEvent
	if !room.Do(func(s *core.RoomState) { snap = s.Snapshot() }) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetPriorities returns the status checklist for the admin and an empty
// list for anyone else.
func (h *Handlers) GetPriorities(c *gin.Context) {
	out := []string{}
	name := strings.TrimSpace(c.Param("name"))
	if h.Priorities != nil && h.AdminName != "" && strings.EqualFold(name, strings.TrimSpace(h.AdminName)) {
		out = h.Priorities.Priorities()
	}
	c.JSON(http.StatusOK, PrioritiesResponse{Priorities: out})
}
