package domain

import "strings"

type RoomName string

// NormalizeRoomName trims and lowercases a raw room name. The result may be
// empty; callers substitute their default.
func NormalizeRoomName(raw string) RoomName {
	return RoomName(strings.ToLower(strings.TrimSpace(raw)))
}
