package ws

import (
	"encoding/json"
	"fmt"
)

// Event names on the wire, client and server side.
const (
	EventJoinMatch   = "join_match"
	EventLeaveMatch  = "leave_match"
	EventSendMessage = "send_message"
	EventNewMessage  = "new_message"
	EventUserOnline  = "user_online"
	EventUserOffline = "user_offline"
	EventError       = "error"
)

// ClientEvent is one inbound JSON frame: {"event": ..., "data": {...}}.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is one outbound frame in the same envelope.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type MatchRoomPayload struct {
	MatchID int64 `json:"matchId"`
}

type SendMessagePayload struct {
	MatchID int64  `json:"matchId"`
	Content string `json:"content"`
}

type PresencePayload struct {
	UserID int64 `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	return json.Marshal(ServerEvent{Event: event, Data: data})
}

// UserRoom is a user's personal room, joined implicitly on connect. Presence
// events for matched partners land here.
func UserRoom(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// MatchRoom is a match's conversation room, joined explicitly.
func MatchRoom(matchID int64) string {
	return fmt.Sprintf("match:%d", matchID)
}
