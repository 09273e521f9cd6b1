// Package ws is the realtime layer: connection lifecycle, the presence
// registry, room-scoped fan-out and the chat delivery pipeline. The Hub is a
// single goroutine fed by channels; because it dispatches inbound commands
// serially, messages in one room are broadcast in the exact order they were
// persisted.
package ws

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/pkalmar/ember/internal/models"
	"github.com/pkalmar/ember/internal/store"
)

type inboundEvent struct {
	client *Client
	event  ClientEvent
}

type Hub struct {
	presence *Presence
	rooms    *Rooms
	store    store.Store

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Inbound commands from the clients.
	inbound chan inboundEvent
}

func NewHub(st store.Store) *Hub {
	return &Hub{
		presence:   NewPresence(),
		rooms:      NewRooms(),
		store:      st,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent),
	}
}

// Presence exposes the registry for read-only checks (handlers, tests).
func (h *Hub) Presence() *Presence { return h.presence }

// Rooms exposes the broadcaster, used by the notifier and tests.
func (h *Hub) Rooms() *Rooms { return h.rooms }

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleConnect(client)
		case client := <-h.unregister:
			h.handleDisconnect(client)
		case in := <-h.inbound:
			h.dispatch(in.client, in.event)
		}
	}
}

func (h *Hub) handleConnect(c *Client) {
	first := h.presence.Add(c.userID, c)
	// Every connection sits in its owner's personal room so partner-directed
	// events reach all of the user's devices.
	h.rooms.Join(UserRoom(c.userID), c)
	log.Printf("user %d connected (%s), %d connection(s)", c.userID, c.id, h.presence.ConnectionCount(c.userID))

	if first {
		go h.notifyPartners(c.userID, true)
	}
}

func (h *Hub) handleDisconnect(c *Client) {
	h.rooms.LeaveAll(c)
	removed, last := h.presence.Remove(c.userID, c)
	if !removed {
		return
	}
	close(c.send)
	log.Printf("user %d disconnected (%s), %d connection(s) left", c.userID, c.id, h.presence.ConnectionCount(c.userID))

	if last {
		go h.notifyPartners(c.userID, false)
	}
}

func (h *Hub) dispatch(c *Client, evt ClientEvent) {
	switch evt.Event {
	case EventJoinMatch:
		var payload MatchRoomPayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.MatchID == 0 {
			return
		}
		h.handleJoinMatch(c, payload.MatchID)
	case EventLeaveMatch:
		var payload MatchRoomPayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.MatchID == 0 {
			return
		}
		h.rooms.Leave(MatchRoom(payload.MatchID), c)
	case EventSendMessage:
		var payload SendMessagePayload
		if err := json.Unmarshal(evt.Data, &payload); err != nil {
			h.sendError(c, "invalid message")
			return
		}
		h.handleSendMessage(c, payload.MatchID, payload.Content)
	default:
		log.Printf("connection %s sent unknown event %q", c.id, evt.Event)
	}
}

// handleJoinMatch joins the match's conversation room. Joins by users who are
// not a party to the match are silently ignored so room membership can never
// leak another pair's messages.
func (h *Hub) handleJoinMatch(c *Client, matchID int64) {
	match, err := h.store.GetMatchByID(matchID)
	if err != nil {
		log.Printf("join match %d: %v", matchID, err)
		return
	}
	if !match.HasUser(c.userID) {
		log.Printf("user %d refused entry to match %d", c.userID, matchID)
		return
	}
	h.rooms.Join(MatchRoom(matchID), c)
}

// handleSendMessage is the chat delivery pipeline. The broadcast happens
// only after the row is committed.
func (h *Hub) handleSendMessage(c *Client, matchID int64, content string) {
	content = strings.TrimSpace(content)
	if matchID == 0 || content == "" {
		h.sendError(c, "invalid message")
		return
	}

	match, err := h.store.GetMatchByID(matchID)
	if errors.Is(err, store.ErrNotFound) {
		h.sendError(c, "match not found")
		return
	}
	if err != nil {
		log.Printf("load match %d: %v", matchID, err)
		h.sendError(c, "failed to send message")
		return
	}
	if !match.HasUser(c.userID) {
		// Refused without echoing anything about the message.
		log.Printf("user %d tried to message match %d they are not part of", c.userID, matchID)
		h.sendError(c, "failed to send message")
		return
	}

	msg, err := h.store.SaveMessage(matchID, c.userID, content)
	if err != nil {
		log.Printf("persist message for match %d: %v", matchID, err)
		h.sendError(c, "failed to send message")
		return
	}

	// Best effort: a missing profile image must not fail the send.
	sender := &models.MessageSender{ID: c.userID, Username: c.username}
	if url, err := h.store.GetPrimaryImageURL(c.userID); err == nil && url != "" {
		sender.ProfileImageURL = &url
	}
	msg.Sender = sender

	h.rooms.Broadcast(MatchRoom(matchID), EventNewMessage, msg)
}

// notifyPartners pushes a presence transition to every matched partner's
// personal room. Runs on its own goroutine so store lookups never block the
// hub loop; called only on edge transitions.
func (h *Hub) notifyPartners(userID int64, online bool) {
	partnerIDs, err := h.store.PartnerIDs(userID)
	if err != nil {
		log.Printf("lookup partners of user %d: %v", userID, err)
		return
	}
	if len(partnerIDs) == 0 {
		return
	}

	event := EventUserOffline
	if online {
		event = EventUserOnline
	}
	for _, partnerID := range partnerIDs {
		h.rooms.Broadcast(UserRoom(partnerID), event, PresencePayload{UserID: userID})
	}
}

// sendError reports a delivery failure to the offending connection only.
func (h *Hub) sendError(c *Client, message string) {
	payload, err := encodeEvent(EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
