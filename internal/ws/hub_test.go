package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pkalmar/ember/internal/models"
	"github.com/pkalmar/ember/internal/store/sqlstore"
)

type hubEnv struct {
	hub   *Hub
	store *sqlstore.SQLStore
	anna  *models.User
	bela  *models.User
	match *models.Match
}

func newHubEnv(t *testing.T) *hubEnv {
	t.Helper()
	st, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	anna := &models.User{Username: "anna", PasswordHash: "hash"}
	bela := &models.User{Username: "bela", PasswordHash: "hash"}
	for _, u := range []*models.User{anna, bela} {
		if err := st.CreateUser(u); err != nil {
			t.Fatalf("Failed to create user: %v", err)
		}
	}
	match, err := st.CreateMatch(anna.ID, bela.ID)
	if err != nil {
		t.Fatalf("Failed to create match: %v", err)
	}

	hub := NewHub(st)
	go hub.Run()

	return &hubEnv{hub: hub, store: st, anna: anna, bela: bela, match: match}
}

func (e *hubEnv) connect(t *testing.T, user *models.User) *Client {
	t.Helper()
	c := testClient(user.ID, user.Username)
	e.hub.register <- c
	waitFor(t, func() bool { return e.hub.Rooms().InRoom(UserRoom(user.ID), c) })
	return c
}

func (e *hubEnv) joinMatch(t *testing.T, c *Client, matchID int64) {
	t.Helper()
	e.send(t, c, EventJoinMatch, MatchRoomPayload{MatchID: matchID})
}

func (e *hubEnv) send(t *testing.T, c *Client, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	e.hub.inbound <- inboundEvent{client: c, event: ClientEvent{Event: event, Data: data}}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for condition")
}

func recvEvent(t *testing.T, c *Client) ClientEvent {
	t.Helper()
	select {
	case raw := <-c.send:
		var evt ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			t.Fatalf("Failed to decode event: %v", err)
		}
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
		return ClientEvent{}
	}
}

// recvMessageEvent skips presence events, which arrive asynchronously and may
// interleave with message delivery on a freshly connected client.
func recvMessageEvent(t *testing.T, c *Client) ClientEvent {
	t.Helper()
	for {
		evt := recvEvent(t, c)
		if evt.Event == EventUserOnline || evt.Event == EventUserOffline {
			continue
		}
		return evt
	}
}

func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("Expected no event, got %s", raw)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestHubDeliversMessagesInOrder(t *testing.T) {
	env := newHubEnv(t)

	a := env.connect(t, env.anna)
	b := env.connect(t, env.bela)
	env.joinMatch(t, a, env.match.ID)
	env.joinMatch(t, b, env.match.ID)
	waitFor(t, func() bool { return env.hub.Rooms().InRoom(MatchRoom(env.match.ID), b) })

	for _, content := range []string{"m1", "m2", "m3"} {
		env.send(t, a, EventSendMessage, SendMessagePayload{MatchID: env.match.ID, Content: content})
	}

	// Everyone in the room, the sender's own connection included, observes
	// the same relative order.
	for _, c := range []*Client{a, b} {
		for _, want := range []string{"m1", "m2", "m3"} {
			evt := recvMessageEvent(t, c)
			if evt.Event != EventNewMessage {
				t.Fatalf("Expected new_message, got %s", evt.Event)
			}
			var msg models.ChatMessage
			if err := json.Unmarshal(evt.Data, &msg); err != nil {
				t.Fatalf("Failed to decode message: %v", err)
			}
			if msg.Content != want {
				t.Errorf("Out of order for %s: got %q want %q", c.id, msg.Content, want)
			}
			if msg.SenderID != env.anna.ID {
				t.Errorf("Expected sender %d, got %d", env.anna.ID, msg.SenderID)
			}
			if msg.Sender == nil || msg.Sender.Username != "anna" {
				t.Errorf("Expected sender enrichment, got %+v", msg.Sender)
			}
		}
	}

	messages, err := env.store.GetMatchMessages(env.match.ID)
	if err != nil {
		t.Fatalf("GetMatchMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Errorf("Expected 3 persisted messages, got %d", len(messages))
	}
}

func TestHubTrimsContentAndRejectsWhitespace(t *testing.T) {
	env := newHubEnv(t)

	a := env.connect(t, env.anna)
	env.joinMatch(t, a, env.match.ID)
	waitFor(t, func() bool { return env.hub.Rooms().InRoom(MatchRoom(env.match.ID), a) })

	env.send(t, a, EventSendMessage, SendMessagePayload{MatchID: env.match.ID, Content: "   "})
	evt := recvEvent(t, a)
	if evt.Event != EventError {
		t.Fatalf("Expected error event for whitespace content, got %s", evt.Event)
	}

	messages, _ := env.store.GetMatchMessages(env.match.ID)
	if len(messages) != 0 {
		t.Errorf("Expected no persisted row for whitespace message, got %d", len(messages))
	}

	env.send(t, a, EventSendMessage, SendMessagePayload{MatchID: env.match.ID, Content: "  hali  "})
	evt = recvEvent(t, a)
	if evt.Event != EventNewMessage {
		t.Fatalf("Expected new_message, got %s", evt.Event)
	}
	var msg models.ChatMessage
	json.Unmarshal(evt.Data, &msg)
	if msg.Content != "hali" {
		t.Errorf("Expected trimmed content 'hali', got %q", msg.Content)
	}
}

func TestHubRefusesForeignSender(t *testing.T) {
	env := newHubEnv(t)

	mallory := &models.User{Username: "mallory", PasswordHash: "hash"}
	if err := env.store.CreateUser(mallory); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	a := env.connect(t, env.anna)
	env.joinMatch(t, a, env.match.ID)
	waitFor(t, func() bool { return env.hub.Rooms().InRoom(MatchRoom(env.match.ID), a) })

	m := env.connect(t, mallory)

	// Join is silently refused for a non-participant.
	env.joinMatch(t, m, env.match.ID)
	env.send(t, m, EventSendMessage, SendMessagePayload{MatchID: env.match.ID, Content: "intrusion"})

	evt := recvEvent(t, m)
	if evt.Event != EventError {
		t.Fatalf("Expected error event for foreign sender, got %s", evt.Event)
	}
	if env.hub.Rooms().InRoom(MatchRoom(env.match.ID), m) {
		t.Error("Expected non-participant join to be refused")
	}

	// Nothing persisted, nothing broadcast.
	messages, _ := env.store.GetMatchMessages(env.match.ID)
	if len(messages) != 0 {
		t.Errorf("Expected no persisted row, got %d", len(messages))
	}
	expectSilence(t, a)
}

func TestHubPresenceEdgeNotifications(t *testing.T) {
	env := newHubEnv(t)

	b := env.connect(t, env.bela)

	// Anna opens three connections; bela hears exactly one user_online.
	a1 := env.connect(t, env.anna)
	evt := recvEvent(t, b)
	if evt.Event != EventUserOnline {
		t.Fatalf("Expected user_online, got %s", evt.Event)
	}
	var presence PresencePayload
	json.Unmarshal(evt.Data, &presence)
	if presence.UserID != env.anna.ID {
		t.Errorf("Expected presence event about anna, got user %d", presence.UserID)
	}

	a2 := env.connect(t, env.anna)
	a3 := env.connect(t, env.anna)
	expectSilence(t, b)

	// Anna also heard about bela coming online before she connected? No:
	// bela connected while anna was offline, so anna's connections are clean.
	expectSilence(t, a1)

	// Closing two of three: no edge, no events.
	env.hub.unregister <- a1
	env.hub.unregister <- a2
	expectSilence(t, b)

	// Last close: exactly one user_offline.
	env.hub.unregister <- a3
	evt = recvEvent(t, b)
	if evt.Event != EventUserOffline {
		t.Fatalf("Expected user_offline, got %s", evt.Event)
	}
	json.Unmarshal(evt.Data, &presence)
	if presence.UserID != env.anna.ID {
		t.Errorf("Expected offline event about anna, got user %d", presence.UserID)
	}

	waitFor(t, func() bool { return !env.hub.Presence().IsOnline(env.anna.ID) })
}

func TestHubDisconnectLeavesAllRooms(t *testing.T) {
	env := newHubEnv(t)

	a := env.connect(t, env.anna)
	b := env.connect(t, env.bela)
	env.joinMatch(t, a, env.match.ID)
	env.joinMatch(t, b, env.match.ID)
	waitFor(t, func() bool { return env.hub.Rooms().InRoom(MatchRoom(env.match.ID), b) })

	env.hub.unregister <- b
	waitFor(t, func() bool { return !env.hub.Presence().IsOnline(env.bela.ID) })

	if env.hub.Rooms().InRoom(MatchRoom(env.match.ID), b) {
		t.Error("Expected disconnected client out of the match room")
	}
	if env.hub.Rooms().InRoom(UserRoom(env.bela.ID), b) {
		t.Error("Expected disconnected client out of its personal room")
	}
}
