package models

import "time"

// Swipe directions as stored in the swipes table.
const (
	SwipeLeft  = "left"
	SwipeRight = "right"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Swipe is a one-directional interest signal. Rows are append-only and both
// directions of a reciprocal pair are deleted once consumed into a Match.
type Swipe struct {
	ID        int64     `json:"id"`
	SwiperID  int64     `json:"swiperId"`
	SwipedID  int64     `json:"swipedId"`
	Direction string    `json:"direction"`
	CreatedAt time.Time `json:"createdAt"`
}

// Match is a confirmed mutual-interest pairing. User1ID < User2ID always
// holds; the pair is unique and the row immutable once created.
type Match struct {
	ID        int64     `json:"id"`
	User1ID   int64     `json:"user1Id"`
	User2ID   int64     `json:"user2Id"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasUser reports whether id is one of the two matched users.
func (m *Match) HasUser(id int64) bool {
	return m.User1ID == id || m.User2ID == id
}

// PartnerOf returns the other user of the pair. The caller must already know
// id belongs to the match.
func (m *Match) PartnerOf(id int64) int64 {
	if m.User1ID == id {
		return m.User2ID
	}
	return m.User1ID
}

// MessageSender is the display metadata embedded in a broadcast message.
type MessageSender struct {
	ID              int64   `json:"id"`
	Username        string  `json:"username"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

type ChatMessage struct {
	ID        int64          `json:"id"`
	MatchID   int64          `json:"matchId"`
	SenderID  int64          `json:"senderId"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	Sender    *MessageSender `json:"sender,omitempty"`
}

// MatchSummary is one entry of GET /matches: the match id plus the partner's
// public profile bits.
type MatchSummary struct {
	MatchID         int64   `json:"matchId"`
	UserID          int64   `json:"userId"`
	Username        string  `json:"username"`
	ProfileImageURL *string `json:"profileImageUrl"`
}
