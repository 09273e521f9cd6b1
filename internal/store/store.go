package store

import (
	"errors"

	"github.com/pkalmar/ember/internal/models"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("store: not found")

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByID(id int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	AddUserImage(userID int64, imgURL string) error
	// GetPrimaryImageURL returns the user's first image, or "" when the user
	// has none. Only genuine query failures produce an error.
	GetPrimaryImageURL(userID int64) (string, error)

	// Swipe operations
	RecordSwipe(swiperID, swipedID int64, direction string) (*models.Swipe, error)
	HasReverseRightSwipe(swiperID, swipedID int64) (bool, error)
	DeleteSwipesForPair(a, b int64) error
	CountSwipesForPair(a, b int64) (int, error)

	// Match operations
	CreateMatch(a, b int64) (*models.Match, error)
	GetMatchByID(id int64) (*models.Match, error)
	GetMatchByPair(a, b int64) (*models.Match, error)
	GetUserMatches(userID int64) ([]models.MatchSummary, error)
	PartnerIDs(userID int64) ([]int64, error)

	// Message operations
	SaveMessage(matchID, senderID int64, content string) (*models.ChatMessage, error)
	GetMatchMessages(matchID int64) ([]models.ChatMessage, error)
}
