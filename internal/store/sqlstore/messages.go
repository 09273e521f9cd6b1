package sqlstore

import (
	"database/sql"

	"github.com/pkalmar/ember/internal/models"
)

func (s *SQLStore) SaveMessage(matchID, senderID int64, content string) (*models.ChatMessage, error) {
	var id int64
	query := s.rebind("INSERT INTO messages (match_id, sender_id, content) VALUES (?, ?, ?) RETURNING id")
	if err := s.db.QueryRow(query, matchID, senderID, content).Scan(&id); err != nil {
		return nil, err
	}

	var m models.ChatMessage
	query = s.rebind("SELECT id, match_id, sender_id, content, created_at FROM messages WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMatchMessages returns a match's history ordered by (created_at, id),
// each message enriched with sender username and first profile image.
func (s *SQLStore) GetMatchMessages(matchID int64) ([]models.ChatMessage, error) {
	query := s.rebind(`
		SELECT m.id, m.match_id, m.sender_id, m.content, m.created_at, u.username,
			(SELECT img_url FROM user_images ui WHERE ui.user_id = u.id ORDER BY ui.id ASC LIMIT 1)
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.match_id = ?
		ORDER BY m.created_at ASC, m.id ASC
	`)
	rows, err := s.db.Query(query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var username string
		var img sql.NullString
		if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Content, &m.CreatedAt, &username, &img); err != nil {
			return nil, err
		}
		sender := &models.MessageSender{ID: m.SenderID, Username: username}
		if img.Valid {
			sender.ProfileImageURL = &img.String
		}
		m.Sender = sender
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
