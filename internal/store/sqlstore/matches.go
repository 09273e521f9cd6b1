package sqlstore

import (
	"database/sql"
	"errors"

	"github.com/pkalmar/ember/internal/models"
	"github.com/pkalmar/ember/internal/store"
)

// CreateMatch inserts the match row for an unordered pair and consumes the
// pair's swipe rows in the same transaction. The canonical column order plus
// the UNIQUE(user1_id, user2_id) index makes the insert fail if another
// writer already matched the pair.
func (s *SQLStore) CreateMatch(a, b int64) (*models.Match, error) {
	lo, hi := orderPair(a, b)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id int64
	query := s.rebind("INSERT INTO matches (user1_id, user2_id) VALUES (?, ?) RETURNING id")
	if err := tx.QueryRow(query, lo, hi).Scan(&id); err != nil {
		return nil, err
	}

	query = s.rebind("DELETE FROM swipes WHERE (swiper_id = ? AND swiped_id = ?) OR (swiper_id = ? AND swiped_id = ?)")
	if _, err := tx.Exec(query, lo, hi, hi, lo); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetMatchByID(id)
}

func (s *SQLStore) GetMatchByID(id int64) (*models.Match, error) {
	var m models.Match
	query := s.rebind("SELECT id, user1_id, user2_id, created_at FROM matches WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&m.ID, &m.User1ID, &m.User2ID, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLStore) GetMatchByPair(a, b int64) (*models.Match, error) {
	lo, hi := orderPair(a, b)

	var m models.Match
	query := s.rebind("SELECT id, user1_id, user2_id, created_at FROM matches WHERE user1_id = ? AND user2_id = ?")
	err := s.db.QueryRow(query, lo, hi).Scan(&m.ID, &m.User1ID, &m.User2ID, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetUserMatches returns one summary per match the user belongs to, carrying
// the partner's public profile bits.
func (s *SQLStore) GetUserMatches(userID int64) ([]models.MatchSummary, error) {
	query := s.rebind(`
		SELECT m.id, u.id, u.username,
			(SELECT img_url FROM user_images ui WHERE ui.user_id = u.id ORDER BY ui.id ASC LIMIT 1)
		FROM matches m
		JOIN users u ON u.id = CASE WHEN m.user1_id = ? THEN m.user2_id ELSE m.user1_id END
		WHERE m.user1_id = ? OR m.user2_id = ?
		ORDER BY m.created_at DESC, m.id DESC
	`)
	rows, err := s.db.Query(query, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.MatchSummary
	for rows.Next() {
		var sum models.MatchSummary
		var img sql.NullString
		if err := rows.Scan(&sum.MatchID, &sum.UserID, &sum.Username, &img); err != nil {
			return nil, err
		}
		if img.Valid {
			sum.ProfileImageURL = &img.String
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// PartnerIDs returns the ids of every user matched with userID.
func (s *SQLStore) PartnerIDs(userID int64) ([]int64, error) {
	query := s.rebind(`
		SELECT CASE WHEN user1_id = ? THEN user2_id ELSE user1_id END
		FROM matches
		WHERE user1_id = ? OR user2_id = ?
	`)
	rows, err := s.db.Query(query, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
