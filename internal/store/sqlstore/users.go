package sqlstore

import (
	"database/sql"
	"errors"

	"github.com/pkalmar/ember/internal/models"
	"github.com/pkalmar/ember/internal/store"
)

func (s *SQLStore) CreateUser(user *models.User) error {
	var id int64
	query := s.rebind("INSERT INTO users (username, password_hash) VALUES (?, ?) RETURNING id")
	if err := s.db.QueryRow(query, user.Username, user.PasswordHash).Scan(&id); err != nil {
		return err
	}
	user.ID = id
	return nil
}

func (s *SQLStore) GetUserByID(id int64) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, username, password_hash, created_at FROM users WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT id, username, password_hash, created_at FROM users WHERE username = ?")
	err := s.db.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) AddUserImage(userID int64, imgURL string) error {
	query := s.rebind("INSERT INTO user_images (user_id, img_url) VALUES (?, ?)")
	_, err := s.db.Exec(query, userID, imgURL)
	return err
}

func (s *SQLStore) GetPrimaryImageURL(userID int64) (string, error) {
	var url string
	query := s.rebind("SELECT img_url FROM user_images WHERE user_id = ? ORDER BY id ASC LIMIT 1")
	err := s.db.QueryRow(query, userID).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return url, nil
}
