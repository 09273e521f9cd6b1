package sqlstore

import "github.com/pkalmar/ember/internal/models"

func (s *SQLStore) RecordSwipe(swiperID, swipedID int64, direction string) (*models.Swipe, error) {
	var id int64
	query := s.rebind("INSERT INTO swipes (swiper_id, swiped_id, direction) VALUES (?, ?, ?) RETURNING id")
	if err := s.db.QueryRow(query, swiperID, swipedID, direction).Scan(&id); err != nil {
		return nil, err
	}

	var swipe models.Swipe
	query = s.rebind("SELECT id, swiper_id, swiped_id, direction, created_at FROM swipes WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&swipe.ID, &swipe.SwiperID, &swipe.SwipedID, &swipe.Direction, &swipe.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

// HasReverseRightSwipe reports whether swipedID has already right-swiped
// swiperID, i.e. whether the pair is reciprocal.
func (s *SQLStore) HasReverseRightSwipe(swiperID, swipedID int64) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM swipes WHERE swiper_id = ? AND swiped_id = ? AND direction = ?)")
	err := s.db.QueryRow(query, swipedID, swiperID, models.SwipeRight).Scan(&exists)
	return exists, err
}

// DeleteSwipesForPair removes every swipe row between the two users, in both
// directions.
func (s *SQLStore) DeleteSwipesForPair(a, b int64) error {
	query := s.rebind("DELETE FROM swipes WHERE (swiper_id = ? AND swiped_id = ?) OR (swiper_id = ? AND swiped_id = ?)")
	_, err := s.db.Exec(query, a, b, b, a)
	return err
}

func (s *SQLStore) CountSwipesForPair(a, b int64) (int, error) {
	var n int
	query := s.rebind("SELECT COUNT(*) FROM swipes WHERE (swiper_id = ? AND swiped_id = ?) OR (swiper_id = ? AND swiped_id = ?)")
	err := s.db.QueryRow(query, a, b, b, a).Scan(&n)
	return n, err
}
