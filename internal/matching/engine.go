// Package matching turns one-directional swipe events into at-most-one match
// per user pair. The reciprocal-swipe check and the match insert run under a
// per-pair mutex, with a unique index on the canonicalized pair as the
// cross-process backstop, so concurrent reciprocal swipes can never produce
// two matches.
package matching

import (
	"errors"
	"fmt"
	"log"

	"github.com/pkalmar/ember/internal/models"
	"github.com/pkalmar/ember/internal/store"
)

var (
	ErrInvalidDirection = errors.New("matching: direction must be left or right")
	ErrSelfSwipe        = errors.New("matching: cannot swipe on yourself")
	ErrInvalidUser      = errors.New("matching: invalid user id")
)

// OutcomeKind distinguishes the three successful results of a swipe.
type OutcomeKind string

const (
	Recorded       OutcomeKind = "recorded"
	MatchCreated   OutcomeKind = "match_created"
	AlreadyMatched OutcomeKind = "already_matched"
)

// Outcome is the result of RecordSwipe. Match is set only for MatchCreated.
type Outcome struct {
	Kind  OutcomeKind
	Match *models.Match
}

type Engine struct {
	store store.Store
	locks *pairLocks
}

func NewEngine(st store.Store) *Engine {
	return &Engine{store: st, locks: newPairLocks()}
}

// RecordSwipe appends the swipe and, on a reciprocal right-swipe, promotes
// the pair into a match. Exactly one match can exist per unordered pair no
// matter how calls interleave.
func (e *Engine) RecordSwipe(swiperID, swipedID int64, direction string) (*Outcome, error) {
	if direction != models.SwipeLeft && direction != models.SwipeRight {
		return nil, ErrInvalidDirection
	}
	if swiperID <= 0 || swipedID <= 0 {
		return nil, ErrInvalidUser
	}
	if swiperID == swipedID {
		return nil, ErrSelfSwipe
	}

	// The append commits unconditionally; everything after it is pair-scoped.
	if _, err := e.store.RecordSwipe(swiperID, swipedID, direction); err != nil {
		return nil, fmt.Errorf("record swipe: %w", err)
	}

	if direction != models.SwipeRight {
		return &Outcome{Kind: Recorded}, nil
	}

	e.locks.Lock(swiperID, swipedID)
	defer e.locks.Unlock(swiperID, swipedID)

	// The match check runs before the reciprocity check: once a match exists
	// its swipe rows are consumed, so a re-swipe would otherwise look
	// one-sided and report Recorded for an already-matched pair.
	if existing, err := e.store.GetMatchByPair(swiperID, swipedID); err == nil {
		e.cleanupSwipes(swiperID, swipedID, existing.ID)
		return &Outcome{Kind: AlreadyMatched}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing match: %w", err)
	}

	reciprocal, err := e.store.HasReverseRightSwipe(swiperID, swipedID)
	if err != nil {
		return nil, fmt.Errorf("check reverse swipe: %w", err)
	}
	if !reciprocal {
		// One-sided: the pair is pending until the other user swipes right.
		return &Outcome{Kind: Recorded}, nil
	}

	match, err := e.store.CreateMatch(swiperID, swipedID)
	if err != nil {
		// A writer in another process may have won the unique-index race;
		// the pair being matched is still a success.
		if existing, lookupErr := e.store.GetMatchByPair(swiperID, swipedID); lookupErr == nil {
			e.cleanupSwipes(swiperID, swipedID, existing.ID)
			return &Outcome{Kind: AlreadyMatched}, nil
		}
		return nil, fmt.Errorf("create match: %w", err)
	}

	return &Outcome{Kind: MatchCreated, Match: match}, nil
}

// cleanupSwipes removes leftover swipe rows for an already-matched pair. The
// match is terminal either way; failed cleanup just leaves rows to retry.
func (e *Engine) cleanupSwipes(a, b, matchID int64) {
	if err := e.store.DeleteSwipesForPair(a, b); err != nil {
		log.Printf("cleanup swipes for match %d: %v", matchID, err)
	}
}
