package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Match lifecycle errors
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchExists        = errors.New("match already exists")
	ErrMatchNotWaiting    = errors.New("match is not waiting for an opponent")
	ErrCannotJoinOwn      = errors.New("cannot join your own match")
	ErrMatchNotPlaying    = errors.New("match is not in progress")
	ErrMatchFinished      = errors.New("match is already finished")
	ErrNotMatchCreator    = errors.New("only the match creator can do this")
	ErrUnknownBotStrategy = errors.New("unknown bot strategy")

	// Turn errors
	ErrNotYourTurn         = errors.New("not your turn")
	ErrMustRollFirst       = errors.New("must roll dice first")
	ErrAlreadyRolled       = errors.New("dice already rolled this turn")
	ErrNoMovesRemaining    = errors.New("no moves remaining")
	ErrValidMovesAvailable = errors.New("you have valid moves available")

	// Move errors
	ErrInvalidPoint   = errors.New("invalid point")
	ErrNoCheckers     = errors.New("no checkers at point")
	ErrCheckerPinned  = errors.New("checker is pinned at point")
	ErrWrongDirection = errors.New("invalid move direction")
	ErrNoValidDie     = errors.New("no valid die for this move")
	ErrPointBlocked   = errors.New("point is blocked by opponent")
	ErrOwnStackPinned = errors.New("cannot add checkers to a point where your checker is pinned")
	ErrNotAllHome     = errors.New("cannot bear off: not all checkers in home board")

	// Infrastructure errors
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// atPoint attaches a point number to a rule violation
func atPoint(err error, point int) error {
	return fmt.Errorf("%w %d", err, point)
}

// NoCheckersAt reports an empty source point
func NoCheckersAt(point int) error { return atPoint(ErrNoCheckers, point) }

// CheckerPinnedAt reports a pinned source point
func CheckerPinnedAt(point int) error { return atPoint(ErrCheckerPinned, point) }

// PointBlockedAt reports a destination held by two or more opposing checkers
func PointBlockedAt(point int) error { return fmt.Errorf("%w (point %d)", ErrPointBlocked, point) }

// OwnStackPinnedAt reports a destination where the mover's own checker is pinned
func OwnStackPinnedAt(point int) error { return fmt.Errorf("%w (point %d)", ErrOwnStackPinned, point) }

// NoValidDieFor reports a distance that no remaining die can cover
func NoValidDieFor(distance int) error {
	return fmt.Errorf("%w (distance: %d)", ErrNoValidDie, distance)
}

// StorageFailure wraps a backend error so callers can tell it apart from rule violations
func StorageFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// IsRuleViolation reports whether err is a user-facing game rule error
func IsRuleViolation(err error) bool {
	for _, target := range ruleViolations {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var ruleViolations = []error{
	ErrMatchNotWaiting, ErrCannotJoinOwn, ErrMatchNotPlaying, ErrMatchFinished,
	ErrNotYourTurn, ErrMustRollFirst, ErrAlreadyRolled, ErrNoMovesRemaining,
	ErrValidMovesAvailable, ErrInvalidPoint, ErrNoCheckers, ErrCheckerPinned,
	ErrWrongDirection, ErrNoValidDie, ErrPointBlocked, ErrOwnStackPinned, ErrNotAllHome,
}
