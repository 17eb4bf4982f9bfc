package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrGameInactive    = errors.New("game is not active")
	ErrAlreadyAnswered = errors.New("checkpoint already answered")
	ErrAlreadyRedeemed = errors.New("reward already redeemed")
	ErrUnauthorized    = errors.New("invalid credentials")
	ErrUnavailable     = errors.New("feature not configured")
)

// IncompleteError is returned when completion is requested before every
// checkpoint of the game has been answered.
type IncompleteError struct {
	Answered int
	Total    int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("not all checkpoints answered (%d/%d)", e.Answered, e.Total)
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}
