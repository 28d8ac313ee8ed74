package game

import (
	"errors"
	"fmt"
)

var (
	ErrCharacterNotFound    = errors.New("character not found")
	ErrCharacterDeceased    = errors.New("character is deceased")
	ErrNoPendingEvent       = errors.New("no event for the character's current age")
	ErrInvalidChoice        = errors.New("choice does not belong to the current event")
	ErrInvalidName          = errors.New("character name is required")
	ErrUnknownLocation      = errors.New("location not found")
	ErrLocationInaccessible = errors.New("location is not accessible")
	ErrRegionLocked         = errors.New("region has not been unlocked")
	ErrInvalidDuration      = errors.New("months must not be negative")
)

// PersistenceError reports a failed store write. The character state visible
// to callers is the one before the operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("error %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
