package event

import "errors"

var (
	// ErrEmptyName is returned when an event is registered without a name.
	ErrEmptyName = errors.New("event: empty name")
	// ErrInvalidID is returned when InvalidID is used as an explicit id.
	ErrInvalidID = errors.New("event: invalid id")
	// ErrIDConflict means the requested id is already bound to another name.
	ErrIDConflict = errors.New("event: id bound to a different name")
	// ErrNameConflict means the name is already bound to another id.
	ErrNameConflict = errors.New("event: name bound to a different id")
	// ErrUnknownEvent signals a lookup of an event that was never registered.
	ErrUnknownEvent = errors.New("event: unknown event")
)
