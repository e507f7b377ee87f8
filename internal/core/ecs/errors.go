package ecs

import (
	"errors"

	"github.com/l1jgo/shell/internal/core/event"
)

var (
	// ErrInvalidEntity indicates a zero, stale or deleted entity handle.
	ErrInvalidEntity = errors.New("ecs: invalid entity")
	// ErrEmptyComponentName is returned when a component type is registered without a name.
	ErrEmptyComponentName = errors.New("ecs: empty component name")
	// ErrComponentAlreadyRegistered indicates a duplicate type, name or index.
	ErrComponentAlreadyRegistered = errors.New("ecs: component already registered")
	// ErrComponentNotRegistered signals use of a component type with no storage.
	ErrComponentNotRegistered = errors.New("ecs: component not registered")
	// ErrComponentNotFound is returned when the entity has no component of the type.
	ErrComponentNotFound = errors.New("ecs: entity has no such component")
	// ErrCloneFailed indicates a storage refused to copy a component.
	ErrCloneFailed = errors.New("ecs: component clone failed")
	// ErrLifecycleMismatch means WithLifecycle was given a lifecycle for another type.
	ErrLifecycleMismatch = errors.New("ecs: lifecycle does not match component type")
	// ErrNilSystem is returned when AddSystem receives nil.
	ErrNilSystem = errors.New("ecs: nil system")
	// ErrEmptySystemName indicates neither an override nor a type name was available.
	ErrEmptySystemName = errors.New("ecs: empty system name")
	// ErrDuplicateSystem indicates the system name is already taken.
	ErrDuplicateSystem = errors.New("ecs: system name already registered")
	// ErrSystemInUse indicates the system instance is already registered with a domain.
	ErrSystemInUse = errors.New("ecs: system already registered")
	// ErrUnknownSystem is returned when removing a system the domain does not hold.
	ErrUnknownSystem = errors.New("ecs: unknown system")
	// ErrNilHandler is returned when an event handler is nil.
	ErrNilHandler = errors.New("ecs: nil event handler")
	// ErrHandlerNotComparable rejects handlers that cannot be matched for removal.
	ErrHandlerNotComparable = errors.New("ecs: event handler is not comparable")
	// ErrHandlerNotFound is returned when removing an (event, handler) pair that is not bound.
	ErrHandlerNotFound = errors.New("ecs: event handler not bound")
	// ErrUnknownEvent aliases event.ErrUnknownEvent so callers need one import.
	ErrUnknownEvent = event.ErrUnknownEvent
	// ErrNoServiceProvider means the domain was built without a service provider.
	ErrNoServiceProvider = errors.New("ecs: no service provider")
	// ErrServiceNotFound indicates the provider has no service for the id.
	ErrServiceNotFound = errors.New("ecs: service not found")
	// ErrServiceType indicates the service does not have the requested type.
	ErrServiceType = errors.New("ecs: service has unexpected type")
	// ErrDomainClosed is returned by mutating calls after Close.
	ErrDomainClosed = errors.New("ecs: domain closed")
)
