package graph

import "errors"

// ErrValidation is the parent of every error returned when user input is
// rejected before any state change. Test with errors.Is.
var ErrValidation = errors.New("validation error")

var (
	// ErrEmptyName is returned when a node name is empty after trimming.
	ErrEmptyName = validationError("node name cannot be empty")

	// ErrDuplicateName is returned when another node already has the same
	// trimmed, case-folded name.
	ErrDuplicateName = validationError("a node with this name already exists")

	// ErrPhaseOutOfRange is returned when the phase is below 1 or skips past
	// MaxAssignablePhase.
	ErrPhaseOutOfRange = validationError("phase out of range")

	// ErrInvalidParent is returned when a requested parent does not exist or
	// does not belong to a strictly earlier phase.
	ErrInvalidParent = validationError("invalid parent")

	// ErrUnknownCategory is returned for tags outside the category set.
	ErrUnknownCategory = validationError("unknown category")
)

// ErrNodeNotFound is returned when an operation references a node id that is
// not in the local collection.
var ErrNodeNotFound = errors.New("node not found")

// validationErr is a sentinel that also matches ErrValidation.
type validationErr struct {
	msg string
}

func validationError(msg string) error {
	return &validationErr{msg: msg}
}

func (e *validationErr) Error() string { return e.msg }

// Is makes every validation sentinel match ErrValidation.
func (e *validationErr) Is(target error) bool {
	return target == ErrValidation
}
