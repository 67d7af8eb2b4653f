package wizard

import "errors"

var (
	// ErrNoGroups is returned when a wizard is constructed without groups
	ErrNoGroups = errors.New("wizard: at least one group is required")

	// ErrUnknownGroup is returned when a group name is not part of the wizard
	ErrUnknownGroup = errors.New("wizard: unknown group")

	// ErrUnknownField is returned when a field name is not part of the group
	ErrUnknownField = errors.New("wizard: unknown field")

	// ErrDuplicateName is returned when two groups or two fields share a name
	ErrDuplicateName = errors.New("wizard: duplicate name")

	// ErrEntryOutOfRange is returned by list operations on a missing index
	ErrEntryOutOfRange = errors.New("wizard: entry index out of range")

	// ErrInvalidDefinition is returned when a form definition cannot be built
	ErrInvalidDefinition = errors.New("wizard: invalid definition")
)
