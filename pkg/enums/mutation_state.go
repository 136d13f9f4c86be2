package enums

import "fmt"

// MutationState tracks an optimistic cart mutation through its remote call.
type MutationState string

const (
	MutationStatePending    MutationState = "pending"
	MutationStateCommitted  MutationState = "committed"
	MutationStateRolledBack MutationState = "rolled_back"
)

var validMutationStates = []MutationState{
	MutationStatePending,
	MutationStateCommitted,
	MutationStateRolledBack,
}

// String implements fmt.Stringer.
func (m MutationState) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MutationState.
func (m MutationState) IsValid() bool {
	for _, candidate := range validMutationStates {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (m MutationState) IsTerminal() bool {
	return m == MutationStateCommitted || m == MutationStateRolledBack
}

// ParseMutationState converts raw input into a MutationState.
func ParseMutationState(value string) (MutationState, error) {
	for _, candidate := range validMutationStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mutation state %q", value)
}
