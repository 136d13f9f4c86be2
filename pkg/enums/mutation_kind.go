package enums

import "fmt"

// MutationKind names the cart intent a mutation carries.
type MutationKind string

const (
	MutationKindAdd         MutationKind = "add"
	MutationKindRemove      MutationKind = "remove"
	MutationKindSetQuantity MutationKind = "set_quantity"
)

var validMutationKinds = []MutationKind{
	MutationKindAdd,
	MutationKindRemove,
	MutationKindSetQuantity,
}

func (m MutationKind) String() string {
	return string(m)
}

func (m MutationKind) IsValid() bool {
	for _, candidate := range validMutationKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

func ParseMutationKind(value string) (MutationKind, error) {
	for _, candidate := range validMutationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mutation kind %q", value)
}
