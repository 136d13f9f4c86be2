package enums

import (
	"fmt"
	"strings"
)

// SortDirection orders catalog results by resolved price.
type SortDirection string

const (
	SortNone SortDirection = "none"
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

var validSortDirections = []SortDirection{SortNone, SortAsc, SortDesc}

// String implements fmt.Stringer.
func (s SortDirection) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SortDirection.
func (s SortDirection) IsValid() bool {
	for _, candidate := range validSortDirections {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSortDirection converts raw input into a SortDirection. Empty input is
// SortNone.
func ParseSortDirection(value string) (SortDirection, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return SortNone, nil
	}
	for _, candidate := range validSortDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort direction %q", value)
}
