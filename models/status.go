package models

import (
	"fmt"
	"strings"
)

// Status is the attendance state of a student for a session
type Status string

const (
	StatusPresent  Status = "present"
	StatusAbsent   Status = "absent"
	StatusExcused  Status = "excused"
	StatusUnmarked Status = "unmarked" // no record stored yet (or cleared)
)

// Statuses lists every valid status in display order
var Statuses = []Status{StatusPresent, StatusAbsent, StatusExcused, StatusUnmarked}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusExcused, StatusUnmarked:
		return true
	}
	return false
}

// ParseStatus normalizes a stored or submitted status value.
// An empty cell reads as unmarked.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if s == "" {
		return StatusUnmarked, nil
	}
	if !s.Valid() {
		return "", fmt.Errorf("unknown attendance status %q", v)
	}
	return s, nil
}
