// Package cache holds read caches keyed by resource identity. Writers
// invalidate the affected keys explicitly; entries are never authoritative.
package cache

import (
	"context"
	"strconv"
)

// Cache stores JSON-serializable values by key
type Cache interface {
	// Get decodes the cached value into dst and reports whether it was found
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error
}

const keyPrefix = "rollcall:"

// GroupsKey identifies the list of groups
func GroupsKey() string { return keyPrefix + "groups" }

// StudentsKey identifies the student list of a group ("" = all groups)
func StudentsKey(groupID string, showInactive bool) string {
	return keyPrefix + "students:" + groupID + ":" + strconv.FormatBool(showInactive)
}

// AttendanceKey identifies the attendance sheet of a group on a date
func AttendanceKey(groupID, date string) string {
	return keyPrefix + "attendance:" + groupID + ":" + date
}

// AttendanceGroupPrefix is shared by the attendance keys of every date of a group
func AttendanceGroupPrefix(groupID string) string {
	return keyPrefix + "attendance:" + groupID + ":"
}

// InstructorsKey identifies the list of instructors
func InstructorsKey() string { return keyPrefix + "instructors" }

// InstructorGroupsKey identifies the instructor/group associations
func InstructorGroupsKey() string { return keyPrefix + "instructor-groups" }

// GroupInstructorsKey identifies the instructors of one group
func GroupInstructorsKey(groupID string) string {
	return keyPrefix + "instructors:group:" + groupID
}

// InvalidateAttendance marks the attendance of groupID on date and every
// student list that includes the group as stale.
func InvalidateAttendance(ctx context.Context, c Cache, groupID, date string) error {
	return c.Delete(ctx,
		AttendanceKey(groupID, date),
		StudentsKey(groupID, false),
		StudentsKey(groupID, true),
		StudentsKey("", false),
		StudentsKey("", true),
	)
}

// InvalidateStudents marks every student list of groupID as stale
func InvalidateStudents(ctx context.Context, c Cache, groupID string) error {
	return c.Delete(ctx,
		StudentsKey(groupID, false),
		StudentsKey(groupID, true),
		StudentsKey("", false),
		StudentsKey("", true),
	)
}

// InvalidateGroup marks every student list and every attendance sheet of
// groupID as stale. Used after roster changes, which alter which students an
// attendance sheet lists on any date.
func InvalidateGroup(ctx context.Context, c Cache, groupID string) error {
	if err := InvalidateStudents(ctx, c, groupID); err != nil {
		return err
	}
	return c.DeletePrefix(ctx, AttendanceGroupPrefix(groupID))
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, interface{}) error { return nil }
func (Nop) Delete(context.Context, ...string) error { return nil }
func (Nop) DeletePrefix(context.Context, string) error { return nil }
