// Package sheets provides row-oriented access to the spreadsheet that holds
// all persisted state. Every table is one sheet whose first row is the header.
package sheets

import (
	"context"
	"errors"
	"strings"
)

// Table names used by the attendance tracker
const (
	GroupsTable           = "Groups"
	StudentsTable         = "Students"
	InstructorsTable      = "Instructors"
	InstructorGroupsTable = "InstructorGroups"
	SessionsTable         = "Sessions"
	AttendanceTable       = "Attendance"
)

// Headers holds the column layout of every table
var Headers = map[string][]string{
	GroupsTable:           {"id", "name"},
	StudentsTable:         {"id", "first_name", "last_name", "group_id", "active", "class", "phone"},
	InstructorsTable:      {"id", "name"},
	InstructorGroupsTable: {"instructor_id", "group_id", "role"},
	SessionsTable:         {"id", "group_id", "date"},
	AttendanceTable:       {"session_id", "student_id", "status", "updated_at"},
}

// ErrTableNotFound is returned when a sheet does not exist
var ErrTableNotFound = errors.New("sheet not found")

// Store reads and writes whole rows of a spreadsheet.
// Row indexes are 0-based and count data rows only (the header is excluded).
type Store interface {
	ReadTable(ctx context.Context, name string) (*Table, error)
	AppendRows(ctx context.Context, name string, rows [][]string) error
	UpdateRow(ctx context.Context, name string, index int, row []string) error
	// EnsureTable creates the sheet with the given header if it is missing
	EnsureTable(ctx context.Context, name string, header []string) error
}

// Table is a snapshot of one sheet
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	cols   map[string]int
}

// NewTable builds a table, indexing the header case-insensitively
func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{Name: name, Header: header, Rows: rows, cols: make(map[string]int, len(header))}
	for i, h := range header {
		t.cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return t
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Get returns the cell of row i in column col, "" when absent
func (t *Table) Get(i int, col string) string {
	c, ok := t.cols[col]
	if !ok || i < 0 || i >= len(t.Rows) || c >= len(t.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][c])
}

// Has reports whether the header contains col
func (t *Table) Has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

// Row lays out values (by column name) in header order
func (t *Table) Row(values map[string]string) []string {
	row := make([]string, len(t.Header))
	for col, v := range values {
		if c, ok := t.cols[col]; ok {
			row[c] = v
		}
	}
	return row
}

// FormatBool renders a flag the way spreadsheets display it
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// ParseBool reads a spreadsheet flag. Blank cells count as def.
func ParseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return def
	case "true", "yes", "y", "1", "x":
		return true
	}
	return false
}
