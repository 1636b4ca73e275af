package models

import "time"

// AttendanceEntry is one student's row in the attendance sheet for a date
type AttendanceEntry struct {
	StudentID string     `json:"studentId"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Class     string     `json:"class,omitempty"`
	Status    Status     `json:"status"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"` // nil when unmarked and never saved
}

// AttendanceResponse is returned by GET /api/attendance
type AttendanceResponse struct {
	GroupID   string            `json:"groupId"`
	Date      string            `json:"date"`
	SessionID string            `json:"sessionId,omitempty"` // empty until the first save
	Records   []AttendanceEntry `json:"records"`
}

// StatusUpdate is one submitted status in a save request
type StatusUpdate struct {
	StudentID string `json:"studentId" binding:"required"`
	Status    Status `json:"status" binding:"required,oneof=present absent excused unmarked"`
}

// SaveAttendanceRequest is the body of POST /api/attendance
type SaveAttendanceRequest struct {
	GroupID string         `json:"groupId" binding:"required"`
	Date    string         `json:"date" binding:"required,datetime=2006-01-02"`
	Records []StatusUpdate `json:"records" binding:"required,dive"`
}

// RecordAck acknowledges the write of a single record
type RecordAck struct {
	StudentID string `json:"studentId"`
	Status    Status `json:"status"`
	OK        bool   `json:"ok"`
	Created   bool   `json:"created,omitempty"` // a new row was appended rather than overwritten
	Error     string `json:"error,omitempty"`
}

// SaveAttendanceResponse is returned by POST /api/attendance
type SaveAttendanceResponse struct {
	GroupID        string      `json:"groupId"`
	Date           string      `json:"date"`
	SessionID      string      `json:"sessionId"`
	SessionCreated bool        `json:"sessionCreated"`
	Saved          int         `json:"saved"`
	Failed         int         `json:"failed"`
	Records        []RecordAck `json:"records"`
}

// StudentSummary aggregates a student's attendance over a date range
type StudentSummary struct {
	StudentID string         `json:"studentId"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Counts    map[Status]int `json:"counts"`
	Marked    int            `json:"marked"` // sessions with a status other than unmarked
	Rate      float64        `json:"rate"`   // present / marked, 0 when nothing is marked
}

// AttendanceReport is returned by GET /api/reports/attendance
type AttendanceReport struct {
	GroupID  string           `json:"groupId"`
	From     string           `json:"from,omitempty"`
	To       string           `json:"to,omitempty"`
	Sessions []Session        `json:"sessions"`
	Students []StudentSummary `json:"students"`
}
