package models

import "time"

// Group represents a class group (cohort) of the school
type Group struct {
	ID   string `json:"id"`   // Unique group ID
	Name string `json:"name"` // Display name
}

// Student represents an enrolled student
type Student struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	GroupID   string `json:"groupId"` // ID of the group the student belongs to
	Active    bool   `json:"active"`
	Class     string `json:"class"` // Free-form class label, e.g. "Ballet 2"
	Phone     string `json:"phone"`
}

// Instructor represents a teacher
type Instructor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InstructorGroup links an instructor to a group, optionally with a role
type InstructorGroup struct {
	InstructorID string `json:"instructorId"`
	GroupID      string `json:"groupId"`
	Role         string `json:"role,omitempty"`
}

// GroupInstructor is an instructor as seen from one group
type GroupInstructor struct {
	Instructor
	Role string `json:"role,omitempty"`
}

// Session is one dated occurrence of a group's class
type Session struct {
	ID      string `json:"id"`
	GroupID string `json:"groupId"`
	Date    string `json:"date"` // YYYY-MM-DD
}

// AttendanceRecord is the status of one student for one session
type AttendanceRecord struct {
	SessionID string    `json:"sessionId"`
	StudentID string    `json:"studentId"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}
