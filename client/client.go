// Package client is a Go client for the attendance API. Reads are kept in a
// cache keyed by resource identity; SaveAttendance invalidates the entries it
// makes stale so the next read goes back to the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dance-rollcall/cache"
	"dance-rollcall/models"
)

// Error is returned for any non-2xx response
type Error struct {
	Op         string // e.g. "fetch groups"
	StatusCode int
	Status     string // HTTP status text
}

func (e *Error) Error() string {
	return fmt.Sprintf("Failed to %s: %s", e.Op, e.Status)
}

// Client calls the attendance API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      cache.Cache
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithCache replaces the default in-memory cache; cache.Nop{} disables caching
func WithCache(cc cache.Cache) Option {
	return func(c *Client) { c.Cache = cc }
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080")
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Cache:      cache.NewMemory(5 * time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, dst interface{}) error {
	u := c.BaseURL + "/api" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// get serves key from the cache or fetches path and caches the result
func (c *Client) get(ctx context.Context, op, key, path string, query url.Values, dst interface{}) error {
	if ok, err := c.Cache.Get(ctx, key, dst); err == nil && ok {
		return nil
	}
	if err := c.do(ctx, op, http.MethodGet, path, query, nil, dst); err != nil {
		return err
	}
	_ = c.Cache.Set(ctx, key, dst)
	return nil
}

// Groups fetches every group
func (c *Client) Groups(ctx context.Context) ([]models.Group, error) {
	var out []models.Group
	err := c.get(ctx, "fetch groups", cache.GroupsKey(), "/groups", nil, &out)
	return out, err
}

// Students fetches the students of groupID ("" = all groups)
func (c *Client) Students(ctx context.Context, groupID string, showInactive bool) ([]models.Student, error) {
	q := url.Values{}
	if groupID != "" {
		q.Set("groupId", groupID)
	}
	if showInactive {
		q.Set("showInactive", strconv.FormatBool(showInactive))
	}
	var out []models.Student
	err := c.get(ctx, "fetch students", cache.StudentsKey(groupID, showInactive), "/students", q, &out)
	return out, err
}

// Attendance fetches the attendance of groupID on date (YYYY-MM-DD)
func (c *Client) Attendance(ctx context.Context, groupID, date string) (*models.AttendanceResponse, error) {
	q := url.Values{"groupId": {groupID}, "date": {date}}
	var out models.AttendanceResponse
	if err := c.get(ctx, "fetch attendance", cache.AttendanceKey(groupID, date), "/attendance", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveAttendance submits statuses and, on success, invalidates the
// attendance of that date and the group's student lists.
// A 207 reply is a success; check Failed for records that were not written.
func (c *Client) SaveAttendance(ctx context.Context, req models.SaveAttendanceRequest) (*models.SaveAttendanceResponse, error) {
	var out models.SaveAttendanceResponse
	if err := c.do(ctx, "save attendance", http.MethodPost, "/attendance", nil, req, &out); err != nil {
		return nil, err
	}
	if err := c.Invalidate(ctx, req.GroupID, req.Date); err != nil {
		return &out, err
	}
	return &out, nil
}

// Invalidate marks the attendance of groupID on date and the group's
// student queries as stale
func (c *Client) Invalidate(ctx context.Context, groupID, date string) error {
	return cache.InvalidateAttendance(ctx, c.Cache, groupID, date)
}

// Instructors fetches every instructor
func (c *Client) Instructors(ctx context.Context) ([]models.Instructor, error) {
	var out []models.Instructor
	err := c.get(ctx, "fetch instructors", cache.InstructorsKey(), "/instructors", nil, &out)
	return out, err
}

// InstructorGroups fetches every instructor/group association
func (c *Client) InstructorGroups(ctx context.Context) ([]models.InstructorGroup, error) {
	var out []models.InstructorGroup
	err := c.get(ctx, "fetch instructor groups", cache.InstructorGroupsKey(), "/instructor-groups", nil, &out)
	return out, err
}

// InstructorsForGroup fetches the instructors of groupID
func (c *Client) InstructorsForGroup(ctx context.Context, groupID string) ([]models.GroupInstructor, error) {
	var out []models.GroupInstructor
	err := c.get(ctx, "fetch instructors for group", cache.GroupInstructorsKey(groupID),
		"/instructors/group/"+url.PathEscape(groupID), nil, &out)
	return out, err
}

// AttendanceReport fetches the aggregate report; it is never cached
func (c *Client) AttendanceReport(ctx context.Context, groupID, from, to string) (*models.AttendanceReport, error) {
	q := url.Values{"groupId": {groupID}}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	var out models.AttendanceReport
	if err := c.do(ctx, "fetch attendance report", http.MethodGet, "/reports/attendance", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
