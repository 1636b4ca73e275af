package db

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"dance-rollcall/cache"
	"dance-rollcall/models"
	"dance-rollcall/sheets"
)

func validateGroupDate(groupID, date string) (string, error) {
	if strings.TrimSpace(groupID) == "" {
		return "", invalidf("group ID is required")
	}
	if _, err := models.ParseDate(date); err != nil {
		return "", invalidf("date %q must be formatted YYYY-MM-DD", date)
	}
	return date, nil
}

func (s *SheetService) requireGroup(ctx context.Context, groupID string) error {
	exists, err := s.GroupExists(ctx, groupID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// sessionDate reads a Sessions date cell. Besides text dates it accepts the
// day serial a spreadsheet stores when the cell is formatted as a date.
func sessionDate(v string) (string, error) {
	if d, err := models.NormalizeDate(v); err == nil {
		return d, nil
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return "", fmt.Errorf("unrecognized date %q", v)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", fmt.Errorf("unrecognized date %q: %w", v, err)
	}
	return t.Format(models.DateLayout), nil
}

// findSession returns the session row of groupID on date, or -1
func findSession(t *sheets.Table, groupID, date string) (models.Session, int) {
	for i := 0; i < t.Len(); i++ {
		if t.Get(i, "group_id") != groupID {
			continue
		}
		d, err := sessionDate(t.Get(i, "date"))
		if err != nil {
			log.Printf("Row %d of sheet %s: %v. Skipping session %s.", i+2, t.Name, err, t.Get(i, "id"))
			continue
		}
		if d != date {
			continue
		}
		return models.Session{ID: t.Get(i, "id"), GroupID: groupID, Date: date}, i
	}
	return models.Session{}, -1
}

// sessionRecords indexes the attendance rows of sessionID by student ID.
// If a pair was stored twice the later row wins.
func sessionRecords(t *sheets.Table, sessionID string) map[string]int {
	idx := make(map[string]int)
	if sessionID == "" {
		return idx
	}
	for i := 0; i < t.Len(); i++ {
		if t.Get(i, "session_id") == sessionID {
			idx[t.Get(i, "student_id")] = i
		}
	}
	return idx
}

func recordFromRow(t *sheets.Table, i int) models.AttendanceRecord {
	rec := models.AttendanceRecord{
		SessionID: t.Get(i, "session_id"),
		StudentID: t.Get(i, "student_id"),
	}
	status, err := models.ParseStatus(t.Get(i, "status"))
	if err != nil {
		log.Printf("Row %d of sheet %s: %v. Treating as unmarked.", i+2, t.Name, err)
		status = models.StatusUnmarked
	}
	rec.Status = status
	if ts := t.Get(i, "updated_at"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.UpdatedAt = parsed
		}
	}
	return rec
}

// GetAttendance returns one entry per active student of groupID for date.
// Students without a stored record are reported as unmarked.
func (s *SheetService) GetAttendance(ctx context.Context, groupID, date string) (*models.AttendanceResponse, error) {
	date, err := validateGroupDate(groupID, date)
	if err != nil {
		return nil, err
	}
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.AttendanceKey(groupID, date), func() (*models.AttendanceResponse, error) {
		return s.loadAttendance(ctx, groupID, date)
	})
}

func (s *SheetService) loadAttendance(ctx context.Context, groupID, date string) (*models.AttendanceResponse, error) {
	students, err := s.loadStudents(ctx, groupID, false)
	if err != nil {
		return nil, err
	}
	sessions, err := s.readTable(ctx, sheets.SessionsTable)
	if err != nil {
		return nil, err
	}
	session, _ := findSession(sessions, groupID, date)

	resp := &models.AttendanceResponse{
		GroupID:   groupID,
		Date:      date,
		SessionID: session.ID,
		Records:   make([]models.AttendanceEntry, 0, len(students)),
	}

	var att *sheets.Table
	var idx map[string]int
	if session.ID != "" {
		att, err = s.readTable(ctx, sheets.AttendanceTable)
		if err != nil {
			return nil, err
		}
		idx = sessionRecords(att, session.ID)
	}

	for _, st := range students {
		entry := models.AttendanceEntry{
			StudentID: st.ID,
			FirstName: st.FirstName,
			LastName:  st.LastName,
			Class:     st.Class,
			Status:    models.StatusUnmarked,
		}
		if i, ok := idx[st.ID]; ok {
			rec := recordFromRow(att, i)
			entry.Status = rec.Status
			if !rec.UpdatedAt.IsZero() {
				ts := rec.UpdatedAt
				entry.UpdatedAt = &ts
			}
		}
		resp.Records = append(resp.Records, entry)
	}
	return resp, nil
}

// SaveAttendance upserts one status per (session, student) pair, creating
// the session row for (group, date) when it does not exist yet.
//
// Records are written independently: a failed record does not roll back the
// others. The response acknowledges every record individually.
func (s *SheetService) SaveAttendance(ctx context.Context, req models.SaveAttendanceRequest) (*models.SaveAttendanceResponse, error) {
	date, err := validateGroupDate(req.GroupID, req.Date)
	if err != nil {
		return nil, err
	}
	updates := make([]models.StatusUpdate, 0, len(req.Records))
	pos := make(map[string]int, len(req.Records))
	for _, r := range req.Records {
		if r.StudentID == "" {
			return nil, invalidf("student ID is required")
		}
		status, err := models.ParseStatus(string(r.Status))
		if err != nil {
			return nil, invalidf("%v", err)
		}
		// a student listed twice keeps the last status
		if p, ok := pos[r.StudentID]; ok {
			updates[p].Status = status
			continue
		}
		pos[r.StudentID] = len(updates)
		updates = append(updates, models.StatusUpdate{StudentID: r.StudentID, Status: status})
	}
	if err := s.requireGroup(ctx, req.GroupID); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, name := range []string{sheets.SessionsTable, sheets.AttendanceTable} {
		if err := s.Store.EnsureTable(ctx, name, sheets.Headers[name]); err != nil {
			return nil, upstream("ensure table "+name, err)
		}
	}

	session, created, err := s.findOrCreateSession(ctx, req.GroupID, date)
	if err != nil {
		return nil, err
	}

	// everything below changes stored rows, so stale reads must go even on failure
	defer func() {
		err := s.invalidate(ctx, func(ctx context.Context, c cache.Cache) error {
			return cache.InvalidateAttendance(ctx, c, req.GroupID, date)
		})
		if err != nil {
			log.Printf("Error invalidating cache for group %s on %s: %v", req.GroupID, date, err)
		}
	}()

	members, err := s.loadStudents(ctx, req.GroupID, true)
	if err != nil {
		return nil, err
	}
	inGroup := make(map[string]bool, len(members))
	for _, st := range members {
		inGroup[st.ID] = true
	}

	att, err := s.readTable(ctx, sheets.AttendanceTable)
	if err != nil {
		return nil, err
	}
	existing := sessionRecords(att, session.ID)
	stamp := s.Now().UTC().Format(time.RFC3339)

	resp := &models.SaveAttendanceResponse{
		GroupID:        req.GroupID,
		Date:           date,
		SessionID:      session.ID,
		SessionCreated: created,
		Records:        make([]models.RecordAck, len(updates)),
	}
	var appendRows [][]string
	var appendAcks []int
	for i, u := range updates {
		ack := &resp.Records[i]
		ack.StudentID = u.StudentID
		ack.Status = u.Status
		if !inGroup[u.StudentID] {
			ack.Error = "student is not enrolled in this group"
			continue
		}
		row := att.Row(map[string]string{
			"session_id": session.ID,
			"student_id": u.StudentID,
			"status":     string(u.Status),
			"updated_at": stamp,
		})
		if ri, ok := existing[u.StudentID]; ok {
			if err := s.Store.UpdateRow(ctx, sheets.AttendanceTable, ri, row); err != nil {
				log.Printf("Error updating attendance of student %s in session %s: %v", u.StudentID, session.ID, err)
				ack.Error = "failed to write record"
				continue
			}
			ack.OK = true
			continue
		}
		appendRows = append(appendRows, row)
		appendAcks = append(appendAcks, i)
	}

	if len(appendRows) > 0 {
		err := s.Store.AppendRows(ctx, sheets.AttendanceTable, appendRows)
		for _, i := range appendAcks {
			if err != nil {
				resp.Records[i].Error = "failed to write record"
				continue
			}
			resp.Records[i].OK = true
			resp.Records[i].Created = true
		}
		if err != nil {
			log.Printf("Error appending %d attendance records to session %s: %v", len(appendRows), session.ID, err)
		}
	}

	for _, ack := range resp.Records {
		if ack.OK {
			resp.Saved++
		} else {
			resp.Failed++
		}
	}
	log.Printf("Saved attendance for group %s on %s: %d ok, %d failed", req.GroupID, date, resp.Saved, resp.Failed)
	return resp, nil
}

func (s *SheetService) findOrCreateSession(ctx context.Context, groupID, date string) (models.Session, bool, error) {
	sessions, err := s.readTable(ctx, sheets.SessionsTable)
	if err != nil {
		return models.Session{}, false, err
	}
	if session, i := findSession(sessions, groupID, date); i >= 0 {
		return session, false, nil
	}

	session := models.Session{ID: s.NewID(), GroupID: groupID, Date: date}
	row := sessions.Row(map[string]string{"id": session.ID, "group_id": groupID, "date": date})
	if err := s.Store.AppendRows(ctx, sheets.SessionsTable, [][]string{row}); err != nil {
		log.Printf("Error creating session for group %s on %s: %v", groupID, date, err)
		return models.Session{}, false, upstream("create session", err)
	}
	log.Printf("Created session %s for group %s on %s", session.ID, groupID, date)
	return session, true, nil
}
