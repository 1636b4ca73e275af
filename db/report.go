package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/xuri/excelize/v2"

	"dance-rollcall/models"
	"dance-rollcall/sheets"
)

// AttendanceReport aggregates the attendance of groupID over the sessions
// dated within [from, to]. Either bound may be empty.
func (s *SheetService) AttendanceReport(ctx context.Context, groupID, from, to string) (*models.AttendanceReport, error) {
	if groupID == "" {
		return nil, invalidf("group ID is required")
	}
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := models.ParseDate(d); err != nil {
			return nil, invalidf("date %q must be formatted YYYY-MM-DD", d)
		}
	}
	if from != "" && to != "" && from > to {
		return nil, invalidf("from %s is after to %s", from, to)
	}
	if err := s.requireGroup(ctx, groupID); err != nil {
		return nil, err
	}

	st, err := s.readTable(ctx, sheets.SessionsTable)
	if err != nil {
		return nil, err
	}
	sessions := []models.Session{}
	inRange := make(map[string]bool)
	for i := 0; i < st.Len(); i++ {
		if st.Get(i, "group_id") != groupID {
			continue
		}
		d, err := sessionDate(st.Get(i, "date"))
		if err != nil {
			log.Printf("Row %d of sheet %s: %v. Leaving it out of the report.", i+2, st.Name, err)
			continue
		}
		if (from != "" && d < from) || (to != "" && d > to) {
			continue
		}
		sess := models.Session{ID: st.Get(i, "id"), GroupID: groupID, Date: d}
		sessions = append(sessions, sess)
		inRange[sess.ID] = true
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Date < sessions[j].Date })

	// status per student per session
	marks := make(map[string]map[string]models.Status)
	if len(sessions) > 0 {
		att, err := s.readTable(ctx, sheets.AttendanceTable)
		if err != nil {
			return nil, err
		}
		for i := 0; i < att.Len(); i++ {
			rec := recordFromRow(att, i)
			if !inRange[rec.SessionID] {
				continue
			}
			if marks[rec.StudentID] == nil {
				marks[rec.StudentID] = make(map[string]models.Status)
			}
			marks[rec.StudentID][rec.SessionID] = rec.Status
		}
	}

	students, err := s.loadStudents(ctx, groupID, true)
	if err != nil {
		return nil, err
	}
	rep := &models.AttendanceReport{
		GroupID:  groupID,
		From:     from,
		To:       to,
		Sessions: sessions,
		Students: []models.StudentSummary{},
	}
	for _, stu := range students {
		// inactive students only show up if they were marked in range
		if !stu.Active && len(marks[stu.ID]) == 0 {
			continue
		}
		sum := models.StudentSummary{
			StudentID: stu.ID,
			FirstName: stu.FirstName,
			LastName:  stu.LastName,
			Counts:    make(map[models.Status]int, len(models.Statuses)),
		}
		for _, status := range models.Statuses {
			sum.Counts[status] = 0
		}
		for _, sess := range sessions {
			status, ok := marks[stu.ID][sess.ID]
			if !ok {
				status = models.StatusUnmarked
			}
			sum.Counts[status]++
			if status != models.StatusUnmarked {
				sum.Marked++
			}
		}
		if sum.Marked > 0 {
			sum.Rate = float64(sum.Counts[models.StatusPresent]) / float64(sum.Marked)
		}
		rep.Students = append(rep.Students, sum)
	}
	return rep, nil
}

// WriteReportXLSX renders rep as a workbook with a summary sheet
func WriteReportXLSX(rep *models.AttendanceReport, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Attendance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name report sheet: %w", err)
	}

	header := []interface{}{"Student ID", "First name", "Last name"}
	for _, status := range models.Statuses {
		header = append(header, string(status))
	}
	header = append(header, "Marked", "Rate")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, sum := range rep.Students {
		row := []interface{}{sum.StudentID, sum.FirstName, sum.LastName}
		for _, status := range models.Statuses {
			row = append(row, sum.Counts[status])
		}
		row = append(row, sum.Marked, sum.Rate)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", i+2, err)
		}
	}

	rateCol, _ := excelize.ColumnNumberToName(len(header))
	if len(rep.Students) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
		if err == nil {
			_ = f.SetCellStyle(sheet, rateCol+"2", fmt.Sprintf("%s%d", rateCol, len(rep.Students)+1), style)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}
	return nil
}
