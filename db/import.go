package db

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/xuri/excelize/v2"

	"dance-rollcall/cache"
	"dance-rollcall/models"
	"dance-rollcall/sheets"
)

// ImportStudentsFromExcel reads an Excel file stream and adds (or updates)
// the students it lists in groupID. Columns: A id, B first name, C last name,
// D class, E phone. The first row is a header. A missing group is created.
func (s *SheetService) ImportStudentsFromExcel(ctx context.Context, file io.Reader, groupID string) (int, error) {
	if groupID == "" {
		return 0, invalidf("group ID is required")
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		log.Printf("Error opening Excel reader: %v", err)
		return 0, invalidf("failed to open excel file: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, invalidf("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return 0, invalidf("failed to get rows from sheet %s: %v", sheetName, err)
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	var toImport []models.Student
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		st := models.Student{
			ID:        cell(row, 0),
			FirstName: cell(row, 1),
			LastName:  cell(row, 2),
			GroupID:   groupID,
			Active:    true,
			Class:     cell(row, 3),
			Phone:     cell(row, 4),
		}
		if st.ID == "" || st.FirstName == "" {
			log.Printf("Skipping row %d due to missing ID or first name (ID: '%s', Name: '%s')", i+1, st.ID, st.FirstName)
			continue
		}
		toImport = append(toImport, st)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.EnsureTables(ctx); err != nil {
		return 0, err
	}
	if err := s.ensureGroup(ctx, groupID); err != nil {
		return 0, err
	}

	t, err := s.readTable(ctx, sheets.StudentsTable)
	if err != nil {
		return 0, err
	}
	existing := make(map[string]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		existing[t.Get(i, "id")] = i
	}

	// groups whose roster changes: the target and every group a moved
	// student leaves
	touched := map[string]bool{groupID: true}
	defer func() {
		err := s.invalidate(ctx, func(ctx context.Context, c cache.Cache) error {
			for g := range touched {
				if err := cache.InvalidateGroup(ctx, c, g); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("Error invalidating cache after importing into group %s: %v", groupID, err)
		}
	}()

	imported := 0
	var appendRows [][]string
	for _, st := range toImport {
		if ri, ok := existing[st.ID]; ok {
			if ri < 0 {
				log.Printf("Skipping duplicate student %s in import file", st.ID)
				continue
			}
			existing[st.ID] = -1
			previous := t.Get(ri, "group_id")
			if err := s.Store.UpdateRow(ctx, sheets.StudentsTable, ri, studentRow(t, st)); err != nil {
				log.Printf("Error updating student %s during import: %v", st.ID, err)
				continue
			}
			touched[previous] = true
			imported++
			continue
		}
		existing[st.ID] = -1 // a duplicate later in the file is dropped
		appendRows = append(appendRows, studentRow(t, st))
	}
	if len(appendRows) > 0 {
		if err := s.Store.AppendRows(ctx, sheets.StudentsTable, appendRows); err != nil {
			log.Printf("Error appending %d students during import: %v", len(appendRows), err)
			return imported, upstream("append students", err)
		}
		imported += len(appendRows)
	}

	log.Printf("Successfully imported %d students into group %s", imported, groupID)
	return imported, nil
}

func (s *SheetService) ensureGroup(ctx context.Context, groupID string) error {
	groups, err := s.loadGroups(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if g.ID == groupID {
			return nil
		}
	}
	log.Printf("Import target group %s does not exist. Creating it.", groupID)
	t, err := s.readTable(ctx, sheets.GroupsTable)
	if err != nil {
		return err
	}
	row := t.Row(map[string]string{"id": groupID, "name": "Imported group " + groupID})
	if err := s.Store.AppendRows(ctx, sheets.GroupsTable, [][]string{row}); err != nil {
		return upstream("create group", fmt.Errorf("target group %s does not exist and failed to create it: %w", groupID, err))
	}
	err = s.invalidate(ctx, func(ctx context.Context, c cache.Cache) error {
		return c.Delete(ctx, cache.GroupsKey())
	})
	if err != nil {
		log.Printf("Error invalidating groups: %v", err)
	}
	return nil
}
