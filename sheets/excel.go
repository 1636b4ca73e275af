package sheets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

// ExcelStore keeps all tables in one local .xlsx workbook.
// The workbook is written back to disk after every change.
type ExcelStore struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// OpenExcelStore opens the workbook at path, creating an empty one if it does not exist
func OpenExcelStore(path string) (*ExcelStore, error) {
	var f *excelize.File
	if _, err := os.Stat(path); err == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Printf("Workbook %s does not exist. Creating it.", path)
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("failed to create workbook %s: %w", path, err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat workbook %s: %w", path, err)
	}
	return &ExcelStore{path: path, file: f}, nil
}

// Close releases the workbook
func (s *ExcelStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *ExcelStore) hasSheet(name string) bool {
	idx, err := s.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// ReadTable returns a snapshot of the sheet
func (s *ExcelStore) ReadTable(_ context.Context, name string) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasSheet(name) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	// raw values keep date-formatted cells as day serials instead of
	// whatever the cell's number format renders
	rows, err := s.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", name, err)
	}
	if len(rows) == 0 {
		return NewTable(name, nil, nil), nil
	}
	return NewTable(name, rows[0], rows[1:]), nil
}

// AppendRows writes rows after the last non-empty row of the sheet
func (s *ExcelStore) AppendRows(_ context.Context, name string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasSheet(name) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	existing, err := s.file.GetRows(name)
	if err != nil {
		return fmt.Errorf("failed to get rows from sheet %s: %w", name, err)
	}
	next := len(existing) + 1
	for i, row := range rows {
		if err := s.setRow(name, next+i, row); err != nil {
			return err
		}
	}
	return s.save()
}

// UpdateRow overwrites data row index (0-based, header excluded)
func (s *ExcelStore) UpdateRow(_ context.Context, name string, index int, row []string) error {
	if index < 0 {
		return fmt.Errorf("invalid row index %d", index)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasSheet(name) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err := s.setRow(name, index+2, row); err != nil {
		return err
	}
	return s.save()
}

// EnsureTable creates the sheet with header when it is missing.
// The default "Sheet1" of a fresh workbook is dropped once a real table exists.
func (s *ExcelStore) EnsureTable(_ context.Context, name string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasSheet(name) {
		return nil
	}
	if _, err := s.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	if err := s.setRow(name, 1, header); err != nil {
		return err
	}
	if name != "Sheet1" && s.hasSheet("Sheet1") {
		rows, err := s.file.GetRows("Sheet1")
		if err == nil && len(rows) == 0 {
			if err := s.file.DeleteSheet("Sheet1"); err != nil {
				log.Printf("Error removing default sheet: %v", err)
			}
		}
	}
	log.Printf("Created sheet %s", name)
	return s.save()
}

func (s *ExcelStore) setRow(name string, rowNum int, row []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	if err := s.file.SetSheetRow(name, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of sheet %s: %w", rowNum, name, err)
	}
	return nil
}

func (s *ExcelStore) save() error {
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", s.path, err)
	}
	return nil
}
