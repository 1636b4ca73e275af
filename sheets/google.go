package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// GoogleStore reads and writes a hosted Google spreadsheet through the Sheets API
type GoogleStore struct {
	Service       *gsheets.Service
	SpreadsheetID string
}

// NewGoogleStore creates a store for spreadsheetID. credentialsFile may be
// empty, in which case application default credentials are used.
func NewGoogleStore(ctx context.Context, spreadsheetID, credentialsFile string) (*GoogleStore, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet ID cannot be empty")
	}
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &GoogleStore{Service: srv, SpreadsheetID: spreadsheetID}, nil
}

func quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ReadTable fetches every populated row of the sheet
func (s *GoogleStore) ReadTable(ctx context.Context, name string) (*Table, error) {
	vr, err := s.Service.Spreadsheets.Values.Get(s.SpreadsheetID, quote(name)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, s.wrap(name, "read", err)
	}
	rows := make([][]string, 0, len(vr.Values))
	for _, raw := range vr.Values {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return NewTable(name, nil, nil), nil
	}
	return NewTable(name, rows[0], rows[1:]), nil
}

// cellString renders an unformatted cell value. Numbers arrive as float64
// and must not turn into exponent notation.
func cellString(v interface{}) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}

// AppendRows appends rows in a single API call
func (s *GoogleStore) AppendRows(ctx context.Context, name string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := s.Service.Spreadsheets.Values.
		Append(s.SpreadsheetID, quote(name)+"!A1", &gsheets.ValueRange{Values: toValues(rows)}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return s.wrap(name, "append to", err)
	}
	return nil
}

// UpdateRow overwrites data row index (0-based, header excluded)
func (s *GoogleStore) UpdateRow(ctx context.Context, name string, index int, row []string) error {
	if index < 0 {
		return fmt.Errorf("invalid row index %d", index)
	}
	rng := fmt.Sprintf("%s!A%d", quote(name), index+2)
	_, err := s.Service.Spreadsheets.Values.
		Update(s.SpreadsheetID, rng, &gsheets.ValueRange{Values: toValues([][]string{row})}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return s.wrap(name, "update", err)
	}
	return nil
}

// EnsureTable adds the sheet and writes its header when it is missing
func (s *GoogleStore) EnsureTable(ctx context.Context, name string, header []string) error {
	ss, err := s.Service.Spreadsheets.Get(s.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet %s: %w", s.SpreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return nil
		}
	}
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: name}},
		}},
	}
	if _, err := s.Service.Spreadsheets.BatchUpdate(s.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}
	_, err = s.Service.Spreadsheets.Values.
		Update(s.SpreadsheetID, quote(name)+"!A1", &gsheets.ValueRange{Values: toValues([][]string{header})}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return s.wrap(name, "write header of", err)
	}
	return nil
}

// wrap maps the "Unable to parse range" reply for unknown sheets to ErrTableNotFound
func (s *GoogleStore) wrap(name, op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range") {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return fmt.Errorf("failed to %s sheet %s: %w", op, name, err)
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}
