package models

import "time"

// DateLayout is the only accepted date format (matches HTML date inputs)
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string
func ParseDate(v string) (time.Time, error) {
	return time.Parse(DateLayout, v)
}

// NormalizeDate returns v in canonical YYYY-MM-DD form.
// Spreadsheets sometimes hand back dates with a time part attached.
func NormalizeDate(v string) (string, error) {
	if len(v) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.Format(DateLayout), nil
		}
		v = v[:len(DateLayout)]
	}
	t, err := ParseDate(v)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
