package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"present", StatusPresent, false},
		{" Absent ", StatusAbsent, false},
		{"EXCUSED", StatusExcused, false},
		{"", StatusUnmarked, false},
		{"unmarked", StatusUnmarked, false},
		{"late", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-09-02", "2024-09-02", false},
		{"2024-09-02T00:00:00Z", "2024-09-02", false},
		{"2024-09-02 18:00", "2024-09-02", false},
		{"02/09/2024", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
