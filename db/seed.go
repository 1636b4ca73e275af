package db

import (
	"context"
	"log"

	"dance-rollcall/cache"
	"dance-rollcall/sheets"
)

// SeedTables is the order sample tables are written in
var SeedTables = []string{
	sheets.GroupsTable,
	sheets.StudentsTable,
	sheets.InstructorsTable,
	sheets.InstructorGroupsTable,
	sheets.SessionsTable,
	sheets.AttendanceTable,
}

// SampleData returns demo rows for every table, laid out per sheets.Headers
func SampleData() map[string][][]string {
	return map[string][][]string{
		sheets.GroupsTable: {
			{"G_BALLET_KIDS", "Ballet Kids (Mon/Wed)"},
			{"G_HIPHOP_TEENS", "Hip-Hop Teens (Tue/Thu)"},
		},
		sheets.StudentsTable: {
			{"S001", "Mia", "Novak", "G_BALLET_KIDS", "TRUE", "Ballet 1", "555-0101"},
			{"S002", "Lena", "Horvat", "G_BALLET_KIDS", "TRUE", "Ballet 1", "555-0102"},
			{"S003", "Ivo", "Kovac", "G_BALLET_KIDS", "FALSE", "Ballet 1", ""},
			{"S004", "Sara", "Babic", "G_HIPHOP_TEENS", "TRUE", "Hip-Hop 2", "555-0104"},
			{"S005", "Luka", "Maric", "G_HIPHOP_TEENS", "TRUE", "Hip-Hop 2", "555-0105"},
		},
		sheets.InstructorsTable: {
			{"I01", "Ana Petrovic"},
			{"I02", "Marko Juric"},
		},
		sheets.InstructorGroupsTable: {
			{"I01", "G_BALLET_KIDS", "lead"},
			{"I02", "G_HIPHOP_TEENS", "lead"},
			{"I01", "G_HIPHOP_TEENS", "assistant"},
		},
		sheets.SessionsTable: {
			{"SES_0001", "G_BALLET_KIDS", "2024-09-02"},
		},
		sheets.AttendanceTable: {
			{"SES_0001", "S001", "present", "2024-09-02T18:05:00Z"},
			{"SES_0001", "S002", "excused", "2024-09-02T18:05:00Z"},
		},
	}
}

// SeedIfEmpty fills the spreadsheet with SampleData when it has no groups
func (s *SheetService) SeedIfEmpty(ctx context.Context) error {
	if err := s.EnsureTables(ctx); err != nil {
		return err
	}
	groups, err := s.loadGroups(ctx)
	if err != nil {
		log.Printf("Warning: could not check for existing groups: %v. Skipping seed data.", err)
		return err
	}
	if len(groups) > 0 {
		log.Printf("Found %d existing groups. Skipping seed data.", len(groups))
		return nil
	}

	log.Println("No groups found. Adding initial test data...")
	data := SampleData()
	for _, name := range SeedTables {
		if err := s.Store.AppendRows(ctx, name, data[name]); err != nil {
			log.Printf("Error seeding sheet %s: %v", name, err)
			return upstream("seed "+name, err)
		}
	}
	err = s.invalidate(ctx, func(ctx context.Context, c cache.Cache) error {
		return c.Delete(ctx,
			cache.GroupsKey(),
			cache.InstructorsKey(),
			cache.InstructorGroupsKey(),
			cache.StudentsKey("", false),
			cache.StudentsKey("", true),
		)
	})
	if err != nil {
		log.Printf("Error invalidating cache after seeding: %v", err)
	}
	log.Println("Initial test data added.")
	return nil
}
