package db

import (
	"context"

	"dance-rollcall/cache"
	"dance-rollcall/models"
	"dance-rollcall/sheets"
)

// --- Group Operations ---

// GetGroups returns every group in sheet order
func (s *SheetService) GetGroups(ctx context.Context) ([]models.Group, error) {
	return cached(ctx, s, cache.GroupsKey(), func() ([]models.Group, error) {
		return s.loadGroups(ctx)
	})
}

func (s *SheetService) loadGroups(ctx context.Context) ([]models.Group, error) {
	t, err := s.readTable(ctx, sheets.GroupsTable)
	if err != nil {
		return nil, err
	}
	groups := make([]models.Group, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		id := t.Get(i, "id")
		if id == "" {
			continue
		}
		groups = append(groups, models.Group{ID: id, Name: t.Get(i, "name")})
	}
	return groups, nil
}

// GroupExists checks whether groupID is listed in the Groups sheet
func (s *SheetService) GroupExists(ctx context.Context, groupID string) (bool, error) {
	groups, err := s.GetGroups(ctx)
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		if g.ID == groupID {
			return true, nil
		}
	}
	return false, nil
}

// --- Student Operations ---

// GetStudents returns the students of groupID ("" = every group).
// Inactive students are only included when showInactive is set.
func (s *SheetService) GetStudents(ctx context.Context, groupID string, showInactive bool) ([]models.Student, error) {
	return cached(ctx, s, cache.StudentsKey(groupID, showInactive), func() ([]models.Student, error) {
		return s.loadStudents(ctx, groupID, showInactive)
	})
}

func (s *SheetService) loadStudents(ctx context.Context, groupID string, showInactive bool) ([]models.Student, error) {
	t, err := s.readTable(ctx, sheets.StudentsTable)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		st := studentFromRow(t, i)
		if st.ID == "" {
			continue
		}
		if groupID != "" && st.GroupID != groupID {
			continue
		}
		if !showInactive && !st.Active {
			continue
		}
		students = append(students, st)
	}
	return students, nil
}

func studentFromRow(t *sheets.Table, i int) models.Student {
	return models.Student{
		ID:        t.Get(i, "id"),
		FirstName: t.Get(i, "first_name"),
		LastName:  t.Get(i, "last_name"),
		GroupID:   t.Get(i, "group_id"),
		Active:    sheets.ParseBool(t.Get(i, "active"), true),
		Class:     t.Get(i, "class"),
		Phone:     t.Get(i, "phone"),
	}
}

func studentRow(t *sheets.Table, st models.Student) []string {
	return t.Row(map[string]string{
		"id":         st.ID,
		"first_name": st.FirstName,
		"last_name":  st.LastName,
		"group_id":   st.GroupID,
		"active":     sheets.FormatBool(st.Active),
		"class":      st.Class,
		"phone":      st.Phone,
	})
}

// --- Instructor Operations ---

// GetInstructors returns every instructor
func (s *SheetService) GetInstructors(ctx context.Context) ([]models.Instructor, error) {
	return cached(ctx, s, cache.InstructorsKey(), func() ([]models.Instructor, error) {
		t, err := s.readTable(ctx, sheets.InstructorsTable)
		if err != nil {
			return nil, err
		}
		out := make([]models.Instructor, 0, t.Len())
		for i := 0; i < t.Len(); i++ {
			if id := t.Get(i, "id"); id != "" {
				out = append(out, models.Instructor{ID: id, Name: t.Get(i, "name")})
			}
		}
		return out, nil
	})
}

// GetInstructorGroups returns every instructor/group association
func (s *SheetService) GetInstructorGroups(ctx context.Context) ([]models.InstructorGroup, error) {
	return cached(ctx, s, cache.InstructorGroupsKey(), func() ([]models.InstructorGroup, error) {
		t, err := s.readTable(ctx, sheets.InstructorGroupsTable)
		if err != nil {
			return nil, err
		}
		out := make([]models.InstructorGroup, 0, t.Len())
		for i := 0; i < t.Len(); i++ {
			ig := models.InstructorGroup{
				InstructorID: t.Get(i, "instructor_id"),
				GroupID:      t.Get(i, "group_id"),
				Role:         t.Get(i, "role"),
			}
			if ig.InstructorID == "" || ig.GroupID == "" {
				continue
			}
			out = append(out, ig)
		}
		return out, nil
	})
}

// GetInstructorsForGroup returns the instructors teaching groupID with their role.
// Associations that point at unknown instructors are skipped.
func (s *SheetService) GetInstructorsForGroup(ctx context.Context, groupID string) ([]models.GroupInstructor, error) {
	if groupID == "" {
		return nil, invalidf("group ID is required")
	}
	return cached(ctx, s, cache.GroupInstructorsKey(groupID), func() ([]models.GroupInstructor, error) {
		instructors, err := s.GetInstructors(ctx)
		if err != nil {
			return nil, err
		}
		links, err := s.GetInstructorGroups(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]models.Instructor, len(instructors))
		for _, in := range instructors {
			byID[in.ID] = in
		}
		out := []models.GroupInstructor{}
		for _, l := range links {
			if l.GroupID != groupID {
				continue
			}
			in, ok := byID[l.InstructorID]
			if !ok {
				continue
			}
			out = append(out, models.GroupInstructor{Instructor: in, Role: l.Role})
		}
		return out, nil
	})
}
