package engine

import "strings"

// StudentID is the normalised identity key for a student. Two records refer
// to the same student exactly when their normalised IDs are equal.
type StudentID string

// NormalizeStudentID trims and uppercases a raw roll number into the
// canonical StudentID form.
func NormalizeStudentID(raw string) StudentID {
	return StudentID(strings.ToUpper(strings.TrimSpace(raw)))
}

// Course is a schedulable unit: a subject, its faculty label and the set of
// enrolled students. Immutable for the duration of a generation run.
type Course struct {
	Subject  string
	Faculty  string
	Students map[StudentID]struct{}
}

// Roster maps subject names to their courses.
type Roster map[string]Course

// NewCourse builds a course from raw student identifiers.
func NewCourse(subject, faculty string, studentIDs []string) Course {
	students := make(map[StudentID]struct{}, len(studentIDs))
	for _, raw := range studentIDs {
		id := NormalizeStudentID(raw)
		if id == "" {
			continue
		}
		students[id] = struct{}{}
	}
	if faculty == "" {
		faculty = "Unknown"
	}
	return Course{Subject: subject, Faculty: faculty, Students: students}
}

// Add registers a course in the roster.
func (r Roster) Add(c Course) {
	r[c.Subject] = c
}

// Subjects returns the subject names in the roster in unspecified order.
func (r Roster) Subjects() []string {
	out := make([]string, 0, len(r))
	for subject := range r {
		out = append(out, subject)
	}
	return out
}

// SubjectsOf returns the subjects a student is enrolled in.
func (r Roster) SubjectsOf(id StudentID) []string {
	var out []string
	for subject, course := range r {
		if _, ok := course.Students[id]; ok {
			out = append(out, subject)
		}
	}
	return out
}
