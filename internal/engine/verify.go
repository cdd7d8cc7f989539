package engine

import "fmt"

// Violation describes a broken hard rule found by Verify.
type Violation struct {
	Student StudentID
	Day     Day
	Reason  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s on %s: %s", v.Student, v.Day, v.Reason)
}

// Verify independently checks an assignment against the hard rules: no
// student attends two courses in the same (day, slot) and no student exceeds
// the daily cap. The engine's best-effort contract means callers that need a
// correctness guarantee must run this themselves.
func Verify(roster Roster, assignment Assignment) []Violation {
	students := make(map[StudentID]struct{})
	for _, course := range roster {
		for id := range course.Students {
			students[id] = struct{}{}
		}
	}

	var violations []Violation
	for id := range students {
		attended := make(map[Day][]Slot)
		for _, subject := range roster.SubjectsOf(id) {
			placement, ok := assignment[subject]
			if !ok {
				continue
			}
			attended[placement.Day] = append(attended[placement.Day], placement.Slot)
		}

		for day, slots := range attended {
			seen := make(map[Slot]bool, len(slots))
			for _, slot := range slots {
				if seen[slot] {
					violations = append(violations, Violation{
						Student: id,
						Day:     day,
						Reason:  fmt.Sprintf("slot %q attended more than once", slot),
					})
				}
				seen[slot] = true
			}
			if len(slots) > MaxDailyClasses {
				violations = append(violations, Violation{
					Student: id,
					Day:     day,
					Reason:  fmt.Sprintf("%d classes exceeds the daily cap of %d", len(slots), MaxDailyClasses),
				})
			}
		}
	}
	return violations
}
