package engine

// Day is one of the five teaching weekdays, ordered by calendar position.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Days lists the teaching week in calendar order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// String returns the display name of the day.
func (d Day) String() string {
	if d < Monday || d > Friday {
		return "Unknown"
	}
	return dayNames[d]
}

// ParseDay resolves a display name back to a Day. The second return value
// reports whether the name was recognised.
func ParseDay(name string) (Day, bool) {
	for i, n := range dayNames {
		if n == name {
			return Day(i), true
		}
	}
	return 0, false
}

// Slot is an opaque teaching window label. Its text carries no scheduling
// semantics beyond equality and display.
type Slot string

// Slots lists the four daily teaching windows in chronological order.
var Slots = []Slot{
	"09:00 AM - 10:30 AM",
	"11:00 AM - 12:30 PM",
	"02:00 PM - 03:30 PM",
	"04:00 PM - 05:30 PM",
}

// SlotIndex returns the chronological position of a slot, or -1 when the
// label is not part of the calendar.
func SlotIndex(s Slot) int {
	for i, slot := range Slots {
		if slot == s {
			return i
		}
	}
	return -1
}

// Rooms is the display-only room pool. Rooms are not scheduled resources:
// any label is valid and collisions are not checked.
var Rooms = []string{"CR-1", "CR-2", "CR-3", "CR-4", "CR-5", "CR-6", "CR-7", "CR-8"}

// MaxDailyClasses caps the number of classes a student may attend per day.
const MaxDailyClasses = 4

// candidate is one (day, slot) placement option.
type candidate struct {
	Day  Day
	Slot Slot
}

// allCandidates enumerates the full 5x4 day/slot cross product.
func allCandidates() []candidate {
	out := make([]candidate, 0, len(Days)*len(Slots))
	for _, d := range Days {
		for _, s := range Slots {
			out = append(out, candidate{Day: d, Slot: s})
		}
	}
	return out
}
