package engine

import (
	"math/rand"
	"sort"
)

// MaxAttempts bounds the randomized restart budget for a generation run.
const MaxAttempts = 50

// Load-spread scoring: placing a class on a day where the student has fewer
// than two classes is rewarded, stacking onto a busier day is mildly
// penalised.
const (
	lightDayReward   = -5
	stackedDayCharge = 2
)

// Placement locates a course on the weekly grid. Room is a display label
// only.
type Placement struct {
	Day  Day
	Slot Slot
	Room string
}

// Assignment maps subject names to their placements.
type Assignment map[string]Placement

// Result is the outcome of a generation run. The engine never fails hard: an
// unsatisfiable or budget-exhausted run still carries the final attempt's
// partial assignment, with FullyPlaced false and the missing subjects listed.
type Result struct {
	Assignment  Assignment
	FullyPlaced bool
	Unplaced    []string
	Attempts    int
}

// studentState tracks, per student, the slots already occupied on each day of
// a single attempt. Rebuilt from scratch at every attempt boundary.
type studentState map[StudentID]map[Day][]Slot

func (st studentState) occupied(id StudentID, day Day) []Slot {
	return st[id][day]
}

func (st studentState) commit(id StudentID, day Day, slot Slot) {
	days := st[id]
	if days == nil {
		days = make(map[Day][]Slot)
		st[id] = days
	}
	days[day] = append(days[day], slot)
}

// Generate runs the randomized greedy search over the roster. The caller owns
// the random source; a fixed seed yields an identical Result. The input
// roster is never mutated.
func Generate(rng *rand.Rand, roster Roster) Result {
	if len(roster) == 0 {
		return Result{Assignment: Assignment{}, FullyPlaced: true}
	}

	subjects := roster.Subjects()
	sort.Strings(subjects) // stable base order so seeded runs reproduce

	var last Result
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		last = runAttempt(rng, roster, subjects)
		last.Attempts = attempt
		if last.FullyPlaced {
			return last
		}
	}
	return last
}

// runAttempt performs one full randomized pass. It aborts at the first course
// that has no feasible candidate, returning the partial assignment built so
// far.
func runAttempt(rng *rand.Rand, roster Roster, subjects []string) Result {
	order := make([]string, len(subjects))
	copy(order, subjects)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	state := make(studentState, 64)
	assignment := make(Assignment, len(order))

	for idx, subject := range order {
		course := roster[subject]
		best, ok := bestCandidate(rng, state, course)
		if !ok {
			return Result{
				Assignment:  assignment,
				FullyPlaced: false,
				Unplaced:    unplacedAfter(order, idx),
			}
		}
		for id := range course.Students {
			state.commit(id, best.Day, best.Slot)
		}
		assignment[subject] = Placement{
			Day:  best.Day,
			Slot: best.Slot,
			Room: Rooms[rng.Intn(len(Rooms))],
		}
	}
	return Result{Assignment: assignment, FullyPlaced: true}
}

// bestCandidate scans the shuffled 5x4 grid and picks the feasible candidate
// with the lowest load-spread penalty. Ties go to the first candidate seen,
// which the shuffle makes effectively random.
func bestCandidate(rng *rand.Rand, state studentState, course Course) (candidate, bool) {
	candidates := allCandidates()
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	var best candidate
	bestPenalty := 0
	found := false
	for _, cand := range candidates {
		penalty, feasible := scoreCandidate(state, course, cand)
		if !feasible {
			continue
		}
		if !found || penalty < bestPenalty {
			best = cand
			bestPenalty = penalty
			found = true
		}
	}
	return best, found
}

// scoreCandidate applies the hard rules (no clash, daily cap) and the
// load-spread penalty against every enrolled student.
func scoreCandidate(state studentState, course Course, cand candidate) (int, bool) {
	penalty := 0
	for id := range course.Students {
		occupied := state.occupied(id, cand.Day)
		for _, slot := range occupied {
			if slot == cand.Slot {
				return 0, false
			}
		}
		if len(occupied) >= MaxDailyClasses {
			return 0, false
		}
		if len(occupied) < 2 {
			penalty += lightDayReward
		} else {
			penalty += stackedDayCharge
		}
	}
	return penalty, true
}

func unplacedAfter(order []string, failedAt int) []string {
	out := make([]string, 0, len(order)-failedAt)
	out = append(out, order[failedAt:]...)
	sort.Strings(out)
	return out
}
