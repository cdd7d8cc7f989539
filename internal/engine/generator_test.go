package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoster(courses map[string][]string) Roster {
	roster := make(Roster, len(courses))
	for subject, students := range courses {
		roster.Add(NewCourse(subject, "Dr. Rao", students))
	}
	return roster
}

func TestGenerateEmptyRoster(t *testing.T) {
	result := Generate(rand.New(rand.NewSource(1)), Roster{})
	require.True(t, result.FullyPlaced)
	assert.Empty(t, result.Assignment)
	assert.Empty(t, result.Unplaced)
}

func TestGeneratePlacesEveryCourse(t *testing.T) {
	roster := newTestRoster(map[string][]string{
		"Operations Research": {"H001-24", "H002-24"},
		"Statistics":          {"H001-24", "H003-24"},
		"Economics":           {"H002-24", "H003-24"},
		"Marketing":           {"H004-24"},
	})

	result := Generate(rand.New(rand.NewSource(7)), roster)
	require.True(t, result.FullyPlaced)
	require.Len(t, result.Assignment, 4)
	assert.Empty(t, Verify(roster, result.Assignment))
}

func TestGenerateSharedStudentNeverClashes(t *testing.T) {
	roster := newTestRoster(map[string][]string{
		"MathA": {"S1", "S2"},
		"MathB": {"S1", "S3"},
	})

	for seed := int64(0); seed < 20; seed++ {
		result := Generate(rand.New(rand.NewSource(seed)), roster)
		require.True(t, result.FullyPlaced, "seed %d", seed)

		a := result.Assignment["MathA"]
		b := result.Assignment["MathB"]
		if a.Day == b.Day {
			assert.NotEqual(t, a.Slot, b.Slot, "seed %d: S1 double-booked", seed)
		}
		assert.Empty(t, Verify(roster, result.Assignment), "seed %d", seed)
	}
}

func TestGenerateSpreadsSingletonCoursesAcrossDays(t *testing.T) {
	// Five singleton courses for one student cannot fit a single day under
	// the 4-class cap, so at least two days must be used.
	roster := newTestRoster(map[string][]string{
		"C1": {"S1"}, "C2": {"S1"}, "C3": {"S1"}, "C4": {"S1"}, "C5": {"S1"},
	})

	result := Generate(rand.New(rand.NewSource(11)), roster)
	require.True(t, result.FullyPlaced)

	days := make(map[Day]int)
	for _, placement := range result.Assignment {
		days[placement.Day]++
	}
	assert.GreaterOrEqual(t, len(days), 2)
	for day, count := range days {
		assert.LessOrEqual(t, count, MaxDailyClasses, "day %s over cap", day)
	}
}

func TestGenerateDeterministicUnderFixedSeed(t *testing.T) {
	roster := newTestRoster(map[string][]string{
		"Operations Research": {"H001-24", "H002-24"},
		"Statistics":          {"H001-24"},
		"Economics":           {"H002-24"},
	})

	first := Generate(rand.New(rand.NewSource(42)), roster)
	second := Generate(rand.New(rand.NewSource(42)), roster)
	assert.Equal(t, first, second)
}

func TestGenerateDoesNotMutateRoster(t *testing.T) {
	roster := newTestRoster(map[string][]string{"Stats": {"S1", "S2"}})
	Generate(rand.New(rand.NewSource(3)), roster)

	course := roster["Stats"]
	assert.Len(t, course.Students, 2)
}

func TestGenerateBestEffortOnUnsatisfiableRoster(t *testing.T) {
	// 21 courses sharing one student exceed the 20-slot week: no complete
	// schedule exists, but the engine still returns a partial assignment.
	courses := make(map[string][]string, 21)
	for i := 0; i < 21; i++ {
		courses[string(rune('A'+i))] = []string{"S1"}
	}
	roster := newTestRoster(courses)

	result := Generate(rand.New(rand.NewSource(5)), roster)
	require.False(t, result.FullyPlaced)
	assert.Equal(t, MaxAttempts, result.Attempts)
	assert.NotEmpty(t, result.Unplaced)
	assert.LessOrEqual(t, len(result.Assignment), len(roster))
}

func TestScoreCandidateRewardsLightDays(t *testing.T) {
	course := NewCourse("Stats", "Unknown", []string{"S1"})
	state := make(studentState)

	penalty, ok := scoreCandidate(state, course, candidate{Day: Monday, Slot: Slots[0]})
	require.True(t, ok)
	assert.Equal(t, lightDayReward, penalty)

	state.commit("S1", Monday, Slots[0])
	state.commit("S1", Monday, Slots[1])
	penalty, ok = scoreCandidate(state, course, candidate{Day: Monday, Slot: Slots[2]})
	require.True(t, ok)
	assert.Equal(t, stackedDayCharge, penalty)
}

func TestScoreCandidateHardRules(t *testing.T) {
	course := NewCourse("Stats", "Unknown", []string{"S1"})
	state := make(studentState)
	state.commit("S1", Monday, Slots[0])

	_, ok := scoreCandidate(state, course, candidate{Day: Monday, Slot: Slots[0]})
	assert.False(t, ok, "clash must be rejected")

	for _, slot := range Slots[1:] {
		state.commit("S1", Monday, slot)
	}
	_, ok = scoreCandidate(state, course, candidate{Day: Monday, Slot: Slots[0]})
	assert.False(t, ok, "daily cap must be rejected")
}

func TestParallelGenerateReturnsCompleteResult(t *testing.T) {
	roster := newTestRoster(map[string][]string{
		"MathA": {"S1", "S2"},
		"MathB": {"S1", "S3"},
		"Stats": {"S2", "S3"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result := ParallelGenerate(ctx, roster, ParallelOptions{Workers: 4, Seed: 99})
	require.True(t, result.FullyPlaced)
	assert.Empty(t, Verify(roster, result.Assignment))
}

func TestParallelGenerateHonoursDeadline(t *testing.T) {
	courses := make(map[string][]string, 21)
	for i := 0; i < 21; i++ {
		courses[string(rune('A'+i))] = []string{"S1"}
	}
	roster := newTestRoster(courses)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := ParallelGenerate(ctx, roster, ParallelOptions{Workers: 2, Seed: 1})
	require.NotNil(t, result.Assignment)
	assert.False(t, result.FullyPlaced)
}

func TestVerifyFlagsManufacturedClash(t *testing.T) {
	roster := newTestRoster(map[string][]string{
		"MathA": {"S1"},
		"MathB": {"S1"},
	})
	assignment := Assignment{
		"MathA": {Day: Monday, Slot: Slots[0], Room: "CR-1"},
		"MathB": {Day: Monday, Slot: Slots[0], Room: "CR-2"},
	}

	violations := Verify(roster, assignment)
	require.Len(t, violations, 1)
	assert.Equal(t, StudentID("S1"), violations[0].Student)
}

func TestRosterSubjectsOf(t *testing.T) {
	roster := newTestRoster(map[string][]string{
		"MathA": {"S1", "S2"},
		"MathB": {"S1"},
		"Stats": {"S2"},
	})

	assert.ElementsMatch(t, []string{"MathA", "MathB"}, roster.SubjectsOf("S1"))
	assert.Empty(t, roster.SubjectsOf("S9"))
}

func TestNormalizeStudentID(t *testing.T) {
	assert.Equal(t, StudentID("H001-24"), NormalizeStudentID("  h001-24 "))
}
