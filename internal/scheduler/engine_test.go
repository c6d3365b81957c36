package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
)

func engineLedger() *Ledger {
	return newLedgerBuilder().
		instructor("early", models.PositionDoctor, 0, "cs").
		instructor("spare", models.PositionDoctor, 0, "cs").
		course("CS101", 3, 1, "cs").
		course("CS900", 3, 1, "cs").
		pivot("CS900", 1, 1).
		preference("p1", "early", "CS101", 0, prefSlot(sunWed(), "08:30")).
		build(nil)
}

func TestEngineRunWithoutLeastChosenLeavesGaps(t *testing.T) {
	l := engineLedger()
	outcome, err := seededEngine(t, 1).Run(context.Background(), l, dto.GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Allocation.SectionsAssigned)
	assert.Equal(t, map[string]int{"CS900": 1}, outcome.Allocation.UnassignedCourses)
	assert.Nil(t, outcome.LeastChosen)
	assert.Len(t, outcome.Underloaded, 1)
	assert.False(t, outcome.Validation.HasFindings())
}

func TestEngineRunFillsLeastChosenCourses(t *testing.T) {
	l := engineLedger()
	outcome, err := seededEngine(t, 1).Run(context.Background(), l, dto.DefaultGenerateOptions())
	require.NoError(t, err)

	require.NotNil(t, outcome.LeastChosen)
	assert.Equal(t, 1, outcome.LeastChosen.SectionsAssigned)
	assert.Empty(t, outcome.LeastChosen.StillUnassigned)
	assert.Len(t, l.CourseSections("CS900"), 1)
	for _, section := range l.Sections() {
		assert.True(t, IsDayPair(section.Days))
	}
}

func TestEngineRunIgnoresCoursesWithoutSemesterRequirement(t *testing.T) {
	l := newLedgerBuilder().
		instructor("a", models.PositionDoctor, 0, "cs").
		instructor("b", models.PositionDoctor, 0, "cs").
		instructor("c", models.PositionDoctor, 0, "cs").
		course("REQ", 3, 2, "cs").
		pivot("REQ", 2, 2).
		course("ELECTIVE", 3, 6, "cs").
		preference("p1", "a", "ELECTIVE", 0, prefSlot(sunWed(), "08:30")).
		build(nil)

	outcome, err := seededEngine(t, 1).Run(context.Background(), l, dto.DefaultGenerateOptions())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"REQ": 2}, outcome.Allocation.UnassignedCourses)
	require.NotNil(t, outcome.LeastChosen)
	assert.Equal(t, 1, outcome.LeastChosen.CoursesAttempted)
	assert.NotContains(t, outcome.LeastChosen.StillUnassigned, "ELECTIVE")
	assert.Len(t, l.CourseSections("ELECTIVE"), 1)
	assert.Len(t, l.CourseSections("REQ"), 2)
}

func TestNewEngineAppliesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCredits = 21
	cfg.DayStart = models.MustTimeOfDay("08:00")
	cfg.DayEnd = models.MustTimeOfDay("18:00")
	engine := NewEngine(cfg, nil)

	assert.Equal(t, 21.0, engine.Credits.Max())
	assert.Equal(t, "08:00", engine.Checker.DayStart.String())

	fallback := NewEngine(Config{}, nil)
	assert.Equal(t, 18.0, fallback.Credits.Max())
	assert.Equal(t, 12.0, fallback.Credits.DefaultMinimum)
	assert.Equal(t, "17:30", fallback.Checker.DayEnd.String())
}
