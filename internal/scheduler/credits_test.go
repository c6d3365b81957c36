package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
)

func TestMinimumCreditsFallsBackToPosition(t *testing.T) {
	calc := NewCreditHourCalculator()
	explicit := 15.0
	zero := 0.0

	assert.Equal(t, 15.0, calc.MinimumCredits(&models.Instructor{Position: models.PositionDean, MinCredits: &explicit}))
	assert.Equal(t, 6.0, calc.MinimumCredits(&models.Instructor{Position: models.PositionDean, MinCredits: &zero}))
	assert.Equal(t, 9.0, calc.MinimumCredits(&models.Instructor{Position: models.PositionHOD}))
	assert.Equal(t, 6.0, calc.MinimumCredits(&models.Instructor{Position: models.PositionTA}))
	assert.Equal(t, 12.0, calc.MinimumCredits(&models.Instructor{Position: models.PositionDoctor}))
	assert.Equal(t, 12.0, calc.MinimumCredits(&models.Instructor{Position: "VISITOR"}))
	assert.Equal(t, 18.0, calc.Max())
}

func TestLoadStatusClassification(t *testing.T) {
	calc := NewCreditHourCalculator()
	l := newLedgerBuilder().
		instructor("under", models.PositionDoctor, 0, "cs").
		instructor("ok", models.PositionHOD, 0, "cs").
		instructor("over", models.PositionTA, 0, "cs").
		course("C3", 3, 0, "cs").
		course("C6", 6, 0, "cs").
		section("s1", "C3", "under", sunWed(), "08:30", 1.5).
		section("s2", "C6", "ok", sunWed(), "08:30", 3).
		section("s3", "C3", "ok", monThu(), "08:30", 1.5).
		section("s4", "C6", "over", sunWed(), "08:30", 3).
		section("s5", "C6", "over", monThu(), "08:30", 3).
		section("s6", "missing", "over", tueSat(), "08:30", 3).
		build(nil)

	under := calc.LoadStatus(l, l.Instructor("under"))
	assert.Equal(t, dto.LoadStatusUnderMinimum, under.Status)
	assert.Equal(t, 3.0, under.Total)
	if assert.NotNil(t, under.Notes) {
		assert.Contains(t, *under.Notes, "9.0 more")
	}
	assert.True(t, calc.IsUnderloaded(l, l.Instructor("under")))

	ok := calc.LoadStatus(l, l.Instructor("ok"))
	assert.Equal(t, dto.LoadStatusOK, ok.Status)
	assert.Equal(t, 9.0, ok.Total)
	assert.Nil(t, ok.Notes)

	over := calc.LoadStatus(l, l.Instructor("over"))
	assert.Equal(t, dto.LoadStatusOverloaded, over.Status)
	assert.Equal(t, 12.0, over.Total, "unknown courses contribute nothing")
	assert.Equal(t, 3, over.Sections)
}

func TestUnderloadedInstructorsOnlyConsidersPreferenceSubmitters(t *testing.T) {
	calc := NewCreditHourCalculator()
	l := newLedgerBuilder().
		instructor("engaged", models.PositionDoctor, 0, "cs").
		instructor("silent", models.PositionDoctor, 0, "cs").
		course("CS101", 3, 0, "cs").
		preference("p1", "engaged", "CS101", 0).
		preference("p2", "engaged", "CS101", 1).
		build(nil)

	underloaded := calc.UnderloadedInstructors(l)
	if assert.Len(t, underloaded, 1) {
		assert.Equal(t, "engaged", underloaded[0].InstructorID)
	}
}
