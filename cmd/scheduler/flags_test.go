package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/section-allocator/internal/dto"
)

func TestParseGenerateArgs(t *testing.T) {
	parsed, err := parseGenerateArgs([]string{"sem-1"})
	require.NoError(t, err)
	assert.Equal(t, "sem-1", parsed.SemesterID)
	assert.Equal(t, dto.DefaultGenerateOptions(), parsed.Options)
	assert.False(t, parsed.Async)

	parsed, err = parseGenerateArgs([]string{"--clear", "--no-least-chosen", "--strict", "--async", "sem-2"})
	require.NoError(t, err)
	assert.Equal(t, dto.GenerateOptions{ClearExisting: true, StrictMode: true}, parsed.Options)
	assert.True(t, parsed.Async)

	_, err = parseGenerateArgs(nil)
	assert.Error(t, err)
	_, err = parseGenerateArgs([]string{"a", "b"})
	assert.Error(t, err)
	_, err = parseGenerateArgs([]string{"--bogus", "sem-1"})
	assert.Error(t, err)
}

func TestParseShowArgs(t *testing.T) {
	parsed, err := parseShowArgs([]string{"sem-1"})
	require.NoError(t, err)
	assert.Equal(t, "table", parsed.Format)

	parsed, err = parseShowArgs([]string{"sem-1", "-f", "GRID"})
	require.NoError(t, err)
	assert.Equal(t, "grid", parsed.Format)

	_, err = parseShowArgs([]string{"sem-1", "--format", "pdf"})
	assert.Error(t, err)

	parsed, err = parseShowArgs([]string{"sem-1", "--format", "xlsx", "--out", "fall.xlsx"})
	require.NoError(t, err)
	assert.Equal(t, "fall.xlsx", parsed.Out)

	_, err = parseShowArgs([]string{"sem-1", "--format", "docx"})
	assert.Error(t, err)
}

func TestParseMigrateArgs(t *testing.T) {
	parsed, err := parseMigrateArgs([]string{"down", "--steps", "2"})
	require.NoError(t, err)
	assert.Equal(t, migrateArgs{Direction: "down", Steps: 2}, parsed)

	_, err = parseMigrateArgs([]string{"down", "--steps", "0"})
	assert.Error(t, err)
	_, err = parseMigrateArgs([]string{"sideways"})
	assert.Error(t, err)
}

func TestParseClearArgs(t *testing.T) {
	_, err := parseClearArgs([]string{"sem-1"})
	assert.Error(t, err)

	id, err := parseClearArgs([]string{"sem-1", "--yes"})
	require.NoError(t, err)
	assert.Equal(t, "sem-1", id)
}

func TestPrintSummary(t *testing.T) {
	out := &bytes.Buffer{}
	c := &cli{stdout: out}
	notes := "Below minimum"
	err := c.printSummary(&dto.ScheduleResult{
		SemesterID: "sem-1",
		IsValid:    true,
		Stats:      dto.ScheduleStats{SectionsAssigned: 3, FifoSections: 2, LeastChosenSections: 1},
		Underloaded: []dto.InstructorLoad{
			{Name: "Alice", Position: "Doctor", Total: 6, Minimum: 12, Notes: &notes},
		},
		Skips: []dto.SkipRecord{{InstructorID: "inst-2", CourseID: "CS101", Reason: "Section limit reached (2/2)"}},
	})
	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "sections assigned: 3 (fifo 2, least-chosen 1)")
	assert.Contains(t, text, "Alice")
	assert.Contains(t, text, "Section limit reached (2/2)")
	assert.Contains(t, text, "admin intervention required")
}

func TestRunUnknownCommand(t *testing.T) {
	c := &cli{stdout: &bytes.Buffer{}}
	assert.Error(t, c.run(context.Background(), "explode", nil))
	assert.NoError(t, c.run(context.Background(), "help", nil))
}
