package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
	"github.com/noah-isme/section-allocator/internal/scheduler"
	appErrors "github.com/noah-isme/section-allocator/pkg/errors"
	"github.com/noah-isme/section-allocator/pkg/export"
)

// Supported schedule export formats.
const (
	ExportFormatTable = "table"
	ExportFormatGrid  = "grid"
	ExportFormatCSV   = "csv"
	ExportFormatPDF   = "pdf"
	ExportFormatXLSX  = "xlsx"
)

const officeHoursLabel = "Office hours"

type scheduleReportSource interface {
	ScheduleReport(ctx context.Context, semesterID string) (*dto.ScheduleReport, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered schedule ready to be written or streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a semester schedule as a table, a day grid, CSV, PDF or XLSX.
type ExportService struct {
	reports scheduleReportSource
	table   datasetRenderer
	csv     datasetRenderer
	pdf     titledRenderer
	xlsx    titledRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService with the pkg/export renderers.
func NewExportService(reports scheduleReportSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports: reports,
		table:   export.NewTableExporter(),
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		xlsx:    export.NewXLSXExporter(),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Export renders the semester schedule in format. An empty format means table.
func (s *ExportService) Export(ctx context.Context, semesterID, format string) (*ExportFile, error) {
	if format == "" {
		format = ExportFormatTable
	}
	report, err := s.reports.ScheduleReport(ctx, semesterID)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Schedule %s", reportTitle(report))
	var (
		body        []byte
		contentType string
		extension   string
	)
	switch format {
	case ExportFormatTable:
		body, err = s.table.Render(ScheduleTable(report))
		contentType, extension = "text/plain; charset=utf-8", "txt"
	case ExportFormatGrid:
		body, err = s.table.Render(ScheduleGrid(report))
		contentType, extension = "text/plain; charset=utf-8", "txt"
	case ExportFormatCSV:
		body, err = s.csv.Render(ScheduleTable(report))
		contentType, extension = "text/csv", "csv"
	case ExportFormatPDF:
		body, err = s.pdf.Render(ScheduleTable(report), title)
		contentType, extension = "application/pdf", "pdf"
	case ExportFormatXLSX:
		body, err = s.xlsx.Render(ScheduleGrid(report), "Schedule")
		contentType, extension = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("schedule export failed", zap.String("semester_id", semesterID), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
	}

	filename := fmt.Sprintf("schedule_%s_%s.%s", sanitizeFilename(reportTitle(report)), s.now().Format("20060102_150405"), extension)
	return &ExportFile{Filename: filename, ContentType: contentType, Body: body}, nil
}

// ScheduleTable lists one row per section.
func ScheduleTable(report *dto.ScheduleReport) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Course", "Name", "Instructor", "Days", "Start", "End", "Room"},
		Rows:    make([]map[string]string, 0, len(report.Entries)),
	}
	for _, entry := range report.Entries {
		days := entry.Days.String()
		if entry.OfficeHours {
			days = officeHoursLabel
		}
		data.Rows = append(data.Rows, map[string]string{
			"Course":     entry.CourseCode,
			"Name":       entry.CourseName,
			"Instructor": instructorLabel(entry),
			"Days":       days,
			"Start":      optionalTime(entry.StartTime),
			"End":        optionalTime(entry.EndTime),
			"Room":       derefString(entry.Room),
		})
	}
	return data
}

// ScheduleGrid lays sections out as start times by day pair. Office-hours sections get a final row.
func ScheduleGrid(report *dto.ScheduleReport) export.Dataset {
	headers := []string{"Time"}
	for _, pair := range scheduler.DayPairs {
		headers = append(headers, pair.String())
	}

	starts := make(map[models.TimeOfDay]bool, len(scheduler.StandardStartTimes))
	for _, start := range scheduler.StandardStartTimes {
		starts[start] = true
	}
	cells := make(map[models.TimeOfDay]map[string][]string)
	var officeHours []string
	for _, entry := range report.Entries {
		label := entry.CourseCode
		if name := instructorLabel(entry); name != "" {
			label = fmt.Sprintf("%s (%s)", entry.CourseCode, name)
		}
		if entry.OfficeHours || entry.StartTime == nil || entry.Days.Empty() {
			officeHours = append(officeHours, label)
			continue
		}
		start := *entry.StartTime
		starts[start] = true
		column := scheduler.DayPair(entry.Days[0]).String()
		if cells[start] == nil {
			cells[start] = make(map[string][]string)
		}
		cells[start][column] = append(cells[start][column], label)
	}

	ordered := make([]models.TimeOfDay, 0, len(starts))
	for start := range starts {
		ordered = append(ordered, start)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	data := export.Dataset{Headers: headers}
	for _, start := range ordered {
		row := map[string]string{"Time": start.String()}
		for _, header := range headers[1:] {
			row[header] = strings.Join(cells[start][header], "; ")
		}
		data.Rows = append(data.Rows, row)
	}
	if len(officeHours) > 0 {
		data.Rows = append(data.Rows, map[string]string{
			"Time":     officeHoursLabel,
			headers[1]: strings.Join(officeHours, "; "),
		})
	}
	return data
}

func reportTitle(report *dto.ScheduleReport) string {
	if report.SemesterName != "" {
		return report.SemesterName
	}
	return report.SemesterID
}

func instructorLabel(entry dto.ScheduleEntry) string {
	if entry.InstructorName != "" {
		return entry.InstructorName
	}
	if entry.InstructorID != nil {
		return *entry.InstructorID
	}
	return ""
}

func optionalTime(t *models.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
