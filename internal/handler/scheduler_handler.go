package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/service"
	appErrors "github.com/noah-isme/section-allocator/pkg/errors"
	"github.com/noah-isme/section-allocator/pkg/response"
)

type schedulerOperations interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleResult, error)
	OverrideAssignment(ctx context.Context, sectionID, instructorID string) bool
	ClearSchedule(ctx context.Context, semesterID string) (int64, error)
	ScheduleReport(ctx context.Context, semesterID string) (*dto.ScheduleReport, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, semesterID, format string) (*service.ExportFile, error)
}

type scheduleEnqueuer interface {
	Enqueue(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleJobPayload, error)
}

// generateOptionsPayload keeps omitted flags at their defaults.
type generateOptionsPayload struct {
	ClearExisting     *bool `json:"clearExisting"`
	EnableLeastChosen *bool `json:"enableLeastChosen"`
	StrictMode        *bool `json:"strictMode"`
}

func (p generateOptionsPayload) options() dto.GenerateOptions {
	opts := dto.DefaultGenerateOptions()
	if p.ClearExisting != nil {
		opts.ClearExisting = *p.ClearExisting
	}
	if p.EnableLeastChosen != nil {
		opts.EnableLeastChosen = *p.EnableLeastChosen
	}
	if p.StrictMode != nil {
		opts.StrictMode = *p.StrictMode
	}
	return opts
}

// SchedulerHandler exposes the scheduling operations of a semester.
type SchedulerHandler struct {
	scheduler schedulerOperations
	exporter  scheduleExporter
	jobs      scheduleEnqueuer
	validator *validator.Validate
}

// NewSchedulerHandler constructs the handler. jobs may be nil when async runs are disabled.
func NewSchedulerHandler(scheduler *service.SchedulerService, exporter *service.ExportService, jobs *service.ScheduleJobService) *SchedulerHandler {
	h := &SchedulerHandler{scheduler: scheduler, exporter: exporter, validator: validator.New()}
	if jobs != nil {
		h.jobs = jobs
	}
	return h
}

// Generate godoc
// @Summary Generate the semester schedule
// @Description Runs the FIFO pass, the optional least-chosen pass and validation in one transaction.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param payload body generateOptionsPayload false "Run options"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /semesters/{id}/schedule [post]
func (h *SchedulerHandler) Generate(c *gin.Context) {
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}
	result, err := h.scheduler.Generate(c.Request.Context(), req)
	if err != nil {
		response.ErrorWithData(c, err, result)
		return
	}
	if !result.IsValid {
		response.JSON(c, http.StatusUnprocessableEntity, result)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{
		"requiresAdminIntervention": result.RequiresAdminIntervention(),
	})
}

// GenerateAsync godoc
// @Summary Queue a schedule run
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param payload body generateOptionsPayload false "Run options"
// @Success 202 {object} response.Envelope
// @Router /semesters/{id}/schedule/async [post]
func (h *SchedulerHandler) GenerateAsync(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "async scheduling is disabled"))
		return
	}
	req, ok := h.bindGenerate(c)
	if !ok {
		return
	}
	payload, err := h.jobs.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, payload)
}

// Report godoc
// @Summary Instructor load and conflict report
// @Tags Scheduler
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/schedule/report [get]
func (h *SchedulerHandler) Report(c *gin.Context) {
	report, err := h.scheduler.ScheduleReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Export godoc
// @Summary Download the semester schedule
// @Tags Scheduler
// @Produce octet-stream
// @Param id path string true "Semester ID"
// @Param format query string false "table, grid, csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /semesters/{id}/schedule/export [get]
func (h *SchedulerHandler) Export(c *gin.Context) {
	var query dto.ExportScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unsupported export format"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Clear godoc
// @Summary Delete every section of the semester
// @Tags Scheduler
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{id}/schedule [delete]
func (h *SchedulerHandler) Clear(c *gin.Context) {
	cleared, err := h.scheduler.ClearSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"semesterId": c.Param("id"), "sectionsCleared": cleared})
}

// Override godoc
// @Summary Reassign a section to another instructor
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body dto.OverrideAssignmentRequest true "Target instructor"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sections/{id}/instructor [patch]
func (h *SchedulerHandler) Override(c *gin.Context) {
	var req dto.OverrideAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "instructorId is required"))
		return
	}
	sectionID := c.Param("id")
	if !h.scheduler.OverrideAssignment(c.Request.Context(), sectionID, req.InstructorID) {
		response.Error(c, appErrors.Clone(appErrors.ErrConflict, "assignment rejected"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sectionId": sectionID, "instructorId": req.InstructorID})
}

func (h *SchedulerHandler) bindGenerate(c *gin.Context) (dto.GenerateScheduleRequest, bool) {
	var payload generateOptionsPayload
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule options"))
		return dto.GenerateScheduleRequest{}, false
	}
	return dto.GenerateScheduleRequest{SemesterID: c.Param("id"), Options: payload.options()}, true
}

// Register mounts the scheduler routes on group.
func (h *SchedulerHandler) Register(group gin.IRoutes) {
	group.POST("/semesters/:id/schedule", h.Generate)
	group.POST("/semesters/:id/schedule/async", h.GenerateAsync)
	group.GET("/semesters/:id/schedule/report", h.Report)
	group.GET("/semesters/:id/schedule/export", h.Export)
	group.DELETE("/semesters/:id/schedule", h.Clear)
	group.PATCH("/sections/:id/instructor", h.Override)
}
