package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
	"github.com/noah-isme/section-allocator/internal/scheduler"
	appErrors "github.com/noah-isme/section-allocator/pkg/errors"
	"github.com/noah-isme/section-allocator/pkg/logger"
)

type semesterStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Semester, error)
	LockForScheduling(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Semester, error)
	ListCourses(ctx context.Context, exec sqlx.ExtContext, semesterID string) ([]models.SemesterCourse, error)
}

type courseStore interface {
	ListForSemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) ([]models.Course, error)
}

type instructorStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Instructor, error)
	ListActive(ctx context.Context, exec sqlx.ExtContext) ([]models.Instructor, error)
}

type preferenceStore interface {
	ListBySemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) ([]models.InstructorPreference, error)
}

type sectionStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, section *models.Section) error
	ListBySemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) ([]models.Section, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Section, error)
	DeleteBySemester(ctx context.Context, exec sqlx.ExtContext, semesterID string) (int64, error)
	UpdateInstructor(ctx context.Context, exec sqlx.ExtContext, id string, instructorID *string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// txSectionWriter binds section inserts of a run to its transaction.
type txSectionWriter struct {
	repo sectionStore
	exec sqlx.ExtContext
}

func (w txSectionWriter) CreateSection(ctx context.Context, section *models.Section) error {
	return w.repo.Create(ctx, w.exec, section)
}

// SchedulerServiceConfig governs caching and notification behaviour.
type SchedulerServiceConfig struct {
	ReportTTL     time.Duration
	EventsChannel string
}

// SchedulerService runs the allocation engine inside one transaction per semester and serves
// the supporting clear, override and report operations.
type SchedulerService struct {
	semesters   semesterStore
	courses     courseStore
	instructors instructorStore
	prefs       preferenceStore
	sections    sectionStore
	tx          txProvider
	engine      *scheduler.Engine
	cache       *CacheService
	events      eventPublisher
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         SchedulerServiceConfig
	now         func() time.Time
}

// NewSchedulerService wires scheduler dependencies. cache, events and metrics are optional.
func NewSchedulerService(
	semesters semesterStore,
	courses courseStore,
	instructors instructorStore,
	prefs preferenceStore,
	sections sectionStore,
	tx txProvider,
	engine *scheduler.Engine,
	cache *CacheService,
	events eventPublisher,
	metrics *MetricsService,
	validate *validator.Validate,
	log *zap.Logger,
	cfg SchedulerServiceConfig,
) *SchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if engine == nil {
		engine = scheduler.NewEngine(scheduler.DefaultConfig(), log)
	}
	if cfg.EventsChannel == "" {
		cfg.EventsChannel = "scheduler:events"
	}
	return &SchedulerService{
		semesters:   semesters,
		courses:     courses,
		instructors: instructors,
		prefs:       prefs,
		sections:    sections,
		tx:          tx,
		engine:      engine,
		cache:       cache,
		events:      events,
		metrics:     metrics,
		validator:   validate,
		logger:      log,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Generate builds the semester schedule. Every call returns a result; fatal errors also come
// back as the returned error after the transaction has been rolled back.
func (s *SchedulerService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule request")
	}
	log := logger.ForSemester(s.logger, req.SemesterID)
	result := newScheduleResult(req, s.now())

	if s.tx == nil {
		return s.fail(log, result, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing"))
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return s.fail(log, result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction"))
	}

	outcome, cleared, err := s.run(ctx, tx, req, log)
	if err != nil {
		_ = tx.Rollback()
		return s.fail(log, result, err)
	}
	fillScheduleResult(result, outcome, cleared)

	if req.Options.StrictMode && outcome.Validation.HasFindings() {
		_ = tx.Rollback()
		message := fmt.Sprintf("strict validation failed: %d conflicts, %d section limit violations",
			len(outcome.Validation.Conflicts), len(outcome.Validation.LimitViolations))
		result.IsValid = false
		result.ErrorMessage = &message
		result.Stats = dto.ScheduleStats{UnassignedCourses: map[string]int{}}
		result.Skips = []dto.SkipRecord{}
		result.Underloaded = []dto.InstructorLoad{}
		result.FinishedAt = s.now()
		log.Warn("schedule_rejected",
			zap.Int("conflicts", len(outcome.Validation.Conflicts)),
			zap.Int("limit_violations", len(outcome.Validation.LimitViolations)))
		s.metrics.ObserveScheduleRun(RunOutcomeInvalid, result, result.FinishedAt.Sub(result.StartedAt))
		return result, nil
	}

	if err := tx.Commit(); err != nil {
		return s.fail(log, result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule"))
	}
	result.IsValid = true
	result.FinishedAt = s.now()

	if err := s.cache.InvalidateSemester(ctx, req.SemesterID); err != nil {
		log.Warn("report cache not invalidated", zap.Error(err))
	}
	s.publish(ctx, log, dto.ScheduleEvent{
		Event:                     dto.EventScheduleGenerated,
		SemesterID:                req.SemesterID,
		SectionsAssigned:          result.Stats.SectionsAssigned,
		SectionsCleared:           result.Stats.SectionsCleared,
		Underloaded:               len(result.Underloaded),
		RequiresAdminIntervention: result.RequiresAdminIntervention(),
		OccurredAt:                result.FinishedAt,
	})
	log.Info(dto.EventScheduleGenerated,
		zap.Int("sections_assigned", result.Stats.SectionsAssigned),
		zap.Int("fifo_sections", result.Stats.FifoSections),
		zap.Int("least_chosen_sections", result.Stats.LeastChosenSections),
		zap.Int("preferences_skipped", result.Stats.PreferencesSkipped),
		zap.Int("underloaded", len(result.Underloaded)),
		zap.Int("conflicts", len(result.Validation.Conflicts)),
		zap.Bool("requires_admin_intervention", result.RequiresAdminIntervention()),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))
	s.metrics.ObserveScheduleRun(RunOutcomeSuccess, result, result.FinishedAt.Sub(result.StartedAt))
	return result, nil
}

// run is everything between BEGIN and COMMIT. Panics are converted into errors so the caller
// can roll back.
func (s *SchedulerService) run(ctx context.Context, tx *sqlx.Tx, req dto.GenerateScheduleRequest, log *zap.Logger) (outcome *scheduler.Outcome, cleared int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = appErrors.Wrap(fmt.Errorf("panic: %v", r), appErrors.ErrScheduleFailed.Code, appErrors.ErrScheduleFailed.Status, "scheduler run aborted")
		}
	}()

	semester, err := s.semesters.LockForScheduling(ctx, tx, req.SemesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock semester")
	}
	if semester.AcceptsPreferences(s.now()) {
		log.Warn("preference window still open", zap.String("status", string(semester.Status)))
	}

	if req.Options.ClearExisting {
		cleared, err = s.sections.DeleteBySemester(ctx, tx, semester.ID)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing sections")
		}
		log.Info(dto.EventScheduleCleared, zap.Int64("sections_cleared", cleared))
	}

	ledger, err := s.loadLedger(ctx, tx, *semester, txSectionWriter{repo: s.sections, exec: tx})
	if err != nil {
		return nil, 0, err
	}
	outcome, err = s.engine.Run(ctx, ledger, req.Options)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrScheduleFailed.Code, appErrors.ErrScheduleFailed.Status, "allocation failed")
	}
	return outcome, cleared, nil
}

func (s *SchedulerService) fail(log *zap.Logger, result *dto.ScheduleResult, err error) (*dto.ScheduleResult, error) {
	message := err.Error()
	result.IsValid = false
	result.ErrorMessage = &message
	result.Stats = dto.ScheduleStats{UnassignedCourses: map[string]int{}}
	result.Skips = []dto.SkipRecord{}
	result.Underloaded = []dto.InstructorLoad{}
	result.Validation = emptyValidation()
	result.FinishedAt = s.now()
	log.Error("schedule_failed", zap.Error(err))
	s.metrics.ObserveScheduleRun(RunOutcomeFailed, result, result.FinishedAt.Sub(result.StartedAt))
	return result, err
}

// OverrideAssignment moves one section to another instructor. It returns false, and logs the
// reason, when the section or instructor is unknown or the move would double-book the instructor.
func (s *SchedulerService) OverrideAssignment(ctx context.Context, sectionID, instructorID string) bool {
	log := s.logger.With(zap.String("section_id", sectionID), zap.String("instructor_id", instructorID))
	reject := func(reason string, err error) bool {
		fields := []zap.Field{zap.String("reason", reason)}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		log.Warn("override_rejected", fields...)
		return false
	}

	if sectionID == "" || instructorID == "" {
		return reject("section and instructor are required", nil)
	}
	if s.tx == nil {
		return reject("transaction provider missing", nil)
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return reject("failed to begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	section, err := s.sections.FindByID(ctx, tx, sectionID)
	if err != nil {
		return reject("section not found", err)
	}
	instructor, err := s.instructors.FindByID(ctx, tx, instructorID)
	if err != nil {
		return reject("instructor not found", err)
	}
	if section.OwnedBy(instructor.ID) {
		return true
	}

	if section.Timed() {
		existing, err := s.sections.ListBySemester(ctx, tx, section.SemesterID)
		if err != nil {
			return reject("failed to load semester sections", err)
		}
		held := make([]models.Section, 0, len(existing))
		for _, other := range existing {
			if other.ID != section.ID && other.OwnedBy(instructor.ID) {
				held = append(held, other)
			}
		}
		if s.engine.Checker.HasConflict(section.Days, *section.StartTime, *section.EndTime, held) {
			return reject("instructor already teaches at that time", nil)
		}
	}

	if err := s.sections.UpdateInstructor(ctx, tx, section.ID, &instructor.ID); err != nil {
		return reject("failed to update section", err)
	}
	if err := tx.Commit(); err != nil {
		return reject("failed to commit override", err)
	}
	committed = true

	if err := s.cache.InvalidateSemester(ctx, section.SemesterID); err != nil {
		log.Warn("report cache not invalidated", zap.Error(err))
	}
	s.publish(ctx, log, dto.ScheduleEvent{
		Event:      dto.EventAssignmentOverridden,
		SemesterID: section.SemesterID,
		SectionID:  section.ID,
		OccurredAt: s.now(),
	})
	log.Info(dto.EventAssignmentOverridden,
		zap.String("semester_id", section.SemesterID),
		zap.Stringp("previous_instructor_id", section.InstructorID))
	return true
}

// ClearSchedule deletes every section of the semester and returns how many were removed.
func (s *SchedulerService) ClearSchedule(ctx context.Context, semesterID string) (int64, error) {
	if semesterID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "semesterId is required")
	}
	semester, err := s.semesters.FindByID(ctx, nil, semesterID)
	if err != nil {
		return 0, mapLookupError(err, "semester")
	}
	deleted, err := s.sections.DeleteBySemester(ctx, nil, semester.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear schedule")
	}

	log := logger.ForSemester(s.logger, semester.ID)
	if err := s.cache.InvalidateSemester(ctx, semester.ID); err != nil {
		log.Warn("report cache not invalidated", zap.Error(err))
	}
	s.publish(ctx, log, dto.ScheduleEvent{
		Event:           dto.EventScheduleCleared,
		SemesterID:      semester.ID,
		SectionsCleared: deleted,
		OccurredAt:      s.now(),
	})
	log.Info(dto.EventScheduleCleared, zap.Int64("sections_cleared", deleted))
	return deleted, nil
}

// ScheduleReport returns the per-instructor load and conflict summary, served from cache when warm.
func (s *SchedulerService) ScheduleReport(ctx context.Context, semesterID string) (*dto.ScheduleReport, error) {
	if semesterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semesterId is required")
	}
	key := ReportKey(semesterID)
	var cached dto.ScheduleReport
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	semester, err := s.semesters.FindByID(ctx, nil, semesterID)
	if err != nil {
		return nil, mapLookupError(err, "semester")
	}
	ledger, err := s.loadLedger(ctx, nil, *semester, nil)
	if err != nil {
		return nil, err
	}
	report := buildScheduleReport(ledger, s.engine)
	_ = s.cache.Set(ctx, key, report, s.cfg.ReportTTL)
	return report, nil
}

func (s *SchedulerService) loadLedger(ctx context.Context, exec sqlx.ExtContext, semester models.Semester, writer scheduler.SectionWriter) (*scheduler.Ledger, error) {
	wrap := func(err error, what string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
	}
	courses, err := s.courses.ListForSemester(ctx, exec, semester.ID)
	if err != nil {
		return nil, wrap(err, "courses")
	}
	pivots, err := s.semesters.ListCourses(ctx, exec, semester.ID)
	if err != nil {
		return nil, wrap(err, "semester courses")
	}
	instructors, err := s.instructors.ListActive(ctx, exec)
	if err != nil {
		return nil, wrap(err, "instructors")
	}
	prefs, err := s.prefs.ListBySemester(ctx, exec, semester.ID)
	if err != nil {
		return nil, wrap(err, "preferences")
	}
	sections, err := s.sections.ListBySemester(ctx, exec, semester.ID)
	if err != nil {
		return nil, wrap(err, "sections")
	}
	return scheduler.NewLedger(scheduler.LedgerData{
		Semester:    semester,
		Courses:     courses,
		Pivots:      pivots,
		Instructors: instructors,
		Preferences: prefs,
		Sections:    sections,
	}, writer), nil
}

func (s *SchedulerService) publish(ctx context.Context, log *zap.Logger, event dto.ScheduleEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, s.cfg.EventsChannel, event); err != nil {
		log.Warn("scheduler event not published", zap.String("event", event.Event), zap.Error(err))
	}
}

func newScheduleResult(req dto.GenerateScheduleRequest, now time.Time) *dto.ScheduleResult {
	return &dto.ScheduleResult{
		SemesterID:  req.SemesterID,
		Options:     req.Options,
		Stats:       dto.ScheduleStats{UnassignedCourses: map[string]int{}},
		Skips:       []dto.SkipRecord{},
		Underloaded: []dto.InstructorLoad{},
		Validation:  emptyValidation(),
		StartedAt:   now,
	}
}

func emptyValidation() dto.ValidationReport {
	return dto.ValidationReport{Conflicts: []models.SectionConflict{}, LimitViolations: []dto.SectionLimitViolation{}}
}

func fillScheduleResult(result *dto.ScheduleResult, outcome *scheduler.Outcome, cleared int64) {
	allocation := outcome.Allocation
	result.Stats.SectionsCleared = cleared
	result.Stats.FifoSections = allocation.SectionsAssigned
	result.Stats.PreferencesProcessed = allocation.PreferencesProcessed
	result.Stats.PreferencesSkipped = allocation.PreferencesSkipped
	result.Stats.UnassignedCourses = allocation.UnassignedCourses
	result.Skips = append(result.Skips, allocation.Skips...)

	if outcome.LeastChosen != nil {
		result.Stats.LeastChosenSections = outcome.LeastChosen.SectionsAssigned
		result.Stats.UnassignedCourses = outcome.LeastChosen.StillUnassigned
		result.Skips = append(result.Skips, outcome.LeastChosen.Skips...)
	}
	if result.Stats.UnassignedCourses == nil {
		result.Stats.UnassignedCourses = map[string]int{}
	}
	result.Stats.SectionsAssigned = result.Stats.FifoSections + result.Stats.LeastChosenSections
	if outcome.Underloaded != nil {
		result.Underloaded = outcome.Underloaded
	}
	result.Validation = outcome.Validation
}

// buildScheduleReport covers every instructor who holds a section or submitted a preference.
func buildScheduleReport(l *scheduler.Ledger, engine *scheduler.Engine) *dto.ScheduleReport {
	semester := l.Semester()
	validation := scheduler.Validate(l, engine.Checker)
	report := &dto.ScheduleReport{
		SemesterID:      semester.ID,
		SemesterName:    semester.Name,
		Instructors:     []dto.InstructorLoad{},
		Conflicts:       validation.Conflicts,
		LimitViolations: validation.LimitViolations,
		Entries:         []dto.ScheduleEntry{},
	}

	involved := make(map[string]bool)
	for _, id := range l.PreferenceInstructorIDs() {
		involved[id] = true
	}
	sections := l.Sections()
	for _, section := range sections {
		if section.InstructorID != nil {
			involved[*section.InstructorID] = true
		}
	}
	for _, instructor := range l.Instructors() {
		if !involved[instructor.ID] {
			continue
		}
		load := engine.Credits.LoadStatus(l, instructor)
		switch load.Status {
		case dto.LoadStatusUnderMinimum:
			report.UnderloadedCount++
		case dto.LoadStatusOverloaded:
			report.OverloadedCount++
		}
		report.Instructors = append(report.Instructors, load)
	}

	for _, section := range sections {
		report.TotalSections++
		if section.InstructorID != nil {
			report.AssignedSections++
		} else {
			report.UnassignedSections++
		}
		entry := dto.ScheduleEntry{
			SectionID:    section.ID,
			CourseID:     section.CourseID,
			InstructorID: section.InstructorID,
			Days:         section.Days,
			StartTime:    section.StartTime,
			EndTime:      section.EndTime,
			Room:         section.Room,
			OfficeHours:  !section.Timed(),
		}
		if course := l.Course(section.CourseID); course != nil {
			entry.CourseCode = course.Code
			entry.CourseName = course.Name
			entry.OfficeHours = course.OfficeHours
		}
		if entry.OfficeHours {
			report.OfficeHoursSections++
		}
		if section.InstructorID != nil {
			if instructor := l.Instructor(*section.InstructorID); instructor != nil {
				entry.InstructorName = instructor.Name
			}
		}
		report.Entries = append(report.Entries, entry)
	}
	sort.SliceStable(report.Entries, func(i, j int) bool {
		a, b := report.Entries[i], report.Entries[j]
		if a.CourseCode != b.CourseCode {
			return a.CourseCode < b.CourseCode
		}
		if startMinutes(a.StartTime) != startMinutes(b.StartTime) {
			return startMinutes(a.StartTime) < startMinutes(b.StartTime)
		}
		return a.SectionID < b.SectionID
	})
	return report
}

func startMinutes(t *models.TimeOfDay) int {
	if t == nil {
		return -1
	}
	return int(*t)
}

func mapLookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}
