package scheduler

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
)

// Config carries the institutional constants of the engine.
type Config struct {
	MaxCredits        float64
	DefaultMinCredits float64
	OverloadFactor    float64
	DayStart          models.TimeOfDay
	DayEnd            models.TimeOfDay
	// RandomSeed fixes slot tie-breaks. Zero seeds from the clock on every run.
	RandomSeed int64
}

// DefaultConfig returns the 18/12/1.5 credit policy and the 08:30-17:30 window.
func DefaultConfig() Config {
	return Config{
		MaxCredits:        defaultMaxCredits,
		DefaultMinCredits: defaultMinimumCredits,
		OverloadFactor:    defaultOverloadFactor,
		DayStart:          defaultDayStart,
		DayEnd:            defaultDayEnd,
	}
}

// Engine bundles the allocation components. It is safe for sequential reuse; each Run gets
// its own random source.
type Engine struct {
	Checker *TimeConflictChecker
	Credits *CreditHourCalculator
	Quota   *SectionQuotaService
	Fifo    *FifoAllocator

	seed   int64
	random func() Shuffler
	logger *zap.Logger
}

// Outcome is what a run produced inside the ledger.
type Outcome struct {
	Allocation  *dto.AllocationResult
	LeastChosen *dto.LeastChosenResult
	Underloaded []dto.InstructorLoad
	Validation  dto.ValidationReport
}

// NewEngine builds an engine from cfg. Zero-valued fields fall back to DefaultConfig.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.MaxCredits <= 0 {
		cfg.MaxCredits = defaults.MaxCredits
	}
	if cfg.DefaultMinCredits <= 0 {
		cfg.DefaultMinCredits = defaults.DefaultMinCredits
	}
	if cfg.OverloadFactor <= 0 {
		cfg.OverloadFactor = defaults.OverloadFactor
	}
	if cfg.DayEnd <= cfg.DayStart {
		cfg.DayStart, cfg.DayEnd = defaults.DayStart, defaults.DayEnd
	}

	checker := &TimeConflictChecker{DayStart: cfg.DayStart, DayEnd: cfg.DayEnd}
	credits := NewCreditHourCalculator()
	credits.MaxCredits = cfg.MaxCredits
	credits.DefaultMinimum = cfg.DefaultMinCredits
	credits.OverloadFactor = cfg.OverloadFactor
	quota := NewSectionQuotaService()

	e := &Engine{
		Checker: checker,
		Credits: credits,
		Quota:   quota,
		Fifo:    NewFifoAllocator(checker, credits, quota, logger),
		seed:    cfg.RandomSeed,
		logger:  logger,
	}
	e.random = e.defaultRandom
	return e
}

// WithRandom replaces the tie-break source factory.
func (e *Engine) WithRandom(factory func() Shuffler) *Engine {
	if factory != nil {
		e.random = factory
	}
	return e
}

func (e *Engine) defaultRandom() Shuffler {
	seed := e.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// SlotService returns a slot service with a fresh random source.
func (e *Engine) SlotService() *SlotAssignmentService {
	return NewSlotAssignmentService(e.Checker, e.Credits, e.Quota, e.random(), e.logger)
}

// Run executes the FIFO pass, the optional least-chosen pass, load analysis and validation.
func (e *Engine) Run(ctx context.Context, l *Ledger, opts dto.GenerateOptions) (*Outcome, error) {
	allocation, err := e.Fifo.Allocate(ctx, l)
	if err != nil {
		return nil, err
	}
	outcome := &Outcome{Allocation: allocation}

	if opts.EnableLeastChosen && len(allocation.UnassignedCourses) > 0 {
		filler := NewLeastChosenFiller(e.Credits, e.Quota, e.SlotService(), e.logger)
		leastChosen, err := filler.Fill(ctx, l, allocation.UnassignedCourses)
		if err != nil {
			return nil, err
		}
		outcome.LeastChosen = leastChosen
	}

	outcome.Underloaded = e.Credits.UnderloadedInstructors(l)
	outcome.Validation = Validate(l, e.Checker)
	return outcome, nil
}
