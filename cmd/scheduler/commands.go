package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/internal/bootstrap"
	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/models"
	"github.com/noah-isme/section-allocator/internal/repository"
	"github.com/noah-isme/section-allocator/pkg/database"
	"github.com/noah-isme/section-allocator/pkg/export"
)

func (c *cli) container(ctx context.Context, requireRedis bool) (*bootstrap.Container, error) {
	return bootstrap.Build(ctx, c.cfg, c.logger, bootstrap.Options{RequireRedis: requireRedis})
}

func (c *cli) generate(ctx context.Context, args []string) error {
	parsed, err := parseGenerateArgs(args)
	if err != nil {
		return err
	}
	container, err := c.container(ctx, parsed.Async)
	if err != nil {
		return err
	}
	defer container.Close() //nolint:errcheck

	req := dto.GenerateScheduleRequest{SemesterID: parsed.SemesterID, Options: parsed.Options}
	if parsed.Async {
		if container.Jobs == nil {
			return errors.New("async runs need redis")
		}
		payload, err := container.Jobs.Enqueue(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "queued job %s for semester %s\n", payload.JobID, payload.SemesterID)
		return nil
	}

	result, runErr := container.Scheduler.Generate(ctx, req)
	if parsed.JSON {
		if err := c.printJSON(result); err != nil {
			return err
		}
		return runErr
	}
	if result != nil {
		if err := c.printSummary(result); err != nil {
			return err
		}
	}
	return runErr
}

func (c *cli) show(ctx context.Context, args []string) error {
	parsed, err := parseShowArgs(args)
	if err != nil {
		return err
	}
	container, err := c.container(ctx, false)
	if err != nil {
		return err
	}
	defer container.Close() //nolint:errcheck

	file, err := container.Exports.Export(ctx, parsed.SemesterID, parsed.Format)
	if err != nil {
		return err
	}
	if parsed.Out == "" {
		_, err = c.stdout.Write(file.Body)
		return err
	}
	if err := os.WriteFile(parsed.Out, file.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", parsed.Out, err)
	}
	fmt.Fprintf(c.stdout, "wrote %s (%d bytes)\n", parsed.Out, len(file.Body))
	return nil
}

func (c *cli) report(ctx context.Context, args []string) error {
	values, err := positionalArgs("report", args, "<semester-id>")
	if err != nil {
		return err
	}
	container, err := c.container(ctx, false)
	if err != nil {
		return err
	}
	defer container.Close() //nolint:errcheck

	report, err := container.Scheduler.ScheduleReport(ctx, values[0])
	if err != nil {
		return err
	}
	return c.printJSON(report)
}

func (c *cli) override(ctx context.Context, args []string) error {
	values, err := positionalArgs("override", args, "<section-id>", "<instructor-id>")
	if err != nil {
		return err
	}
	container, err := c.container(ctx, false)
	if err != nil {
		return err
	}
	defer container.Close() //nolint:errcheck

	if !container.Scheduler.OverrideAssignment(ctx, values[0], values[1]) {
		return fmt.Errorf("override of section %s rejected; see log for the reason", values[0])
	}
	fmt.Fprintf(c.stdout, "section %s assigned to %s\n", values[0], values[1])
	return nil
}

func (c *cli) clear(ctx context.Context, args []string) error {
	semesterID, err := parseClearArgs(args)
	if err != nil {
		return err
	}
	container, err := c.container(ctx, false)
	if err != nil {
		return err
	}
	defer container.Close() //nolint:errcheck

	cleared, err := container.Scheduler.ClearSchedule(ctx, semesterID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "deleted %d sections of semester %s\n", cleared, semesterID)
	return nil
}

func (c *cli) migrate(ctx context.Context, args []string) error {
	parsed, err := parseMigrateArgs(args)
	if err != nil {
		return err
	}
	db, err := database.NewPostgres(ctx, c.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	switch parsed.Direction {
	case "up":
		return database.RunMigrations(db.DB, c.logger)
	case "down":
		return database.RollbackMigrations(db.DB, parsed.Steps, c.logger)
	default:
		version, dirty, err := database.MigrationVersion(db.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "version %d dirty=%t\n", version, dirty)
		return nil
	}
}

func (c *cli) departments(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("departments expects list or add")
	}
	db, err := database.NewPostgres(ctx, c.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck
	repo := repository.NewDepartmentRepository(db)

	switch args[0] {
	case "list":
		departments, err := repo.List(ctx)
		if err != nil {
			return err
		}
		data := export.Dataset{Headers: []string{"Code", "Name", "ID"}}
		for _, d := range departments {
			data.Rows = append(data.Rows, map[string]string{"Code": d.Code, "Name": d.Name, "ID": d.ID})
		}
		return c.printTable(data)
	case "add":
		values, err := positionalArgs("departments add", args[1:], "<code>", "<name>")
		if err != nil {
			return err
		}
		department := &models.Department{Code: strings.ToLower(values[0]), Name: values[1]}
		if err := repo.Create(ctx, department); err != nil {
			return err
		}
		c.logger.Info("department_created", zap.String("department_id", department.ID), zap.String("code", department.Code))
		fmt.Fprintf(c.stdout, "created department %s (%s)\n", department.Code, department.ID)
		return nil
	default:
		return fmt.Errorf("unknown departments subcommand %q", args[0])
	}
}

func (c *cli) printSummary(result *dto.ScheduleResult) error {
	status := "valid"
	if !result.IsValid {
		status = "INVALID"
	}
	fmt.Fprintf(c.stdout, "semester %s: %s\n", result.SemesterID, status)
	if result.ErrorMessage != nil {
		fmt.Fprintf(c.stdout, "error: %s\n", *result.ErrorMessage)
	}
	stats := result.Stats
	fmt.Fprintf(c.stdout, "sections assigned: %d (fifo %d, least-chosen %d), cleared: %d\n",
		stats.SectionsAssigned, stats.FifoSections, stats.LeastChosenSections, stats.SectionsCleared)
	fmt.Fprintf(c.stdout, "preferences processed: %d, skipped: %d\n", stats.PreferencesProcessed, stats.PreferencesSkipped)

	if len(result.Underloaded) > 0 {
		fmt.Fprintln(c.stdout, "\nunderloaded instructors:")
		data := export.Dataset{Headers: []string{"Instructor", "Position", "Total", "Minimum"}}
		for _, load := range result.Underloaded {
			data.Rows = append(data.Rows, map[string]string{
				"Instructor": load.Name,
				"Position":   load.Position,
				"Total":      strconv.FormatFloat(load.Total, 'f', -1, 64),
				"Minimum":    strconv.FormatFloat(load.Minimum, 'f', -1, 64),
			})
		}
		if err := c.printTable(data); err != nil {
			return err
		}
	}
	if len(result.Skips) > 0 {
		fmt.Fprintln(c.stdout, "\nskipped:")
		data := export.Dataset{Headers: []string{"Instructor", "Course", "Reason"}}
		for _, skip := range result.Skips {
			data.Rows = append(data.Rows, map[string]string{"Instructor": skip.InstructorID, "Course": skip.CourseID, "Reason": skip.Reason})
		}
		if err := c.printTable(data); err != nil {
			return err
		}
	}
	if findings := result.Validation; findings.HasFindings() {
		fmt.Fprintf(c.stdout, "\nvalidation: %d conflicts, %d section limit violations\n", len(findings.Conflicts), len(findings.LimitViolations))
	}
	if result.RequiresAdminIntervention() {
		fmt.Fprintln(c.stdout, "\nadmin intervention required")
	}
	return nil
}

func (c *cli) printTable(data export.Dataset) error {
	body, err := export.NewTableExporter().Render(data)
	if err != nil {
		return err
	}
	_, err = c.stdout.Write(body)
	return err
}

func (c *cli) printJSON(value interface{}) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
