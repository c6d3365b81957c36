package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/noah-isme/section-allocator/internal/dto"
	"github.com/noah-isme/section-allocator/internal/service"
)

type generateArgs struct {
	SemesterID string
	Options    dto.GenerateOptions
	Async      bool
	JSON       bool
}

type showArgs struct {
	SemesterID string
	Format     string
	Out        string
}

type migrateArgs struct {
	Direction string
	Steps     int
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	return fs
}

func parseGenerateArgs(args []string) (generateArgs, error) {
	fs := newFlagSet("generate")
	async := fs.Bool("async", false, "queue the run for the API worker")
	clearExisting := fs.Bool("clear", false, "delete existing sections before allocating")
	noLeastChosen := fs.Bool("no-least-chosen", false, "skip the least-chosen pass")
	strict := fs.Bool("strict", false, "roll back when validation finds conflicts")
	asJSON := fs.Bool("json", false, "print the full result as JSON")
	if err := fs.Parse(args); err != nil {
		return generateArgs{}, err
	}
	id, err := singleArg(fs, "semester-id")
	if err != nil {
		return generateArgs{}, err
	}
	opts := dto.DefaultGenerateOptions()
	opts.ClearExisting = *clearExisting
	opts.EnableLeastChosen = !*noLeastChosen
	opts.StrictMode = *strict
	return generateArgs{SemesterID: id, Options: opts, Async: *async, JSON: *asJSON}, nil
}

func parseShowArgs(args []string) (showArgs, error) {
	fs := newFlagSet("show")
	format := fs.StringP("format", "f", service.ExportFormatTable, "table, grid, csv, pdf or xlsx")
	out := fs.StringP("out", "o", "", "write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return showArgs{}, err
	}
	id, err := singleArg(fs, "semester-id")
	if err != nil {
		return showArgs{}, err
	}
	f := strings.ToLower(strings.TrimSpace(*format))
	switch f {
	case service.ExportFormatTable, service.ExportFormatGrid, service.ExportFormatCSV:
	case service.ExportFormatPDF, service.ExportFormatXLSX:
		if *out == "" {
			return showArgs{}, fmt.Errorf("--out is required for %s output", f)
		}
	default:
		return showArgs{}, fmt.Errorf("unsupported format %q", *format)
	}
	return showArgs{SemesterID: id, Format: f, Out: *out}, nil
}

func parseMigrateArgs(args []string) (migrateArgs, error) {
	fs := newFlagSet("migrate")
	steps := fs.Int("steps", 1, "migrations to roll back with down")
	if err := fs.Parse(args); err != nil {
		return migrateArgs{}, err
	}
	direction, err := singleArg(fs, "up|down|version")
	if err != nil {
		return migrateArgs{}, err
	}
	switch direction {
	case "up", "version":
	case "down":
		if *steps <= 0 {
			return migrateArgs{}, errors.New("--steps must be positive")
		}
	default:
		return migrateArgs{}, fmt.Errorf("unknown migrate direction %q", direction)
	}
	return migrateArgs{Direction: direction, Steps: *steps}, nil
}

func parseClearArgs(args []string) (string, error) {
	fs := newFlagSet("clear")
	yes := fs.Bool("yes", false, "confirm deletion of every section of the semester")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	id, err := singleArg(fs, "semester-id")
	if err != nil {
		return "", err
	}
	if !*yes {
		return "", errors.New("refusing to clear without --yes")
	}
	return id, nil
}

func positionalArgs(name string, args []string, want ...string) ([]string, error) {
	fs := newFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != len(want) {
		return nil, fmt.Errorf("%s expects %s", name, strings.Join(want, " "))
	}
	return fs.Args(), nil
}

func singleArg(fs *pflag.FlagSet, name string) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s expects exactly one <%s>", fs.Name(), name)
	}
	value := strings.TrimSpace(fs.Arg(0))
	if value == "" {
		return "", fmt.Errorf("<%s> is empty", name)
	}
	return value, nil
}
