package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/section-allocator/pkg/config"
	"github.com/noah-isme/section-allocator/pkg/logger"
)

const usage = `usage: scheduler <command> [flags]

commands:
  generate <semester-id> [--async] [--clear] [--no-least-chosen] [--strict] [--json]
  show <semester-id> [--format table|grid|csv|pdf|xlsx] [--out file]
  report <semester-id>
  override <section-id> <instructor-id>
  clear <semester-id> --yes
  migrate up|down|version [--steps n]
  departments list | departments add <code> <name>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := &cli{cfg: cfg, logger: logr, stdout: os.Stdout}
	if err := cli.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		logr.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cli struct {
	cfg    *config.Config
	logger *zap.Logger
	stdout io.Writer
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "generate":
		return c.generate(ctx, args)
	case "show":
		return c.show(ctx, args)
	case "report":
		return c.report(ctx, args)
	case "override":
		return c.override(ctx, args)
	case "clear":
		return c.clear(ctx, args)
	case "migrate":
		return c.migrate(ctx, args)
	case "departments":
		return c.departments(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(c.stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}
