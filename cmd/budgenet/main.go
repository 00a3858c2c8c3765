package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"budgenet/internal/app"
	"budgenet/internal/cli"
	"budgenet/internal/config"
	"budgenet/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext()
	code := run(ctx, cfg, logger, os.Args[1:], os.Stdout, os.Stderr, time.Now)
	stop()
	os.Exit(code)
}

// printNotifier writes user messages to the terminal and remembers whether
// an error was already shown.
type printNotifier struct {
	out, errOut io.Writer
	failed      bool
}

func (n *printNotifier) Info(msg string) {
	fmt.Fprintln(n.out, goodStyle.Render(msg))
}

func (n *printNotifier) Error(msg string) {
	n.failed = true
	fmt.Fprintln(n.errOut, badStyle.Render(msg))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: budgenet <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintln(w, "  "+c.usage)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, args []string, out, errOut io.Writer, now func() time.Time) int {
	if len(args) == 0 {
		usage(errOut)
		return 2
	}
	cmd, ok := findCommand(args[0])
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n\n", args[0])
		usage(errOut)
		return 2
	}

	notes := &printNotifier{out: out, errOut: errOut}
	session, err := app.NewSession(ctx, app.Options{
		Config:   cfg,
		Logger:   logger,
		Now:      now,
		Notifier: notes,
	})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer session.Close()

	e := &env{ctx: ctx, session: session, out: out, now: now, span: cfg.ProjectionSpan}
	if err := cmd.run(e, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		logger.WithComponent(log.ComponentCLI).Debug("Command failed",
			log.FieldOperation, cmd.name,
			log.FieldError, err)
		if !notes.failed {
			fmt.Fprintln(errOut, err)
		}
		return 1
	}
	return 0
}
