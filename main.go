package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/giygas/hwi-pipeline/config"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/joho/godotenv"
)

var errUsage = errors.New("usage")

type command struct {
	name  string
	usage string
	flags func(fs *flag.FlagSet) func(ctx context.Context, cfg *config.Config) error
}

var commands = []command{
	{"process", "parse the extracts and write the output documents", processCommand},
	{"migrate", "apply migrations and persist a full run to DATABASE_URL", migrateCommand},
	{"calculate", "recompute category aggregates and HWI scores from persisted sales", calculateCommand},
	{"serve", "run the pipeline on a schedule and serve the results over HTTP", serveCommand},
}

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errUsage
	}

	cmd, ok := findCommand(args[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return errUsage
	}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "verbose console logging")
	runCmd := cmd.flags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logging.InitLogger(logging.Options{
		Dir:            "logs",
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		Verbose:        *verbose,
	}); err != nil {
		fmt.Fprintln(stderr, "file logging disabled:", err)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCmd(ctx, cfg)
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: hwi-pipeline <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.usage)
	}
}

// loadEnv reads .env from the working directory, then from the executable's directory
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		return
	}
	// plain environment variables are enough when neither file exists
	_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
}
