// Package main is the entry point for the contextview command.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/dshills/contextview/internal/app"
	"github.com/dshills/contextview/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// CLI defines the command-line interface.
type CLI struct {
	Config   string `name:"config" short:"c" type:"path" help:"Config file (.toml, .yaml or .yml)"`
	LogLevel string `name:"log-level" help:"Override the configured log level"`

	Project ProjectCmd `cmd:"" help:"Print the projection of a file"`
	Replay  ReplayCmd  `cmd:"" help:"Apply edit batches to a file and print each projected change"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// env is passed to every command's Run method.
type env struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *app.Logger
	metrics *app.Metrics
	stdout  io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("contextview"),
		kong.Description("Maintain projected views of documents under incremental edits"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "Error: loading config: %v\n", err)
		return 1
	}
	if cli.LogLevel != "" {
		if !app.ValidLogLevel(cli.LogLevel) {
			fmt.Fprintf(stderr, "Error: unknown log level %q\n", cli.LogLevel)
			return 2
		}
		cfg.Log.Level = cli.LogLevel
	}

	lc := cfg.LoggerConfig()
	lc.Output = stderr
	logger := app.NewLogger(lc)
	defer logger.Sync()

	e := &env{
		ctx:     ctx,
		cfg:     cfg,
		logger:  logger,
		metrics: app.NewMetrics(),
		stdout:  stdout,
	}
	if err := kctx.Run(e); err != nil {
		logger.Error("%s: %v", kctx.Command(), err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// VersionCmd prints version information.
type VersionCmd struct{}

// Run prints the build version.
func (c *VersionCmd) Run(e *env) error {
	_, err := fmt.Fprintf(e.stdout, "contextview %s (commit %s, built %s)\n", version, commit, date)
	return err
}
