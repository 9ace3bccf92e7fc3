// Command eventhub is a terminal front end for the EventHub event discovery
// and ticketing platform.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Shivanand-hulikatti/eventhub/internal/config"
	"github.com/Shivanand-hulikatti/eventhub/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// Commands that already printed their own output return an
		// ExitError; don't add a redundant "error:" line for those.
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := pflag.NewFlagSet("eventhub", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	configPath := global.String("config", "", "path to a YAML config file (default $EVENTHUB_CONFIG)")
	logLevel := global.String("log-level", "", "log level: debug, info, warn, error")
	if err := global.Parse(args); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			return err
		}
		args = []string{"--help"}
	} else {
		args = global.Args()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	logger := logging.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, cleanup := newApp(ctx, cfg, logger, defaultIO())
	defer cleanup()

	return newRoot(a).Execute(ctx, args)
}
