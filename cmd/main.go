package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	verifier "github.com/ethereum-optimism/infra/op-verifier"
	"github.com/ethereum-optimism/infra/op-verifier/exitcodes"
	"github.com/ethereum-optimism/infra/op-verifier/flags"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

// newApp builds the CLI application. Exit codes are applied by ExitErrHandler.
func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-verifier"
	app.Usage = "Input/expected-output comparison test harness"
	app.Description = "op-verifier runs a program once per input file and compares its output with the expected output"
	app.ArgsUsage = "<subject-executable>"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			cli.HandleExitCoder(cli.Exit(err.Error(), verifier.ExitCode(err)))
		}
	}
	return app
}

func main() {
	// Env-var fallbacks for the flags may live in a dotenv file
	if _, err := verifier.LoadEnvFile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcodes.RuntimeErr)
	}

	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	if ctx.NArg() < 1 {
		return nil, verifier.NewRuntimeError(errors.New("missing subject program argument, usage: op-verifier [flags] <subject-executable>"))
	}

	cfg, err := verifier.NewConfig(ctx, log, ctx.Args().First())
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, verifier.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	cfg.Log.Debug("Config", "config", cfg)

	v, err := verifier.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, verifier.NewRuntimeError(fmt.Errorf("failed to create verifier: %w", err))
	}

	return v, nil
}
