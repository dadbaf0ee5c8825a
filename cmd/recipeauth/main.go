// Command recipeauth signs in, registers and edits accounts from a terminal.
//
// Without RECIPEAUTH_API_KEY every session is local. The session record, the
// change ledger and remembered local credentials live in the configured store
// so consecutive invocations share them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MrEthical07/recipeauth"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(getenv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	cfg, cmdArgs, err := parseGlobal(cfg, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if len(cmdArgs) == 0 {
		fmt.Fprintln(stderr, "missing command; run with -h for usage")
		return 2
	}
	cmd, ok := commands[cmdArgs[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", cmdArgs[0])
		return 2
	}

	log := newLogger(cfg.Verbose, stderr)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer b.close()

	engine, err := buildEngine(cfg, b, log)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer engine.Close()

	env := &cmdEnv{engine: engine, stdout: stdout, stderr: stderr}
	if err := cmd(ctx, env, cmdArgs[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core).Named("recipeauth")
}

// errReported marks a failure whose message was already printed.
var errReported = errors.New("reported")

type cmdEnv struct {
	engine *recipeauth.Engine
	stdout io.Writer
	stderr io.Writer
}

func (e *cmdEnv) report(res recipeauth.Result) error {
	if !res.Success {
		fmt.Fprintln(e.stderr, res.Message)
		return errReported
	}
	switch {
	case res.Message != "":
		fmt.Fprintln(e.stdout, res.Message)
	case res.User != nil:
		fmt.Fprintf(e.stdout, "Signed in as %s <%s> (%s)\n", res.User.Label(), res.User.Email, res.User.Provider)
	}
	return nil
}
