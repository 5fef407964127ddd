package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-kratos/kratos/v2/errors"

	"github.com/devbydaniel/pipcam/config"
	"github.com/devbydaniel/pipcam/internal/app"
	"github.com/devbydaniel/pipcam/internal/cli"
	"github.com/devbydaniel/pipcam/internal/output"
)

// Exit statuses beyond 1 let scripts tell a missing grant or a busy camera
// apart from other failures.
const (
	exitFailure     = 1
	exitPermissions = 3
	exitCamera      = 4
	exitBusy        = 5
)

func main() {
	if err := run(context.Background()); err != nil {
		output.NewFormatter(os.Stderr).Error(describe(err))
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	return cli.NewRootCmd(&cli.Dependencies{
		App:    application,
		Config: cfg,
	}).ExecuteContext(ctx)
}

// describe prefers the message of a typed error over its full dump.
func describe(err error) string {
	var e *errors.Error
	if errors.As(err, &e) {
		if cause := e.Unwrap(); cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, cause)
		}
		return e.Message
	}
	return err.Error()
}

func exitCode(err error) int {
	switch errors.Reason(err) {
	case "PERMISSIONS_NOT_SATISFIED":
		return exitPermissions
	case "CAMERA_NOT_READY":
		return exitCamera
	case "RECORDING_IN_PROGRESS":
		return exitBusy
	default:
		return exitFailure
	}
}
