package entrypoint

import (
	"context"
	"errors"

	"lpforge/internal/app"
	"lpforge/internal/cli"
	"lpforge/internal/lperr"
	"lpforge/internal/subcommands/analyze"
	"lpforge/internal/subcommands/check"
	"lpforge/internal/subcommands/testconfigs"
	"lpforge/internal/tui"
)

// ExitNotCompliant is returned when output fails dialect validation.
const ExitNotCompliant = 3

func Execute(args []string) (int, error) {
	if len(args) > 1 {
		switch args[1] {
		case "analyze":
			return exitCode(analyze.Run(args[2:]))
		case "validate":
			return exitCode(check.Run(args[2:]))
		case "test-configs":
			return exitCode(testconfigs.Run(args[2:]))
		}
	}

	if len(args) == 1 {
		res, err := tui.Run()
		if err != nil {
			return 1, err
		}
		if !res.RunNow {
			return 0, nil
		}
		return exitCode(app.Run(context.Background(), res.Options))
	}

	opts, initConfig, err := cli.ParseArgs(args[1:])
	if err != nil {
		var exitErr cli.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code, exitErr.Err
		}
		return 1, err
	}

	if initConfig {
		return exitCode(cli.RunConfigWizard())
	}

	return exitCode(app.Run(context.Background(), opts))
}

func exitCode(err error) (int, error) {
	switch {
	case err == nil:
		return 0, nil
	case lperr.IsNotCompliant(err):
		return ExitNotCompliant, err
	case lperr.IsInvalidInput(err):
		return 2, err
	}
	return 1, err
}
