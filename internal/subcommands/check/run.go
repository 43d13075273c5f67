package check

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"lpforge/internal/config"
	"lpforge/internal/lperr"
	"lpforge/internal/validate"
)

// Run validates every html file named in args against the dialect and
// returns a not-compliant error when any of them has errors.
func Run(args []string) error {
	return run(args, os.Stdout)
}

func run(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "Config file supplying the dialect")
	quiet := fs.Bool("quiet", false, "Only print files that fail")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return errors.New("validate: at least one html file is required")
	}

	var cfg config.Config
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	d, err := cfg.Dialect.Compile()
	if err != nil {
		return err
	}

	var failed []string
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "%s: UNREADABLE (%v)\n", path, err)
			failed = append(failed, path)
			continue
		}
		r := validate.Validate(string(data), d)
		if !r.Valid {
			failed = append(failed, path)
		}
		if r.Valid && *quiet {
			continue
		}
		status := "OK"
		if !r.Valid {
			status = "INVALID"
		}
		fmt.Fprintf(w, "%s: %s (%d error(s), %d warning(s))\n", path, status, len(r.Errors), len(r.Warnings))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  error: %s\n", e)
		}
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
		for _, p := range r.DuplicatePairs {
			fmt.Fprintf(w, "  info: %s/%s repeated %d times\n", p.ID, p.Class, p.Count)
		}
	}

	if len(failed) > 0 {
		return lperr.NewNotCompliant(failed)
	}
	return nil
}
