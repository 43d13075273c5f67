// Package logging builds the zap logger used by every lpforge package.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Levels accepted by Config.Level.
const (
	LevelNone   = "none"
	LevelNormal = "normal"
	LevelDebug  = "debug"
)

// Config selects console verbosity and an optional log file.
type Config struct {
	Level    string `json:"level,omitempty" yaml:"level,omitempty"`
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	FileMode string `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
}

// Validate rejects unknown levels and modes.
func (c Config) Validate() error {
	switch c.Level {
	case "", LevelNone, LevelNormal, LevelDebug:
	default:
		return fmt.Errorf("unknown log level %q (want none, normal or debug)", c.Level)
	}
	switch c.FileMode {
	case "", "append", "overwrite":
	default:
		return fmt.Errorf("unknown log file mode %q (want append or overwrite)", c.FileMode)
	}
	return nil
}

// New builds a logger writing human-readable entries to console. Stdout
// stays free for the run summary, so console is normally os.Stderr. With
// File set, every entry at the configured level is also written there.
func New(cfg Config, console io.Writer) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if console == nil {
		console = os.Stderr
	}
	level, enabled := levelFor(cfg.Level)

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	consoleCore := zapcore.NewNopCore()
	if enabled {
		consoleCore = zapcore.NewCore(shortErrors{zapcore.NewConsoleEncoder(ec)}, zapcore.AddSync(console), level)
	}

	fileCore := zapcore.NewNopCore()
	if cfg.File != "" && enabled {
		flags := os.O_CREATE | os.O_WRONLY
		if cfg.FileMode == "append" {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(cfg.File, flags, 0o644)
		if err != nil {
			return nil, fmt.Errorf("unable to open log file %s: %w", cfg.File, err)
		}
		fileCore = zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(f), level)
	}

	return zap.New(zapcore.NewTee(consoleCore, fileCore)).Named("lpforge"), nil
}

func levelFor(name string) (zapcore.LevelEnabler, bool) {
	switch name {
	case LevelNone:
		return zapcore.FatalLevel, false
	case LevelDebug:
		return zapcore.DebugLevel, true
	}
	return zapcore.InfoLevel, true
}

// shortErrors prints only the error message on console, leaving verbose
// stack-carrying forms to the file log.
type shortErrors struct {
	zapcore.Encoder
}

func (s shortErrors) Clone() zapcore.Encoder {
	return shortErrors{s.Encoder.Clone()}
}

func (s shortErrors) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if e, ok := f.Interface.(error); ok {
				f.Interface = errors.New(e.Error())
			}
		}
		out = append(out, f)
	}
	return s.Encoder.EncodeEntry(ent, out)
}
