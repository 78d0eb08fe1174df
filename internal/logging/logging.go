// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package logging provides the builder's and CLI front-ends' leveled
// logger: package-level Debug/Info/Warn/Error funcs with the minimum
// level switched by an environment variable, backed by zerolog so
// builder phase transitions carry structured fields (lang, phase,
// n-gram length) rather than formatted strings.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the package-wide logger. Reassign it (e.g. in tests) to
// capture or silence output.
var Logger zerolog.Logger

func init() {
	level := zerolog.InfoLevel
	if lvl, ok := os.LookupEnv("NGRAM_LOGLEVEL"); ok {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}

	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).
		Level(level).
		With().Timestamp().Logger()
}

// Debugf logs at debug level with fmt-style formatting.
func Debugf(format string, args ...any) { Logger.Debug().Msgf(format, args...) }

// Infof logs at info level with fmt-style formatting.
func Infof(format string, args ...any) { Logger.Info().Msgf(format, args...) }

// Warnf logs at warn level with fmt-style formatting.
func Warnf(format string, args ...any) { Logger.Warn().Msgf(format, args...) }

// Errorf logs at error level with fmt-style formatting.
func Errorf(format string, args ...any) { Logger.Error().Msgf(format, args...) }

// Phase returns an event pre-tagged with the builder phase name, for
// structured per-phase fields (lang, n-gram length, counts) instead of
// string interpolation.
func Phase(phase string) *zerolog.Event {
	return Logger.Info().Str("phase", phase)
}

// SetDebug raises the package logger to debug level, e.g. for a CLI
// front-end's -v flag.
func SetDebug() { Logger = Logger.Level(zerolog.DebugLevel) }
