// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestPhaseTagsPhaseField(t *testing.T) {
	var buf bytes.Buffer
	orig := Logger
	defer func() { Logger = orig }()
	Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)

	Phase("seed").Int("budget", 42).Send()

	out := buf.String()
	if !strings.Contains(out, `"phase":"seed"`) {
		t.Errorf("Phase log = %q, want it to contain phase=seed", out)
	}
	if !strings.Contains(out, `"budget":42`) {
		t.Errorf("Phase log = %q, want it to contain budget=42", out)
	}
}

func TestSetDebugRaisesLevel(t *testing.T) {
	orig := Logger
	defer func() { Logger = orig }()
	Logger = zerolog.New(nil).Level(zerolog.InfoLevel)

	SetDebug()
	if Logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level after SetDebug = %v, want DebugLevel", Logger.GetLevel())
	}
}

func TestInfofFormatsMessage(t *testing.T) {
	var buf bytes.Buffer
	orig := Logger
	defer func() { Logger = orig }()
	Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)

	Infof("wrote %d records", 7)
	if !strings.Contains(buf.String(), "wrote 7 records") {
		t.Errorf("Infof output = %q, want it to contain the formatted message", buf.String())
	}
}

func TestDebugfSuppressedAboveDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	orig := Logger
	defer func() { Logger = orig }()
	Logger = zerolog.New(&buf).Level(zerolog.InfoLevel)

	Debugf("should not appear")
	if buf.Len() != 0 {
		t.Errorf("Debugf wrote output at info level: %q", buf.String())
	}
}
