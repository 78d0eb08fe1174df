// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mmapfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenRegularFileMapsContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	want := bytes.Repeat([]byte("abcd"), 1024)
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if !bytes.Equal(f.Bytes, want) {
		t.Errorf("Bytes length = %d, want %d", len(f.Bytes), len(want))
	}
}

func TestOpenEmptyFileFallsBackToSlurp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open(empty): %v", err)
	}
	defer f.Close()

	if len(f.Bytes) != 0 {
		t.Errorf("Bytes length = %d, want 0", len(f.Bytes))
	}
}

func TestOpenMissingFileErrors(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Fatal("Open(missing file) = nil error, want an error")
	}
}

func TestCloseIsSafeOnSlurpedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close on a slurped file returned %v, want nil", err)
	}
}
