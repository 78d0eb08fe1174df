// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ngram

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestWritePTReadPTRoundTrip(t *testing.T) {
	pt := buildSamplePT()

	path := filepath.Join(t.TempDir(), "test.db")
	if err := WritePTFile(path, pt); err != nil {
		t.Fatalf("WritePTFile: %v", err)
	}

	got, err := ReadPT(path)
	if err != nil {
		t.Fatalf("ReadPT: %v", err)
	}

	if got.BitsPerLevel() != pt.BitsPerLevel() {
		t.Errorf("BitsPerLevel = %d, want %d", got.BitsPerLevel(), pt.BitsPerLevel())
	}
	if got.LongestKey() != pt.LongestKey() {
		t.Errorf("LongestKey = %d, want %d", got.LongestKey(), pt.LongestKey())
	}
	if got.NumFullNodes() != pt.NumFullNodes() {
		t.Errorf("NumFullNodes = %d, want %d", got.NumFullNodes(), pt.NumFullNodes())
	}
	if got.NumFrequencyRecords() != pt.NumFrequencyRecords() {
		t.Errorf("NumFrequencyRecords = %d, want %d", got.NumFrequencyRecords(), pt.NumFrequencyRecords())
	}

	var wantKeys, gotKeys []string
	pt.Enumerate(2, func(_ *PT, key []byte, keyLen int, _ []PTFreqRecord) bool {
		wantKeys = append(wantKeys, string(key[:keyLen]))
		return true
	})
	got.Enumerate(2, func(_ *PT, key []byte, keyLen int, _ []PTFreqRecord) bool {
		gotKeys = append(gotKeys, string(key[:keyLen]))
		return true
	})
	sort.Strings(wantKeys)
	sort.Strings(gotKeys)
	if len(wantKeys) != len(gotKeys) {
		t.Fatalf("reloaded keys %v, want %v", gotKeys, wantKeys)
	}
	for i := range wantKeys {
		if wantKeys[i] != gotKeys[i] {
			t.Errorf("reloaded key[%d] = %q, want %q", i, gotKeys[i], wantKeys[i])
		}
	}
}

func TestWritePTFileIsDeterministic(t *testing.T) {
	pt := buildSamplePT()

	var buf1, buf2 bytes.Buffer
	if err := WritePT(&buf1, pt); err != nil {
		t.Fatalf("WritePT (first): %v", err)
	}
	if err := WritePT(&buf2, pt); err != nil {
		t.Fatalf("WritePT (second): %v", err)
	}
	if !bytes.Equal(buf1.Bytes(), buf2.Bytes()) {
		t.Fatalf("WritePT is not deterministic across repeated calls")
	}
}

func TestReadPTRejectsBadSignature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.db")
	if err := os.WriteFile(path, []byte("not-a-trie-file-at-all-012345678901234567890"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPT(path); err == nil {
		t.Fatal("ReadPT accepted a file with a bad signature")
	}
}

func TestWriteMWTFileReadMWTFileRoundTrip(t *testing.T) {
	mwt := NewMWT(4, 16, 16, false)
	mwt.SetFrequency([]byte("cat"), 3, 0, 77, false)
	mwt.SetFrequency([]byte("cat"), 3, 1, 3, true)

	var buf bytes.Buffer
	if err := WriteMWTFile(&buf, mwt, 3); err != nil {
		t.Fatalf("WriteMWTFile: %v", err)
	}

	got, longestKey, err := ReadMWTFile(&buf)
	if err != nil {
		t.Fatalf("ReadMWTFile: %v", err)
	}
	if longestKey != 3 {
		t.Errorf("longestKey = %d, want 3", longestKey)
	}
	if f := got.Frequency([]byte("cat"), 3, 0); f != 77 {
		t.Errorf("Frequency(cat, lang=0) = %d, want 77", f)
	}
	if !got.IsStopGram([]byte("cat"), 3, 1) {
		t.Errorf("IsStopGram(cat, lang=1) = false, want true")
	}
}
