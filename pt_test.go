// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ngram

import (
	"sort"
	"testing"

	"github.com/textcat/ngramtrie/internal/quantize"
)

func buildSamplePT() *PT {
	mwt := NewMWT(4, 32, 32, false)
	mwt.SetFrequency([]byte("a"), 1, 0, 100, false)
	mwt.SetFrequency([]byte("ab"), 2, 0, 50, false)
	mwt.SetFrequency([]byte("ab"), 2, 1, 10, true)
	mwt.SetFrequency([]byte("xy"), 2, 0, 5, false)
	return BuildPT(mwt, 2, false, 0, nil)
}

func TestBuildPTPreservesKeys(t *testing.T) {
	pt := buildSamplePT()

	var got []string
	pt.Enumerate(2, func(pt *PT, key []byte, keyLen int, records []PTFreqRecord) bool {
		got = append(got, string(key[:keyLen]))
		return true
	})
	sort.Strings(got)

	want := []string{"a", "ab", "xy"}
	if len(got) != len(want) {
		t.Fatalf("Enumerate() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildPTPreservesPerLanguageRecords(t *testing.T) {
	pt := buildSamplePT()

	var records []PTFreqRecord
	pt.Enumerate(2, func(pt *PT, key []byte, keyLen int, recs []PTFreqRecord) bool {
		if string(key[:keyLen]) == "ab" {
			records = recs
		}
		return true
	})

	if len(records) != 2 {
		t.Fatalf("records for \"ab\" = %d, want 2", len(records))
	}
	byLang := map[uint32]PTFreqRecord{}
	for _, r := range records {
		byLang[r.LangID()] = r
	}
	if byLang[0].StopGram() {
		t.Errorf("lang 0 record flagged as stop-gram")
	}
	if !byLang[1].StopGram() {
		t.Errorf("lang 1 record not flagged as stop-gram")
	}
	// Quantization is lossy: the stored frequency must equal 50 quantized
	// and then reconstructed.
	if want := quantize.Dequantize(quantize.Quantize(50)); byLang[0].Frequency() != want {
		t.Errorf("lang 0 frequency = %d, want %d (50 after quantization)", byLang[0].Frequency(), want)
	}
}

func TestBuildPTRootNeverAppearsAsAKey(t *testing.T) {
	pt := buildSamplePT()
	pt.Enumerate(2, func(pt *PT, key []byte, keyLen int, records []PTFreqRecord) bool {
		if keyLen == 0 {
			t.Fatalf("Enumerate emitted a zero-length key (the root)")
		}
		return true
	})
}

func TestCompactToMWTRoundTrip(t *testing.T) {
	pt := buildSamplePT()
	mwt := pt.CompactToMWT(32, 32, false)

	if got := mwt.Frequency([]byte("a"), 1, 0); got == 0 {
		t.Errorf("CompactToMWT lost frequency for \"a\"")
	}
	if !mwt.IsStopGram([]byte("ab"), 2, 1) {
		t.Errorf("CompactToMWT lost the stop-gram flag for (ab, lang=1)")
	}
}

func TestValueNegatesStopGrams(t *testing.T) {
	pt := buildSamplePT()
	var stop, nonStop PTFreqRecord
	pt.Enumerate(2, func(pt *PT, key []byte, keyLen int, records []PTFreqRecord) bool {
		if string(key[:keyLen]) == "ab" {
			for _, r := range records {
				if r.StopGram() {
					stop = r
				} else {
					nonStop = r
				}
			}
		}
		return true
	})

	if pt.Value(stop) >= 0 {
		t.Errorf("Value(stop-gram record) = %v, want negative", pt.Value(stop))
	}
	if pt.Value(nonStop) <= 0 {
		t.Errorf("Value(non-stop-gram record) = %v, want positive", pt.Value(nonStop))
	}
}
