// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ngram

import "github.com/textcat/ngramtrie/internal/quantize"

// ConfusableSource is one other language's packed model considered as a
// source of stop-gram candidates, together with its similarity score to
// the language currently being built (0..1).
type ConfusableSource struct {
	PT        *PT
	Similarity float64
}

// DefaultSimilarityThreshold is a default minimum cross-model similarity
// score for a caller choosing which languages to pass as confusable
// sources. SelectStopGrams does not apply it: it skips only sources whose
// Similarity is <= 0.
const DefaultSimilarityThreshold = 0.85

// SelectStopGrams implements the candidate half of stop-gram selection:
// for every n-gram in each confusable source that is not already a
// stop-gram there, weighted by that source's similarity score and above
// the quantisation cutoff, insert it into target as a stop-gram with
// zero frequency, and record its weight in weights.
//
// The caller is expected to stream the current language's training text
// once more afterward (via CountStopGramCandidates) so that candidates
// with a low observed count survive as stop-grams and the rest are
// dropped — SelectStopGrams only stages candidates, it does not decide
// survival.
func SelectStopGrams(target *WT, weights *WT, sources []ConfusableSource) int {
	cutoff := quantize.Cutoff()
	added := 0

	for _, src := range sources {
		if src.Similarity <= 0 {
			continue
		}
		src.PT.Enumerate(int(src.PT.LongestKey()), func(pt *PT, key []byte, keyLen int, records []ptFreqRecord) bool {
			for _, r := range records {
				if r.StopGram() {
					continue
				}
				if r.Frequency() < cutoff {
					continue
				}
				if target.Lookup(key, keyLen) != 0 || target.IsStopGram(key, keyLen) {
					continue
				}
				target.Insert(key, keyLen, 0, true)
				weight := uint32(src.Similarity * float64(r.Frequency()))
				weights.Insert(key, keyLen, weight, false)
				added++
			}
			return true
		})
	}
	return added
}

// CountStopGramCandidates streams data and increments, in counts, the
// observed count of every key already staged as a zero-frequency
// stop-gram candidate in candidates. Call this once after SelectStopGrams
// and before FinalizeStopGrams.
func CountStopGramCandidates(candidates *WT, counts *WT, data []byte, maxLen int) {
	candidates.Enumerate(maxLen, func(t *WT, _ uint32, key []byte, keyLen int) bool {
		if !t.IsStopGram(key, keyLen) {
			return true
		}
		n := countOccurrences(data, key)
		counts.Increment(key, keyLen, int64(n), false)
		return true
	})
}

// countOccurrences counts (possibly overlapping) occurrences of needle in
// haystack.
func countOccurrences(haystack, needle []byte) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return 0
	}
	n := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

// FinalizeStopGrams returns the keys of the staged stop-gram candidates
// in target whose observed count in counts is at most maxCount. target
// itself is not modified: candidates above maxCount stay staged in it,
// and the caller builds the final model from the returned survivors.
func FinalizeStopGrams(target *WT, counts *WT, maxLen int, maxCount uint32) (survivors [][]byte) {
	target.Enumerate(maxLen, func(t *WT, _ uint32, key []byte, keyLen int) bool {
		if !t.IsStopGram(key, keyLen) {
			return true
		}
		if counts.Lookup(key, keyLen) <= maxCount {
			cp := make([]byte, keyLen)
			copy(cp, key)
			survivors = append(survivors, cp)
		}
		return true
	})
	return survivors
}

// ApplyUniqueBoost multiplies by boost the frequency of every leaf in t
// that has no corresponding entry (frequency zero) in any of others —
// i.e. n-grams unique to this language within the given comparison set.
func ApplyUniqueBoost(t *WT, maxLen int, boost float64, others []*WT) {
	if boost == 1 {
		return
	}
	t.Enumerate(maxLen, func(wt *WT, idx uint32, key []byte, keyLen int) bool {
		for _, o := range others {
			if o.Lookup(key, keyLen) != 0 {
				return true
			}
		}
		n := &wt.nodes[idx]
		boosted := float64(n.freq) * boost
		if boosted > 0xFFFFFFFF {
			n.freq = 0xFFFFFFFF
		} else {
			n.freq = uint32(boosted)
		}
		return true
	})
}
