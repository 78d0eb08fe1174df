// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ngram

import (
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/textcat/ngramtrie/internal/logging"
)

// BuildOptions configures one language's training run end to end.
type BuildOptions struct {
	BitsPerLevel int // trie fan-out exponent for the working WT (default 2)
	TopK         int // final n-gram budget per length
	MinLen       int // minimum n-gram length (>= 3)
	MaxLen       int // maximum n-gram length considered during extension
	AffixRatio   float64
	Alignment    int // trigram count alignment stride, paired with bigram-padding modes
	Power        float64
	IgnoreSpace  bool

	// Oversample controls how many more than TopK trigrams are seeded
	// before pruning begins, expressed as a multiplier (e.g. 2.5).
	Oversample float64
}

// DefaultBuildOptions returns sane defaults matching the builder's
// documented behavior for a typical training run.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		BitsPerLevel: 2,
		TopK:         1000,
		MinLen:       3,
		MaxLen:       4,
		AffixRatio:   0.95,
		Alignment:    1,
		Power:        0,
		Oversample:   2.5,
	}
}

// Builder drives the training pipeline for one language: trigram
// counting, seeding, iterative length extension with pruning, scaling and
// coverage measurement, ending in a scaled WT ready to be merged into an
// MWT and packed. Stop-gram selection is not part of Builder; it is done
// with the package-level functions in stopgrams.go.
type Builder struct {
	opts BuildOptions

	trigrams [256 * 256 * 256]uint32
	seen     *bloom.BloomFilter

	wt    *WT
	total uint64
}

// NewBuilder constructs a builder for a single language's training run.
// The bloom filter is sized generously (16M expected items, 1% false
// positive rate). CountTrigrams adds every counted trigram to it, but
// nothing in the builder reads it: the dense trigrams array above is the
// only source of counts.
func NewBuilder(opts BuildOptions) *Builder {
	return &Builder{
		opts: opts,
		seen: bloom.NewWithEstimates(16_000_000, 0.01),
		wt:   NewWT(opts.BitsPerLevel, 1<<16, opts.IgnoreSpace),
	}
}

// CountTrigrams streams data, updating the dense 256^3 trigram histogram.
// alignment selects which trigram start positions are counted: with
// alignment > 1 only starts at multiples of alignment are counted (e.g.
// to forbid trigrams crossing a two-byte UTF-16-ish frame) and the others
// are skipped; pass 0 or 1 for no alignment restriction.
func (b *Builder) CountTrigrams(data []byte, alignment int) {
	logging.Phase("count-trigrams").Int("bytes", len(data)).Send()

	for i := 0; i+2 < len(data); i++ {
		if alignment > 1 && (i%alignment) != 0 {
			continue
		}
		idx := uint32(data[i])<<16 | uint32(data[i+1])<<8 | uint32(data[i+2])
		b.trigrams[idx]++
		b.total++
		key := [3]byte{data[i], data[i+1], data[i+2]}
		b.seen.Add(key[:])
	}
}

// SeedWT inserts the top (TopK * Oversample) trigrams from the counted
// histogram into the working WT, leaving room for later pruning.
func (b *Builder) SeedWT() {
	budget := int(float64(b.opts.TopK) * b.opts.Oversample)
	if budget < 1 {
		budget = 1
	}
	logging.Phase("seed").Int("budget", budget).Send()

	threshold := b.topKThreshold(budget)
	key := make([]byte, 3)
	for idx, count := range b.trigrams {
		if count == 0 || count < threshold {
			continue
		}
		key[0] = byte(idx >> 16)
		key[1] = byte(idx >> 8)
		key[2] = byte(idx)
		b.wt.Insert(key, 3, count, false)
	}
}

// topKThreshold finds the largest count such that at least budget
// trigrams have a count at or above it (or 1 if fewer than budget
// trigrams were seen), via a counting-sort-style histogram over the
// (small, bounded) count range actually observed. All trigrams tied at
// the returned count pass it, so more than budget may be kept.
func (b *Builder) topKThreshold(budget int) uint32 {
	var maxCount uint32
	for _, c := range b.trigrams {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		return 1
	}

	hist := make([]int, maxCount+1)
	for _, c := range b.trigrams {
		if c > 0 {
			hist[c]++
		}
	}

	kept := 0
	for threshold := maxCount; threshold > 0; threshold-- {
		kept += hist[threshold]
		if kept >= budget {
			return threshold
		}
	}
	return 1
}

// ExtendLength streams data once more at length L: for every position,
// if the (L-1)-byte prefix ending just before it is already known in the
// WT, increments the L-byte extension formed by appending the next byte.
func (b *Builder) ExtendLength(data []byte, length int) int {
	logging.Phase("extend").Int("length", length).Send()

	extended := 0
	prefixLen := length - 1
	for i := 0; i+length <= len(data); i++ {
		if b.wt.IncrementExtensionByte(data[i:i+prefixLen], prefixLen, data[i+prefixLen], 1, false) {
			extended++
		}
	}
	return extended
}

// Prune applies affix suppression followed by a top-K cutoff to the
// working trie at the given length, per the builder's documented
// pruning pass. minLength marks the stricter-ratio case.
func (b *Builder) Prune(length int, minLength bool) {
	ratio := b.opts.AffixRatio
	if minLength {
		ratio = 0.995
	}
	suppressed := b.wt.SuppressAffixes(length, ratio)

	lengthBudget := b.lengthBudget(length)
	b.topKFilter(length, lengthBudget)

	logging.Phase("prune").
		Int("length", length).
		Int("suppressed", suppressed).
		Int("budget", lengthBudget).
		Send()
}

// lengthBudget implements the K / (maxLen - L + 3) schedule.
func (b *Builder) lengthBudget(length int) int {
	denom := b.opts.MaxLen - length + 3
	if denom < 1 {
		denom = 1
	}
	return b.opts.TopK / denom
}

// topKFilter zeroes the frequency of every leaf of the given length
// below the budget-th largest frequency among them; leaves tied at that
// frequency are all kept, so more than budget may remain.
func (b *Builder) topKFilter(length, budget int) {
	var freqs []uint32
	b.wt.Enumerate(length, func(t *WT, _ uint32, key []byte, keyLen int) bool {
		if keyLen == length {
			if f := t.Lookup(key, keyLen); f > 0 {
				freqs = append(freqs, f)
			}
		}
		return true
	})
	if len(freqs) <= budget {
		return
	}
	threshold := nthLargest(freqs, budget)

	b.wt.Enumerate(length, func(t *WT, idx uint32, key []byte, keyLen int) bool {
		if keyLen == length && t.Lookup(key, keyLen) < threshold {
			t.nodes[idx].freq = 0
		}
		return true
	})
}

// nthLargest returns the value of the n-th largest element of freqs
// (1-indexed; n clamped into range), used as a cutoff threshold.
func nthLargest(freqs []uint32, n int) uint32 {
	if n < 1 {
		n = 1
	}
	if n > len(freqs) {
		n = len(freqs)
	}
	sorted := append([]uint32(nil), freqs...)
	// simple insertion sort descending: pruning budgets are small
	// relative to corpus size by the time this runs, so O(n^2) is fine.
	for i := 1; i < len(sorted); i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] < v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}
	return sorted[n-1]
}

// MeasureCoverage re-streams data and returns the four coverage
// quantities for the current working trie.
func (b *Builder) MeasureCoverage(data []byte) Coverage {
	return Measure(b.wt, data)
}

// Scale applies the configured smoothing power to every leaf's
// frequency, using b.total as the training total.
func (b *Builder) Scale() {
	b.wt.ScaleFrequencies(b.total, b.opts.Power, LogPower(b.opts.Power))
}

// WT exposes the working trie, e.g. to merge into an MWT or hand to
// stop-gram selection.
func (b *Builder) WT() *WT { return b.wt }

// Total returns the accumulated trigram training total.
func (b *Builder) Total() uint64 { return b.total }

// Run executes the full pipeline (phases 1-4, 7) over data for a single
// pass of length extension from trigrams up to MaxLen, leaving the
// working WT pruned and scaled. MinLen only selects which length is
// pruned with the stricter affix ratio. Coverage measurement (phase 5) and stop-gram
// selection (phase 6) are separate calls, since they need a fully built
// MWT/PT from potentially multiple languages and are orchestrated by the
// caller across the whole language set, not by a single Builder.
func (b *Builder) Run(data []byte, alignment int) {
	b.CountTrigrams(data, alignment)
	b.SeedWT()
	b.Prune(3, b.opts.MinLen == 3)

	for length := 4; length <= b.opts.MaxLen; length++ {
		extended := b.ExtendLength(data, length)
		if extended == 0 {
			logging.Infof("extension at length %d produced nothing, stopping", length)
			break
		}
		b.Prune(length, length == b.opts.MinLen)
	}

	b.Scale()
}
