// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package ptbits implements the packed-trie child bitmap: a fixed-size
// array of uint32 "words" recording which of a node's fan-out slots are
// present, plus a running popcount ("rank") prefix per word so a present
// child's position in the compacted child array is an O(1) computation.
//
// The fan-out is configurable (2^BitsPerLevel children) rather than the
// fixed 256-wide case, and words are uint32 rather than uint64. The rank
// algorithm is a popcount-prefix scheme: sum whole-word popcounts below
// the target word, then mask-and-count the partial word.
package ptbits

import "math/bits"

// WordsFor returns the number of uint32 words needed to hold a fan-out
// bitmap for the given BitsPerLevel.
func WordsFor(bitsPerLevel int) int {
	n := 1 << uint(bitsPerLevel) // fan-out
	return (n + 31) / 32
}

// Bitmap is a fan-out presence bitmap together with its popcount-prefix
// table. PrefixSum[w] holds the total popcount of words[0:w] (exclusive),
// so the rank of bit i is PrefixSum[word(i)] + popcount(word(i) masked to
// bits below i).
type Bitmap struct {
	Words     []uint32
	PrefixSum []int // len(Words), PrefixSum[w] = sum of popcount(Words[0:w])
}

// New allocates a zeroed Bitmap with the given number of words.
func New(words int) *Bitmap {
	return &Bitmap{
		Words:     make([]uint32, words),
		PrefixSum: make([]int, words),
	}
}

// Set marks bit i present. RecomputePrefix must be called after a batch
// of Set calls before Rank is used: set all present bits for a node,
// then compute the running popcount table once.
func (b *Bitmap) Set(i uint) {
	w, bit := wordBit(i)
	b.Words[w] |= 1 << bit
}

// Test reports whether bit i is present.
func (b *Bitmap) Test(i uint) bool {
	w, bit := wordBit(i)
	if int(w) >= len(b.Words) {
		return false
	}
	return b.Words[w]&(1<<bit) != 0
}

// RecomputePrefix rebuilds PrefixSum from Words.
func (b *Bitmap) RecomputePrefix() {
	sum := 0
	for i, w := range b.Words {
		b.PrefixSum[i] = sum
		sum += bits.OnesCount32(w)
	}
}

// Rank returns the 0-based position of bit i among the set bits, and
// whether bit i is actually set. If i is not set, the returned rank is
// where it would be inserted (number of set bits strictly below i).
func (b *Bitmap) Rank(i uint) (rank int, present bool) {
	w, bit := wordBit(i)
	present = int(w) < len(b.Words) && b.Words[w]&(1<<bit) != 0

	rank = b.PrefixSum[w]
	mask := uint32(1<<bit) - 1
	rank += bits.OnesCount32(b.Words[w] & mask)
	return rank, present
}

// Size returns the total number of set bits.
func (b *Bitmap) Size() int {
	total := 0
	for _, w := range b.Words {
		total += bits.OnesCount32(w)
	}
	return total
}

func wordBit(i uint) (word uint, bit uint) {
	return i / 32, i % 32
}
