// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ptbits

import "testing"

func TestWordsFor(t *testing.T) {
	cases := map[int]int{2: 1, 3: 1, 4: 1, 8: 8}
	for bits, want := range cases {
		if got := WordsFor(bits); got != want {
			t.Errorf("WordsFor(%d) = %d, want %d", bits, got, want)
		}
	}
}

func TestSetTestRank(t *testing.T) {
	bm := New(WordsFor(8)) // 256-wide fan-out
	present := []uint{0, 1, 5, 31, 32, 100, 255}
	for _, i := range present {
		bm.Set(i)
	}
	bm.RecomputePrefix()

	for _, i := range present {
		if !bm.Test(i) {
			t.Errorf("Test(%d) = false, want true", i)
		}
	}
	if bm.Test(2) {
		t.Errorf("Test(2) = true, want false")
	}

	wantRank := 0
	for i := uint(0); i < 256; i++ {
		rank, ok := bm.Rank(i)
		if rank != wantRank {
			t.Fatalf("Rank(%d) = %d, want %d", i, rank, wantRank)
		}
		isPresent := false
		for _, p := range present {
			if p == i {
				isPresent = true
			}
		}
		if ok != isPresent {
			t.Fatalf("Rank(%d) present = %v, want %v", i, ok, isPresent)
		}
		if isPresent {
			wantRank++
		}
	}
}

func TestSize(t *testing.T) {
	bm := New(WordsFor(4))
	if bm.Size() != 0 {
		t.Fatalf("Size() of empty bitmap = %d, want 0", bm.Size())
	}
	bm.Set(0)
	bm.Set(3)
	bm.Set(15)
	bm.RecomputePrefix()
	if bm.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", bm.Size())
	}
}

func TestRecomputePrefixAfterReload(t *testing.T) {
	bm := New(WordsFor(8))
	for _, i := range []uint{2, 40, 90, 200} {
		bm.Set(i)
	}
	bm.RecomputePrefix()
	wantRanks := make([]int, 256)
	for i := uint(0); i < 256; i++ {
		r, _ := bm.Rank(i)
		wantRanks[i] = r
	}

	// Simulate a reload from disk: only Words survive, PrefixSum must be
	// rebuilt independently and match.
	reloaded := &Bitmap{Words: append([]uint32(nil), bm.Words...), PrefixSum: make([]int, len(bm.Words))}
	reloaded.RecomputePrefix()
	for i := uint(0); i < 256; i++ {
		r, _ := reloaded.Rank(i)
		if r != wantRanks[i] {
			t.Fatalf("after reload, Rank(%d) = %d, want %d", i, r, wantRanks[i])
		}
	}
}
