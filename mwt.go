// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ngram

import (
	"github.com/textcat/ngramtrie/internal/freqarena"
	"github.com/textcat/ngramtrie/internal/nybble"
)

// mwtNode is one trie node of the multi-language writable trie. Unlike
// wtNode, the leaf payload is not a single frequency but the head index
// of a per-language record list in the shared Arena.
type mwtNode struct {
	children []uint32
	freqHead uint32 // freqarena.Invalid if this node has no records yet
	leaf     bool
}

// MWT is the multi-language writable trie: the same bit-sliced node
// shape as WT, but each leaf owns a singly linked list of per-language
// frequency records held in an instance-owned Arena rather than a single
// u32.
type MWT struct {
	bitsPerLevel  int
	fanOut        int
	levelsPerByte int
	ignoreSpace   bool

	nodes []mwtNode
	arena *freqarena.Arena
}

// NewMWT constructs an MWT with its own frequency arena. nodeCapacity and
// recordCapacity seed the node pool and the frequency arena respectively.
func NewMWT(bitsPerLevel int, nodeCapacity, recordCapacity int, ignoreSpace bool) *MWT {
	if nodeCapacity < 1 {
		nodeCapacity = 1
	}
	fanOut := nybble.FanOut(bitsPerLevel)

	t := &MWT{
		bitsPerLevel:  bitsPerLevel,
		fanOut:        fanOut,
		levelsPerByte: nybble.LevelsPerByte(bitsPerLevel),
		ignoreSpace:   ignoreSpace,
		nodes:         make([]mwtNode, 1, nodeCapacity),
		arena:         freqarena.New(recordCapacity),
	}
	t.nodes[0] = mwtNode{children: make([]uint32, fanOut), freqHead: freqarena.Invalid}
	return t
}

// Arena exposes the MWT's frequency-record arena, e.g. for handing to PT
// construction or for counting total records.
func (t *MWT) Arena() *freqarena.Arena { return t.arena }

// BitsPerLevel returns the configured fan-out exponent.
func (t *MWT) BitsPerLevel() int { return t.bitsPerLevel }

// NumNodes returns the total number of allocated trie nodes, including
// the reserved root.
func (t *MWT) NumNodes() int { return len(t.nodes) }

func (t *MWT) alloc() uint32 {
	t.nodes = append(t.nodes, mwtNode{children: make([]uint32, t.fanOut), freqHead: freqarena.Invalid})
	return uint32(len(t.nodes) - 1)
}

func (t *MWT) filterSpaces(key []byte) []byte {
	if !t.ignoreSpace {
		return key
	}
	out := make([]byte, 0, len(key))
	for _, b := range key {
		if b != ' ' {
			out = append(out, b)
		}
	}
	return out
}

func (t *MWT) descend(key []byte, length int, create bool) (idx uint32, ok bool) {
	key = t.filterSpaces(key)
	if length > len(key) {
		length = len(key)
	}

	cur := rootIdx
	for i := 0; i < length; i++ {
		for _, g := range nybble.Split(t.bitsPerLevel, key[i]) {
			child := t.nodes[cur].children[g]
			if child == rootIdx {
				if !create {
					return 0, false
				}
				child = t.alloc()
				t.nodes[cur].children[g] = child
			}
			cur = child
		}
	}
	return cur, true
}

// SetFrequency sets the frequency and stop-gram flag of (key, langID),
// updating the existing per-language record if present or allocating a
// new one spliced at the head of the leaf's list otherwise.
func (t *MWT) SetFrequency(key []byte, length int, langID uint32, freq uint32, stopGram bool) {
	idx, _ := t.descend(key, length, true)
	n := &t.nodes[idx]
	n.leaf = true
	n.freqHead = t.arena.SetFrequency(n.freqHead, langID, freq, stopGram)
}

// Increment adds delta to the frequency of (key, langID) (treating a
// missing record as zero), creating the record if absent.
func (t *MWT) Increment(key []byte, length int, langID uint32, delta int64, stopGram bool) {
	idx, _ := t.descend(key, length, true)
	n := &t.nodes[idx]
	n.leaf = true
	n.freqHead = t.arena.Increment(n.freqHead, langID, delta, stopGram)
}

// Frequency returns the stored frequency for (key, langID), or 0 if the
// key or the language's record within it is absent.
func (t *MWT) Frequency(key []byte, length int, langID uint32) uint32 {
	idx, ok := t.descend(key, length, false)
	if !ok || !t.nodes[idx].leaf {
		return 0
	}
	return t.arena.Frequency(t.nodes[idx].freqHead, langID)
}

// IsStopGram reports whether (key, langID) is flagged as a stop-gram.
func (t *MWT) IsStopGram(key []byte, length int, langID uint32) bool {
	idx, ok := t.descend(key, length, false)
	if !ok || !t.nodes[idx].leaf {
		return false
	}
	return t.arena.IsStopGram(t.nodes[idx].freqHead, langID)
}

// NumFrequencies returns the number of distinct languages with a record
// at (key, length).
func (t *MWT) NumFrequencies(key []byte, length int) int {
	idx, ok := t.descend(key, length, false)
	if !ok || !t.nodes[idx].leaf {
		return 0
	}
	return t.arena.Count(t.nodes[idx].freqHead)
}

// NumFrequencyRecords returns the total number of frequency records
// allocated across the whole trie (used to size the PT's frequency
// array).
func (t *MWT) NumFrequencyRecords() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].leaf {
			n += t.arena.Count(t.nodes[i].freqHead)
		}
	}
	return n
}

// MWTVisitor is called once per leaf during enumeration, with the
// reassembled key and the head index of its frequency-record list.
type MWTVisitor func(t *MWT, nodeIdx uint32, key []byte, keyLen int, freqHead uint32) bool

// Enumerate performs a depth-first walk invoking visit on every leaf
// whose key is no longer than maxLen bytes, mirroring WT.Enumerate.
func (t *MWT) Enumerate(maxLen int, visit MWTVisitor) {
	type frame struct {
		idx   uint32
		group int
	}

	maxGroups := maxLen * t.levelsPerByte
	groupPath := make([]uint8, 0, maxGroups)
	keyBuf := make([]byte, maxLen+1)
	stack := make([]frame, 0, maxGroups+1)
	stack = append(stack, frame{idx: rootIdx})

	visitIfLeaf := func(idx uint32) bool {
		n := &t.nodes[idx]
		if !n.leaf || len(groupPath)%t.levelsPerByte != 0 {
			return true
		}
		keyLen := len(groupPath) / t.levelsPerByte
		for b := 0; b < keyLen; b++ {
			keyBuf[b] = nybble.Join(t.bitsPerLevel, groupPath[b*t.levelsPerByte:(b+1)*t.levelsPerByte])
		}
		return visit(t, idx, keyBuf[:keyLen], keyLen, n.freqHead)
	}

	if !visitIfLeaf(rootIdx) {
		return
	}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.group >= t.fanOut || len(groupPath) >= maxGroups {
			stack = stack[:len(stack)-1]
			if len(groupPath) > 0 {
				groupPath = groupPath[:len(groupPath)-1]
			}
			continue
		}

		child := t.nodes[top.idx].children[top.group]
		g := top.group
		top.group++
		if child == rootIdx {
			continue
		}

		groupPath = append(groupPath, uint8(g))
		if !visitIfLeaf(child) {
			return
		}
		stack = append(stack, frame{idx: child})
	}
}

// FanOutAt returns the number of present children of the node at idx.
func (t *MWT) FanOutAt(idx uint32) int {
	n := 0
	for _, c := range t.nodes[idx].children {
		if c != rootIdx {
			n++
		}
	}
	return n
}

// ChildAt returns the child index at fan-out slot g of the node at idx,
// and whether that slot is present.
func (t *MWT) ChildAt(idx uint32, g int) (uint32, bool) {
	c := t.nodes[idx].children[g]
	return c, c != rootIdx
}

// IsLeaf reports whether the node at idx is a terminated key.
func (t *MWT) IsLeaf(idx uint32) bool { return t.nodes[idx].leaf }

// FreqHeadAt returns the frequency-record list head for the node at idx.
func (t *MWT) FreqHeadAt(idx uint32) uint32 { return t.nodes[idx].freqHead }

// hasAnyChild reports whether the node at idx has at least one present
// child — used by PT construction to classify a subtree as all-terminal.
func (t *MWT) hasAnyChild(idx uint32) bool {
	for _, c := range t.nodes[idx].children {
		if c != rootIdx {
			return true
		}
	}
	return false
}

// MergeWT copies every leaf of a single-language WT into t under langID,
// the last step of folding one language's finished training run into the
// shared multi-language trie ahead of packing.
func MergeWT(t *MWT, wt *WT, langID uint32, maxLen int) {
	wt.Enumerate(maxLen, func(src *WT, _ uint32, key []byte, keyLen int) bool {
		freq := src.Lookup(key, keyLen)
		stopGram := src.IsStopGram(key, keyLen)
		if freq == 0 && !stopGram {
			return true
		}
		t.SetFrequency(key, keyLen, langID, freq, stopGram)
		return true
	})
}

// AllDescendantsTerminal reports whether every node reachable from idx
// (including idx's immediate children) has no children of its own, i.e.
// the subtree rooted at idx needs only terminal-node records for its
// children, not full-node records.
func (t *MWT) AllDescendantsTerminal(idx uint32) bool {
	for _, c := range t.nodes[idx].children {
		if c == rootIdx {
			continue
		}
		if t.hasAnyChild(c) {
			return false
		}
	}
	return true
}
