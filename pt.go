// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ngram

import (
	"github.com/textcat/ngramtrie/internal/nybble"
	"github.com/textcat/ngramtrie/internal/ptbits"
	"github.com/textcat/ngramtrie/internal/quantize"
)

// freqListEnd is the "no records" sentinel for a node's frequency-list
// head, matching freqarena.Invalid.
const freqListEnd uint32 = 0xFFFFFFFF

// terminalBit distinguishes a terminal-node child index from a full-node
// child index: the high bit of a combined child/firstChild index selects
// which of the two node arenas holds the target.
const terminalBit uint32 = 0x80000000

// ptFullNode is one record of the full-node arena: the start of this
// node's children block (in whichever arena terminalBit selects) plus
// the bitmap of which fan-out slots are present, and the head of this
// node's own frequency-record list (if it is also a terminated key).
type ptFullNode struct {
	firstChild uint32
	bitmap     *ptbits.Bitmap
	freqHead   uint32
}

// ptTerminalNode is one record of the terminal-node arena: no children,
// just this leaf's own frequency-record list head.
type ptTerminalNode struct {
	freqHead uint32
}

// ptFreqRecord is one packed 32-bit frequency record:
// {langID:13, lastEntry:1, stopGram:1, exponent:2, mantissa:15}.
type ptFreqRecord uint32

// PTFreqRecord is the type callers outside the package use to name a
// frequency record returned by Enumerate (dump tools, stop-gram
// selection across packages).
type PTFreqRecord = ptFreqRecord

const (
	ptMantissaBits = 15
	ptExponentBits = 2
	ptLangIDBits   = 13

	ptMantissaShift  = 0
	ptExponentShift  = ptMantissaShift + ptMantissaBits
	ptStopGramShift  = ptExponentShift + ptExponentBits
	ptLastEntryShift = ptStopGramShift + 1
	ptLangIDShift    = ptLastEntryShift + 1
)

func packFreqRecord(langID uint32, lastEntry, stopGram bool, exponent uint8, mantissa uint16) ptFreqRecord {
	v := uint32(mantissa) << ptMantissaShift
	v |= uint32(exponent) << ptExponentShift
	if stopGram {
		v |= 1 << ptStopGramShift
	}
	if lastEntry {
		v |= 1 << ptLastEntryShift
	}
	v |= (langID & (1<<ptLangIDBits - 1)) << ptLangIDShift
	return ptFreqRecord(v)
}

func (r ptFreqRecord) langID() uint32    { return (uint32(r) >> ptLangIDShift) & (1<<ptLangIDBits - 1) }
func (r ptFreqRecord) lastEntry() bool   { return uint32(r)&(1<<ptLastEntryShift) != 0 }
func (r ptFreqRecord) stopGram() bool    { return uint32(r)&(1<<ptStopGramShift) != 0 }
func (r ptFreqRecord) exponent() uint8   { return uint8((uint32(r) >> ptExponentShift) & (1<<ptExponentBits - 1)) }
func (r ptFreqRecord) mantissa() uint16  { return uint16((uint32(r) >> ptMantissaShift) & (1<<ptMantissaBits - 1)) }
func (r ptFreqRecord) frequency() uint32 { return quantize.Dequantize(r.mantissa(), r.exponent()) }

// LangID, StopGram and Frequency expose a packed frequency record's
// fields for callers outside the package (enumeration, dump tools).
func (r ptFreqRecord) LangID() uint32    { return r.langID() }
func (r ptFreqRecord) StopGram() bool    { return r.stopGram() }
func (r ptFreqRecord) Frequency() uint32 { return r.frequency() }

// PT is the packed, read-only trie: three contiguous arrays (full nodes,
// terminal nodes, frequency records) built once from an MWT and never
// mutated afterwards. It is safe for concurrent readers.
type PT struct {
	bitsPerLevel int
	fanOut       int

	fullNodes     []ptFullNode
	terminalNodes []ptTerminalNode
	freqRecords   []ptFreqRecord

	longestKey       uint32
	ignoreWhitespace bool
	caseSensitivity  byte
	valueTable       []float64
}

// BuildPT constructs a packed trie from an MWT. longestKey is the length
// in bytes of the longest key present, carried through to the file
// header. If valueFn is nil, the default value mapping is used (see
// buildValueTable).
func BuildPT(mwt *MWT, longestKey uint32, ignoreWhitespace bool, caseSensitivity byte, valueFn func(freq uint32, stopGram bool) float64) *PT {
	pt := &PT{
		bitsPerLevel:     mwt.BitsPerLevel(),
		fanOut:           nybble.FanOut(mwt.BitsPerLevel()),
		longestKey:       longestKey,
		ignoreWhitespace: ignoreWhitespace,
		caseSensitivity:  caseSensitivity,
	}

	pt.fullNodes = append(pt.fullNodes, ptFullNode{}) // reserve root at index 0
	pt.build(mwt, rootIdx, 0)
	pt.buildValueTable(valueFn)
	return pt
}

// appendFreqList copies every (langID, freq, stopGram) record at mwt leaf
// idx into pt.freqRecords, flagging the last one, and returns the index
// of the first record appended, or freqListEnd if idx has no records.
func (pt *PT) appendFreqList(mwt *MWT, idx uint32) uint32 {
	if !mwt.IsLeaf(idx) {
		return freqListEnd
	}

	arena := mwt.Arena()
	start := uint32(len(pt.freqRecords))
	last := -1
	for cur := mwt.FreqHeadAt(idx); cur != freqListEnd; {
		rec := arena.Get(cur)
		mantissa, exponent := quantize.Quantize(rec.Freq)
		pt.freqRecords = append(pt.freqRecords, packFreqRecord(rec.LangID(), false, rec.StopGram(), exponent, mantissa))
		last = len(pt.freqRecords) - 1
		cur = rec.Next
	}
	if last < 0 {
		return freqListEnd
	}
	r := pt.freqRecords[last]
	pt.freqRecords[last] = packFreqRecord(r.langID(), true, r.stopGram(), r.exponent(), r.mantissa())
	return start
}

// build fills pt.fullNodes[destIdx] for mwt node idx, recursively placing
// idx's children block in whichever arena its shape calls for.
//
// destIdx is an index, not a pointer: every write goes through
// pt.fullNodes[destIdx] freshly, so a nested append growing pt.fullNodes
// during recursion never invalidates the destination (only a cached
// pointer taken before the growth would be invalidated; no such pointer
// is ever held here).
func (pt *PT) build(mwt *MWT, idx uint32, destIdx uint32) {
	ownHead := pt.appendFreqList(mwt, idx)
	bm := ptbits.New(ptbits.WordsFor(pt.bitsPerLevel))

	n := mwt.FanOutAt(idx)
	if n == 0 {
		bm.RecomputePrefix()
		pt.fullNodes[destIdx] = ptFullNode{firstChild: 0, bitmap: bm, freqHead: ownHead}
		return
	}

	if mwt.AllDescendantsTerminal(idx) {
		start := uint32(len(pt.terminalNodes))
		pt.terminalNodes = append(pt.terminalNodes, make([]ptTerminalNode, n)...)

		slot := 0
		for g := 0; g < pt.fanOut; g++ {
			child, present := mwt.ChildAt(idx, g)
			if !present {
				continue
			}
			bm.Set(uint(g))
			pt.terminalNodes[int(start)+slot] = ptTerminalNode{freqHead: pt.appendFreqList(mwt, child)}
			slot++
		}
		bm.RecomputePrefix()
		pt.fullNodes[destIdx] = ptFullNode{firstChild: start | terminalBit, bitmap: bm, freqHead: ownHead}
		return
	}

	start := uint32(len(pt.fullNodes))
	pt.fullNodes = append(pt.fullNodes, make([]ptFullNode, n)...)

	slot := 0
	for g := 0; g < pt.fanOut; g++ {
		child, present := mwt.ChildAt(idx, g)
		if !present {
			continue
		}
		bm.Set(uint(g))
		pt.build(mwt, child, start+uint32(slot))
		slot++
	}
	bm.RecomputePrefix()
	pt.fullNodes[destIdx] = ptFullNode{firstChild: start, bitmap: bm, freqHead: ownHead}
}

// buildValueTable precomputes a direct (mantissa,exponent,stopGram) ->
// float64 lookup so the query-time hot path avoids per-ngram arithmetic.
// If valueFn is nil, the default maps to the scaled percentage via
// InverseScale and negates stop-gram entries.
func (pt *PT) buildValueTable(valueFn func(freq uint32, stopGram bool) float64) {
	if valueFn == nil {
		valueFn = func(freq uint32, stopGram bool) float64 {
			v := InverseScale(freq)
			if stopGram {
				v = -v
			}
			return v
		}
	}

	size := 1 << (ptMantissaBits + ptExponentBits + 1)
	pt.valueTable = make([]float64, size)
	for exponent := 0; exponent < 1<<ptExponentBits; exponent++ {
		for mantissa := 0; mantissa < 1<<ptMantissaBits; mantissa++ {
			freq := quantize.Dequantize(uint16(mantissa), uint8(exponent))
			for _, stopGram := range [2]bool{false, true} {
				key := valueTableKey(uint16(mantissa), uint8(exponent), stopGram)
				pt.valueTable[key] = valueFn(freq, stopGram)
			}
		}
	}
}

func valueTableKey(mantissa uint16, exponent uint8, stopGram bool) int {
	k := int(mantissa) | int(exponent)<<ptMantissaBits
	if stopGram {
		k |= 1 << (ptMantissaBits + ptExponentBits)
	}
	return k
}

// BitsPerLevel returns the configured fan-out exponent.
func (pt *PT) BitsPerLevel() int { return pt.bitsPerLevel }

// NumFullNodes, NumTerminalNodes and NumFrequencyRecords report the
// sizes of the three packed arrays, used by the file writer's header.
func (pt *PT) NumFullNodes() int        { return len(pt.fullNodes) }
func (pt *PT) NumTerminalNodes() int    { return len(pt.terminalNodes) }
func (pt *PT) NumFrequencyRecords() int { return len(pt.freqRecords) }

// LongestKey, IgnoreWhitespace and CaseSensitivity expose the header
// metadata carried alongside the three arrays.
func (pt *PT) LongestKey() uint32      { return pt.longestKey }
func (pt *PT) IgnoreWhitespace() bool  { return pt.ignoreWhitespace }
func (pt *PT) CaseSensitivity() byte   { return pt.caseSensitivity }

// childIndex implements the O(1) popcount child lookup: given a full
// node and a fan-out slot, returns the combined child index (terminal
// bit set if the child lives in the terminal-node arena) and whether the
// slot is present.
func (pt *PT) childIndex(n *ptFullNode, slot int) (uint32, bool) {
	rank, present := n.bitmap.Rank(uint(slot))
	if !present {
		return 0, false
	}
	base := n.firstChild &^ terminalBit
	idx := base + uint32(rank)
	if n.firstChild&terminalBit != 0 {
		return idx | terminalBit, true
	}
	return idx, true
}

// Value looks up the precomputed scoring value for a frequency record.
func (pt *PT) Value(r ptFreqRecord) float64 {
	return pt.valueTable[valueTableKey(r.mantissa(), r.exponent(), r.stopGram())]
}

// PTVisitor is called once per node found during enumeration that owns
// at least one frequency record, with its reassembled key.
type PTVisitor func(pt *PT, key []byte, keyLen int, records []ptFreqRecord) bool

// Enumerate walks the packed trie depth-first in bitmap order, stopping
// descent as soon as a terminal-arena node is reached.
func (pt *PT) Enumerate(maxLen int, visit PTVisitor) {
	levelsPerByte := nybble.LevelsPerByte(pt.bitsPerLevel)
	maxGroups := maxLen * levelsPerByte
	groupPath := make([]uint8, 0, maxGroups)
	keyBuf := make([]byte, maxLen+1)

	emit := func(freqHead uint32) bool {
		if freqHead == freqListEnd || len(groupPath)%levelsPerByte != 0 {
			return true
		}
		keyLen := len(groupPath) / levelsPerByte
		for b := 0; b < keyLen; b++ {
			keyBuf[b] = nybble.Join(pt.bitsPerLevel, groupPath[b*levelsPerByte:(b+1)*levelsPerByte])
		}
		return visit(pt, keyBuf[:keyLen], keyLen, pt.recordsAt(freqHead))
	}

	var walk func(combined uint32) bool
	walk = func(combined uint32) bool {
		if combined&terminalBit != 0 {
			n := &pt.terminalNodes[combined&^terminalBit]
			return emit(n.freqHead)
		}
		n := &pt.fullNodes[combined]
		if !emit(n.freqHead) {
			return false
		}
		if len(groupPath) >= maxGroups {
			return true
		}
		for g := 0; g < pt.fanOut; g++ {
			child, present := pt.childIndex(n, g)
			if !present {
				continue
			}
			groupPath = append(groupPath, uint8(g))
			if !walk(child) {
				return false
			}
			groupPath = groupPath[:len(groupPath)-1]
		}
		return true
	}

	walk(0)
}

// recordsAt returns the frequency-record run starting at freqHead: PT
// records carry no explicit run length, so the run ends at the first
// record flagged lastEntry.
func (pt *PT) recordsAt(freqHead uint32) []ptFreqRecord {
	if freqHead == freqListEnd {
		return nil
	}
	i := freqHead
	for !pt.freqRecords[i].lastEntry() {
		i++
	}
	return pt.freqRecords[freqHead : i+1]
}

// CompactToMWT enumerates the packed trie and re-inserts every
// (key, langID, freq, stopGram) into a freshly constructed MWT, lossless
// up to quantisation.
func (pt *PT) CompactToMWT(nodeCapacity, recordCapacity int, ignoreSpace bool) *MWT {
	mwt := NewMWT(pt.bitsPerLevel, nodeCapacity, recordCapacity, ignoreSpace)
	pt.Enumerate(int(pt.longestKey), func(_ *PT, key []byte, keyLen int, records []ptFreqRecord) bool {
		for _, r := range records {
			mwt.SetFrequency(key, keyLen, r.langID(), r.frequency(), r.stopGram())
		}
		return true
	})
	return mwt
}
