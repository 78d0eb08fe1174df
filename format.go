// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ngram

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/textcat/ngramtrie/internal/bio"
	"github.com/textcat/ngramtrie/internal/freqarena"
	"github.com/textcat/ngramtrie/internal/mmapfile"
	"github.com/textcat/ngramtrie/internal/ptbits"
)

// ptSignature is the fixed 8-byte packed-trie file signature.
var ptSignature = [8]byte{'M', 'u', 'l', 'T', 'r', 'i', 'e', 0}

// wtSignature is the fixed 8-byte writable-trie (MWT) file signature.
var wtSignature = [8]byte{'W', 'r', 'i', 't', 'T', 'r', 'i', 'e'}

const (
	ptCurrentVersion = 3
	ptPrevVersion    = 2
	ptPadCurrent     = 59
	ptPadPrev        = 58

	wtCurrentVersion = 1
	wtPadBytes       = 64
)

// WritePT serializes pt in the current packed-trie file format.
//
// On-disk full-node record: firstChild (u32, high bit = terminal-arena
// flag), then WordsFor(bitsPerLevel) bitmap words (u32 each), then
// freqHead (u32). The popcount-prefix table is not stored — it is purely
// a function of the bitmap and is recomputed at load time.
func WritePT(w io.Writer, pt *PT) error {
	if _, err := w.Write(ptSignature[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := bio.WriteByte(w, ptCurrentVersion); err != nil {
		return err
	}
	if err := bio.WriteByte(w, byte(pt.bitsPerLevel)); err != nil {
		return err
	}

	for _, v := range []uint32{
		uint32(pt.NumFullNodes()),
		pt.longestKey,
		uint32(pt.NumFrequencyRecords()),
		uint32(pt.NumTerminalNodes()),
	} {
		if err := bio.WriteU32(w, v); err != nil {
			return err
		}
	}

	if err := bio.WriteByte(w, boolByte(pt.ignoreWhitespace)); err != nil {
		return err
	}
	if err := bio.WriteByte(w, pt.caseSensitivity); err != nil {
		return err
	}
	if err := bio.WritePadding(w, ptPadCurrent); err != nil {
		return err
	}

	words := ptbits.WordsFor(pt.bitsPerLevel)
	for _, n := range pt.fullNodes {
		if err := bio.WriteU32(w, n.firstChild); err != nil {
			return err
		}
		for i := 0; i < words; i++ {
			if err := bio.WriteU32(w, n.bitmap.Words[i]); err != nil {
				return err
			}
		}
		if err := bio.WriteU32(w, n.freqHead); err != nil {
			return err
		}
	}

	for _, r := range pt.freqRecords {
		if err := bio.WriteU32(w, uint32(r)); err != nil {
			return err
		}
	}

	for _, n := range pt.terminalNodes {
		if err := bio.WriteU32(w, n.freqHead); err != nil {
			return err
		}
	}

	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// ReadPT loads a packed trie previously written by WritePT from a path,
// memory-mapping the file when possible.
func ReadPT(path string) (*PT, error) {
	f, err := mmapfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()
	return decodePT(f.Bytes)
}

func decodePT(buf []byte) (*PT, error) {
	const headerFixed = 8 + 1 + 1 + 4*4 + 1 + 1
	if len(buf) < headerFixed {
		return nil, fmt.Errorf("%w: truncated header", ErrFormat)
	}
	if !bytes.Equal(buf[0:8], ptSignature[:]) {
		return nil, fmt.Errorf("%w: bad signature", ErrFormat)
	}

	off := 8
	version := buf[off]
	off++
	if version != ptCurrentVersion && version != ptPrevVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, version)
	}

	bits := int(buf[off])
	off++

	numFullNodes := bio.Uint32At(buf, off)
	off += 4
	longestKey := bio.Uint32At(buf, off)
	off += 4
	numFreqRecords := bio.Uint32At(buf, off)
	off += 4
	numTerminalNodes := bio.Uint32At(buf, off)
	off += 4

	ignoreWhitespace := buf[off] != 0
	off++
	caseSensitivity := buf[off]
	off++

	pad := ptPadCurrent
	if version == ptPrevVersion {
		pad = ptPadPrev
	}
	if len(buf) < off+pad {
		return nil, fmt.Errorf("%w: truncated padding", ErrFormat)
	}
	for _, b := range buf[off : off+pad] {
		if b != 0 {
			return nil, fmt.Errorf("%w: non-zero reserved padding", ErrFormat)
		}
	}
	off += pad

	words := ptbits.WordsFor(bits)
	fullStride := 4 + words*4 + 4

	pt := &PT{
		bitsPerLevel:     bits,
		fanOut:           1 << uint(bits),
		longestKey:       longestKey,
		ignoreWhitespace: ignoreWhitespace,
		caseSensitivity:  caseSensitivity,
		fullNodes:        make([]ptFullNode, numFullNodes),
	}

	for i := uint32(0); i < numFullNodes; i++ {
		if len(buf) < off+fullStride {
			return nil, fmt.Errorf("%w: truncated full-node array", ErrFormat)
		}
		firstChild := bio.Uint32At(buf, off)
		off += 4
		bm := ptbits.New(words)
		for w := 0; w < words; w++ {
			bm.Words[w] = bio.Uint32At(buf, off)
			off += 4
		}
		bm.RecomputePrefix()
		freqHead := bio.Uint32At(buf, off)
		off += 4
		pt.fullNodes[i] = ptFullNode{firstChild: firstChild, bitmap: bm, freqHead: freqHead}
	}

	if len(buf) < off+int(numFreqRecords)*4 {
		return nil, fmt.Errorf("%w: truncated frequency records", ErrFormat)
	}
	pt.freqRecords = make([]ptFreqRecord, numFreqRecords)
	for i := uint32(0); i < numFreqRecords; i++ {
		pt.freqRecords[i] = ptFreqRecord(bio.Uint32At(buf, off))
		off += 4
	}

	if len(buf) < off+int(numTerminalNodes)*4 {
		return nil, fmt.Errorf("%w: truncated terminal-node records", ErrFormat)
	}
	pt.terminalNodes = make([]ptTerminalNode, numTerminalNodes)
	for i := uint32(0); i < numTerminalNodes; i++ {
		pt.terminalNodes[i] = ptTerminalNode{freqHead: bio.Uint32At(buf, off)}
		off += 4
	}

	pt.buildValueTable(nil)
	return pt, nil
}

// WritePTFile writes pt to path via a safe-rewrite temporary file: data
// is written and synced to a sibling ".tmp" file, which is then renamed
// over the destination, so a failed write never corrupts an existing
// file.
func WritePTFile(path string, pt *PT) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err = WritePT(f, pt); err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// WriteMWTFile serializes mwt in the writable-trie file format: a
// separate signature/header layout from the packed trie, ending with the
// raw frequency arena so a reloaded MWT can resume training.
func WriteMWTFile(w io.Writer, mwt *MWT, longestKey uint32) error {
	if _, err := w.Write(wtSignature[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := bio.WriteByte(w, wtCurrentVersion); err != nil {
		return err
	}
	if err := bio.WriteByte(w, byte(mwt.BitsPerLevel())); err != nil {
		return err
	}

	numUsed := uint32(mwt.NumNodes())
	numTokens := uint32(mwt.NumFrequencyRecords())
	for _, v := range []uint32{numUsed, numTokens, longestKey} {
		if err := bio.WriteU32(w, v); err != nil {
			return err
		}
	}
	if err := bio.WritePadding(w, wtPadBytes); err != nil {
		return err
	}

	fanOut := 1 << uint(mwt.BitsPerLevel())
	if err := writeMWTNodes(w, mwt, fanOut); err != nil {
		return err
	}

	recCount := mwt.Arena().Len()
	if err := bio.WriteU32(w, uint32(recCount)); err != nil {
		return err
	}
	for i := uint32(1); i < uint32(recCount); i++ {
		r := mwt.Arena().Get(i)
		if err := bio.WriteU32(w, r.Next); err != nil {
			return err
		}
		if err := bio.WriteU32(w, r.Freq); err != nil {
			return err
		}
		if err := bio.WriteU32(w, r.Lang); err != nil {
			return err
		}
	}
	return nil
}

// writeMWTNodes walks mwt's node pool in allocation order (which is also
// index order, since nodes are never reordered), writing each node's
// fan-out children array and its leaf frequency-list head.
func writeMWTNodes(w io.Writer, mwt *MWT, fanOut int) error {
	for idx := uint32(0); idx < uint32(mwt.NumNodes()); idx++ {
		for g := 0; g < fanOut; g++ {
			child, _ := mwt.ChildAt(idx, g)
			if err := bio.WriteU32(w, child); err != nil {
				return err
			}
		}
		head := uint32(0xFFFFFFFF)
		if mwt.IsLeaf(idx) {
			head = mwt.FreqHeadAt(idx)
		}
		if err := bio.WriteU32(w, head); err != nil {
			return err
		}
	}
	return nil
}

// ReadMWTFile reconstructs an MWT previously written by WriteMWTFile.
// Readers accept the current version and the one immediately before it;
// this format has had only one version so far.
func ReadMWTFile(r io.Reader) (mwt *MWT, longestKey uint32, err error) {
	var sig [8]byte
	if err := bio.ReadExact(r, sig[:]); err != nil {
		return nil, 0, err
	}
	if sig != wtSignature {
		return nil, 0, fmt.Errorf("%w: bad signature", ErrFormat)
	}

	version, err := bio.ReadByte(r)
	if err != nil {
		return nil, 0, err
	}
	if version != wtCurrentVersion {
		return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrFormat, version)
	}

	bitsByte, err := bio.ReadByte(r)
	if err != nil {
		return nil, 0, err
	}
	bits := int(bitsByte)

	numUsed, err := bio.ReadU32(r)
	if err != nil {
		return nil, 0, err
	}
	numTokens, err := bio.ReadU32(r)
	if err != nil {
		return nil, 0, err
	}
	longestKey, err = bio.ReadU32(r)
	if err != nil {
		return nil, 0, err
	}
	if err := bio.SkipPadding(r, wtPadBytes); err != nil {
		return nil, 0, err
	}

	mwt = NewMWT(bits, int(numUsed), int(numTokens)+1, false)
	fanOut := 1 << uint(bits)

	// Every node, the root included, is read into raw and then copied
	// into mwt.nodes by index below, replacing the root NewMWT allocated.
	// A node is a leaf exactly when its stored list head is not
	// 0xFFFFFFFF.
	type rawNode struct {
		children []uint32
		head     uint32
		leaf     bool
	}
	raw := make([]rawNode, numUsed)
	for i := uint32(0); i < numUsed; i++ {
		children := make([]uint32, fanOut)
		for g := 0; g < fanOut; g++ {
			c, err := bio.ReadU32(r)
			if err != nil {
				return nil, 0, err
			}
			children[g] = c
		}
		head, err := bio.ReadU32(r)
		if err != nil {
			return nil, 0, err
		}
		raw[i] = rawNode{children: children, head: head, leaf: head != 0xFFFFFFFF}
	}

	recCount, err := bio.ReadU32(r)
	if err != nil {
		return nil, 0, err
	}
	for i := uint32(1); i < recCount; i++ {
		next, err := bio.ReadU32(r)
		if err != nil {
			return nil, 0, err
		}
		freq, err := bio.ReadU32(r)
		if err != nil {
			return nil, 0, err
		}
		lang, err := bio.ReadU32(r)
		if err != nil {
			return nil, 0, err
		}
		gotIdx := mwt.Arena().Alloc()
		if gotIdx != i {
			return nil, 0, fmt.Errorf("%w: frequency arena index mismatch on reload", ErrFormat)
		}
		mwt.Arena().Set(i, freqarena.Record{Next: next, Freq: freq, Lang: lang})
	}

	mwt.nodes = make([]mwtNode, numUsed)
	for i := uint32(0); i < numUsed; i++ {
		mwt.nodes[i] = mwtNode{children: raw[i].children, freqHead: raw[i].head, leaf: raw[i].leaf}
	}

	return mwt, longestKey, nil
}
