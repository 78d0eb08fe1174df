// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package bio implements the little-endian primitive readers and writers
// shared by both on-disk trie formats. Byte order is fixed regardless of
// host architecture, and a short read is always reported as an error
// rather than silently zero-filled.
package bio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ErrShortRead is wrapped into errors returned when fewer bytes than
// requested could be read.
var ErrShortRead = fmt.Errorf("bio: short read")

// ReadExact reads exactly len(buf) bytes from r, or returns an error.
func ReadExact(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	return nil
}

// ReadU32 reads one little-endian uint32.
func ReadU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if err := ReadExact(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteU32 writes one little-endian uint32.
func WriteU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadByte reads a single byte.
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if err := ReadExact(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteByte writes a single byte.
func WriteByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// WritePadding writes n zero bytes.
func WritePadding(w io.Writer, n int) error {
	if n <= 0 {
		return nil
	}
	zeros := make([]byte, n)
	_, err := w.Write(zeros)
	return err
}

// SkipPadding reads and discards n bytes, verifying they are all zero so
// a corrupted reserved region is caught early rather than silently
// ignored.
func SkipPadding(r io.Reader, n int) error {
	if n <= 0 {
		return nil
	}
	buf := make([]byte, n)
	if err := ReadExact(r, buf); err != nil {
		return err
	}
	for _, b := range buf {
		if b != 0 {
			return fmt.Errorf("bio: reserved padding is not zero")
		}
	}
	return nil
}

// Uint32At decodes a little-endian uint32 from buf at byte offset off.
// Used for reading packed-trie arenas directly out of a memory-mapped or
// slurped byte slice without an intermediate io.Reader.
func Uint32At(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}

// PutUint32At encodes v as little-endian into buf at byte offset off.
func PutUint32At(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}
