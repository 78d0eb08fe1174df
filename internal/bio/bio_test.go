// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package bio

import (
	"bytes"
	"errors"
	"testing"
)

func TestU32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := []uint32{0, 1, 0xFFFFFFFF, 0x01020304}
	for _, v := range want {
		if err := WriteU32(&buf, v); err != nil {
			t.Fatalf("WriteU32(%d): %v", v, err)
		}
	}
	for _, v := range want {
		got, err := ReadU32(&buf)
		if err != nil {
			t.Fatalf("ReadU32: %v", err)
		}
		if got != v {
			t.Errorf("ReadU32() = %d, want %d", got, v)
		}
	}
}

func TestByteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteByte(&buf, 0xAB); err != nil {
		t.Fatal(err)
	}
	got, err := ReadByte(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xAB {
		t.Errorf("ReadByte() = %#x, want 0xab", got)
	}
}

func TestPaddingRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePadding(&buf, 16); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 16 {
		t.Fatalf("WritePadding wrote %d bytes, want 16", buf.Len())
	}
	if err := SkipPadding(&buf, 16); err != nil {
		t.Fatalf("SkipPadding on all-zero padding: %v", err)
	}
}

func TestSkipPaddingRejectsNonZero(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0, 0, 1, 0})
	if err := SkipPadding(buf, 4); err == nil {
		t.Fatal("SkipPadding accepted non-zero reserved bytes")
	}
}

func TestReadExactShortRead(t *testing.T) {
	buf := bytes.NewBuffer([]byte{1, 2})
	err := ReadExact(buf, make([]byte, 4))
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("ReadExact error = %v, want ErrShortRead", err)
	}
}

func TestUint32AtPutUint32At(t *testing.T) {
	buf := make([]byte, 8)
	PutUint32At(buf, 4, 0xDEADBEEF)
	if got := Uint32At(buf, 4); got != 0xDEADBEEF {
		t.Errorf("Uint32At() = %#x, want 0xdeadbeef", got)
	}
}
