// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package mmapfile wraps github.com/edsrzf/mmap-go for the packed-trie
// loader: a packed trie is memory-mapped if possible and otherwise
// slurped into an owned buffer. Non-regular files (pipes, sockets) and
// platforms without mmap support fall back to a plain read.
package mmapfile

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// File is a read-only memory-mapped (or slurped, as fallback) view of a
// file's contents.
type File struct {
	Bytes []byte

	m      mmap.MMap // nil if slurped
	closer io.Closer
}

// Open maps path read-only. If mapping fails (e.g. the file is not a
// regular file, or the platform refuses), it falls back to reading the
// whole file into an owned buffer.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err == nil && info.Mode().IsRegular() && info.Size() > 0 {
		m, mErr := mmap.Map(f, mmap.RDONLY, 0)
		if mErr == nil {
			return &File{Bytes: []byte(m), m: m, closer: f}, nil
		}
	}

	defer f.Close()
	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &File{Bytes: buf}, nil
}

// Close releases the mapping (or, for a slurped file, is a no-op beyond
// dropping the buffer reference).
func (mf *File) Close() error {
	if mf.m != nil {
		err := mf.m.Unmap()
		if mf.closer != nil {
			_ = mf.closer.Close()
		}
		return err
	}
	return nil
}
