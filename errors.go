// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ngram

import "errors"

// Sentinel error kinds returned across the package.
var (
	// ErrIO covers open/read/write/seek failures at the file boundary.
	ErrIO = errors.New("ngram: i/o failure")

	// ErrFormat covers a bad signature, unsupported version, mismatched
	// BitsPerLevel, or detected wrong byte order.
	ErrFormat = errors.New("ngram: format mismatch")

	// ErrAllocationExhausted is returned when a node or frequency-record
	// pool cannot grow to satisfy an allocation.
	ErrAllocationExhausted = errors.New("ngram: allocation exhausted")

	// ErrInvalidInput covers a zero or missing frequency on a word-list
	// line, or an otherwise unparsable frequency-list line.
	ErrInvalidInput = errors.New("ngram: invalid input")

	// ErrCapacityExceeded is returned when a fixed-size arena or table
	// cannot accommodate another entry.
	ErrCapacityExceeded = errors.New("ngram: capacity exceeded")
)
