// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import "errors"

// Sentinel errors for header parsing and chain verification. Callers compare
// with errors.Is; internal call sites wrap these with github.com/pkg/errors
// to attach positional context (height, branch, offset) before returning.
var (
	// ErrTruncatedBuffer is returned when a header or chunk ends mid-field.
	ErrTruncatedBuffer = errors.New("chain: truncated buffer")

	// ErrBadHeaderLength is returned when a byte slice's length does not
	// match GetHeaderSize(height).
	ErrBadHeaderLength = errors.New("chain: header length does not match expected size for height")

	// ErrPrevHashMismatch is returned when a header's prev_block_hash does
	// not equal the hash of its expected predecessor.
	ErrPrevHashMismatch = errors.New("chain: prev_block_hash does not match predecessor")

	// ErrBitsMismatch is returned when a header's bits field does not equal
	// the value computed (or overridden by the DIFFADJ ramp) for its height.
	ErrBitsMismatch = errors.New("chain: bits field does not match expected target")

	// ErrInsufficientPoW is returned when a header's hash exceeds its target.
	ErrInsufficientPoW = errors.New("chain: header hash exceeds target")

	// ErrInvalidCompactBits is returned when a bits value's exponent or
	// mantissa falls outside the legal range.
	ErrInvalidCompactBits = errors.New("chain: bits value outside legal exponent/mantissa range")
)
