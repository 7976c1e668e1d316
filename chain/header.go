// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package chain implements the persistent, fork-aware block header store,
// its proof-of-work verifier and the frozen checkpoint table, generalized
// from zcash-lightwalletd's single-shape Sapling header parser
// (parser/block_header.go) to ZClassic's two on-disk header sizes.
package chain

import (
	"crypto/sha256"

	"github.com/pkg/errors"

	"github.com/zclassic/zlite/hash32"
	"github.com/zclassic/zlite/internal/wire"
)

// BubblesActivationHeight is the height at which the Equihash parameter set
// (and therefore the on-disk header size) switches from (200,9) to (192,7).
const BubblesActivationHeight = 585318

// Header-size constants, derived from the 140-byte fixed field layout plus a
// 3-byte compact-size solution-length prefix plus the solution itself
// (1344 bytes pre-fork, 400 bytes post-fork).
const (
	PreForkHeaderSize  = 1487
	PostForkHeaderSize = 543

	fixedFieldsSize = 140
)

// Header is the ordered on-disk field set. block_height is never stored:
// callers derive it from file offset (see offsetBetween in store.go).
type Header struct {
	Version       uint32
	PrevBlockHash hash32.T
	MerkleRoot    hash32.T
	ReservedHash  hash32.T
	Timestamp     uint32
	Bits          uint32
	Nonce         hash32.T
	Solution      []byte
}

// GetHeaderSize returns the exact on-disk length of the header at height,
// which depends only on height relative to BubblesActivationHeight.
func GetHeaderSize(height int32) int {
	if height < BubblesActivationHeight {
		return PreForkHeaderSize
	}
	return PostForkHeaderSize
}

// Serialize encodes h in wire format: fixed fields in declaration order, with
// the three 32-byte hash fields and the 32-byte nonce written in reverse
// byte order (the internal
// Header fields are kept in display order, as returned by HashHeader).
func (h *Header) Serialize() []byte {
	w := wire.NewWriter(fixedFieldsSize + 3 + len(h.Solution))
	w.WriteUint32(h.Version)
	w.WriteBytes(wire.Reversed(h.PrevBlockHash[:]))
	w.WriteBytes(wire.Reversed(h.MerkleRoot[:]))
	w.WriteBytes(wire.Reversed(h.ReservedHash[:]))
	w.WriteUint32(h.Timestamp)
	w.WriteUint32(h.Bits)
	w.WriteBytes(wire.Reversed(h.Nonce[:]))
	w.WriteCompactLengthPrefixed(h.Solution)
	return w.Bytes()
}

// DeserializeHeader parses buf as the header for height, failing with
// ErrBadHeaderLength if its length does not equal GetHeaderSize(height).
func DeserializeHeader(buf []byte, height int32) (*Header, error) {
	if len(buf) != GetHeaderSize(height) {
		return nil, errors.Wrapf(ErrBadHeaderLength, "height %d: got %d bytes, want %d", height, len(buf), GetHeaderSize(height))
	}
	r := wire.NewReader(buf)
	h := &Header{}

	var ok bool
	h.Version, ok = r.ReadUint32()
	prev, ok2 := r.ReadBytes(32)
	merkle, ok3 := r.ReadBytes(32)
	reserved, ok4 := r.ReadBytes(32)
	if !ok || !ok2 || !ok3 || !ok4 {
		return nil, errors.Wrapf(ErrTruncatedBuffer, "height %d", height)
	}
	h.PrevBlockHash = hash32.FromSlice(wire.Reversed(prev))
	h.MerkleRoot = hash32.FromSlice(wire.Reversed(merkle))
	h.ReservedHash = hash32.FromSlice(wire.Reversed(reserved))

	h.Timestamp, ok = r.ReadUint32()
	h.Bits, ok2 = r.ReadUint32()
	nonce, ok3 := r.ReadBytes(32)
	if !ok || !ok2 || !ok3 {
		return nil, errors.Wrapf(ErrTruncatedBuffer, "height %d", height)
	}
	h.Nonce = hash32.FromSlice(wire.Reversed(nonce))

	sol, ok := r.ReadCompactLengthPrefixed()
	if !ok {
		return nil, errors.Wrapf(ErrTruncatedBuffer, "height %d: solution", height)
	}
	h.Solution = append([]byte(nil), sol...)

	if r.Len() != 0 {
		return nil, errors.Wrapf(ErrBadHeaderLength, "height %d: %d trailing bytes", height, r.Len())
	}
	return h, nil
}

// HashHeader returns double-SHA256(Serialize(h)), reversed into display
// order (the conventional big-endian-looking hex presentation).
func HashHeader(h *Header) hash32.T {
	first := sha256.Sum256(h.Serialize())
	second := sha256.Sum256(first[:])
	return hash32.Reverse(hash32.T(second))
}
