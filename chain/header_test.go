// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/zclassic/zlite/hash32"
)

func sampleHeader(height int32) *Header {
	solSize := 1344
	if height >= BubblesActivationHeight {
		solSize = 400
	}
	h := &Header{
		Version:      4,
		Timestamp:    1600000000,
		Bits:         0x1d00ffff,
		Solution:     make([]byte, solSize),
	}
	h.PrevBlockHash[0] = 0xaa
	h.MerkleRoot[0] = 0xbb
	h.ReservedHash[0] = 0xcc
	h.Nonce[0] = 0xdd
	for i := range h.Solution {
		h.Solution[i] = byte(i)
	}
	return h
}

func TestGetHeaderSize(t *testing.T) {
	if got := GetHeaderSize(BubblesActivationHeight - 1); got != PreForkHeaderSize {
		t.Errorf("GetHeaderSize(pre-fork) = %d, want %d", got, PreForkHeaderSize)
	}
	if got := GetHeaderSize(BubblesActivationHeight); got != PostForkHeaderSize {
		t.Errorf("GetHeaderSize(fork height) = %d, want %d", got, PostForkHeaderSize)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	for _, height := range []int32{0, BubblesActivationHeight - 1, BubblesActivationHeight, BubblesActivationHeight + 100} {
		h := sampleHeader(height)
		raw := h.Serialize()
		if len(raw) != GetHeaderSize(height) {
			t.Fatalf("height %d: Serialize produced %d bytes, want %d", height, len(raw), GetHeaderSize(height))
		}
		got, err := DeserializeHeader(raw, height)
		if err != nil {
			t.Fatalf("height %d: DeserializeHeader: %v", height, err)
		}
		if got.Version != h.Version || got.Timestamp != h.Timestamp || got.Bits != h.Bits {
			t.Fatalf("height %d: fixed fields mismatch: %+v vs %+v", height, got, h)
		}
		if got.PrevBlockHash != h.PrevBlockHash || got.MerkleRoot != h.MerkleRoot ||
			got.ReservedHash != h.ReservedHash || got.Nonce != h.Nonce {
			t.Fatalf("height %d: hash fields mismatch", height)
		}
		if !bytes.Equal(got.Solution, h.Solution) {
			t.Fatalf("height %d: solution mismatch", height)
		}
	}
}

func TestDeserializeHeaderWrongLength(t *testing.T) {
	h := sampleHeader(0)
	raw := h.Serialize()
	if _, err := DeserializeHeader(raw[:len(raw)-1], 0); err == nil {
		t.Fatalf("expected ErrBadHeaderLength on truncated buffer")
	}
}

func TestHashHeaderIsDisplayOrder(t *testing.T) {
	h := sampleHeader(0)
	got := HashHeader(h)
	if got.IsNil() {
		t.Fatalf("HashHeader returned the nil hash")
	}
	// Re-hashing must be deterministic.
	again := HashHeader(h)
	if got != again {
		t.Fatalf("HashHeader is not deterministic: %v vs %v", got, again)
	}
	if hash32.Cmp(got, hash32.T{}) == 0 {
		t.Fatalf("HashHeader must not equal the zero hash")
	}
	// Display order is the double-SHA256 digest byte-reversed.
	first := sha256.Sum256(h.Serialize())
	second := sha256.Sum256(first[:])
	if want := hash32.Reverse(hash32.T(second)); got != want {
		t.Fatalf("HashHeader = %v, want byte-reversed double-SHA256 %v", got, want)
	}
}
