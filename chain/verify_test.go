// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"testing"

	"github.com/zclassic/zlite/hash32"
)

// buildTestnetChunk produces n linked headers starting at height 0, with
// PrevBlockHash set from the preceding header's hash (and the zero hash for
// height 0), serialized back to back as VerifyChunk/SaveChunk expect.
func buildTestnetChunk(n int) []byte {
	var out []byte
	prev := hash32.T{}
	for i := 0; i < n; i++ {
		h := &Header{
			Version:       4,
			PrevBlockHash: prev,
			Timestamp:     uint32(1600000000 + i*150),
			Bits:          0x1f07ffff,
			Solution:      make([]byte, 1344),
		}
		h.MerkleRoot[0] = byte(i + 1)
		prev = HashHeader(h)
		out = append(out, h.Serialize()...)
	}
	return out
}

func openTestnetStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(StoreConfig{Datadir: t.TempDir(), Testnet: true})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestVerifyChunkAcceptsLinkedTestnetHeaders(t *testing.T) {
	s := openTestnetStore(t)
	root := s.Root()
	data := buildTestnetChunk(5)
	if err := s.VerifyChunk(root, 0, data); err != nil {
		t.Fatalf("VerifyChunk: %v", err)
	}
}

func TestVerifyChunkRejectsBrokenPrevHashChain(t *testing.T) {
	s := openTestnetStore(t)
	root := s.Root()
	data := buildTestnetChunk(3)
	// Corrupt the second header's PrevBlockHash field: header 0 occupies
	// bytes [0, PreForkHeaderSize), and PrevBlockHash is the 32 bytes right
	// after the 4-byte version field.
	data[PreForkHeaderSize+4] ^= 0xff
	err := s.VerifyChunk(root, 0, data)
	if err == nil {
		t.Fatalf("expected VerifyChunk to reject a broken prev-hash chain")
	}
	if !isVerifyError(err) {
		t.Fatalf("expected a rejection (verifyError), got operational error: %v", err)
	}
}

func TestConnectChunkPersistsOnSuccess(t *testing.T) {
	s := openTestnetStore(t)
	root := s.Root()
	data := buildTestnetChunk(3)

	ok, err := s.ConnectChunk(root, 0, data)
	if err != nil {
		t.Fatalf("ConnectChunk: %v", err)
	}
	if !ok {
		t.Fatalf("ConnectChunk rejected a valid chunk")
	}
	if root.Height() != 2 {
		t.Fatalf("Height() after ConnectChunk = %d, want 2", root.Height())
	}
}

func TestConnectChunkRejectsWithoutPersisting(t *testing.T) {
	s := openTestnetStore(t)
	root := s.Root()
	data := buildTestnetChunk(3)
	data[PreForkHeaderSize+4] ^= 0xff

	ok, err := s.ConnectChunk(root, 0, data)
	if err != nil {
		t.Fatalf("ConnectChunk returned an operational error for a rejected chunk: %v", err)
	}
	if ok {
		t.Fatalf("ConnectChunk accepted a broken chunk")
	}
	if root.Height() != -1 {
		t.Fatalf("Height() after a rejected chunk = %d, want -1 (nothing persisted)", root.Height())
	}
}
