// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"testing"

	"github.com/zclassic/zlite/hash32"
)

func testHeader(n byte) *Header {
	h := &Header{
		Version:   4,
		Timestamp: 1600000000,
		Bits:      0x1e0ffffe,
		Solution:  make([]byte, 1344),
	}
	h.PrevBlockHash[0] = n
	h.MerkleRoot[0] = n
	h.ReservedHash[0] = n
	h.Nonce[0] = n
	return h
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(StoreConfig{Datadir: t.TempDir(), Genesis: hash32.T{0x01}})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStoreCreatesRoot(t *testing.T) {
	s := openTestStore(t)
	root := s.Root()
	if root == nil {
		t.Fatalf("Root() returned nil")
	}
	if !root.isRoot() {
		t.Fatalf("root branch must report isRoot() == true")
	}
	if root.Height() != -1 {
		t.Fatalf("empty root Height() = %d, want -1", root.Height())
	}
}

func TestSaveChunkAndReadHeaderRoundTrip(t *testing.T) {
	s := openTestStore(t)
	root := s.Root()

	var data []byte
	for i := byte(0); i < 5; i++ {
		data = append(data, testHeader(i+1).Serialize()...)
	}
	if err := s.SaveChunk(root, 0, data); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}
	if root.Height() != 4 {
		t.Fatalf("Height() after saving 5 headers = %d, want 4", root.Height())
	}

	for i := int32(0); i < 5; i++ {
		got, err := root.ReadHeader(i)
		if err != nil {
			t.Fatalf("ReadHeader(%d): %v", i, err)
		}
		if got == nil {
			t.Fatalf("ReadHeader(%d) = nil", i)
		}
		if got.PrevBlockHash[0] != byte(i+1) {
			t.Fatalf("ReadHeader(%d).PrevBlockHash[0] = %d, want %d", i, got.PrevBlockHash[0], i+1)
		}
	}

	if got, err := root.ReadHeader(5); err != nil || got != nil {
		t.Fatalf("ReadHeader(5) (beyond tip) = %v, %v, want nil, nil", got, err)
	}
}

func TestGetHashUsesGenesisAtHeightZero(t *testing.T) {
	s := openTestStore(t)
	root := s.Root()
	hash, err := s.GetHash(root, 0)
	if err != nil {
		t.Fatalf("GetHash(0): %v", err)
	}
	if hash != s.genesis {
		t.Fatalf("GetHash(0) = %v, want genesis %v", hash, s.genesis)
	}
}

func TestCanConnectChecksPrevHashAndHeight(t *testing.T) {
	s := openTestStore(t)
	root := s.Root()

	genesisHeader := testHeader(9)
	genesisHeader.PrevBlockHash = hash32.T{}
	s.genesis = HashHeader(genesisHeader)

	ok, err := s.CanConnect(root, 0, genesisHeader, true)
	if err != nil {
		t.Fatalf("CanConnect: %v", err)
	}
	if !ok {
		t.Fatalf("CanConnect(genesis header at height 0) = false, want true")
	}

	wrong := testHeader(2)
	ok, err = s.CanConnect(root, 0, wrong, true)
	if err != nil {
		t.Fatalf("CanConnect: %v", err)
	}
	if ok {
		t.Fatalf("CanConnect(mismatched header) = true, want false")
	}

	// Height check: the empty root's next slot is height 0, not 1.
	ok, err = s.CanConnect(root, 1, genesisHeader, true)
	if err != nil {
		t.Fatalf("CanConnect: %v", err)
	}
	if ok {
		t.Fatalf("CanConnect(height 1 on an empty branch) = true, want false")
	}

	// Prev-hash check: wrong's PrevBlockHash is not the genesis hash.
	ok, err = s.CanConnect(root, 1, wrong, false)
	if err != nil {
		t.Fatalf("CanConnect: %v", err)
	}
	if ok {
		t.Fatalf("CanConnect(header with wrong prev hash at height 1) = true, want false")
	}
}

// chunkOf serializes n headers tagged start..start+n-1 into one byte blob,
// suitable for SaveChunk (which, unlike ConnectChunk, does no verification).
func chunkOf(start, n byte) []byte {
	var data []byte
	for i := byte(0); i < n; i++ {
		data = append(data, testHeader(start+i).Serialize()...)
	}
	return data
}

// TestMaybeSwapWithParentPromotesLongerFork grows a fork past its parent's
// remaining suffix and checks that both branches end up reading back the
// correct headers afterward: the promoted branch must see the combined
// chain (parent's prefix plus its own former tip), and the demoted branch
// must see only the discarded leftover suffix it used to own.
func TestMaybeSwapWithParentPromotesLongerFork(t *testing.T) {
	s := openTestStore(t)
	root := s.Root()

	// Root grows to height 9 (10 headers, tagged 1..10).
	if err := s.SaveChunk(root, 0, chunkOf(1, 10)); err != nil {
		t.Fatalf("SaveChunk(root): %v", err)
	}

	// Fork off at height 5, keeping root's own tag convention diverging from
	// height 5 onward (tagged 101, 102, ...).
	child, err := s.openBranch(5, root.checkpoint, false)
	if err != nil {
		t.Fatalf("openBranch(child): %v", err)
	}
	s.branches[5] = child

	// Parent's remaining suffix beyond the fork point is heights 5..9 (5
	// headers). Grow the child past that: 6 headers, heights 5..10.
	if err := s.SaveChunk(child, 5, chunkOf(101, 6)); err != nil {
		t.Fatalf("SaveChunk(child): %v", err)
	}

	promoted := s.branch(0)
	if promoted == nil {
		t.Fatalf("branch keyed at checkpoint 0 missing after swap")
	}
	if !promoted.isRoot() {
		t.Fatalf("promoted branch must remain root (parentCheckpoint == noParent)")
	}
	if promoted.Height() != 10 {
		t.Fatalf("promoted branch Height() = %d, want 10", promoted.Height())
	}
	for height := int32(0); height < 5; height++ {
		got, err := promoted.ReadHeader(height)
		if err != nil || got == nil {
			t.Fatalf("promoted.ReadHeader(%d): %v, %v", height, got, err)
		}
		if got.PrevBlockHash[0] != byte(height+1) {
			t.Fatalf("promoted.ReadHeader(%d) tag = %d, want %d (parent's prefix)", height, got.PrevBlockHash[0], height+1)
		}
	}
	for height := int32(5); height <= 10; height++ {
		got, err := promoted.ReadHeader(height)
		if err != nil || got == nil {
			t.Fatalf("promoted.ReadHeader(%d): %v, %v", height, got, err)
		}
		if got.PrevBlockHash[0] != byte(101+height-5) {
			t.Fatalf("promoted.ReadHeader(%d) tag = %d, want %d (child's own tip)", height, got.PrevBlockHash[0], 101+height-5)
		}
	}

	demoted := s.branch(5)
	if demoted == nil {
		t.Fatalf("branch keyed at checkpoint 5 missing after swap")
	}
	if demoted.isRoot() {
		t.Fatalf("demoted branch must no longer be root")
	}
	if demoted.Height() != 9 {
		t.Fatalf("demoted branch Height() = %d, want 9", demoted.Height())
	}
	for height := int32(5); height <= 9; height++ {
		got, err := demoted.ReadHeader(height)
		if err != nil || got == nil {
			t.Fatalf("demoted.ReadHeader(%d): %v, %v", height, got, err)
		}
		if got.PrevBlockHash[0] != byte(height+1) {
			t.Fatalf("demoted.ReadHeader(%d) tag = %d, want %d (discarded parent suffix)", height, got.PrevBlockHash[0], height+1)
		}
	}
}
