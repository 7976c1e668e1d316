// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import "github.com/zclassic/zlite/hash32"

// ExtraHeader is a header carried alongside a Checkpoint so that
// ComputeTarget has real ancestors to average across a checkpoint boundary
// (the 28 blocks -- PowAveragingWindow + PowMedianBlockSpan -- preceding it).
type ExtraHeader struct {
	Height int32
	Header *Header
}

// Checkpoint is a frozen (height, hash, target) triple for one 100-block
// chunk below the trusted horizon, grounded on blockchain.py's
// checkpoints.json consumption in get_hash/get_checkpoints.
type Checkpoint struct {
	Hash         hash32.T
	Target       []byte // compact bits encoding of the chunk's closing target
	ExtraHeaders []ExtraHeader
}

// checkpointSpan is the chunk size the checkpoint table is keyed by.
const checkpointSpan = 100

// checkpointHash consults checkpoints for the hash of the header at height,
// returning (hash, true) only when height lands exactly on a frozen chunk
// boundary below the horizon implied by len(checkpoints); the caller falls
// back to reading the on-disk branch otherwise.
func checkpointHash(checkpoints []Checkpoint, height int32) (hash32.T, bool) {
	horizon := int32(len(checkpoints))*checkpointSpan - (PowAveragingWindow + PowMedianBlockSpan)
	if height >= horizon {
		return hash32.T{}, false
	}
	if (height+1)%checkpointSpan != 0 {
		return hash32.T{}, false
	}
	idx := height / checkpointSpan
	if idx < 0 || int(idx) >= len(checkpoints) {
		return hash32.T{}, false
	}
	return checkpoints[idx].Hash, true
}

// checkpointExtraHeader looks up a header carried in a Checkpoint's
// ExtraHeaders, used by ComputeTarget to see across a checkpoint boundary
// without re-parsing the on-disk file.
func checkpointExtraHeader(checkpoints []Checkpoint, height int32) (*Header, bool) {
	for _, cp := range checkpoints {
		for _, eh := range cp.ExtraHeaders {
			if eh.Height == height {
				return eh.Header, true
			}
		}
	}
	return nil, false
}
