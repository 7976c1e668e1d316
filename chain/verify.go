// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/zclassic/zlite/hash32"
)

// overlay is the small, explicit stand-in for the original's ad-hoc scratch
// dict: headers staged during a chunk's verification but not yet persisted,
// indexed by height, with a marker for the range it covers. ComputeTarget
// consults it (via overlayLookup) so intra-chunk ancestors are visible
// before save_chunk has run.
type overlay struct {
	headers  map[int32]*Header
	min, max int32
	empty    bool
}

func newOverlay() *overlay {
	return &overlay{headers: make(map[int32]*Header), empty: true}
}

func (o *overlay) put(height int32, h *Header) {
	o.headers[height] = h
	if o.empty || height < o.min {
		o.min = height
	}
	if o.empty || height > o.max {
		o.max = height
	}
	o.empty = false
}

func (o *overlay) get(height int32) (*Header, bool) {
	if o.empty || height < o.min || height > o.max {
		return nil, false
	}
	h, ok := o.headers[height]
	return h, ok
}

// overlayLookup chains an overlay in front of a fallback HeaderLookup.
type overlayLookup struct {
	ov       *overlay
	fallback HeaderLookup
}

func (l overlayLookup) Header(height int32) (*Header, error) {
	if h, ok := l.ov.get(height); ok {
		return h, nil
	}
	return l.fallback.Header(height)
}

// verifyError tags the sentinel errors a failed verification returns, as
// opposed to I/O or programmer errors, so callers (CanConnect, ConnectChunk)
// can distinguish "rejected" from "broken".
type verifyError struct{ err error }

func (v *verifyError) Error() string { return v.err.Error() }
func (v *verifyError) Unwrap() error { return v.err }

func rejectf(sentinel error, format string, args ...interface{}) error {
	return &verifyError{errors.Wrapf(sentinel, format, args...)}
}

func isVerifyError(err error) bool {
	_, ok := err.(*verifyError)
	return ok
}

// verifyHeaderAgainstLookup implements the checks of verify_header that
// follow prev-hash continuity, which its callers (VerifyChunk, CanConnect)
// check themselves: it computes the expected target, then on mainnet applies
// the DIFFADJ-ramp-aware bits check and the PoW hash-vs-target check. On
// testnet it returns after computing the target, with no bits or PoW check.
func (s *Store) verifyHeaderAgainstLookup(height int32, h *Header, lookup HeaderLookup) error {
	target, err := ComputeTarget(height, lookup, s.testnet)
	if err != nil {
		return err
	}

	if s.testnet {
		return nil
	}

	expectedBits := TargetToBits(target)
	if bits, ok := DiffadjRampBits(height); ok {
		expectedBits = bits
		target, err = BitsToTarget(bits, s.testnet)
		if err != nil {
			return err
		}
	}
	if h.Bits != expectedBits {
		return rejectf(ErrBitsMismatch, "height %d: header bits 0x%08x, want 0x%08x", height, h.Bits, expectedBits)
	}

	hash := HashHeader(h)
	if hash32.Cmp(hash, targetAsHash(target)) > 0 {
		return rejectf(ErrInsufficientPoW, "height %d: hash %s exceeds target", height, hash)
	}
	return nil
}

// targetAsHash renders a big-endian big.Int target as a hash32.T for the
// numeric comparison against a header's (display-order, i.e. big-endian)
// hash, matching verify_header's "numeric comparison on the 256-bit
// display-order-decoded hash".
func targetAsHash(target *big.Int) hash32.T {
	b := target.Bytes()
	var out hash32.T
	copy(out[32-len(b):], b)
	return out
}

// VerifyChunk implements verify_chunk: it parses and validates every header
// in data starting at startHeight against b, using an overlay so headers
// earlier in the same chunk are visible to ComputeTarget, without mutating
// any persistent state. It never partially succeeds: on the first failure it
// returns that error and performs no writes.
func (s *Store) VerifyChunk(b *Branch, startHeight int32, data []byte) error {
	var prevHash hash32.T
	if startHeight > 0 {
		var err error
		prevHash, err = s.GetHash(b, startHeight-1)
		if err != nil {
			return errors.Wrap(err, "chain: resolving chunk predecessor hash")
		}
	}

	ov := newOverlay()
	lookup := overlayLookup{ov, branchHeaderLookup{s, b}}

	height := startHeight
	for len(data) > 0 {
		size := GetHeaderSize(height)
		if len(data) < size {
			return rejectf(ErrTruncatedBuffer, "height %d: %d bytes remain, want %d", height, len(data), size)
		}
		h, err := DeserializeHeader(data[:size], height)
		if err != nil {
			return &verifyError{err}
		}
		data = data[size:]

		if h.PrevBlockHash != prevHash {
			return rejectf(ErrPrevHashMismatch, "height %d", height)
		}
		if err := s.verifyHeaderAgainstLookup(height, h, lookup); err != nil {
			return err
		}

		ov.put(height, h)
		prevHash = HashHeader(h)
		height++

		// Cooperative pause so a long chunk does not starve other work in a
		// shared runtime. VerifyChunk takes no context and cannot be
		// cancelled between headers.
		time.Sleep(time.Microsecond)
	}
	return nil
}

// ConnectChunk verifies a 100-header chunk and, only on success, persists it
// via SaveChunk. It reports false (never an error) on a rejected chunk, so
// the network layer can retry from a different peer; it returns a non-nil
// error only for operational failures (I/O, programmer error) distinct from
// a rejected chunk.
func (s *Store) ConnectChunk(b *Branch, chunkIndex int, data []byte) (bool, error) {
	startHeight := int32(chunkIndex) * checkpointSpan
	if err := s.VerifyChunk(b, startHeight, data); err != nil {
		if isVerifyError(err) {
			return false, nil
		}
		return false, err
	}
	if err := s.SaveChunk(b, startHeight, data); err != nil {
		return false, err
	}
	return true, nil
}
