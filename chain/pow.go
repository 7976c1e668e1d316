// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package chain

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"
)

// PoW retarget constants, grounded on blockchain.py's module-level constants
// of the same names.
const (
	PowAveragingWindow = 17
	PowMedianBlockSpan = 11
	PowDampingFactor   = 4
	PowTargetSpacing   = 150 // seconds
	AvgTimespan        = PowAveragingWindow * PowTargetSpacing // 2550

	// minTimespanPct/maxTimespanPct bound how far the dampened timespan may
	// drift from AvgTimespan before the retarget clamps it.
	minTimespanPct = 68
	maxTimespanPct = 132

	// DiffadjActivationHeight is the first height whose retarget output is
	// overridden by the hard-coded ramp table below.
	DiffadjActivationHeight = 585322
)

// MaxTarget is the network PoW floor: top byte 0x07, then 31 0xff bytes.
var MaxTarget = func() *big.Int {
	b := make([]byte, 32)
	b[0] = 0x07
	for i := 1; i < 32; i++ {
		b[i] = 0xff
	}
	return new(big.Int).SetBytes(b)
}()

// diffadjRamp is the 17 hard-coded bits values for heights
// [DiffadjActivationHeight, DiffadjActivationHeight+17). The original
// implementation indexes this table with height % DiffadjActivationHeight;
// the correct index (used here) is height - DiffadjActivationHeight, which
// only coincides with the modulo form for the first 17 blocks after
// activation.
var diffadjRamp = [PowAveragingWindow]uint32{
	0x1f07ffff, 0x1e0ffffe, 0x1e0ffffe, 0x1f07ffff, 0x1f014087,
	0x1f01596b, 0x1f01743d, 0x1f019124, 0x1f01b049, 0x1f01d1da,
	0x1f01f606, 0x1f021d01, 0x1f024703, 0x1f027448, 0x1f02a510,
	0x1f02d9a3, 0x1f03124a,
}

// DiffadjRampBits returns the hard-coded override bits for height and true,
// or (0, false) if height falls outside the ramp window.
func DiffadjRampBits(height int32) (uint32, bool) {
	idx := height - DiffadjActivationHeight
	if idx < 0 || idx >= PowAveragingWindow {
		return 0, false
	}
	return diffadjRamp[idx], true
}

// BitsToTarget decodes a compact 32-bit target encoding into a 256-bit
// integer, grounded on blockchain.py's bits_to_target. On mainnet the
// exponent must fall in [0x03, 0x1f]; testnet relaxes that check but the
// mantissa range [0x8000, 0x7fffff] always applies.
func BitsToTarget(bits uint32, testnet bool) (*big.Int, error) {
	exp := (bits >> 24) & 0xff
	mantissa := bits & 0xffffff

	if !testnet && (exp < 0x03 || exp > 0x1f) {
		return nil, errors.Wrapf(ErrInvalidCompactBits, "exponent 0x%02x out of range", exp)
	}
	if mantissa < 0x8000 || mantissa > 0x7fffff {
		return nil, errors.Wrapf(ErrInvalidCompactBits, "mantissa 0x%06x out of range", mantissa)
	}

	target := new(big.Int).SetUint64(uint64(mantissa))
	shift := 8 * (int(exp) - 3)
	if shift > 0 {
		target.Lsh(target, uint(shift))
	} else if shift < 0 {
		target.Rsh(target, uint(-shift))
	}
	return target, nil
}

// TargetToBits encodes a 256-bit target into the canonical compact form,
// grounded on blockchain.py's target_to_bits (hex-string trimming
// translated into a byte-oriented big.Int walk).
func TargetToBits(target *big.Int) uint32 {
	b := target.Bytes() // big-endian, no leading zeros
	size := len(b)

	// target_to_bits floors the significant-byte count at 3: it keeps
	// trimming leading zero bytes only while more than 3 bytes remain, so a
	// target with fewer than 3 significant bytes is padded with leading
	// zero bytes rather than reported with a shorter byte count.
	if size < 3 {
		padded := make([]byte, 3)
		copy(padded[3-size:], b)
		b = padded
		size = 3
	}

	mantissa := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])

	if mantissa&0x800000 != 0 {
		mantissa >>= 8
		size++
	}

	return uint32(size)<<24 | mantissa
}

// medianTime returns the median timestamp of headers[h-11 .. h-1]: the
// element at sorted[len/2] (integer division), which on an even count would
// be the upper of the two middle elements.
func medianTime(h int32, lookup HeaderLookup) (uint32, error) {
	var times []uint32
	for i := h - PowMedianBlockSpan; i < h; i++ {
		hdr, err := lookup.Header(i)
		if err != nil {
			return 0, err
		}
		times = append(times, hdr.Timestamp)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times[len(times)/2], nil
}

// HeaderLookup resolves an ancestor header by height, backed during chunk
// verification by an overlay of already-persisted headers and the headers
// currently being verified in the same chunk (see overlay in verify.go).
type HeaderLookup interface {
	Header(height int32) (*Header, error)
}

// ComputeTarget implements the Digishield-style moving-average retarget,
// grounded on blockchain.py's get_target. At or below
// PowAveragingWindow the maximum target applies; within the DIFFADJ ramp
// window the hard-coded override applies instead of the computed value.
func ComputeTarget(height int32, lookup HeaderLookup, testnet bool) (*big.Int, error) {
	if bits, ok := DiffadjRampBits(height); ok {
		return BitsToTarget(bits, testnet)
	}
	if height <= PowAveragingWindow {
		return new(big.Int).Set(MaxTarget), nil
	}

	sumTargets := new(big.Int)
	for i := height - PowAveragingWindow; i < height; i++ {
		hdr, err := lookup.Header(i)
		if err != nil {
			return nil, err
		}
		t, err := BitsToTarget(hdr.Bits, testnet)
		if err != nil {
			return nil, err
		}
		sumTargets.Add(sumTargets, t)
	}
	meanTarget := new(big.Int).Div(sumTargets, big.NewInt(PowAveragingWindow))

	tEnd, err := medianTime(height, lookup)
	if err != nil {
		return nil, err
	}
	tStart, err := medianTime(height-PowAveragingWindow, lookup)
	if err != nil {
		return nil, err
	}
	actualTimespan := int64(tEnd) - int64(tStart)

	ts := int64(AvgTimespan) + (actualTimespan-int64(AvgTimespan))/PowDampingFactor

	minTimespan := int64(AvgTimespan) * minTimespanPct / 100
	maxTimespan := int64(AvgTimespan) * maxTimespanPct / 100
	if ts < minTimespan {
		ts = minTimespan
	}
	if ts > maxTimespan {
		ts = maxTimespan
	}

	next := new(big.Int).Div(meanTarget, big.NewInt(AvgTimespan))
	next.Mul(next, big.NewInt(ts))
	if next.Cmp(MaxTarget) > 0 {
		next = new(big.Int).Set(MaxTarget)
	}
	return next, nil
}
