// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package wire provides a cursor-based binary codec for the compact-size /
// little-endian wire encoding shared by block headers and transactions.
package wire

import "errors"

// ErrTruncated is returned (via Err) once a Read* call has run past the end
// of the buffer. The first failure sticks: subsequent reads are no-ops and
// also report failure, so callers can chain a sequence of reads and check
// the cursor once at the end instead of after every field.
var ErrTruncated = errors.New("wire: truncated buffer")

// Reader is a read cursor over an immutable byte slice, adapted from
// lightwalletd's parser/internal/bytestring.String to also track a sticky
// error instead of forcing every caller to check a bool.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first error encountered, or nil if every read so far has
// succeeded.
func (r *Reader) Err() error {
	return r.err
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Rest returns the remaining, unread bytes without advancing the cursor.
func (r *Reader) Rest() []byte {
	return r.buf[r.pos:]
}

func (r *Reader) fail() {
	if r.err == nil {
		r.err = ErrTruncated
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil || n < 0 || r.Len() < n {
		r.fail()
		return nil
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

// ReadBytes reads exactly n bytes and advances the cursor. It reports
// whether the read succeeded.
func (r *Reader) ReadBytes(n int) ([]byte, bool) {
	v := r.take(n)
	return v, v != nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, bool) {
	v := r.take(1)
	if v == nil {
		return 0, false
	}
	return v[0], true
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, bool) {
	v := r.take(2)
	if v == nil {
		return 0, false
	}
	return uint16(v[0]) | uint16(v[1])<<8, true
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, bool) {
	v := r.take(4)
	if v == nil {
		return 0, false
	}
	return uint32(v[0]) | uint32(v[1])<<8 | uint32(v[2])<<16 | uint32(v[3])<<24, true
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, bool) {
	v := r.take(8)
	if v == nil {
		return 0, false
	}
	var out uint64
	for i := 7; i >= 0; i-- {
		out = out<<8 | uint64(v[i])
	}
	return out, true
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, bool) {
	v, ok := r.ReadUint32()
	return int32(v), ok
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, bool) {
	v, ok := r.ReadUint64()
	return int64(v), ok
}

// ReadCompactSize reads a Bitcoin-style compact-size integer: a leading byte
// <=252 is the value itself; 253/254/255 indicate a following uint16/
// uint32/uint64 (little-endian).
func (r *Reader) ReadCompactSize() (uint64, bool) {
	lead, ok := r.ReadByte()
	if !ok {
		return 0, false
	}
	switch {
	case lead < 253:
		return uint64(lead), true
	case lead == 253:
		v, ok := r.ReadUint16()
		return uint64(v), ok
	case lead == 254:
		v, ok := r.ReadUint32()
		return uint64(v), ok
	default:
		return r.ReadUint64()
	}
}

// ReadCompactLengthPrefixed reads a compact-size length followed by that
// many bytes.
func (r *Reader) ReadCompactLengthPrefixed() ([]byte, bool) {
	n, ok := r.ReadCompactSize()
	if !ok {
		return nil, false
	}
	return r.ReadBytes(int(n))
}

// ReadString reads a compact-size-prefixed ASCII string; other encodings
// are out of scope.
func (r *Reader) ReadString() (string, bool) {
	b, ok := r.ReadCompactLengthPrefixed()
	if !ok {
		return "", false
	}
	return string(b), true
}
