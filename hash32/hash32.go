// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package hash32

import (
	"encoding/hex"
	"errors"
)

// This type is for any kind of 32-byte hash, such as block ID,
// txid, or merkle root. Variables of this type are passed
// around and returned by value (treat like an integer).
type T [32]byte

// It is considered impossible for a hash value to be all zeros,
// so we use that to represent an unset or undefined hash value.
var Nil = [32]byte{}

// FromSlice converts a slice to a hash32. If the slice is too long,
// the return is only the first 32 bytes; if the slice is too short,
// the remaining bytes in the return value are zeros. This should
// not happen in practice.
func FromSlice(arg []byte) T {
	var r T
	copy(r[:], arg)
	return r
}

// ToSlice converts a hash32 to a byte slice.
func ToSlice(arg T) []byte {
	return arg[:]
}

// Reverse returns a byte-reversed copy of the given hash; the input is
// unchanged.
func Reverse(arg T) T {
	r := T{}
	for i := range 32 {
		r[i] = arg[32-1-i]
	}
	return r
}

func ReverseSlice(arg []byte) []byte {
	return ToSlice(Reverse(T(arg)))
}

func Decode(s string) (T, error) {
	r := T{}
	hash, err := hex.DecodeString(s)
	if err != nil {
		return r, err
	}
	if len(hash) != 32 {
		return r, errors.New("DecodeHexHash: length is not 32 bytes")
	}
	return T(hash), nil
}

func Encode(arg T) string {
	return hex.EncodeToString(ToSlice(arg))
}

// String implements fmt.Stringer so a T prints as its display-order hex hash.
func (t T) String() string {
	return Encode(t)
}

// IsNil reports whether t is the unset/undefined hash value.
func (t T) IsNil() bool {
	return t == T(Nil)
}

// Cmp compares a and b as big-endian 256-bit unsigned integers (byte 0 most
// significant), returning -1, 0 or 1. Hashes of this type are always kept in
// display order internally (see Header.Serialize, which reverses on the way
// to the wire), and display order reads as a standard big-endian number.
func Cmp(a, b T) int {
	for i := 0; i < 32; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
