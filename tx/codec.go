// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package tx implements the legacy/Overwinter/Sapling transaction codec, its
// script recognition state machine, and the ZIP-143/243-style pre-image
// hasher and deterministic signer. Grounded on the original's
// lib/transaction.py (BCDataStream-based deserialize/serialize/sign) and on
// zcash-lightwalletd's parser/transaction.go for the Go field-reader idiom.
package tx

import (
	"github.com/pkg/errors"

	"github.com/zclassic/zlite/hash32"
	"github.com/zclassic/zlite/internal/wire"
)

// Version-group IDs identify which consensus upgrade an overwintered
// transaction belongs to; each must match the constant for the transaction's
// version (the low 31 bits of the header).
const (
	OverwinterVersionGroupID = 0x03C48270
	SaplingVersionGroupID    = 0x892F2085
)

const overwinteredFlag = uint32(1) << 31

// Transaction versions. 1 and 2 are legacy (non-overwintered); 3 is
// Overwinter, 4 is Sapling.
const (
	VersionLegacyMax = 2
	VersionOverwinter = 3
	VersionSapling    = 4
)

// Opaque shielded-component sizes, matching real Sapling serialization and
// cross-checked against parser/transaction.go's spend/output structs.
const (
	ShieldedSpendSize  = 384
	ShieldedOutputSize = 948
	JoinSplitV3Size    = 1802
	JoinSplitV4Size    = 1698
)

// InputKind tags how an input's scriptSig was recognized.
type InputKind int

const (
	InputUnknown InputKind = iota
	InputCoinbase
	InputP2PK
	InputP2PKH
	InputP2SH
)

// OutputKind tags how an output's pubkey script was recognized.
type OutputKind int

const (
	OutputScript OutputKind = iota
	OutputPubkey
	OutputAddress
)

// TxIn is one transaction input, carrying both the raw wire fields and the
// derived fields the signer needs: a recognized Kind, the expected number of
// signatures, and parallel X pubkey/pubkey/signature slots (signatures may
// be empty strings meaning "slot reserved, not yet signed").
type TxIn struct {
	PrevoutHash hash32.T
	PrevoutN    uint32
	ScriptSig   []byte
	Sequence    uint32

	Kind          InputKind
	NumSig        int
	XPubkeys      [][]byte
	Pubkeys       [][]byte
	Signatures    []string
	RedeemScript  []byte // p2sh only

	// PrevScript and Value describe the output this input spends. They are
	// not present on the wire (a transaction only carries prevout_hash and
	// prevout_n) and must be populated by the caller, from its UTXO set,
	// before Signer.Sign is called.
	PrevScript []byte
	Value      int64
}

// TxOut is one transaction output.
type TxOut struct {
	Value int64
	Kind  OutputKind
	Script []byte // raw pay-script bytes, always populated
	Address string // populated when Kind == OutputAddress
	Pubkey  string // hex, populated when Kind == OutputPubkey
}

// Transaction is the in-memory model for legacy, Overwinter (v3) and
// Sapling (v4) transactions. Shielded components beyond the spend/output/
// joinsplit byte counts are carried opaquely; this core never interprets
// shielded semantics.
type Transaction struct {
	Version      uint32
	Overwintered bool
	VersionGroupID uint32

	Inputs  []*TxIn
	Outputs []*TxOut
	LockTime uint32

	// Present only when Overwintered.
	ExpiryHeight uint32

	// Present only for VersionSapling.
	ValueBalance    int64
	ShieldedSpends  []byte // len == count*ShieldedSpendSize
	ShieldedOutputs []byte // len == count*ShieldedOutputSize
	numShieldedSpends, numShieldedOutputs int

	// JoinSplits, present for VersionOverwinter and VersionSapling. Each
	// entry's on-wire size is JoinSplitV3Size or JoinSplitV4Size depending
	// on Version; contents are carried as an opaque concatenated blob since
	// this core never verifies shielded proofs.
	JoinSplits []byte
	numJoinSplits int

	JoinSplitPubKey [32]byte
	JoinSplitSig    [64]byte
	BindingSig      [64]byte
}

func isCoinbase(prevoutHash hash32.T) bool {
	return prevoutHash == hash32.T{}
}

// Deserialize parses a raw transaction, grounded on transaction.py's
// Transaction.deserialize. params supplies the address version bytes script
// recognition needs to render P2PKH/P2SH output addresses.
func Deserialize(raw []byte, params AddressParams) (*Transaction, error) {
	r := wire.NewReader(raw)
	t := &Transaction{}

	header, ok := r.ReadUint32()
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: header")
	}
	t.Overwintered = header&overwinteredFlag != 0
	t.Version = header &^ overwinteredFlag

	if t.Overwintered {
		vgid, ok := r.ReadUint32()
		if !ok {
			return nil, errors.Wrap(ErrTruncatedBuffer, "tx: version_group_id")
		}
		t.VersionGroupID = vgid
		switch t.Version {
		case VersionOverwinter:
			if vgid != OverwinterVersionGroupID {
				return nil, errors.Wrapf(ErrTransactionVersionError, "overwinter version_group_id 0x%08x", vgid)
			}
		case VersionSapling:
			if vgid != SaplingVersionGroupID {
				return nil, errors.Wrapf(ErrTransactionVersionError, "sapling version_group_id 0x%08x", vgid)
			}
		default:
			return nil, errors.Wrapf(ErrTransactionVersionError, "unsupported overwintered version %d", t.Version)
		}
	} else if t.Version > VersionLegacyMax {
		return nil, errors.Wrapf(ErrTransactionVersionError, "unsupported legacy version %d", t.Version)
	}

	inCount, ok := r.ReadCompactSize()
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: input count")
	}
	for i := uint64(0); i < inCount; i++ {
		in, err := parseInput(r, params)
		if err != nil {
			return nil, err
		}
		t.Inputs = append(t.Inputs, in)
	}

	outCount, ok := r.ReadCompactSize()
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: output count")
	}
	for i := uint64(0); i < outCount; i++ {
		out, err := parseOutput(r, params)
		if err != nil {
			return nil, err
		}
		t.Outputs = append(t.Outputs, out)
	}

	lockTime, ok := r.ReadUint32()
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: lock_time")
	}
	t.LockTime = lockTime

	if t.Overwintered {
		expiry, ok := r.ReadUint32()
		if !ok {
			return nil, errors.Wrap(ErrTruncatedBuffer, "tx: expiry_height")
		}
		t.ExpiryHeight = expiry

		if t.Version == VersionSapling {
			vb, ok := r.ReadInt64()
			if !ok {
				return nil, errors.Wrap(ErrTruncatedBuffer, "tx: value_balance")
			}
			t.ValueBalance = vb

			spendCount, ok := r.ReadCompactSize()
			if !ok {
				return nil, errors.Wrap(ErrTruncatedBuffer, "tx: shielded spend count")
			}
			spends, ok := r.ReadBytes(int(spendCount) * ShieldedSpendSize)
			if !ok {
				return nil, errors.Wrap(ErrTruncatedBuffer, "tx: shielded spends")
			}
			t.ShieldedSpends = append([]byte(nil), spends...)
			t.numShieldedSpends = int(spendCount)

			outCount, ok := r.ReadCompactSize()
			if !ok {
				return nil, errors.Wrap(ErrTruncatedBuffer, "tx: shielded output count")
			}
			outs, ok := r.ReadBytes(int(outCount) * ShieldedOutputSize)
			if !ok {
				return nil, errors.Wrap(ErrTruncatedBuffer, "tx: shielded outputs")
			}
			t.ShieldedOutputs = append([]byte(nil), outs...)
			t.numShieldedOutputs = int(outCount)
		}

		jsCount, ok := r.ReadCompactSize()
		if !ok {
			return nil, errors.Wrap(ErrTruncatedBuffer, "tx: joinsplit count")
		}
		t.numJoinSplits = int(jsCount)
		if jsCount > 0 {
			perJS := JoinSplitV3Size
			if t.Version == VersionSapling {
				perJS = JoinSplitV4Size
			}
			js, ok := r.ReadBytes(int(jsCount) * perJS)
			if !ok {
				return nil, errors.Wrap(ErrTruncatedBuffer, "tx: joinsplits")
			}
			t.JoinSplits = append([]byte(nil), js...)

			pk, ok := r.ReadBytes(32)
			if !ok {
				return nil, errors.Wrap(ErrTruncatedBuffer, "tx: joinSplitPubKey")
			}
			copy(t.JoinSplitPubKey[:], pk)

			sig, ok := r.ReadBytes(64)
			if !ok {
				return nil, errors.Wrap(ErrTruncatedBuffer, "tx: joinSplitSig")
			}
			copy(t.JoinSplitSig[:], sig)

			if t.Version == VersionSapling {
				bs, ok := r.ReadBytes(64)
				if !ok {
					return nil, errors.Wrap(ErrTruncatedBuffer, "tx: bindingSig")
				}
				copy(t.BindingSig[:], bs)
			}
		}
	}

	if r.Len() != 0 {
		return nil, errors.Wrapf(ErrSerializationError, "%d trailing bytes", r.Len())
	}
	return t, nil
}

func parseInput(r *wire.Reader, params AddressParams) (*TxIn, error) {
	prevoutHash, ok := r.ReadBytes(32)
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: input prevout_hash")
	}
	prevoutN, ok := r.ReadUint32()
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: input prevout_n")
	}
	scriptSig, ok := r.ReadCompactLengthPrefixed()
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: input script_sig")
	}
	sequence, ok := r.ReadUint32()
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: input sequence")
	}

	in := &TxIn{
		PrevoutHash: hash32.FromSlice(append([]byte(nil), prevoutHash...)),
		PrevoutN:    prevoutN,
		ScriptSig:   append([]byte(nil), scriptSig...),
		Sequence:    sequence,
	}
	if isCoinbase(in.PrevoutHash) {
		in.Kind = InputCoinbase
		return in, nil
	}
	recognizeInputScript(in)
	return in, nil
}

func parseOutput(r *wire.Reader, params AddressParams) (*TxOut, error) {
	value, ok := r.ReadInt64()
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: output value")
	}
	script, ok := r.ReadCompactLengthPrefixed()
	if !ok {
		return nil, errors.Wrap(ErrTruncatedBuffer, "tx: output script")
	}
	out := &TxOut{Value: value, Script: append([]byte(nil), script...)}
	recognizeOutputScript(out, params)
	return out, nil
}

// Serialize is the inverse of Deserialize. It does not sort inputs/outputs;
// call SortBIP69 first if BIP 69 ordering is wanted.
func (t *Transaction) Serialize() []byte {
	w := wire.NewWriter(256)

	header := t.Version
	if t.Overwintered {
		header |= overwinteredFlag
	}
	w.WriteUint32(header)
	if t.Overwintered {
		w.WriteUint32(t.VersionGroupID)
	}

	w.WriteCompactSize(uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		w.WriteBytes(in.PrevoutHash[:])
		w.WriteUint32(in.PrevoutN)
		w.WriteCompactLengthPrefixed(in.ScriptSig)
		w.WriteUint32(in.Sequence)
	}

	w.WriteCompactSize(uint64(len(t.Outputs)))
	for _, out := range t.Outputs {
		w.WriteInt64(out.Value)
		w.WriteCompactLengthPrefixed(out.Script)
	}

	w.WriteUint32(t.LockTime)

	if t.Overwintered {
		w.WriteUint32(t.ExpiryHeight)
		if t.Version == VersionSapling {
			w.WriteInt64(t.ValueBalance)
			w.WriteCompactSize(uint64(t.numShieldedSpends))
			w.WriteBytes(t.ShieldedSpends)
			w.WriteCompactSize(uint64(t.numShieldedOutputs))
			w.WriteBytes(t.ShieldedOutputs)
		}
		w.WriteCompactSize(uint64(t.numJoinSplits))
		if t.numJoinSplits > 0 {
			w.WriteBytes(t.JoinSplits)
			w.WriteBytes(t.JoinSplitPubKey[:])
			w.WriteBytes(t.JoinSplitSig[:])
			if t.Version == VersionSapling {
				w.WriteBytes(t.BindingSig[:])
			}
		}
	}

	return w.Bytes()
}

// SortBIP69 sorts inputs by (prevout_hash, prevout_n) and outputs by
// (value, pay_script), matching transaction.py's BIP_LI01_sort. It is never
// invoked implicitly by Serialize.
func (t *Transaction) SortBIP69() {
	sortInputsBIP69(t.Inputs)
	sortOutputsBIP69(t.Outputs)
}
