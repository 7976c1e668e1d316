// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package tx

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/ripemd160"

	"github.com/zclassic/zlite/hash32"
	"github.com/zclassic/zlite/internal/wire"
)

// AddressParams carries the 2-byte base58check version prefixes a network
// uses for P2PKH and P2SH addresses (see chaincfg.Params.AddressParams).
type AddressParams struct {
	P2PKHVersion [2]byte
	P2SHVersion  [2]byte
}

// Opcodes used by the recognizer/builder. Grounded on transaction.py's
// Enumeration of opcodes, trimmed to the subset this core's state machine
// actually matches against.
const (
	opPushdata1      = 0x4c
	opPushdata2      = 0x4d
	opPushdata4      = 0x4e
	op0              = 0x00
	op1              = 0x51
	op16             = 0x60
	opDup            = 0x76
	opHash160        = 0xa9
	opEqualVerify    = 0x88
	opEqual          = 0x87
	opCheckSig       = 0xac
	opCheckMultisig  = 0xae
)

// NoSignature is the placeholder byte pushed in place of a missing p2pk or
// p2pkh signature when assembling a scriptSig (see InputScript); an unsigned
// p2sh slot is assembled as OP_0 instead.
const NoSignature = 0xff

// scriptOp is one decoded opcode, with its pushed data (if any), grounded on
// transaction.py's script_GetOp.
type scriptOp struct {
	op   byte
	data []byte
}

// decodeScript walks script into a sequence of scriptOps. It never errors:
// trailing truncated push data, if any, is kept as a final op with
// whatever bytes remained (matching script_GetOp's permissive behavior),
// since malformed scripts must still be classified as "unknown" rather than
// rejected outright.
func decodeScript(script []byte) []scriptOp {
	var ops []scriptOp
	r := wire.NewReader(script)
	for r.Len() > 0 {
		b, _ := r.ReadByte()
		switch {
		case b >= 1 && b <= 75:
			data, ok := r.ReadBytes(int(b))
			if !ok {
				data = r.Rest()
			}
			ops = append(ops, scriptOp{b, data})
		case b == opPushdata1:
			n, ok := r.ReadByte()
			if !ok {
				return ops
			}
			data, ok := r.ReadBytes(int(n))
			if !ok {
				data = r.Rest()
			}
			ops = append(ops, scriptOp{b, data})
		case b == opPushdata2:
			n, ok := r.ReadUint16()
			if !ok {
				return ops
			}
			data, ok := r.ReadBytes(int(n))
			if !ok {
				data = r.Rest()
			}
			ops = append(ops, scriptOp{b, data})
		case b == opPushdata4:
			n, ok := r.ReadUint32()
			if !ok {
				return ops
			}
			data, ok := r.ReadBytes(int(n))
			if !ok {
				data = r.Rest()
			}
			ops = append(ops, scriptOp{b, data})
		default:
			ops = append(ops, scriptOp{b, nil})
		}
		if r.Err() != nil {
			return ops
		}
	}
	return ops
}

func isSmallInt(op byte) (int, bool) {
	if op == op0 {
		return 0, true
	}
	if op >= op1 && op <= op16 {
		return int(op-op1) + 1, true
	}
	return 0, false
}

func hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(sum[:])
	return r.Sum(nil)
}

// recognizeInputScript classifies a non-coinbase input's ScriptSig,
// grounded on transaction.py's parse_scriptSig.
func recognizeInputScript(in *TxIn) {
	ops := decodeScript(in.ScriptSig)

	// Single PUSHDATA <= 75 bytes starting with a non-zero byte: p2pk.
	if len(ops) == 1 && ops[0].op >= 1 && ops[0].op <= 75 && len(ops[0].data) > 0 && ops[0].data[0] != 0 {
		in.Kind = InputP2PK
		in.NumSig = 1
		in.Signatures = []string{hex.EncodeToString(ops[0].data)}
		return
	}

	// Two PUSHDATAs (sig, pubkey): p2pkh.
	if len(ops) == 2 && ops[0].op >= 1 && ops[0].op <= 75 && ops[1].op >= 1 && ops[1].op <= 75 {
		in.Kind = InputP2PKH
		in.NumSig = 1
		in.Signatures = []string{hex.EncodeToString(ops[0].data)}
		in.Pubkeys = [][]byte{ops[1].data}
		in.XPubkeys = [][]byte{ops[1].data}
		return
	}

	// OP_0 followed by N signature pushes and a final multisig redeem
	// script push: p2sh.
	if len(ops) >= 2 && ops[0].op == op0 {
		last := ops[len(ops)-1]
		if last.op >= 1 && last.op <= 75 {
			m, pubkeys, ok := parseMultisigRedeemScript(last.data)
			if ok {
				in.Kind = InputP2SH
				in.NumSig = m
				in.RedeemScript = last.data
				in.Pubkeys = pubkeys
				in.XPubkeys = pubkeys
				for _, op := range ops[1 : len(ops)-1] {
					if op.op == 0 {
						in.Signatures = append(in.Signatures, "")
					} else {
						in.Signatures = append(in.Signatures, hex.EncodeToString(op.data))
					}
				}
				return
			}
		}
	}

	in.Kind = InputUnknown
}

// parseMultisigRedeemScript recognizes [m, key_1..key_n, n, CHECKMULTISIG],
// grounded on transaction.py's parse_redeemScript.
func parseMultisigRedeemScript(script []byte) (m int, pubkeys [][]byte, ok bool) {
	ops := decodeScript(script)
	if len(ops) < 4 {
		return 0, nil, false
	}
	m, ok = isSmallInt(ops[0].op)
	if !ok {
		return 0, nil, false
	}
	n, ok := isSmallInt(ops[len(ops)-2].op)
	if !ok {
		return 0, nil, false
	}
	if ops[len(ops)-1].op != opCheckMultisig {
		return 0, nil, false
	}
	keyOps := ops[1 : len(ops)-2]
	if len(keyOps) != n || n < m {
		return 0, nil, false
	}
	for _, op := range keyOps {
		if op.op < 1 || op.op > 75 {
			return 0, nil, false
		}
		pubkeys = append(pubkeys, op.data)
	}
	return m, pubkeys, true
}

// MultisigScript builds an [m, key_1..key_n, n, CHECKMULTISIG] redeem
// script, grounded on transaction.py's multisig_script.
func MultisigScript(pubkeys [][]byte, m int) []byte {
	w := wire.NewWriter(64)
	w.WriteByte(byte(op1 + m - 1))
	for _, pk := range pubkeys {
		w.WriteCompactLengthPrefixed(pk)
	}
	w.WriteByte(byte(op1 + len(pubkeys) - 1))
	w.WriteByte(opCheckMultisig)
	return w.Bytes()
}

// recognizeOutputScript classifies an output's pay-script, grounded on
// transaction.py's get_address_from_output_script, and renders the
// Address/Pubkey display fields using params' version bytes.
func recognizeOutputScript(out *TxOut, params AddressParams) {
	ops := decodeScript(out.Script)

	if len(ops) == 2 && ops[0].op >= 1 && ops[0].op <= 75 && ops[1].op == opCheckSig {
		out.Kind = OutputPubkey
		out.Pubkey = hex.EncodeToString(ops[0].data)
		return
	}

	if len(ops) == 5 && ops[0].op == opDup && ops[1].op == opHash160 &&
		ops[2].op == 20 && ops[3].op == opEqualVerify && ops[4].op == opCheckSig {
		out.Kind = OutputAddress
		out.Address = encodeBase58Check(params.P2PKHVersion, ops[2].data)
		return
	}

	if len(ops) == 3 && ops[0].op == opHash160 && ops[1].op == 20 && ops[2].op == opEqual {
		out.Kind = OutputAddress
		out.Address = encodeBase58Check(params.P2SHVersion, ops[1].data)
		return
	}

	out.Kind = OutputScript
}

// encodeBase58Check renders version (a 2-byte Zcash-family address prefix)
// || payload with a 4-byte double-SHA256 checksum, base58-encoded. The
// btcutil/base58 CheckEncode/CheckDecode helpers assume a 1-byte version, so this core
// composes btcutil/base58's plain Encode with its own checksum, grounded on
// the 2-byte-prefix address format constants.py's ADDRTYPE_* constants
// imply.
func encodeBase58Check(version [2]byte, payload []byte) string {
	buf := make([]byte, 0, 2+len(payload)+4)
	buf = append(buf, version[:]...)
	buf = append(buf, payload...)
	first := sha256.Sum256(buf)
	second := sha256.Sum256(first[:])
	buf = append(buf, second[:4]...)
	return base58.Encode(buf)
}

// ValidAddress reports whether address base58check-decodes to a P2PKH or
// P2SH payload under params, used by the uri package to validate a zcash:
// URI's address parameter.
func ValidAddress(address string, params AddressParams) bool {
	version, _, ok := decodeBase58Check(address)
	if !ok {
		return false
	}
	return version == params.P2PKHVersion || version == params.P2SHVersion
}

// decodeBase58Check is the inverse of encodeBase58Check, used to validate
// and unpack a zcash: URI's address parameter.
func decodeBase58Check(s string) (version [2]byte, payload []byte, ok bool) {
	raw := base58.Decode(s)
	if len(raw) < 2+4 {
		return version, nil, false
	}
	body := raw[:len(raw)-4]
	checksum := raw[len(raw)-4:]
	first := sha256.Sum256(body)
	second := sha256.Sum256(first[:])
	if hex.EncodeToString(second[:4]) != hex.EncodeToString(checksum) {
		return version, nil, false
	}
	copy(version[:], body[:2])
	return version, body[2:], true
}

// sortInputsBIP69 sorts by (prevout_hash, prevout_n). PrevoutHash is stored
// in wire order (see parseInput), but the comparison key is display order,
// the same byte-reversed convention header.go uses for PrevBlockHash and
// MerkleRoot, to match the original's hash_encode-based sort key.
func sortInputsBIP69(ins []*TxIn) {
	sort.SliceStable(ins, func(i, j int) bool {
		a, b := hash32.Reverse(ins[i].PrevoutHash), hash32.Reverse(ins[j].PrevoutHash)
		for k := 0; k < 32; k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return ins[i].PrevoutN < ins[j].PrevoutN
	})
}

// sortOutputsBIP69 sorts by (value, pay_script).
func sortOutputsBIP69(outs []*TxOut) {
	sort.SliceStable(outs, func(i, j int) bool {
		a, b := outs[i], outs[j]
		if a.Value != b.Value {
			return a.Value < b.Value
		}
		na, nb := len(a.Script), len(b.Script)
		n := na
		if nb < n {
			n = nb
		}
		for k := 0; k < n; k++ {
			if a.Script[k] != b.Script[k] {
				return a.Script[k] < b.Script[k]
			}
		}
		return na < nb
	})
}
