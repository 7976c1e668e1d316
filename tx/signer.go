// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package tx

import (
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"
)

const sigHashTypeAll = 0x01

// PrivateKeyInfo binds a private key to the pubkey (hex-encoded) a signer
// looks it up by, grounded on transaction.py's keypairs dict keyed by
// x_pubkey.
type PrivateKeyInfo struct {
	PrivKey *secp256k1.PrivateKey
	Pubkey  []byte
}

// Signer produces ECDSA signatures for a transaction's inputs. It holds no
// state of its own; every call is self-contained.
type Signer struct{}

// Sign fills in t's Signatures (keyed by recognized input kind) for every
// input whose signing pubkey is present in keys, then rebuilds ScriptSig via
// Transaction.InputScript. keys is indexed by hex-encoded pubkey.
// PrevScript and Value must already be populated on each TxIn. Every freshly
// produced signature is self-verified before being stored; a mismatch
// returns ErrSanityCheckFailed rather than an unusable half-signed
// transaction.
func (s *Signer) Sign(t *Transaction, keys map[string]PrivateKeyInfo) error {
	for i, in := range t.Inputs {
		if in.Kind == InputCoinbase || in.Kind == InputUnknown {
			continue
		}

		preimageScript := in.PrevScript
		if in.Kind == InputP2SH {
			preimageScript = in.RedeemScript
		}

		sigHash, err := t.SigHash(i, preimageScript, in.Value)
		if err != nil {
			return errors.Wrapf(err, "tx: sighash for input %d", i)
		}

		for j, pubkey := range in.XPubkeys {
			ki, ok := keys[hex.EncodeToString(pubkey)]
			if !ok {
				continue
			}

			sig := ecdsa.Sign(ki.PrivKey, sigHash)
			if !sig.Verify(sigHash, ki.PrivKey.PubKey()) {
				return errors.Wrapf(ErrSanityCheckFailed, "tx: input %d", i)
			}

			der := sig.Serialize()
			full := append(append([]byte(nil), der...), sigHashTypeAll)
			in.Signatures[j] = hex.EncodeToString(full)
		}

		script, err := t.InputScript(in)
		if err != nil {
			return errors.Wrapf(err, "tx: assembling script for input %d", i)
		}
		in.ScriptSig = script
	}
	return nil
}

// InputScript assembles the final scriptSig for in from its recognized Kind
// and currently-stored (possibly partial) Signatures, grounded on
// transaction.py's input_script.
func (t *Transaction) InputScript(in *TxIn) ([]byte, error) {
	switch in.Kind {
	case InputP2PK:
		return pushData(mustHexDecode(in.Signatures[0])), nil

	case InputP2PKH:
		w := newScriptWriter()
		w.push(mustHexDecode(in.Signatures[0]))
		w.push(in.Pubkeys[0])
		return w.bytes(), nil

	case InputP2SH:
		w := newScriptWriter()
		w.op(op0)
		for _, sig := range in.Signatures {
			if sig == "" {
				w.op(op0)
			} else {
				w.push(mustHexDecode(sig))
			}
		}
		w.push(in.RedeemScript)
		return w.bytes(), nil

	default:
		return nil, errors.Wrapf(ErrUnknownTxinType, "tx: input kind %d", in.Kind)
	}
}

func mustHexDecode(s string) []byte {
	if s == "" {
		return []byte{byte(NoSignature)}
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return []byte{byte(NoSignature)}
	}
	return out
}

func pushData(data []byte) []byte {
	w := newScriptWriter()
	w.push(data)
	return w.bytes()
}

// scriptWriter is a tiny push-only script builder, grounded on
// transaction.py's push_script.
type scriptWriter struct {
	buf []byte
}

func newScriptWriter() *scriptWriter { return &scriptWriter{} }

func (w *scriptWriter) op(b byte) { w.buf = append(w.buf, b) }

func (w *scriptWriter) push(data []byte) {
	n := len(data)
	switch {
	case n <= 75:
		w.buf = append(w.buf, byte(n))
	case n <= 0xff:
		w.buf = append(w.buf, opPushdata1, byte(n))
	case n <= 0xffff:
		w.buf = append(w.buf, opPushdata2, byte(n), byte(n>>8))
	default:
		w.buf = append(w.buf, opPushdata4, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	}
	w.buf = append(w.buf, data...)
}

func (w *scriptWriter) bytes() []byte { return w.buf }
