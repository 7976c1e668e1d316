// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package tx

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
)

func TestRecognizeOutputScriptP2PKH(t *testing.T) {
	pkh := bytes.Repeat([]byte{0x42}, 20)
	out := &TxOut{Script: legacyP2PKHOutputScript(pkh)}
	recognizeOutputScript(out, testParams)
	if out.Kind != OutputAddress {
		t.Fatalf("Kind = %v, want OutputAddress", out.Kind)
	}
	version, payload, ok := decodeBase58Check(out.Address)
	if !ok {
		t.Fatalf("decodeBase58Check(%q) failed", out.Address)
	}
	if version != testParams.P2PKHVersion {
		t.Fatalf("decoded version = %v, want %v", version, testParams.P2PKHVersion)
	}
	if !bytes.Equal(payload, pkh) {
		t.Fatalf("decoded payload = %x, want %x", payload, pkh)
	}
}

func TestRecognizeOutputScriptP2SH(t *testing.T) {
	sh := bytes.Repeat([]byte{0x24}, 20)
	w := newScriptWriter()
	w.op(opHash160)
	w.push(sh)
	w.op(opEqual)
	out := &TxOut{Script: w.bytes()}
	recognizeOutputScript(out, testParams)
	if out.Kind != OutputAddress {
		t.Fatalf("Kind = %v, want OutputAddress", out.Kind)
	}
	version, payload, ok := decodeBase58Check(out.Address)
	if !ok || version != testParams.P2SHVersion || !bytes.Equal(payload, sh) {
		t.Fatalf("decoded (%v, %x, %v), want (%v, %x, true)", version, payload, ok, testParams.P2SHVersion, sh)
	}
}

func TestRecognizeOutputScriptPubkey(t *testing.T) {
	pubkey := bytes.Repeat([]byte{0x03}, 33)
	w := newScriptWriter()
	w.push(pubkey)
	w.op(opCheckSig)
	out := &TxOut{Script: w.bytes()}
	recognizeOutputScript(out, testParams)
	if out.Kind != OutputPubkey {
		t.Fatalf("Kind = %v, want OutputPubkey", out.Kind)
	}
}

func TestRecognizeOutputScriptUnknownFallsBackToScript(t *testing.T) {
	out := &TxOut{Script: []byte{0x6a, 0x04, 'd', 'a', 't', 'a'}} // OP_RETURN push
	recognizeOutputScript(out, testParams)
	if out.Kind != OutputScript {
		t.Fatalf("Kind = %v, want OutputScript", out.Kind)
	}
}

func TestMultisigRedeemScriptRoundTrip(t *testing.T) {
	pubkeys := [][]byte{
		bytes.Repeat([]byte{0x01}, 33),
		bytes.Repeat([]byte{0x02}, 33),
		bytes.Repeat([]byte{0x03}, 33),
	}
	script := MultisigScript(pubkeys, 2)
	m, got, ok := parseMultisigRedeemScript(script)
	if !ok {
		t.Fatalf("parseMultisigRedeemScript failed to recognize its own output")
	}
	if m != 2 {
		t.Fatalf("m = %d, want 2", m)
	}
	if len(got) != len(pubkeys) {
		t.Fatalf("got %d pubkeys, want %d", len(got), len(pubkeys))
	}
	for i := range pubkeys {
		if !bytes.Equal(got[i], pubkeys[i]) {
			t.Fatalf("pubkey %d mismatch: %x vs %x", i, got[i], pubkeys[i])
		}
	}
}

func TestRecognizeInputScriptP2SHMultisig(t *testing.T) {
	pubkeys := [][]byte{
		bytes.Repeat([]byte{0x01}, 33),
		bytes.Repeat([]byte{0x02}, 33),
	}
	redeem := MultisigScript(pubkeys, 2)
	sig1 := bytes.Repeat([]byte{0xaa}, 70)
	sig2 := bytes.Repeat([]byte{0xbb}, 70)

	w := newScriptWriter()
	w.op(op0)
	w.push(sig1)
	w.push(sig2)
	w.push(redeem)

	in := &TxIn{ScriptSig: w.bytes()}
	recognizeInputScript(in)
	if in.Kind != InputP2SH {
		t.Fatalf("Kind = %v, want InputP2SH", in.Kind)
	}
	if in.NumSig != 2 {
		t.Fatalf("NumSig = %d, want 2", in.NumSig)
	}
	if len(in.Signatures) != 2 {
		t.Fatalf("got %d signatures, want 2", len(in.Signatures))
	}
}

func TestBase58CheckRejectsCorruptedChecksum(t *testing.T) {
	raw := append(append([]byte{}, testParams.P2PKHVersion[:]...), bytes.Repeat([]byte{0x07}, 20)...)
	raw = append(raw, 0xde, 0xad, 0xbe, 0xef) // deliberately wrong 4-byte checksum
	encoded := base58.Encode(raw)
	if _, _, ok := decodeBase58Check(encoded); ok {
		t.Fatalf("decodeBase58Check accepted an address with a wrong checksum")
	}
}
