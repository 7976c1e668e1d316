// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package tx

import (
	"encoding/hex"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

func fixedPrivateKey(b byte) *secp256k1.PrivateKey {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = b
	}
	return secp256k1.PrivKeyFromBytes(raw)
}

func TestSignerSignsP2PKHInput(t *testing.T) {
	priv := fixedPrivateKey(0x11)
	pubkey := priv.PubKey().SerializeCompressed()

	txn := buildLegacyTx()
	in := txn.Inputs[0]
	in.Kind = InputP2PKH
	in.XPubkeys = [][]byte{pubkey}
	in.Pubkeys = [][]byte{pubkey}
	in.Signatures = []string{""}
	in.PrevScript = legacyP2PKHOutputScript(make([]byte, 20))
	in.Value = 50000

	keys := map[string]PrivateKeyInfo{
		hex.EncodeToString(pubkey): {PrivKey: priv, Pubkey: pubkey},
	}

	s := &Signer{}
	if err := s.Sign(txn, keys); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if in.Signatures[0] == "" {
		t.Fatalf("expected a populated signature after Sign")
	}
	if len(in.ScriptSig) == 0 {
		t.Fatalf("expected Sign to rebuild ScriptSig")
	}

	// Recognizing the freshly assembled scriptSig should round-trip back to
	// the same signature and pubkey.
	reparsed := &TxIn{ScriptSig: in.ScriptSig}
	recognizeInputScript(reparsed)
	if reparsed.Kind != InputP2PKH {
		t.Fatalf("reparsed Kind = %v, want InputP2PKH", reparsed.Kind)
	}
	sigBytes, err := hex.DecodeString(reparsed.Signatures[0])
	if err != nil {
		t.Fatalf("decoding reparsed signature: %v", err)
	}
	// Last byte is the sighash type; strip it before verifying the DER
	// signature against the digest Sign actually signed.
	sig, err := ecdsa.ParseDERSignature(sigBytes[:len(sigBytes)-1])
	if err != nil {
		t.Fatalf("ParseDERSignature: %v", err)
	}
	sigHash, err := txn.SigHash(0, in.PrevScript, in.Value)
	if err != nil {
		t.Fatalf("SigHash: %v", err)
	}
	if !sig.Verify(sigHash, priv.PubKey()) {
		t.Fatalf("reassembled scriptSig signature does not verify")
	}
}

func TestSignerSkipsInputsWithoutAMatchingKey(t *testing.T) {
	txn := buildLegacyTx()
	in := txn.Inputs[0]
	in.Kind = InputP2PKH
	in.XPubkeys = [][]byte{{0x02, 0x03}}
	in.Pubkeys = [][]byte{{0x02, 0x03}}
	in.Signatures = []string{""}
	in.PrevScript = legacyP2PKHOutputScript(make([]byte, 20))

	s := &Signer{}
	if err := s.Sign(txn, map[string]PrivateKeyInfo{}); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if in.Signatures[0] != "" {
		t.Fatalf("expected Signatures[0] to remain unset without a matching key")
	}
}
