// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package chaincfg holds the per-network parameter tables (mainnet/testnet/
// regtest) that the chain and tx packages need threaded in explicitly,
// grounded on toole-brendan-shell/chaincfg/params.go's Params-table idiom and
// on the original's constants.py BitcoinMainnet/BitcoinTestnet/BitcoinRegtest
// classes. There is deliberately no package-level mutable "active network"
// singleton: every consumer takes a *Params as an explicit argument.
package chaincfg

import (
	"github.com/zclassic/zlite/chain"
	"github.com/zclassic/zlite/hash32"
	"github.com/zclassic/zlite/tx"
)

// Params describes one network's consensus and address-encoding constants.
type Params struct {
	Name    string
	Testnet bool

	Genesis hash32.T

	// P2PKHVersion/P2SHVersion are 2-byte base58check version prefixes (the
	// extended Zcash-family address format constants.py encodes as
	// ADDRTYPE_P2PKH/ADDRTYPE_P2SH), not Bitcoin's 1-byte version.
	P2PKHVersion [2]byte
	P2SHVersion  [2]byte

	Checkpoints []chain.Checkpoint

	BubblesActivationHeight int32
	DiffadjActivationHeight int32
}

// StoreConfig converts p into the chain.StoreConfig a chain.Store needs.
func (p *Params) StoreConfig(datadir string) chain.StoreConfig {
	return chain.StoreConfig{
		Datadir:     datadir,
		Genesis:     p.Genesis,
		Checkpoints: p.Checkpoints,
		Testnet:     p.Testnet,
	}
}

// AddressParams converts p into the tx.AddressParams the script/address
// codec needs.
func (p *Params) AddressParams() tx.AddressParams {
	return tx.AddressParams{
		P2PKHVersion: p.P2PKHVersion,
		P2SHVersion:  p.P2SHVersion,
	}
}

func mustGenesis(hex string) hash32.T {
	h, err := hash32.Decode(hex)
	if err != nil {
		panic("chaincfg: malformed genesis hash constant: " + err.Error())
	}
	return h
}

// MainNetParams are ZClassic mainnet's parameters. Genesis and address
// version bytes are taken from the original's constants.py BitcoinMainnet;
// the checkpoint table here ships empty (a long-running deployment would
// populate it from a frozen checkpoints.json at build time, as the original
// does via read_json).
var MainNetParams = &Params{
	Name:                    "main",
	Testnet:                 false,
	Genesis:                 mustGenesis("00040fe8ec8471911baa1db1266ea15dd06b4a8a5c453883c000b031973dce08"),
	P2PKHVersion:            [2]byte{0x1C, 0xB8},
	P2SHVersion:             [2]byte{0x1C, 0xBD},
	Checkpoints:             nil,
	BubblesActivationHeight: chain.BubblesActivationHeight,
	DiffadjActivationHeight: chain.DiffadjActivationHeight,
}

// TestNetParams are ZClassic testnet's parameters.
var TestNetParams = &Params{
	Name:                    "test",
	Testnet:                 true,
	Genesis:                 mustGenesis("05a60a92d99d85997cce3b87616c089f6124d7342af37106edc76126334a2c38"),
	P2PKHVersion:            [2]byte{0x1D, 0x25},
	P2SHVersion:             [2]byte{0x1C, 0xBA},
	Checkpoints:             nil,
	BubblesActivationHeight: chain.BubblesActivationHeight,
	DiffadjActivationHeight: chain.DiffadjActivationHeight,
}

// RegtestParams are for local development networks: same address versions as
// testnet, its own genesis, and no checkpoints.
var RegtestParams = &Params{
	Name:                    "regtest",
	Testnet:                 true,
	Genesis:                 mustGenesis("029f11d80ef9765602235e1bc9727e3eb6ba20839319f761fee920d63401e327"),
	P2PKHVersion:            [2]byte{0x1D, 0x25},
	P2SHVersion:             [2]byte{0x1C, 0xBA},
	Checkpoints:             nil,
	BubblesActivationHeight: chain.BubblesActivationHeight,
	DiffadjActivationHeight: chain.DiffadjActivationHeight,
}

// ByName resolves one of the three built-in networks by name
// ("main"/"test"/"regtest"), as cmd/root.go's --network flag does.
func ByName(name string) (*Params, bool) {
	switch name {
	case "main", "mainnet":
		return MainNetParams, true
	case "test", "testnet":
		return TestNetParams, true
	case "regtest":
		return RegtestParams, true
	default:
		return nil, false
	}
}
