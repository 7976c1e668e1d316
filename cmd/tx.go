// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/spf13/cobra"

	"github.com/zclassic/zlite/tx"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Inspect and sign transactions",
}

var txSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Deserialize a transaction, sign every input with a matching key, and print the reserialized hex",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, params, err := optionsFromViper()
		if err != nil {
			return err
		}

		rawHex, _ := cmd.Flags().GetString("raw")
		raw, err := hex.DecodeString(strings.TrimSpace(rawHex))
		if err != nil {
			return fmt.Errorf("--raw is not valid hex: %w", err)
		}
		transaction, err := tx.Deserialize(raw, params.AddressParams())
		if err != nil {
			return err
		}

		wifs, _ := cmd.Flags().GetStringArray("wif")
		keys, err := parsePrivateKeys(wifs)
		if err != nil {
			return err
		}

		signer := &tx.Signer{}
		if err := signer.Sign(transaction, keys); err != nil {
			return err
		}

		fmt.Println(hex.EncodeToString(transaction.Serialize()))
		return nil
	},
}

// parsePrivateKeys decodes each --wif value as a raw hex-encoded secp256k1
// private key, keyed by its compressed public key's hex, matching the shape
// Signer.Sign expects for PrivateKeyInfo.Pubkey lookups. Unlike Bitcoin's
// WIF, the input here is bare key hex; the flag name mirrors the operator
// vocabulary a wallet CLI uses for "a private key string".
func parsePrivateKeys(wifs []string) (map[string]tx.PrivateKeyInfo, error) {
	keys := make(map[string]tx.PrivateKeyInfo, len(wifs))
	for _, w := range wifs {
		raw, err := hex.DecodeString(strings.TrimSpace(w))
		if err != nil {
			return nil, fmt.Errorf("invalid --wif value: %w", err)
		}
		priv := secp256k1.PrivKeyFromBytes(raw)
		pub := priv.PubKey().SerializeCompressed()
		keys[hex.EncodeToString(pub)] = tx.PrivateKeyInfo{
			PrivKey: priv,
			Pubkey:  pub,
		}
	}
	return keys, nil
}

func init() {
	txSignCmd.Flags().String("raw", "", "hex-encoded raw transaction")
	txSignCmd.Flags().StringArray("wif", nil, "hex-encoded private key to sign matching inputs with (repeatable)")
	txSignCmd.MarkFlagRequired("raw")

	txCmd.AddCommand(txSignCmd)
}
