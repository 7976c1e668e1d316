// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zclassic/zlite/chain"
	"github.com/zclassic/zlite/common"
)

var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "Inspect and feed the block header store",
}

var headersSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Feed one or more 100-header hex chunks through the verifier and store",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, params, err := optionsFromViper()
		if err != nil {
			return err
		}
		chunkFile, _ := cmd.Flags().GetString("chunk-file")
		raw, err := os.ReadFile(chunkFile)
		if err != nil {
			return err
		}
		data, err := hex.DecodeString(string(trimNewline(raw)))
		if err != nil {
			return fmt.Errorf("chunk-file is not valid hex: %w", err)
		}

		store, err := chain.NewStore(params.StoreConfig(opts.Datadir))
		if err != nil {
			return err
		}

		chunkIndex, _ := cmd.Flags().GetInt("chunk-index")
		accepted, err := store.ConnectChunk(store.Tip(), chunkIndex, data)
		if err != nil {
			return err
		}
		if accepted {
			n := 0
			for h, rest := int32(chunkIndex)*100, len(data); rest > 0; h++ {
				rest -= chain.GetHeaderSize(h)
				n++
			}
			common.HeadersVerified.Add(float64(n))
		} else {
			common.ChunksRejected.Inc()
		}
		common.Log.WithFields(logrus.Fields{
			"chunk_index": chunkIndex,
			"accepted":    accepted,
		}).Info("headers sync: chunk processed")
		if !accepted {
			return fmt.Errorf("chunk %d rejected by the verifier", chunkIndex)
		}
		return nil
	},
}

var headersShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a stored header by height",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, params, err := optionsFromViper()
		if err != nil {
			return err
		}
		store, err := chain.NewStore(params.StoreConfig(opts.Datadir))
		if err != nil {
			return err
		}

		height, _ := cmd.Flags().GetInt32("height")
		tip := store.Tip()
		hash, err := store.GetHash(tip, height)
		if err != nil {
			return err
		}
		header, err := tip.ReadHeader(height)
		if err != nil {
			return err
		}
		fmt.Printf("height=%d hash=%s version=%d bits=0x%08x time=%d\n",
			height, hash, header.Version, header.Bits, header.Timestamp)
		return nil
	},
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func init() {
	headersSyncCmd.Flags().String("chunk-file", "", "path to a file containing hex-encoded header chunk bytes")
	headersSyncCmd.Flags().Int("chunk-index", 0, "checkpoint-relative chunk index (height = chunk-index * 100)")
	headersSyncCmd.MarkFlagRequired("chunk-file")

	headersShowCmd.Flags().Int32("height", 0, "header height to look up")

	headersCmd.AddCommand(headersSyncCmd, headersShowCmd)
}
