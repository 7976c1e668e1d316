// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zclassic/zlite/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display zlite's version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("zlite version", common.Version)
	},
}
