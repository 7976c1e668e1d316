// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zclassic/zlite/common"
)

// serveCmd starts only the Prometheus /metrics endpoint, grounded on the
// teacher's startHTTPServer in cmd/root.go (its gRPC compact-transaction
// service has no peer transport to front here and is dropped; see
// DESIGN.md).
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Prometheus /metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, _, err := optionsFromViper()
		if err != nil {
			return err
		}
		common.Log.WithFields(logrus.Fields{
			"metrics_addr": opts.MetricsAddr,
		}).Info("serving metrics")
		return common.ServeMetrics(opts.MetricsAddr)
	},
}
