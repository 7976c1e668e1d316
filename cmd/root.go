// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zclassic/zlite/chaincfg"
	"github.com/zclassic/zlite/common"
	"github.com/zclassic/zlite/common/logging"
)

var cfgFile string

// rootCmd is zlite's base command; it carries only persistent flags,
// grounded on the teacher's cobra root in cmd/root.go. Unlike the teacher,
// there is no bare-invocation server: every operation is an explicit
// subcommand (headers/tx/serve).
var rootCmd = &cobra.Command{
	Use:   "zlite",
	Short: "zlite is a lightweight ZClassic header store, PoW verifier, and transaction signer",
	Long: `zlite verifies and stores ZClassic block headers, checks proof of
work and chunk continuity, and can deserialize, sign, and reserialize
transactions. It does not run a full node and does not talk to peers
directly; headers and raw transactions are supplied on the command line or
read from a file.`,
}

// Execute adds all child commands to rootCmd and runs it. Called once by
// main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./zlite.yaml)")
	rootCmd.PersistentFlags().String("datadir", "/var/lib/zlite", "data directory for the header store")
	rootCmd.PersistentFlags().String("network", "main", "network to use (main, test, regtest)")
	rootCmd.PersistentFlags().String("log-level", logrus.InfoLevel.String(), "log level (logrus level name)")
	rootCmd.PersistentFlags().String("log-file", "", "log file to write to (default: stderr, text format)")
	rootCmd.PersistentFlags().String("metrics-addr", "127.0.0.1:9068", "address for the Prometheus /metrics endpoint")

	viper.BindPFlag("datadir", rootCmd.PersistentFlags().Lookup("datadir"))
	viper.BindPFlag("network", rootCmd.PersistentFlags().Lookup("network"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("metrics-addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))

	rootCmd.AddCommand(versionCmd, headersCmd, txCmd, serveCmd)
}

// initConfig reads a config file and ZLITE_-prefixed env vars, matching the
// teacher's initConfig in cmd/root.go.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("zlite")
	}

	viper.SetEnvPrefix("zlite")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// optionsFromViper resolves the Options common.Log and the chosen network's
// chaincfg.Params are derived from, matching the teacher's pattern of
// reading every flag out of viper once at the top of a command's Run.
func optionsFromViper() (*common.Options, *chaincfg.Params, error) {
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, nil, err
	}
	opts := &common.Options{
		Datadir:     viper.GetString("datadir"),
		Network:     viper.GetString("network"),
		LogLevel:    level,
		LogFile:     viper.GetString("log-file"),
		MetricsAddr: viper.GetString("metrics-addr"),
	}

	params, ok := chaincfg.ByName(opts.Network)
	if !ok {
		return nil, nil, fmt.Errorf("unknown network %q", opts.Network)
	}

	logger := logrus.StandardLogger()
	if err := logging.Setup(logger, opts.LogLevel, opts.LogFile); err != nil {
		return nil, nil, err
	}
	common.Log = logger.WithFields(logrus.Fields{"app": "zlite"})

	return opts, params, nil
}
