// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package common holds build-time version stamps and the Options struct
// cmd binds its flags into, grounded on the teacher's own common.go (its
// RPC-client/BlockCache/darkside machinery is dropped; see DESIGN.md).
package common

import "github.com/sirupsen/logrus"

// 'make build' overwrites these with the output of git-describe (tag).
var (
	Version   = "v0.0.0.0-dev"
	GitCommit = ""
	BuildDate = ""
	BuildUser = ""
)

// Options carries every flag/env value cmd/root.go resolves through viper.
type Options struct {
	Datadir     string
	Network     string
	LogLevel    logrus.Level
	LogFile     string
	MetricsAddr string
}

// Log is the process-wide structured logger, set up by cmd/root.go's
// optionsFromViper via common/logging.Setup.
var Log = logrus.NewEntry(logrus.StandardLogger())
