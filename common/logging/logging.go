// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package logging sets up the process-wide logrus logger, grounded on the
// teacher's own level/formatter setup idiom in cmd/root.go's init (the
// teacher's gRPC LogInterceptor has no server to wrap here and is dropped;
// see DESIGN.md).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures logger's level and output according to level and
// logFile, matching cmd/root.go's startServer logic: a non-empty logFile
// switches to JSON output (for logstash/splunk-style ingestion), otherwise a
// human-readable text formatter with full timestamps is used on stderr.
func Setup(logger *logrus.Logger, level logrus.Level, logFile string) error {
	logger.SetLevel(level)

	if logFile == "" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:          true,
			DisableLevelTruncation: true,
		})
		return nil
	}

	output, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	logger.SetOutput(output)
	logger.SetFormatter(&logrus.JSONFormatter{})
	return nil
}
