/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ademuri/unwrapped/internal/aggregate"
	"github.com/ademuri/unwrapped/internal/analysis"
	"github.com/ademuri/unwrapped/internal/catalog"
	"github.com/ademuri/unwrapped/internal/enrich"
	"github.com/ademuri/unwrapped/internal/history"
	"github.com/ademuri/unwrapped/internal/recommend"
)

var logger = zap.NewNop()

// initLogger builds the logger from log_level and hands it to every package.
// Logs go to stderr so reports on stdout stay clean.
func initLogger() {
	l, err := setupLogger(viper.GetString("log_level"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	logger = l

	history.InitializeLogger(l)
	aggregate.InitializeLogger(l)
	analysis.InitializeLogger(l)
	catalog.InitializeLogger(l)
	enrich.InitializeLogger(l)
	recommend.InitializeLogger(l)
}

func setupLogger(level string) (*zap.Logger, error) {
	var config zap.Config

	if level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn", "":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	return config.Build()
}
