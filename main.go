// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command qtab is a desktop viewer for structured binary record files.
//
// Usage:
//
//	qtab [-b build] [-config file] [file ...]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"qtab/adapters"
	"qtab/adapters/wdbc"
	"qtab/internal/config"
	"qtab/internal/logging"
	"qtab/windows"
)

func main() {
	var (
		build      int
		configPath string
	)
	flags := flag.NewFlagSet("qtab", flag.ExitOnError)
	flags.IntVar(&build, "b", -2, "build number to open files with (-1 selects it automatically)")
	flags.IntVar(&build, "build", -2, "same as -b")
	flags.StringVar(&configPath, "config", "", "YAML configuration file")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: qtab [-b build] [-config file] [file ...]\n")
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	// A .env file is optional; variables already set win.
	_ = godotenv.Load()

	if configPath == "" {
		configPath = os.Getenv(config.EnvConfig)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		slog.Error("invalid environment", "error", err)
		os.Exit(1)
	}
	if build != -2 {
		cfg.Build = build
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid build flag", "error", err)
			os.Exit(2)
		}
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	registry := wdbc.DefaultRegistry()
	if cfg.Structures != "" {
		if err := registry.LoadFile(cfg.Structures); err != nil {
			logger.Error("failed to load structures", "path", cfg.Structures, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("configuration loaded",
		"build", cfg.Build,
		"structures", len(registry.Names()),
		"large_threshold", cfg.Model.LargeThreshold,
		"chunk_size", cfg.Model.ChunkSize,
	)

	windows.Run(windows.Options{
		Config: cfg,
		Opener: &adapters.Opener{Structures: registry, Logger: logger},
		Logger: logger,
		Files:  flags.Args(),
	})
}
