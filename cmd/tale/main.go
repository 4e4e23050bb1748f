/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command tale plays and inspects stories.
//
//	tale play story.twee
//	tale serve -a :8080 story.yaml
//	tale check story.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Comcast/tale/config"
	"github.com/Comcast/tale/core"
	"github.com/Comcast/tale/interpreters"
	"github.com/Comcast/tale/interpreters/goja"
	"github.com/Comcast/tale/interpreters/noop"
	"github.com/Comcast/tale/logs"
	"github.com/Comcast/tale/story"

	"github.com/spf13/cobra"
)

var (
	configFile string
	debug      bool
	logLevel   string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:           "tale",
		Short:         "Play and inspect interactive stories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configFile != "" {
				if cfg, err = config.Load(configFile); err != nil {
					return err
				}
			} else {
				cfg = config.Default()
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			logger, closeLog, err = logs.New(logs.Options{
				Level: cfg.LogLevel,
				Debug: cfg.Debug,
				File:  cfg.LogFile,
			})
			if err != nil {
				return err
			}
			logger.Debug("configuration", "file", configFile, "evaluator", cfg.Evaluator)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeLog()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "v", false, "log lots of wonderful things")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn, or error")

	rootCmd.AddCommand(playCmd, serveCmd, renderCmd, dotCmd, proofCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tale: %v\n", err)
		os.Exit(1)
	}
}

// loadStory reads the story file, applying the configured start.
func loadStory(filename string) (*story.Story, error) {
	st, err := story.Load(filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	logger.Info("story loaded", "title", st.Title, "passages", len(st.Passages()))
	return st, nil
}

// evaluator makes a new instance of the configured evaluator.
func evaluator() (core.Evaluator, error) {
	ev := interpreters.Find(cfg.Evaluator)
	if ev == nil {
		return nil, &config.BadSetting{
			Name:    "evaluator",
			Problem: fmt.Sprintf("unknown evaluator %q", cfg.Evaluator),
		}
	}
	switch vv := ev.(type) {
	case *goja.Interpreter:
		vv.Logger = logger
	case *noop.Interpreter:
		vv.Logger = logger
	}
	return ev, nil
}
