/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trustbloc/sidetree-node-go/pkg/config"
	"github.com/trustbloc/sidetree-node-go/pkg/log"
)

const (
	configFlagName  = "config"
	logLevelFlag    = "log-level"
	shutdownTimeout = 10 * time.Second
)

func newStartCmd() *cobra.Command {
	var configPath, logLevel string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the node",
		Long:  "Starts the observer, the batch writer and the REST API. Stops on SIGINT or SIGTERM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, configFlagName, "c", "",
		"Path to a YAML or TOML configuration file. Defaults are used if not set.")
	cmd.Flags().StringVar(&logLevel, logLevelFlag, "",
		"Log level spec, for example sidetree-core-observer=debug:info. Overrides the configuration file.")

	return cmd
}

// run starts a node and blocks until the context is done or the REST server fails.
func run(ctx context.Context, cfg *config.Config) error {
	if err := log.SetSpec(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "set log level")
	}

	n, err := newNode(cfg)
	if err != nil {
		return err
	}

	serverErr, err := n.start()
	if err != nil {
		n.close()

		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err = <-serverErr:
		logger.Error("REST server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if stopErr := n.stop(shutdownCtx); stopErr != nil && err == nil {
		err = stopErr
	}

	return err
}
