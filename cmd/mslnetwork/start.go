/*
 * MIT License
 *
 * Copyright (c) 2024 MSL-Network Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/MSLNZ/msl-network/internal/config"
	"github.com/MSLNZ/msl-network/internal/consoleui"
	"github.com/MSLNZ/msl-network/internal/creds"
	"github.com/MSLNZ/msl-network/internal/logging"
	"github.com/MSLNZ/msl-network/internal/manager"
	"github.com/MSLNZ/msl-network/internal/metrics"
	"github.com/MSLNZ/msl-network/internal/tlsconf"
)

// newStartCmd builds `mslnetwork start`, the Manager's actual entry point
// (spec §4.6 starting/running/draining/stopped). It wires logging, metrics,
// the credential store, TLS, and the Manager itself, then blocks until a
// signal or admin shutdown_manager drains the Manager to a stop (grounded
// on the teacher's runner/cluster signal-driven shutdown idiom).
func newStartCmd(flags *rootFlags) *cobra.Command {
	var logLevel, logFile string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start the Manager and block until it drains to a stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFile != "" {
				cfg.LogFile = logFile
			}
			return runManager(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level; overrides the config file value")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append log output to this file; overrides the config file value")
	return cmd
}

func runManager(parent context.Context, cfg config.Config) error {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	var log *logging.Logger
	if cfg.LogFile != "" {
		var err error
		log, err = logging.NewFile(level, cfg.LogFile)
		if err != nil {
			return err
		}
	} else {
		log = logging.New(level, nil)
	}

	met := metrics.New()
	reg := prometheus.NewRegistry()
	if err := met.Register(reg); err != nil {
		return err
	}

	var store *creds.Store
	if cfg.AuthMode != config.AuthNone {
		var err error
		store, err = creds.Open(creds.Config{DSN: cfg.CredentialDSN})
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var tlsBuilder *tlsconf.Builder
	if cfg.TLSEnabled {
		tlsBuilder = tlsconf.New()
		if err := tlsBuilder.AddCertificatePairFile(cfg.TLSCertFile, cfg.TLSKeyFile); err != nil {
			return err
		}
		if cfg.AuthMode == config.AuthCertificate {
			tlsBuilder.SetClientAuth(tls.RequireAndVerifyClientCert)
		}
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsEnabled && cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			_ = srv.ListenAndServe()
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
	}

	m := manager.New(cfg, log, met, store, tlsBuilder)
	consoleui.Okf("manager starting on %s:%d\n", cfg.Host, cfg.Port)
	return m.Run(ctx)
}
