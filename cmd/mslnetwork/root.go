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
	"github.com/spf13/cobra"

	"github.com/MSLNZ/msl-network/internal/config"
)

// rootFlags are the persistent flags every subcommand that touches the
// credential store or the Manager's config file shares, grounded on the
// teacher's cobra package's SetFlagConfig single-shared-config-path idiom.
type rootFlags struct {
	configFile string
	credDSN    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:     "mslnetwork",
		Short:   "JSON-over-TLS Manager brokering RPCs between Clients and Services",
		Version: versionString(),
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to the Manager config file (yaml/json/toml, read via viper)")
	root.PersistentFlags().StringVar(&flags.credDSN, "credential-dsn", "", "sqlite DSN for the credential store (overrides the config file value)")

	root.AddCommand(newStartCmd(flags))
	root.AddCommand(newCertgenCmd())
	root.AddCommand(newKeygenCmd())
	root.AddCommand(newUserCmd(flags))
	root.AddCommand(newCertdumpCmd(flags))
	root.AddCommand(newHostnameCmd(flags))
	root.AddCommand(newDeleteCmd(flags))

	return root
}

// loadConfig builds a config.Loader from the shared --config flag and
// returns the validated Config (spec SPEC_FULL §6: "validate the start
// command's resolved configuration").
func loadConfig(flags *rootFlags) (config.Config, error) {
	l := config.NewLoader()
	if flags.configFile != "" {
		l.SetConfigFile(flags.configFile)
	}
	cfg, err := l.Load()
	if err != nil {
		return config.Config{}, err
	}
	if flags.credDSN != "" {
		cfg.CredentialDSN = flags.credDSN
	}
	return cfg, nil
}
