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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MSLNZ/msl-network/internal/consoleui"
	"github.com/MSLNZ/msl-network/internal/creds"
)

// newUserCmd builds `mslnetwork user`, registering a login-mode credential
// (spec §4.2 step 4 login mode, §3 "Credential record" (c)). Removal goes
// through the generic `delete` command, which covers all three credential
// record kinds in one place.
func newUserCmd(flags *rootFlags) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "user",
		Short: "register a new login user, prompting for a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(flags)
			if err != nil {
				return err
			}
			defer store.Close()

			if username == "" {
				username, err = consoleui.PromptString("username")
				if err != nil {
					return err
				}
			}
			password, err := consoleui.PromptPassword("password")
			if err != nil {
				return err
			}
			confirm, err := consoleui.PromptPassword("confirm password")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords did not match")
			}

			if err := store.AddUser(cmd.Context(), username, password); err != nil {
				return err
			}
			consoleui.Okf("user %q added\n", username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username to add (prompted if omitted)")
	return cmd
}

// openStore resolves the credential DSN from the shared --credential-dsn
// flag or the config file and opens it.
func openStore(flags *rootFlags) (*creds.Store, error) {
	dsn := flags.credDSN
	if dsn == "" {
		cfg, err := loadConfig(flags)
		if err == nil {
			dsn = cfg.CredentialDSN
		}
	}
	if dsn == "" {
		return nil, fmt.Errorf("no credential DSN given; pass --credential-dsn or set it in the config file")
	}
	return creds.Open(creds.Config{DSN: dsn})
}
