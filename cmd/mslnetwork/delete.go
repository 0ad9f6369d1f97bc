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
)

// newDeleteCmd builds `mslnetwork delete <kind> <value>`, the one command
// that removes any of the three credential record kinds named by spec §3
// "Credential record" ((a) certificate fingerprint, (b) hostname, (c) user).
func newDeleteCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "delete <user|hostname|fingerprint> <value>",
		Short:     "remove a user, hostname, or certificate fingerprint credential record",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"user", "hostname", "fingerprint"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(flags)
			if err != nil {
				return err
			}
			defer store.Close()

			kind, value := args[0], args[1]
			switch kind {
			case "user":
				err = store.DeleteUser(cmd.Context(), value)
			case "hostname":
				err = store.DeleteHostname(cmd.Context(), value)
			case "fingerprint":
				err = store.DeleteFingerprint(cmd.Context(), value)
			default:
				return fmt.Errorf("unknown credential kind %q (want user, hostname, or fingerprint)", kind)
			}
			if err != nil {
				return err
			}
			consoleui.Okf("%s %q deleted\n", kind, value)
			return nil
		},
	}
	return cmd
}
