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
	"os"

	"github.com/spf13/cobra"

	"github.com/MSLNZ/msl-network/internal/consoleui"
	"github.com/MSLNZ/msl-network/internal/tlsconf"
)

// newCertdumpCmd builds `mslnetwork certdump`, printing the hex SHA-256
// fingerprint of a PEM certificate (spec §3 "Credential record" (a)) and,
// with --add, allow-listing it for certificate-mode auth.
func newCertdumpCmd(flags *rootFlags) *cobra.Command {
	var (
		add   bool
		label string
	)

	cmd := &cobra.Command{
		Use:   "certdump <cert-file>",
		Short: "print (and optionally allow-list) a certificate's SHA-256 fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			block, ok := tlsconf.DecodePEMBlock(data)
			if !ok {
				return fmt.Errorf("%s does not contain a PEM block", args[0])
			}
			fp := tlsconf.FingerprintSHA256(block.Bytes)
			consoleui.Printf("%s\n", fp)

			if add {
				store, err := openStore(flags)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.AddFingerprint(cmd.Context(), fp, label); err != nil {
					return err
				}
				consoleui.Okf("fingerprint allow-listed\n")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&add, "add", false, "allow-list the fingerprint for certificate-mode authentication")
	cmd.Flags().StringVar(&label, "label", "", "human-readable label stored alongside the fingerprint")
	return cmd
}
