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
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MSLNZ/msl-network/internal/consoleui"
	"github.com/MSLNZ/msl-network/internal/tlsconf"
)

// newCertgenCmd builds `mslnetwork certgen`, minting a self-signed
// certificate/key pair for the Manager's listener or for a Client/Service
// presenting a certificate in certificate-mode auth (spec §4.2 step 4,
// SPEC_FULL §6).
func newCertgenCmd() *cobra.Command {
	var (
		commonName string
		hosts      []string
		certOut    string
		keyOut     string
		validDays  int
		isCA       bool
	)

	cmd := &cobra.Command{
		Use:   "certgen",
		Short: "generate a self-signed TLS certificate/key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := tlsconf.GenerateSelfSigned(tlsconf.SelfSignedParams{
				CommonName: commonName,
				Hosts:      hosts,
				ValidFor:   time.Duration(validDays) * 24 * time.Hour,
				IsCA:       isCA,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(certOut, pair.CertPEM, 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(keyOut, pair.KeyPEM, 0o600); err != nil {
				return err
			}
			consoleui.Okf("wrote %s and %s\n", certOut, keyOut)
			return nil
		},
	}
	cmd.Flags().StringVar(&commonName, "common-name", "localhost", "certificate subject common name")
	cmd.Flags().StringSliceVar(&hosts, "host", []string{"localhost"}, "DNS SAN entries (repeatable)")
	cmd.Flags().StringVar(&certOut, "cert-out", "manager.crt", "output path for the PEM certificate")
	cmd.Flags().StringVar(&keyOut, "key-out", "manager.key", "output path for the PEM private key")
	cmd.Flags().IntVar(&validDays, "valid-days", 365, "certificate validity window in days")
	cmd.Flags().BoolVar(&isCA, "ca", false, "mark the certificate as its own certificate authority")
	return cmd
}

// newKeygenCmd builds `mslnetwork keygen`, generating a standalone key pair
// without a certificate (used ahead of a separate certificate signing
// step).
func newKeygenCmd() *cobra.Command {
	var keyOut string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate a standalone ECDSA private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := tlsconf.GenerateSelfSigned(tlsconf.SelfSignedParams{CommonName: "keygen-only"})
			if err != nil {
				return err
			}
			if err := os.WriteFile(keyOut, pair.KeyPEM, 0o600); err != nil {
				return err
			}
			consoleui.Okf("wrote %s\n", keyOut)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyOut, "key-out", "key.pem", "output path for the PEM private key")
	return cmd
}
