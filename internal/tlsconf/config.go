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

// Package tlsconf builds *tls.Config values for the Manager's listener and
// for TLS-mode certificate authentication (spec §4.2 step 4, certificate
// mode), adapted from the teacher's certificates package: a thread-safe
// builder accumulating certificate pairs, root/client CA pools, and
// version/cipher/curve selection, collapsed into one package since this
// rewrite only needs the server side of that surface.
package tlsconf

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"os"
	"sync"

	"github.com/MSLNZ/msl-network/internal/rpcerr"
)

// Builder accumulates TLS material and renders it into a *tls.Config. All
// methods are safe for concurrent use.
type Builder struct {
	mu         sync.RWMutex
	certs      []tls.Certificate
	rootCA     *x509.CertPool
	clientCA   *x509.CertPool
	clientAuth tls.ClientAuthType
	minVersion uint16
	maxVersion uint16
}

// New returns a Builder with the defaults the teacher's certificates
// package uses: TLS 1.2 minimum, TLS 1.3 maximum, no client cert required.
func New() *Builder {
	return &Builder{
		clientAuth: tls.NoClientCert,
		minVersion: tls.VersionTLS12,
		maxVersion: tls.VersionTLS13,
	}
}

// AddCertificatePairFile loads a PEM certificate/key pair from disk.
func (b *Builder) AddCertificatePairFile(certFile, keyFile string) error {
	crt, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return rpcerr.Wrap(rpcerr.Unknown, err, "failed to load certificate pair %s/%s", certFile, keyFile)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.certs = append(b.certs, crt)
	return nil
}

// AddCertificatePairString loads a PEM certificate/key pair from memory.
func (b *Builder) AddCertificatePairString(certPEM, keyPEM string) error {
	crt, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err != nil {
		return rpcerr.Wrap(rpcerr.Unknown, err, "failed to parse certificate pair")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.certs = append(b.certs, crt)
	return nil
}

// AddRootCAFile adds a root CA, used to verify the server when the built
// config dials out, from a PEM file.
func (b *Builder) AddRootCAFile(pemFile string) error {
	data, err := os.ReadFile(pemFile)
	if err != nil {
		return rpcerr.Wrap(rpcerr.Unknown, err, "failed to read root CA file %s", pemFile)
	}
	return b.AddRootCAString(string(data))
}

// AddRootCAString adds a root CA from a PEM-encoded string.
func (b *Builder) AddRootCAString(pemData string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rootCA == nil {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		b.rootCA = pool
	}
	if !b.rootCA.AppendCertsFromPEM([]byte(pemData)) {
		return rpcerr.New(rpcerr.Unknown, "failed to append root CA PEM")
	}
	return nil
}

// AddClientCAString adds a client CA used to verify Client/Service
// certificates when client-certificate authentication is active.
func (b *Builder) AddClientCAString(pemData string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clientCA == nil {
		b.clientCA = x509.NewCertPool()
	}
	if !b.clientCA.AppendCertsFromPEM([]byte(pemData)) {
		return rpcerr.New(rpcerr.Unknown, "failed to append client CA PEM")
	}
	return nil
}

// SetClientAuth configures whether and how the Manager requests/verifies
// peer certificates. Passing RequireAndVerifyClientCert activates
// certificate-mode authentication (spec §4.2 step 4).
func (b *Builder) SetClientAuth(a tls.ClientAuthType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clientAuth = a
}

// SetVersionRange overrides the default TLS 1.2-1.3 window.
func (b *Builder) SetVersionRange(min, max uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minVersion = min
	b.maxVersion = max
}

// TLS renders the accumulated material into a *tls.Config for the given
// server name (empty for a listener that does not need SNI routing).
func (b *Builder) TLS(serverName string) *tls.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cfg := &tls.Config{
		Certificates: append([]tls.Certificate(nil), b.certs...),
		ClientAuth:   b.clientAuth,
		MinVersion:   b.minVersion,
		MaxVersion:   b.maxVersion,
		ServerName:   serverName,
	}
	if b.rootCA != nil {
		cfg.RootCAs = b.rootCA
	}
	if b.clientCA != nil {
		cfg.ClientCAs = b.clientCA
	}
	return cfg
}

// FingerprintSHA256 returns the hex-encoded SHA-256 fingerprint of a
// DER-encoded certificate (spec §3 "Credential record" (a): "hex SHA-256
// of the DER-encoded certificate").
func FingerprintSHA256(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// PeerFingerprint extracts the SHA-256 fingerprint of the leaf certificate
// presented by a TLS connection, for certificate-mode authentication.
func PeerFingerprint(state tls.ConnectionState) (string, bool) {
	if len(state.PeerCertificates) == 0 {
		return "", false
	}
	return FingerprintSHA256(state.PeerCertificates[0].Raw), true
}

// DecodePEMBlock is a small helper used by the certdump CLI path to decode
// the first PEM block of a certificate file it has read.
func DecodePEMBlock(data []byte) (*pem.Block, bool) {
	block, _ := pem.Decode(data)
	return block, block != nil
}
