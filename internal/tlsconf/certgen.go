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

package tlsconf

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"time"

	"github.com/MSLNZ/msl-network/internal/rpcerr"
)

// SelfSignedParams describes a certgen/keygen request (cmd/mslnetwork
// certgen, SPEC_FULL §6).
type SelfSignedParams struct {
	CommonName string
	Hosts      []string
	ValidFor   time.Duration
	IsCA       bool
}

// GeneratedPair is a freshly minted key pair and its self-signed (or CA)
// certificate, both PEM-encoded.
type GeneratedPair struct {
	CertPEM []byte
	KeyPEM  []byte
}

// GenerateSelfSigned mints an ECDSA P-256 key and a self-signed certificate
// (grounded on the teacher's certificates/ca test helper, which builds its
// fixture certificates the same way: elliptic.P256 + x509.CreateCertificate
// with a self-referencing template).
func GenerateSelfSigned(p SelfSignedParams) (*GeneratedPair, error) {
	if p.ValidFor <= 0 {
		p.ValidFor = 365 * 24 * time.Hour
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.Unknown, err, "failed to generate key")
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.Unknown, err, "failed to generate serial number")
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: p.CommonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(p.ValidFor),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		IsCA:         p.IsCA,
	}
	for _, h := range p.Hosts {
		tmpl.DNSNames = append(tmpl.DNSNames, h)
	}
	if p.IsCA {
		tmpl.BasicConstraintsValid = true
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.Unknown, err, "failed to create certificate")
	}

	keyBytes, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.Unknown, err, "failed to marshal private key")
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes})

	return &GeneratedPair{CertPEM: certPEM, KeyPEM: keyPEM}, nil
}
