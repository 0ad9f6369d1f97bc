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

package manager_test

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MSLNZ/msl-network/internal/config"
	"github.com/MSLNZ/msl-network/internal/creds"
	"github.com/MSLNZ/msl-network/internal/jsoncodec"
	"github.com/MSLNZ/msl-network/internal/logging"
	"github.com/MSLNZ/msl-network/internal/manager"
	"github.com/MSLNZ/msl-network/internal/metrics"
	"github.com/MSLNZ/msl-network/internal/tlsconf"
	"github.com/MSLNZ/msl-network/internal/wire"
)

func TestManager(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Manager Suite")
}

// testPeer is a raw protocol client used to drive a running Manager the
// same way a real Client or Service would, without any of the production
// session/router machinery on this side of the socket.
type testPeer struct {
	conn   net.Conn
	reader *wire.Reader
	writer *wire.Writer
}

func dialAndIdentify(addr, identityLine string) *testPeer {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	Expect(err).ToNot(HaveOccurred())

	codec, _ := jsoncodec.FromEnv()
	p := &testPeer{
		conn:   conn,
		reader: wire.NewReader(conn, codec, 0),
		writer: wire.NewWriter(conn, codec),
	}

	// Consume the Manager's identity prompt.
	_, err = p.reader.ReadLine()
	Expect(err).ToNot(HaveOccurred())

	_, err = conn.Write([]byte(identityLine + "\r\n"))
	Expect(err).ToNot(HaveOccurred())

	return p
}

// dialAndIdentifyJSON identifies as a Service carrying fields the terminal
// shortcut grammar cannot express, such as max_clients.
func dialAndIdentifyJSON(addr string, identity map[string]interface{}) *testPeer {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	Expect(err).ToNot(HaveOccurred())

	codec, _ := jsoncodec.FromEnv()
	p := &testPeer{
		conn:   conn,
		reader: wire.NewReader(conn, codec, 0),
		writer: wire.NewWriter(conn, codec),
	}

	_, err = p.reader.ReadLine()
	Expect(err).ToNot(HaveOccurred())

	p.send(&wire.Envelope{Result: identity})
	return p
}

// dialAndIdentifyTLS is dialAndIdentify's TLS counterpart: it completes
// the TLS handshake before the identity prompt is ever sent, matching
// state tls-handshaking preceding identify-pending (spec §4.2 steps 1-3).
func dialAndIdentifyTLS(addr, identityLine string, tlsCfg *tls.Config) *testPeer {
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 2 * time.Second}, "tcp", addr, tlsCfg)
	Expect(err).ToNot(HaveOccurred())

	codec, _ := jsoncodec.FromEnv()
	p := &testPeer{
		conn:   conn,
		reader: wire.NewReader(conn, codec, 0),
		writer: wire.NewWriter(conn, codec),
	}

	_, err = p.reader.ReadLine()
	Expect(err).ToNot(HaveOccurred())

	_, err = conn.Write([]byte(identityLine + "\r\n"))
	Expect(err).ToNot(HaveOccurred())

	return p
}

// answerLoginPrompt consumes one AuthLogin prompt frame ("username" or
// "password") and replies with a bare plain-text line, exercising
// extractResult's raw-line fallback (spec §4.2 step 4, login mode).
func (p *testPeer) answerLoginPrompt(value string) {
	_ = p.recv()
	_, err := p.conn.Write([]byte(value + "\r\n"))
	Expect(err).ToNot(HaveOccurred())
}

func (p *testPeer) send(env *wire.Envelope) {
	Expect(p.writer.WriteFrame(env)).To(Succeed())
}

func (p *testPeer) recv() *wire.Envelope {
	env, err := p.reader.ReadFrame()
	Expect(err).ToNot(HaveOccurred())
	return env
}

func (p *testPeer) close() {
	_ = p.conn.Close()
}

// startManager brings up a Manager on an ephemeral loopback port with
// authentication disabled, and returns it alongside a cancel func that
// stops the accept loop and waits for Run to return.
func startManager() (*manager.Manager, string, func()) {
	cfg := config.Config{
		Host:     "127.0.0.1",
		Port:     0,
		AuthMode: config.AuthNone,
	}
	log := logging.New(logging.NilLevel, io.Discard)
	met := metrics.New()
	m := manager.New(cfg, log, met, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	Eventually(func() string { return m.Addr() }, 2*time.Second, 10*time.Millisecond).ShouldNot(BeEmpty())

	return m, m.Addr(), func() {
		cancel()
		<-done
	}
}

// startManagerLogin brings up a Manager with config.AuthLogin, backed by
// an in-memory credential store seeded with one user (spec §4.2 step 4,
// login mode).
func startManagerLogin(username, password string) (*manager.Manager, string, func()) {
	store, err := creds.Open(creds.Config{DSN: ":memory:"})
	Expect(err).ToNot(HaveOccurred())
	Expect(store.AddUser(context.Background(), username, password)).To(Succeed())

	cfg := config.Config{
		Host:     "127.0.0.1",
		Port:     0,
		AuthMode: config.AuthLogin,
	}
	log := logging.New(logging.NilLevel, io.Discard)
	met := metrics.New()
	m := manager.New(cfg, log, met, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	Eventually(func() string { return m.Addr() }, 2*time.Second, 10*time.Millisecond).ShouldNot(BeEmpty())

	return m, m.Addr(), func() {
		cancel()
		<-done
		_ = store.Close()
	}
}

// startManagerTLS brings up a Manager with TLS termination enabled over a
// freshly minted self-signed certificate (spec §4.2 steps 1-2), and
// returns a client *tls.Config trusting that certificate.
func startManagerTLS() (*manager.Manager, string, *tls.Config, func()) {
	pair, err := tlsconf.GenerateSelfSigned(tlsconf.SelfSignedParams{
		CommonName: "localhost",
		Hosts:      []string{"localhost"},
	})
	Expect(err).ToNot(HaveOccurred())

	serverBuilder := tlsconf.New()
	Expect(serverBuilder.AddCertificatePairString(string(pair.CertPEM), string(pair.KeyPEM))).To(Succeed())

	clientBuilder := tlsconf.New()
	Expect(clientBuilder.AddRootCAString(string(pair.CertPEM))).To(Succeed())

	cfg := config.Config{
		Host:       "127.0.0.1",
		Port:       0,
		AuthMode:   config.AuthNone,
		TLSEnabled: true,
	}
	log := logging.New(logging.NilLevel, io.Discard)
	met := metrics.New()
	m := manager.New(cfg, log, met, nil, serverBuilder)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	Eventually(func() string { return m.Addr() }, 2*time.Second, 10*time.Millisecond).ShouldNot(BeEmpty())

	return m, m.Addr(), clientBuilder.TLS("localhost"), func() {
		cancel()
		<-done
	}
}
