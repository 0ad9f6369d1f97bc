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

// Package manager is the Manager itself: accept loop, handshake driver,
// admin handlers, and the starting/running/draining/stopped lifecycle
// (spec §4.6). It is the composition root that wires wire, jsoncodec,
// tlsconf, creds, linktable, pending, router, session, logging, and
// metrics together.
package manager

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MSLNZ/msl-network/internal/config"
	"github.com/MSLNZ/msl-network/internal/creds"
	"github.com/MSLNZ/msl-network/internal/identity"
	"github.com/MSLNZ/msl-network/internal/jsoncodec"
	"github.com/MSLNZ/msl-network/internal/linktable"
	"github.com/MSLNZ/msl-network/internal/logging"
	"github.com/MSLNZ/msl-network/internal/metrics"
	"github.com/MSLNZ/msl-network/internal/pending"
	"github.com/MSLNZ/msl-network/internal/rpcerr"
	"github.com/MSLNZ/msl-network/internal/router"
	"github.com/MSLNZ/msl-network/internal/session"
	"github.com/MSLNZ/msl-network/internal/sockio"
	"github.com/MSLNZ/msl-network/internal/tlsconf"
	"github.com/MSLNZ/msl-network/internal/wire"
)

// State is a node in the Manager's own lifecycle (spec §4.6), distinct
// from any one Peer session's state.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateDraining
	StateStopped
)

// drainTimeout bounds how long shutdown_manager waits for in-flight
// requests to settle before forcing every socket closed (spec §8 S6: "the
// two pending replies if they arrive within 30 s").
const drainTimeout = 30 * time.Second

// handshakeTimeout is the default identity-step deadline (spec §4.2 step
// 3: "within the handshake timeout (default 10 s)").
const handshakeTimeout = 10 * time.Second

// loginAttempts bounds config.AuthLogin's username/password round trips
// (spec §4.2 step 4: "Three failures -> closed with auth-error").
const loginAttempts = 3

// RemoteStartHint documents the SSH-bootstrap external collaborator
// without implementing it (spec §1 Non-goals): a Manager instance is
// expected to be started remotely by a separate tool that SSHes in and
// execs `mslnetwork start`, which this type exists only to name.
type RemoteStartHint struct {
	Host string
	User string
}

// Manager brokers RPCs between Clients and Services over JSON-over-TLS
// connections (spec §1).
type Manager struct {
	cfg   config.Config
	log   *logging.Logger
	met   *metrics.Set
	store *creds.Store
	tls   *tlsconf.Builder
	codec jsoncodec.Codec
	self  identity.Identity

	links *linktable.Table
	pend  *pending.Table
	rtr   *router.Router

	ln *sockio.Listener

	mu       sync.Mutex
	state    State
	sessions map[string]*session.Peer

	drainOnce sync.Once
	draining  chan struct{}
}

// New wires a Manager's dependencies together. store may be nil when
// cfg.AuthMode is config.AuthNone.
func New(cfg config.Config, log *logging.Logger, met *metrics.Set, store *creds.Store, tlsBuilder *tlsconf.Builder) *Manager {
	codec, backend := jsoncodec.FromEnv()
	if cfg.JSONBackend != "" {
		codec, backend = jsoncodec.Select(jsoncodec.Backend(cfg.JSONBackend))
	}
	log.Infof("json backend selected: %s", backend)

	m := &Manager{
		cfg:      cfg,
		log:      log,
		met:      met,
		store:    store,
		tls:      tlsBuilder,
		codec:    codec,
		self:     identity.NewManager(),
		links:    linktable.New(),
		pend:     pending.New(),
		sessions: make(map[string]*session.Peer),
		draining: make(chan struct{}),
	}
	m.rtr = router.New(m.links, m.pend)
	m.registerAdmin()
	return m
}

// State returns the Manager's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Addr returns the bound listener address, valid once Run has started.
func (m *Manager) Addr() string {
	if m.ln == nil {
		return ""
	}
	return m.ln.Addr().String()
}

// Run binds the listener, accepts connections until the context is
// cancelled or shutdown_manager is invoked, drains in-flight requests,
// and returns once every socket is closed (spec §4.6 starting/running/
// draining/stopped).
func (m *Manager) Run(ctx context.Context) error {
	m.setState(StateStarting)

	var tlsCfg *tls.Config
	if m.cfg.TLSEnabled {
		if m.tls == nil {
			return rpcerr.New(rpcerr.Unknown, "tls_enabled is set but no TLS builder was provided")
		}
		tlsCfg = m.tls.TLS("")
	}

	ln, err := sockio.Listen(sockio.Config{
		Address:   fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port),
		TLSConfig: tlsCfg,
	})
	if err != nil {
		return err
	}
	m.ln = ln
	m.setState(StateRunning)
	m.log.Field("address", ln.Addr().String()).Infof("manager listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.acceptLoop(gctx)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-m.draining:
		}
		return m.drain()
	})

	err = g.Wait()
	m.setState(StateStopped)
	return err
}

func (m *Manager) acceptLoop(ctx context.Context) error {
	for {
		conn, err := m.ln.Accept()
		if err != nil {
			if m.State() == StateDraining || m.State() == StateStopped {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go m.handleConnection(ctx, conn)
	}
}

// BeginDrain triggers the draining transition (spec §4.6: "a signal
// (SIGINT/SIGTERM) or an admin shutdown_manager triggers transition to
// draining").
func (m *Manager) BeginDrain() {
	m.drainOnce.Do(func() {
		m.setState(StateDraining)
		close(m.draining)
	})
}

func (m *Manager) drain() error {
	m.setState(StateDraining)
	if m.ln != nil {
		_ = m.ln.Close()
	}

	deadline := time.Now().Add(drainTimeout)
	for m.pend.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	m.mu.Lock()
	sessions := make([]*session.Peer, 0, len(m.sessions))
	for _, p := range m.sessions {
		sessions = append(sessions, p)
	}
	m.mu.Unlock()

	for _, p := range sessions {
		_ = p.Close()
	}
	return nil
}

func (m *Manager) registerSession(p *session.Peer) {
	m.mu.Lock()
	m.sessions[p.Address()] = p
	m.mu.Unlock()
}

func (m *Manager) unregisterSession(p *session.Peer) {
	m.mu.Lock()
	if cur, ok := m.sessions[p.Address()]; ok && cur == p {
		delete(m.sessions, p.Address())
	}
	m.mu.Unlock()
}

// kick force-closes the named session (admin `kick`, spec §4.6): the
// read loop observes the resulting I/O error and routes through the same
// teardown path an organic disconnect would.
func (m *Manager) kick(address string) bool {
	m.mu.Lock()
	p, ok := m.sessions[address]
	m.mu.Unlock()
	if !ok {
		return false
	}
	_ = p.Close()
	return true
}
