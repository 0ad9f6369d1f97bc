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

package manager

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/MSLNZ/msl-network/internal/config"
	"github.com/MSLNZ/msl-network/internal/identity"
	"github.com/MSLNZ/msl-network/internal/rpcerr"
	"github.com/MSLNZ/msl-network/internal/session"
	"github.com/MSLNZ/msl-network/internal/tlsconf"
	"github.com/MSLNZ/msl-network/internal/wire"
)

// handleConnection drives one accepted connection through the full
// handshake state machine (spec §4.2) and, once ready, the steady-state
// reader loop, until the peer disconnects.
func (m *Manager) handleConnection(ctx context.Context, conn net.Conn) {
	peer := session.New(conn, m.codec, m.cfg.MaxFrameBytes)
	m.met.SessionsTotal.Inc()
	peer.SetState(session.StateTCPOpen)

	if tlsConn, ok := conn.(*tls.Conn); ok {
		peer.SetState(session.StateTLSHandshaking)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			m.log.Field("address", peer.Address()).Warnf("tls handshake failed: %v", err)
			_ = peer.Close()
			return
		}
	}

	id, ok := m.runIdentifyStep(peer)
	if !ok {
		return
	}
	peer.SetIdentity(id)

	if !m.runAuthStep(ctx, peer, conn) {
		return
	}

	peer.SetState(session.StateRegister)
	if peer.Role() == session.RoleService {
		if err := m.links.Register(peer); err != nil {
			m.failHandshake(peer, err)
			return
		}
	}

	m.registerSession(peer)
	peer.SetState(session.StateReady)
	peer.StartPumps()
	m.met.SessionsActive.Inc()
	defer m.met.SessionsActive.Dec()

	m.log.Field("address", peer.Address()).Field("name", peer.Name()).Infof("peer ready")

	_ = peer.ReadLoop(func(env *wire.Envelope) error {
		return m.dispatch(ctx, peer, env)
	})

	m.teardown(peer)
}

// runIdentifyStep sends the identity prompt and accepts either a JSON
// identity object or a terminal shortcut line (spec §4.2 step 3).
func (m *Manager) runIdentifyStep(peer *session.Peer) (identity.Identity, bool) {
	peer.SetState(session.StateIdentifyPending)

	if err := peer.WriteHandshakeFrame(wire.IdentityRequest(m.Addr())); err != nil {
		_ = peer.Close()
		return identity.Identity{}, false
	}

	line, err := peer.ReadHandshakeLine(handshakeTimeout)
	if err != nil {
		m.failHandshake(peer, rpcerr.Wrap(rpcerr.IdentityTimeout, err, "identity not received within timeout"))
		return identity.Identity{}, false
	}

	if sc, ok := wire.ParseIdentityShortcut(string(line)); ok {
		switch sc.Kind {
		case wire.ShortcutIdentityClient:
			return identity.NewClient(sc.Name), true
		case wire.ShortcutIdentityService:
			return identity.NewService(sc.Name, nil, -1), true
		}
	}

	env := &wire.Envelope{}
	if err := m.codec.Decode(line, env); err != nil {
		m.failHandshake(peer, rpcerr.Wrap(rpcerr.IdentityMalformed, err, "malformed identity"))
		return identity.Identity{}, false
	}

	var id identity.Identity
	switch v := env.Result.(type) {
	case map[string]interface{}:
		id = decodeIdentityMap(v)
	default:
		m.failHandshake(peer, rpcerr.New(rpcerr.IdentityMalformed, "identity reply missing result object"))
		return identity.Identity{}, false
	}

	return id, true
}

// decodeIdentityMap extracts an Identity from the loosely-typed JSON map
// produced by generic unmarshaling (spec §6 "Identity object").
func decodeIdentityMap(v map[string]interface{}) identity.Identity {
	id := identity.Identity{OS: "unknown", Language: "unknown"}
	if t, ok := v["type"].(string); ok {
		id.Type = identity.Kind(t)
	}
	if l, ok := v["language"].(string); ok {
		id.Language = l
	}
	if o, ok := v["os"].(string); ok {
		id.OS = o
	}
	if n, ok := v["name"].(string); ok {
		id.Name = n
	}
	if mc, ok := v["max_clients"].(float64); ok {
		v := int(mc)
		id.MaxClients = &v
	}
	if attrs, ok := v["attributes"].(map[string]interface{}); ok {
		m := make(map[string]string, len(attrs))
		for k, val := range attrs {
			if s, ok := val.(string); ok {
				m[k] = s
			}
		}
		id.Attributes = m
	}
	if id.Type == "" {
		id.Type = identity.KindClient
	}
	return id
}

// runAuthStep enforces the configured auth mode (spec §4.2 step 4). Login
// mode also escalates the peer to admin, matching spec §4.5 item 1 ("those
// that mutate Manager state require the peer to be in role admin
// (escalated during handshake via login)"). AuthNone grants admin to
// every peer since there is no escalation boundary to speak of without an
// authentication step.
func (m *Manager) runAuthStep(ctx context.Context, peer *session.Peer, conn net.Conn) bool {
	peer.SetState(session.StateAuthPending)

	switch m.cfg.AuthMode {
	case config.AuthNone, "":
		peer.SetAdmin(true)
		return true

	case config.AuthCertificate:
		tlsConn, ok := conn.(*tls.Conn)
		if !ok {
			m.failHandshake(peer, rpcerr.New(rpcerr.AuthRejected, "certificate auth requires TLS"))
			return false
		}
		fp, ok := tlsconf.PeerFingerprint(tlsConn.ConnectionState())
		if !ok {
			m.failHandshake(peer, rpcerr.New(rpcerr.AuthRejected, "no client certificate presented"))
			return false
		}
		allowed, err := m.store.IsFingerprintAllowed(ctx, fp)
		if err != nil || !allowed {
			m.failHandshake(peer, rpcerr.New(rpcerr.AuthRejected, "certificate fingerprint not recognised"))
			return false
		}
		return true

	case config.AuthHostname:
		host, _, _ := net.SplitHostPort(peer.Address())
		allowed, err := m.store.IsHostnameAllowed(ctx, host)
		if err != nil || !allowed {
			m.failHandshake(peer, rpcerr.New(rpcerr.AuthRejected, "hostname %s not recognised", host))
			return false
		}
		return true

	case config.AuthLogin:
		// spec §4.2 step 4: "Three failures -> closed with auth-error."
		for attempt := 1; attempt <= loginAttempts; attempt++ {
			if err := peer.WriteHandshakeFrame(wire.Prompt("username")); err != nil {
				_ = peer.Close()
				return false
			}
			userLine, err := peer.ReadHandshakeLine(handshakeTimeout)
			if err != nil {
				m.failHandshake(peer, rpcerr.Wrap(rpcerr.AuthTooManyAttempts, err, "username not received"))
				return false
			}
			if err := peer.WriteHandshakeFrame(wire.Prompt("password")); err != nil {
				_ = peer.Close()
				return false
			}
			passLine, err := peer.ReadHandshakeLine(handshakeTimeout)
			if err != nil {
				m.failHandshake(peer, rpcerr.Wrap(rpcerr.AuthTooManyAttempts, err, "password not received"))
				return false
			}

			username := extractResult(m.codec.Decode, userLine)
			password := extractResult(m.codec.Decode, passLine)

			ok, err := m.store.Authenticate(ctx, username, password)
			if err == nil && ok {
				peer.SetAdmin(true)
				return true
			}

			if attempt == loginAttempts {
				m.failHandshake(peer, rpcerr.New(rpcerr.AuthTooManyAttempts, "invalid credentials after %d attempts", loginAttempts))
				return false
			}
			if err := peer.WriteHandshakeFrame(wire.NewError(
				rpcerr.New(rpcerr.AuthRejected, "invalid credentials").Message(), nil, "", "")); err != nil {
				_ = peer.Close()
				return false
			}
		}
		return false

	default:
		m.failHandshake(peer, rpcerr.New(rpcerr.AuthRejected, "unknown auth mode %q", m.cfg.AuthMode))
		return false
	}
}

// extractResult decodes line as an envelope and returns its Result as a
// string, or the raw trimmed line if decoding fails (login mode accepts a
// bare plain-text line as well as a JSON {"result": "..."} reply).
func extractResult(decode func([]byte, interface{}) error, line []byte) string {
	env := &wire.Envelope{}
	if err := decode(line, env); err == nil {
		if s, ok := env.Result.(string); ok {
			return s
		}
	}
	return string(line)
}

// failHandshake sends an error frame (best-effort) and closes the session
// (spec §4.2: identity/auth failures are fatal to the offending session).
func (m *Manager) failHandshake(peer *session.Peer, err error) {
	if re, ok := err.(*rpcerr.Error); ok {
		_ = peer.WriteHandshakeFrame(wire.NewError(re.Message(), re.Traceback(), "", ""))
	} else {
		_ = peer.WriteHandshakeFrame(wire.NewError(err.Error(), nil, "", ""))
	}
	m.log.Field("address", peer.Address()).Warnf("handshake failed: %v", err)
	_ = peer.Close()
}
