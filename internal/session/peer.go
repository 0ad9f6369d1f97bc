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

// Package session implements one Peer connection end to end: the
// handshake state machine (spec §4.2), a buffered outbound queue drained
// by a dedicated writer goroutine, and the blocking reads the handshake
// steps need before the steady-state reader loop takes over.
package session

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-uuid"

	"github.com/MSLNZ/msl-network/internal/identity"
	"github.com/MSLNZ/msl-network/internal/jsoncodec"
	"github.com/MSLNZ/msl-network/internal/rpcerr"
	"github.com/MSLNZ/msl-network/internal/wire"
)

// Role is who a Peer turned out to be once the handshake's identity step
// completes (spec §4.2 step 3).
type Role int

const (
	RoleUnknown Role = iota
	RoleClient
	RoleService
)

// State is a node in the handshake/lifetime state machine (spec §4.2):
// tcp-open -> tls-handshaking -> identify-pending -> auth-pending ->
// register -> ready -> draining -> closed.
type State int

const (
	StateTCPOpen State = iota
	StateTLSHandshaking
	StateIdentifyPending
	StateAuthPending
	StateRegister
	StateReady
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateTCPOpen:
		return "tcp-open"
	case StateTLSHandshaking:
		return "tls-handshaking"
	case StateIdentifyPending:
		return "identify-pending"
	case StateAuthPending:
		return "auth-pending"
	case StateRegister:
		return "register"
	case StateReady:
		return "ready"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// outboxDepth bounds the writer queue. A Peer that cannot keep up is
// disconnected rather than allowed to grow memory without bound (spec §5
// "flow-control beyond TCP back-pressure" is a named Non-goal, but an
// unbounded queue would defeat TCP back-pressure entirely).
const outboxDepth = 256

// Peer is one live connection to the Manager, either a Client or a
// Service once identified.
type Peer struct {
	conn  net.Conn
	id    string
	codec jsoncodec.Codec

	reader *wire.Reader
	writer *wire.Writer

	mu       sync.RWMutex
	state    State
	role     Role
	name     string
	identity identity.Identity
	admin    bool
	closed   bool

	outbox    chan *wire.Envelope
	writerErr chan error
	closeOnce sync.Once
	done      chan struct{}
}

// New wraps an accepted connection. The handshake driver (internal/manager)
// is responsible for advancing State and calling StartPumps once the peer
// reaches StateReady.
func New(conn net.Conn, codec jsoncodec.Codec, maxFrame int) *Peer {
	id, err := uuid.GenerateUUID()
	if err != nil {
		id = conn.RemoteAddr().String()
	}
	return &Peer{
		conn:      conn,
		id:        id,
		codec:     codec,
		reader:    wire.NewReader(conn, codec, maxFrame),
		writer:    wire.NewWriter(conn, codec),
		state:     StateTCPOpen,
		outbox:    make(chan *wire.Envelope, outboxDepth),
		writerErr: make(chan error, 1),
		done:      make(chan struct{}),
	}
}

// SessionID is the process-unique identifier assigned at accept time
// (spec SPEC_FULL §3 addition: distinct from Address, which two peers can
// share across reconnects within the same test process).
func (p *Peer) SessionID() string { return p.id }

// Address is the remote address, used as the pending/link table key.
func (p *Peer) Address() string { return p.conn.RemoteAddr().String() }

// State returns the current handshake/lifetime state.
func (p *Peer) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SetState transitions the peer. The handshake driver owns all
// transitions; Peer itself never decides to change state except Close
// moving it to StateClosed.
func (p *Peer) SetState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// Role reports whether this peer identified as a Client or a Service.
func (p *Peer) Role() Role {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.role
}

// Name is the Service name, or the Client's display name (empty until
// identified).
func (p *Peer) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// Identity returns the Identity this peer presented during handshake.
func (p *Peer) Identity() identity.Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity
}

// IsAdmin reports whether this peer has been granted admin rights
// (escalated during handshake via login mode, spec §4.5 item 1: "those
// that mutate Manager state require the peer to be in role admin").
func (p *Peer) IsAdmin() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.admin
}

// SetAdmin grants or revokes admin rights.
func (p *Peer) SetAdmin(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.admin = v
}

// SetIdentity records the identity presented in the handshake's identity
// step and derives Role/Name from it (spec §4.2 step 3).
func (p *Peer) SetIdentity(id identity.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = id
	switch id.Type {
	case identity.KindService:
		p.role = RoleService
		p.name = id.Name
	default:
		p.role = RoleClient
		p.name = id.Name
	}
}

// ReadHandshakeFrame performs one blocking read, used only during the
// pre-ready handshake steps (identify-pending/auth-pending) before the
// steady-state reader loop takes over. It applies deadline so a peer that
// never answers does not hang the accept goroutine forever.
func (p *Peer) ReadHandshakeFrame(timeout time.Duration) (*wire.Envelope, error) {
	if timeout > 0 {
		_ = p.conn.SetReadDeadline(time.Now().Add(timeout))
	}
	env, err := p.reader.ReadFrame()
	_ = p.conn.SetReadDeadline(time.Time{})
	return env, err
}

// ReadHandshakeLine is ReadHandshakeFrame's raw-bytes counterpart, used
// during identify-pending so the caller can try a terminal shortcut
// parse before falling back to JSON decoding (spec §4.2 step 3).
func (p *Peer) ReadHandshakeLine(timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		_ = p.conn.SetReadDeadline(time.Now().Add(timeout))
	}
	line, err := p.reader.ReadLine()
	_ = p.conn.SetReadDeadline(time.Time{})
	return line, err
}

// WriteHandshakeFrame writes one frame synchronously, used only before
// StartPumps (the outbox is not yet being drained).
func (p *Peer) WriteHandshakeFrame(env *wire.Envelope) error {
	return p.writer.WriteFrame(env)
}

// StartPumps launches the dedicated writer goroutine that drains outbox,
// and arms the reader for the steady-state loop (ReadLoop). Call once,
// after the peer reaches StateReady (spec §4.2 final step).
func (p *Peer) StartPumps() {
	go p.pumpWriter()
}

func (p *Peer) pumpWriter() {
	for {
		select {
		case env, ok := <-p.outbox:
			if !ok {
				return
			}
			if err := p.writer.WriteFrame(env); err != nil {
				select {
				case p.writerErr <- err:
				default:
				}
				_ = p.Close()
				return
			}
		case <-p.done:
			return
		}
	}
}

// Deliver enqueues env for the writer goroutine. It never blocks: a full
// outbox means the peer is not draining fast enough and is disconnected
// (spec §5 concurrency model: reader/writer goroutines per session). The
// liveness check and the send share p.mu with Close's own closed flag so
// a concurrent teardown can never close the outbox out from under a send
// in progress.
func (p *Peer) Deliver(env *wire.Envelope) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return rpcerr.New(rpcerr.PeerDisconnected, "peer %s is closed", p.Address())
	}

	select {
	case p.outbox <- env:
		p.mu.Unlock()
		return nil
	default:
		p.mu.Unlock()
		_ = p.Close()
		return rpcerr.New(rpcerr.PeerDisconnected, "peer %s outbox is full", p.Address())
	}
}

// ReadLoop runs the steady-state reader, invoking onEnvelope for every
// decoded frame until the connection closes or onEnvelope returns a fatal
// *rpcerr.Error (spec §4.5: malformed frames are fatal to the offending
// session). The caller (internal/manager) supplies onEnvelope, which
// hands the frame to the router.
func (p *Peer) ReadLoop(onEnvelope func(*wire.Envelope) error) error {
	for {
		line, err := p.reader.ReadLine()
		if err != nil {
			return err
		}

		env, err := p.decodeSteadyStateLine(line)
		if err != nil {
			return err
		}

		if err := onEnvelope(env); err != nil {
			if re, ok := err.(*rpcerr.Error); ok && re.Fatal() {
				return re
			}
		}
	}
}

// decodeSteadyStateLine accepts either a JSON envelope or a terminal
// shortcut line (spec §6 "Terminal shortcut": "<service> <attribute>
// [args] [k=v]", "disconnect"/"exit"), the same JSON-or-shortcut
// tolerance the identify step already applies to the identity line. A
// line is only tried against the shortcut grammar when it does not open
// with '{', since a compact JSON envelope never does.
func (p *Peer) decodeSteadyStateLine(line []byte) (*wire.Envelope, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		if sc, ok := wire.ParseRequestShortcut(string(trimmed)); ok {
			if sc.Kind == wire.ShortcutDisconnect {
				return nil, io.EOF
			}
			uid, err := uuid.GenerateUUID()
			if err != nil {
				uid = p.id
			}
			return sc.ToEnvelope(uid), nil
		}
	}

	env := &wire.Envelope{}
	if err := p.codec.Decode(trimmed, env); err != nil {
		return nil, rpcerr.Wrap(rpcerr.BadJSON, err, "malformed JSON frame")
	}
	return env, nil
}

// Close tears the connection down and stops the writer goroutine. Safe to
// call more than once and from multiple goroutines.
func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		p.SetState(StateClosed)
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.done)
		close(p.outbox)
	})
	return p.conn.Close()
}

// Done is closed once Close has run, for callers that want to select on
// peer lifetime.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}
