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

// Package pending implements the pending-request correlation table (spec
// §4.3 "Pending-request table"): every in-flight Client request is keyed
// by (client address, uid) until the Service answers, the Service
// disappears, or the Client disconnects.
package pending

import (
	"sync"

	"github.com/MSLNZ/msl-network/internal/rpcerr"
	"github.com/MSLNZ/msl-network/internal/wire"
)

// ClientHandle is the minimal view the pending table needs of the Client
// session waiting on a reply.
type ClientHandle interface {
	Address() string
	Deliver(env *wire.Envelope) error
}

type key struct {
	clientAddr string
	uid        string
}

type slot struct {
	client  ClientHandle
	service string
}

// Table correlates outstanding Client requests with the Service handling
// them. Safe for concurrent use.
type Table struct {
	mu      sync.Mutex
	entries map[key]slot
	byClient map[string]map[string]bool
	byService map[string]map[key]bool
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		entries:   make(map[key]slot),
		byClient:  make(map[string]map[string]bool),
		byService: make(map[string]map[key]bool),
	}
}

// Open records a new in-flight request. It rejects a uid already
// outstanding for the same client (spec's own recommended resolution of
// the duplicate-uid Open Question: "reject the new request with a
// distinct error such as duplicate-uid").
func (t *Table) Open(client ClientHandle, serviceName, uid string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{clientAddr: client.Address(), uid: uid}
	if _, exists := t.entries[k]; exists {
		return rpcerr.New(rpcerr.DuplicateUID, "uid %q is already outstanding for this client", uid)
	}

	t.entries[k] = slot{client: client, service: serviceName}

	if t.byClient[k.clientAddr] == nil {
		t.byClient[k.clientAddr] = make(map[string]bool)
	}
	t.byClient[k.clientAddr][uid] = true

	if t.byService[serviceName] == nil {
		t.byService[serviceName] = make(map[key]bool)
	}
	t.byService[serviceName][k] = true

	return nil
}

// Resolve looks up and removes the entry for (clientAddr, uid), returning
// the Client to deliver the reply/error to. Called when a Service's
// reply or error frame arrives (spec §4.5 item 3).
func (t *Table) Resolve(clientAddr, uid string) (ClientHandle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{clientAddr: clientAddr, uid: uid}
	s, ok := t.entries[k]
	if !ok {
		return nil, false
	}
	t.remove(k, s.service)
	return s.client, true
}

// remove deletes k from all indexes. Caller holds t.mu.
func (t *Table) remove(k key, serviceName string) {
	delete(t.entries, k)
	if m := t.byClient[k.clientAddr]; m != nil {
		delete(m, k.uid)
		if len(m) == 0 {
			delete(t.byClient, k.clientAddr)
		}
	}
	if m := t.byService[serviceName]; m != nil {
		delete(m, k)
		if len(m) == 0 {
			delete(t.byService, serviceName)
		}
	}
}

// CancelForClient drops every entry belonging to a departing Client (spec
// §4.2 state `closed`): no synthetic error is needed since the Client
// itself is gone.
func (t *Table) CancelForClient(clientAddr string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	uids := t.byClient[clientAddr]
	for uid := range uids {
		k := key{clientAddr: clientAddr, uid: uid}
		if s, ok := t.entries[k]; ok {
			t.remove(k, s.service)
		}
	}
}

// Orphaned describes one pending request that must be failed because its
// Service vanished mid-flight (spec §4.3/§8 scenario S5).
type Orphaned struct {
	Client ClientHandle
	UID    string
}

// CancelForService removes every entry routed to serviceName and returns
// them so the caller can synthesize a service-gone error to each waiting
// Client (spec §4.3: "the pending entry is resolved with a synthetic
// service-gone error").
func (t *Table) CancelForService(serviceName string) []Orphaned {
	t.mu.Lock()
	defer t.mu.Unlock()

	ks := t.byService[serviceName]
	out := make([]Orphaned, 0, len(ks))
	for k := range ks {
		s := t.entries[k]
		out = append(out, Orphaned{Client: s.client, UID: k.uid})
		t.remove(k, serviceName)
	}
	return out
}

// Len reports the total number of outstanding requests, for metrics.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
