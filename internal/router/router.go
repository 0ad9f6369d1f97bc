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

// Package router classifies frames arriving from `ready` peers into the
// five categories spec §4.5 names, and drives the link table and pending
// table accordingly. It holds no transport code of its own: sessions hand
// it decoded envelopes and it hands back envelopes to deliver.
package router

import (
	"context"

	"github.com/MSLNZ/msl-network/internal/linktable"
	"github.com/MSLNZ/msl-network/internal/pending"
	"github.com/MSLNZ/msl-network/internal/rpcerr"
	"github.com/MSLNZ/msl-network/internal/wire"
)

// ClientSession is the view the router needs of a peer acting as a Client.
type ClientSession interface {
	Address() string
	Deliver(env *wire.Envelope) error
}

// ServiceSession is the view the router needs of a peer acting as a
// Service.
type ServiceSession interface {
	Name() string
	Address() string
	Deliver(env *wire.Envelope) error
}

// AdminFunc answers one Manager-targeted request (spec §4.5 admin
// methods: identity, link, unlink, lock, unlock, list_services,
// shutdown_manager, kick, users_table.is_user_registered). It returns the
// value to place in the reply envelope's `result`, or an error.
type AdminFunc func(ctx context.Context, from ClientSession, args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// Router ties the link table and pending table to the five-way frame
// classification spec §4.5 describes.
type Router struct {
	links   *linktable.Table
	pend    *pending.Table
	admin   map[string]AdminFunc
}

// New builds a Router over the given link table and pending table.
func New(links *linktable.Table, pend *pending.Table) *Router {
	return &Router{
		links: links,
		pend:  pend,
		admin: make(map[string]AdminFunc),
	}
}

// Handle registers the admin handler invoked for requests addressed to
// the reserved Manager service with the given attribute name.
func (r *Router) Handle(attribute string, fn AdminFunc) {
	r.admin[attribute] = fn
}

// errorEnvelope turns any error into the Any→error wire shape, preferring
// the taxonomy message/traceback when the error is an *rpcerr.Error.
func errorEnvelope(err error, requester, uid string) *wire.Envelope {
	if re, ok := err.(*rpcerr.Error); ok {
		return wire.NewError(re.Message(), re.Traceback(), requester, uid)
	}
	return wire.NewError(err.Error(), nil, requester, uid)
}

// DispatchClient classifies one envelope received from a Client session
// in state `ready` (spec §4.5 items 1-2). It never blocks on network I/O
// of its own beyond the Deliver calls the caller's sessions perform
// synchronously (those are expected to be non-blocking queue pushes).
func (r *Router) DispatchClient(ctx context.Context, from ClientSession, env *wire.Envelope) error {
	if env.UID == wire.NotificationUID {
		return from.Deliver(wire.NewError(rpcerr.New(rpcerr.ReservedUID, "clients may not send notifications").Message(), nil, "", env.UID))
	}
	if env.Error {
		return from.Deliver(wire.NewError(rpcerr.New(rpcerr.BadShape, "clients may not send errors").Message(), nil, "", env.UID))
	}
	if !env.IsRequest() {
		return from.Deliver(wire.NewError(rpcerr.New(rpcerr.BadShape, "request envelope missing attribute").Message(), nil, "", env.UID))
	}

	if env.Service == wire.ManagerService {
		return r.dispatchAdmin(ctx, from, env)
	}
	return r.dispatchServiceRequest(from, env)
}

// dispatchAdmin answers a request addressed to the reserved Manager
// service (spec §4.5 item 1).
func (r *Router) dispatchAdmin(ctx context.Context, from ClientSession, env *wire.Envelope) error {
	fn, ok := r.admin[env.Attribute]
	if !ok {
		return from.Deliver(errorEnvelope(
			rpcerr.New(rpcerr.BadShape, "unknown manager attribute %q", env.Attribute),
			"", env.UID))
	}

	result, err := fn(ctx, from, env.Args, env.Kwargs)
	if err != nil {
		return from.Deliver(errorEnvelope(err, "", env.UID))
	}
	return from.Deliver(wire.NewReply(result, "", env.UID))
}

// dispatchServiceRequest forwards a Client request to the named Service,
// opening a pending-table entry first (spec §4.5 item 2, §4.3 "Pending-
// request table").
func (r *Router) dispatchServiceRequest(from ClientSession, env *wire.Envelope) error {
	if !r.links.IsLinked(ClientRef{from}, env.Service) {
		return from.Deliver(errorEnvelope(
			rpcerr.New(rpcerr.NotLinked, "client is not linked to service %q", env.Service),
			"", env.UID))
	}

	svcHandle, ok := r.links.Lookup(env.Service)
	if !ok {
		return from.Deliver(errorEnvelope(
			rpcerr.New(rpcerr.NoSuchService, "no such service: %s", env.Service),
			"", env.UID))
	}

	if err := r.pend.Open(ClientRef{from}, env.Service, env.UID); err != nil {
		return from.Deliver(errorEnvelope(err, "", env.UID))
	}

	forward := wire.NewRequest(env.Service, env.Attribute, env.Args, env.Kwargs, env.UID)
	forward.Requester = from.Address()

	if svc, ok := svcHandle.(ServiceSession); ok {
		return svc.Deliver(forward)
	}
	return nil
}

// DispatchService classifies one envelope received from a Service
// session in state `ready` (spec §4.5 items 3-4).
func (r *Router) DispatchService(from ServiceSession, env *wire.Envelope) error {
	if env.IsNotification() {
		return r.dispatchNotification(from, env)
	}
	if env.IsReplyOrError() {
		return r.dispatchReply(env)
	}
	return nil
}

// dispatchReply resolves the pending entry a Service's reply or error
// answers and delivers it to the waiting Client (spec §4.5 item 3).
func (r *Router) dispatchReply(env *wire.Envelope) error {
	client, ok := r.pend.Resolve(env.Requester, env.UID)
	if !ok {
		return nil
	}
	out := *env
	return client.Deliver(&out)
}

// dispatchNotification fans an unsolicited Service broadcast out to
// every Client currently linked to it (spec §4.5 item 4).
func (r *Router) dispatchNotification(from ServiceSession, env *wire.Envelope) error {
	clients := r.links.LinkedClients(from.Name())
	out := wire.NewNotification(from.Name(), env.Result)
	var firstErr error
	for _, c := range clients {
		ref, ok := c.(ClientRef)
		if !ok {
			continue
		}
		if err := ref.Deliver(out); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ServiceGone synthesizes a service-gone error for every pending request
// that was waiting on serviceName and delivers it to each waiting Client
// (spec §4.3 "A Service's own disappearance cascades", §8 scenario S5). It
// does not touch the directory; the caller removes serviceName there with
// linktable.Table.Unregister.
func (r *Router) ServiceGone(serviceName string) {
	for _, orphan := range r.pend.CancelForService(serviceName) {
		_ = orphan.Client.Deliver(wire.NewError(
			rpcerr.New(rpcerr.ServiceGone, "service %q disconnected", serviceName).Message(),
			nil, "", orphan.UID))
	}
}

// ClientRef adapts a ClientSession to linktable.ClientHandle and
// pending.ClientHandle. Admin handlers (link/unlink/lock/unlock, built in
// the manager package) wrap Clients the same way before calling into the
// link table, so the dynamic type always matches here on the notification
// fan-out path.
type ClientRef struct{ ClientSession }

// Address implements linktable.ClientHandle and pending.ClientHandle.
func (r ClientRef) Address() string { return r.ClientSession.Address() }

// Deliver implements pending.ClientHandle.
func (r ClientRef) Deliver(env *wire.Envelope) error { return r.ClientSession.Deliver(env) }
