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

	"github.com/MSLNZ/msl-network/internal/rpcerr"
	"github.com/MSLNZ/msl-network/internal/router"
	"github.com/MSLNZ/msl-network/internal/session"
	"github.com/MSLNZ/msl-network/internal/wire"
)

// dispatch classifies one frame from a `ready` peer (spec §4.5), applying
// the draining-mode rejection (spec §8 S6 "(a) reject new requests with
// draining") before handing off to the router.
func (m *Manager) dispatch(ctx context.Context, peer *session.Peer, env *wire.Envelope) error {
	if peer.Role() == session.RoleService {
		if err := m.rtr.DispatchService(peer, env); err != nil {
			return err
		}
		if env.IsNotification() {
			m.met.NotificationsTotal.Inc()
		}
		return nil
	}

	if m.State() == StateDraining && env.IsRequest() && env.Service != wire.ManagerService {
		m.met.RequestsTotal.WithLabelValues("rejected-draining").Inc()
		return peer.Deliver(wire.NewError(
			rpcerr.New(rpcerr.Draining, "manager is draining, new requests rejected").Message(),
			nil, "", env.UID))
	}

	err := m.rtr.DispatchClient(ctx, peer, env)
	if err != nil {
		m.met.RequestsTotal.WithLabelValues("error").Inc()
	} else {
		m.met.RequestsTotal.WithLabelValues("ok").Inc()
	}
	return err
}

// teardown runs spec §4.2 state `closed`: directory/link entries are
// removed and pending requests this peer owned are resolved.
func (m *Manager) teardown(peer *session.Peer) {
	m.unregisterSession(peer)
	_ = peer.Close()

	if peer.Role() == session.RoleService && peer.Name() != "" {
		linked := m.links.Unregister(peer.Name())
		m.rtr.ServiceGone(peer.Name())
		for _, c := range linked {
			if ref, ok := c.(router.ClientRef); ok {
				_ = ref.Deliver(wire.NewNotification(peer.Name(), map[string]interface{}{"event": "service-gone"}))
			}
		}
		m.log.Field("service", peer.Name()).Infof("service disconnected")
		return
	}

	m.links.UnlinkAll(router.ClientRef{ClientSession: peer})
	m.pend.CancelForClient(peer.Address())
}
