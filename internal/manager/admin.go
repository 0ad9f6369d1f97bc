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

	"github.com/MSLNZ/msl-network/internal/linktable"
	"github.com/MSLNZ/msl-network/internal/rpcerr"
	"github.com/MSLNZ/msl-network/internal/router"
	"github.com/MSLNZ/msl-network/internal/session"
)

// registerAdmin wires every Manager admin method named by spec §4.5 item
// 1 and SPEC_FULL §9 into the router.
func (m *Manager) registerAdmin() {
	m.rtr.Handle("identity", m.adminIdentity)
	m.rtr.Handle("link", m.adminLink)
	m.rtr.Handle("unlink", m.adminUnlink)
	m.rtr.Handle("lock", m.adminLock)
	m.rtr.Handle("unlock", m.adminUnlock)
	m.rtr.Handle("list_services", m.adminListServices)
	m.rtr.Handle("shutdown_manager", m.adminShutdown)
	m.rtr.Handle("kick", m.adminKick)
	m.rtr.Handle("users_table.is_user_registered", m.adminIsUserRegistered)
}

func (m *Manager) adminIdentity(_ context.Context, _ router.ClientSession, _ []interface{}, _ map[string]interface{}) (interface{}, error) {
	return m.self, nil
}

func (m *Manager) adminLink(_ context.Context, from router.ClientSession, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	serviceName, ok := stringArg(args, kwargs, "service_name", 0)
	if !ok {
		return nil, rpcerr.New(rpcerr.BadShape, "link requires a service_name argument")
	}
	id, err := m.links.Link(router.ClientRef{ClientSession: from}, serviceName)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true, "service_identity": id}, nil
}

func (m *Manager) adminUnlink(_ context.Context, from router.ClientSession, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	serviceName, ok := stringArg(args, kwargs, "service_name", 0)
	if !ok {
		return nil, rpcerr.New(rpcerr.BadShape, "unlink requires a service_name argument")
	}
	m.links.Unlink(router.ClientRef{ClientSession: from}, serviceName)
	return map[string]interface{}{"ok": true}, nil
}

func (m *Manager) adminLock(_ context.Context, from router.ClientSession, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	serviceName, ok := stringArg(args, kwargs, "service_name", 0)
	if !ok {
		return nil, rpcerr.New(rpcerr.BadShape, "lock requires a service_name argument")
	}
	modeStr, _ := stringArg(args, kwargs, "mode", 1)

	mode := linktable.ModeShared
	if modeStr == "exclusive" {
		mode = linktable.ModeExclusive
	}

	if err := m.links.Lock(router.ClientRef{ClientSession: from}, serviceName, mode); err != nil {
		m.met.LockContentionTotal.Inc()
		return nil, err
	}
	return map[string]interface{}{"ok": true}, nil
}

func (m *Manager) adminUnlock(_ context.Context, from router.ClientSession, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	serviceName, ok := stringArg(args, kwargs, "service_name", 0)
	if !ok {
		return nil, rpcerr.New(rpcerr.BadShape, "unlock requires a service_name argument")
	}
	m.links.Unlock(router.ClientRef{ClientSession: from}, serviceName)
	return map[string]interface{}{"ok": true}, nil
}

func (m *Manager) adminListServices(_ context.Context, _ router.ClientSession, _ []interface{}, _ map[string]interface{}) (interface{}, error) {
	snaps := m.links.ListServices()
	out := make([]map[string]interface{}, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, map[string]interface{}{
			"name":                s.Name,
			"address":             s.Address,
			"identity":            s.Identity,
			"linked_clients":      s.LinkedClients,
			"max_clients":         s.MaxClients,
			"exclusive_lock":      s.ExclusiveLock,
			"shared_lock_holders": s.SharedLockHolders,
		})
	}
	return out, nil
}

func (m *Manager) adminShutdown(_ context.Context, from router.ClientSession, _ []interface{}, _ map[string]interface{}) (interface{}, error) {
	peer, ok := from.(*session.Peer)
	if !ok || !peer.IsAdmin() {
		return nil, rpcerr.New(rpcerr.PermissionDenied, "shutdown_manager requires the admin role")
	}
	m.BeginDrain()
	return map[string]interface{}{"ok": true}, nil
}

func (m *Manager) adminKick(_ context.Context, from router.ClientSession, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	peer, ok := from.(*session.Peer)
	if !ok || !peer.IsAdmin() {
		return nil, rpcerr.New(rpcerr.PermissionDenied, "kick requires the admin role")
	}
	addr, ok := stringArg(args, kwargs, "address", 0)
	if !ok {
		return nil, rpcerr.New(rpcerr.BadShape, "kick requires an address argument")
	}
	if !m.kick(addr) {
		return nil, rpcerr.New(rpcerr.NotLinked, "no such session: %s", addr)
	}
	return map[string]interface{}{"ok": true}, nil
}

func (m *Manager) adminIsUserRegistered(ctx context.Context, _ router.ClientSession, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if m.store == nil {
		return nil, rpcerr.New(rpcerr.Unknown, "credential backend not configured")
	}
	username, ok := stringArg(args, kwargs, "username", 0)
	if !ok {
		return nil, rpcerr.New(rpcerr.BadShape, "is_user_registered requires a username argument")
	}
	registered, err := m.store.IsUserRegistered(ctx, username)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"registered": registered}, nil
}

// stringArg extracts a string admin argument by kwarg name first, falling
// back to the positional slot (the terminal shortcut form passes
// everything positionally, spec §6).
func stringArg(args []interface{}, kwargs map[string]interface{}, name string, pos int) (string, bool) {
	if v, ok := kwargs[name]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	if pos < len(args) {
		if s, ok := args[pos].(string); ok {
			return s, true
		}
	}
	return "", false
}
