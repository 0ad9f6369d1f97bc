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

// Package identity implements the polymorphic Identity value exchanged
// during handshake (spec §6 "Identity object", Design Note "Identity as a
// polymorphic value"). A single Go struct serializes to the same JSON
// shape whether it describes the Manager, a Client, or a Service; Kind is
// the discriminant.
package identity

import (
	"runtime"

	"github.com/shirou/gopsutil/host"
)

// Kind discriminates the three roles an Identity can describe.
type Kind string

const (
	KindManager Kind = "manager"
	KindClient  Kind = "client"
	KindService Kind = "service"
)

// Identity is the JSON self-description exchanged during handshake (spec
// §6). Name/Attributes/MaxClients are only meaningful for Services;
// Name alone is meaningful for Clients (a display name).
type Identity struct {
	Type       Kind              `json:"type"`
	Language   string            `json:"language"`
	OS         string            `json:"os"`
	Name       string            `json:"name,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	MaxClients *int              `json:"max_clients,omitempty"`
}

func goLanguage() string {
	return "Go " + runtime.Version()
}

// NewManager builds the Manager's own identity, enriching OS with real
// host facts gathered through gopsutil rather than just runtime.GOOS, so
// the Manager's self-report is as informative as a Service's (spec §6
// minimum shape: {type, language, os}).
func NewManager() Identity {
	osDesc := runtime.GOOS
	if info, err := host.Info(); err == nil && info != nil {
		osDesc = info.Platform + " " + info.PlatformVersion + " (" + info.Hostname + ")"
	}
	return Identity{
		Type:     KindManager,
		Language: goLanguage(),
		OS:       osDesc,
	}
}

// NewClient builds a Client identity with the given display name.
func NewClient(name string) Identity {
	return Identity{
		Type:     KindClient,
		Language: goLanguage(),
		OS:       runtime.GOOS,
		Name:     name,
	}
}

// NewService builds a Service identity. maxClients of -1 means unbounded
// (spec §3 Link invariants); attributes maps exposed method names
// to a human-readable signature string.
func NewService(name string, attributes map[string]string, maxClients int) Identity {
	mc := maxClients
	return Identity{
		Type:       KindService,
		Language:   goLanguage(),
		OS:         runtime.GOOS,
		Name:       name,
		Attributes: attributes,
		MaxClients: &mc,
	}
}

// EffectiveMaxClients returns the configured cap, defaulting to -1
// (unbounded) when unset, per spec §6.
func (i Identity) EffectiveMaxClients() int {
	if i.MaxClients == nil {
		return -1
	}
	return *i.MaxClients
}
