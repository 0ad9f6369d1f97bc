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

package wire

import "strings"

// ShortcutKind classifies a parsed terminal-mode line (spec §6, "Terminal
// shortcut").
type ShortcutKind int

const (
	// ShortcutUnknown means the line could not be parsed as any shortcut.
	ShortcutUnknown ShortcutKind = iota
	// ShortcutIdentityClient is the bare "client" or "client <name>" identity line.
	ShortcutIdentityClient
	// ShortcutIdentityService is the "service <name>" identity line.
	ShortcutIdentityService
	// ShortcutRequest is "<service> <attribute> [args] [k=v ...]".
	ShortcutRequest
	// ShortcutDisconnect is "disconnect" or "exit".
	ShortcutDisconnect
)

// Shortcut is the parsed form of one terminal-mode line.
type Shortcut struct {
	Kind      ShortcutKind
	Name      string // identity display name, when Kind is an identity shortcut
	Service   string
	Attribute string
	Args      []interface{}
	Kwargs    map[string]interface{}
}

// ParseIdentityShortcut recognises the short-form identity line sent in
// place of a JSON identity object during handshake (spec §4.2 step 3 /
// §6 "Terminal shortcut").
func ParseIdentityShortcut(line string) (Shortcut, bool) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return Shortcut{}, false
	}

	switch strings.ToLower(fields[0]) {
	case "client":
		name := ""
		if len(fields) > 1 {
			name = strings.Join(fields[1:], " ")
		}
		return Shortcut{Kind: ShortcutIdentityClient, Name: name}, true
	case "service":
		if len(fields) < 2 {
			return Shortcut{}, false
		}
		return Shortcut{Kind: ShortcutIdentityService, Name: strings.Join(fields[1:], " ")}, true
	}
	return Shortcut{}, false
}

// ParseRequestShortcut translates a steady-state terminal line into a
// request shortcut, the admin "identity"/"Manager ..." shortcut, or a
// disconnect command (spec §6).
func ParseRequestShortcut(line string) (Shortcut, bool) {
	trimmed := strings.TrimSpace(line)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return Shortcut{}, false
	}

	switch strings.ToLower(fields[0]) {
	case "disconnect", "exit":
		return Shortcut{Kind: ShortcutDisconnect}, true
	case "identity":
		return Shortcut{Kind: ShortcutRequest, Service: ManagerService, Attribute: "identity", Args: []interface{}{}, Kwargs: map[string]interface{}{}}, true
	}

	if len(fields) < 2 {
		return Shortcut{}, false
	}

	service := fields[0]
	attribute := fields[1]
	args := make([]interface{}, 0, len(fields)-2)
	kwargs := make(map[string]interface{}, len(fields)-2)

	for _, tok := range fields[2:] {
		if k, v, ok := splitKV(tok); ok {
			kwargs[k] = v
		} else {
			args = append(args, tok)
		}
	}

	return Shortcut{
		Kind:      ShortcutRequest,
		Service:   service,
		Attribute: attribute,
		Args:      args,
		Kwargs:    kwargs,
	}, true
}

// splitKV splits "k=v" tokens used for shortcut keyword arguments. A bare
// "=" or a token starting with "=" is not treated as a kwarg.
func splitKV(tok string) (key, value string, ok bool) {
	i := strings.IndexByte(tok, '=')
	if i <= 0 {
		return "", "", false
	}
	return tok[:i], tok[i+1:], true
}

// ToEnvelope converts a ShortcutRequest into the JSON request shape,
// stamping the given uid (spec §6: "the Manager translates into the JSON
// request form").
func (s Shortcut) ToEnvelope(uid string) *Envelope {
	return NewRequest(s.Service, s.Attribute, s.Args, s.Kwargs, uid)
}
