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

// Package wire implements the five JSON message shapes exchanged between
// Manager, Clients, and Services (spec §3/§6), the length-delimited frame
// codec that carries them over a byte stream (spec §4.1), and the
// terminal-mode shortcut translation (spec §6).
package wire

// NotificationUID is the reserved uid value identifying a Service broadcast.
// A Client request may never legitimately carry this value.
const NotificationUID = "notification"

// ManagerService is the reserved service name that targets the Manager's
// own admin handlers instead of a registered Service.
const ManagerService = "Manager"

// Envelope is the superset of fields any of the five wire shapes may carry.
// Incoming frames are decoded into an Envelope and then classified by the
// router/session layers according to which fields are populated and which
// role sent them (spec §4.5); outgoing frames are built by zeroing the
// fields that shape does not use before encoding.
type Envelope struct {
	Error bool `json:"error"`

	// Request fields.
	Service   string                 `json:"service,omitempty"`
	Attribute string                 `json:"attribute,omitempty"`
	Args      []interface{}          `json:"args,omitempty"`
	Kwargs    map[string]interface{} `json:"kwargs,omitempty"`

	// Reply / notification fields.
	Result interface{} `json:"result"`

	// Error fields.
	Message   string   `json:"message,omitempty"`
	Traceback []string `json:"traceback,omitempty"`

	// Correlation, shared by request/reply/error.
	Requester string `json:"requester,omitempty"`
	UID       string `json:"uid"`
}

// IsNotification reports whether this envelope is a Service broadcast.
func (e *Envelope) IsNotification() bool {
	return e.UID == NotificationUID
}

// IsRequest reports whether this envelope has the shape of a Client
// request: it carries a non-empty attribute name and is not an error.
func (e *Envelope) IsRequest() bool {
	return !e.Error && e.Attribute != "" && !e.IsNotification()
}

// IsReplyOrError reports whether this envelope carries a requester, i.e.
// it is a Service's answer routed back through the pending table.
func (e *Envelope) IsReplyOrError() bool {
	return e.Requester != "" && !e.IsNotification()
}

// NewRequest builds the Client→request shape (spec §6).
func NewRequest(service, attribute string, args []interface{}, kwargs map[string]interface{}, uid string) *Envelope {
	if args == nil {
		args = []interface{}{}
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}
	return &Envelope{
		Error:     false,
		Service:   service,
		Attribute: attribute,
		Args:      args,
		Kwargs:    kwargs,
		UID:       uid,
	}
}

// NewReply builds the Service→reply shape (spec §6).
func NewReply(result interface{}, requester, uid string) *Envelope {
	return &Envelope{
		Error:     false,
		Result:    result,
		Requester: requester,
		UID:       uid,
	}
}

// NewError builds the Any→error shape (spec §6). Result is always null.
func NewError(message string, traceback []string, requester, uid string) *Envelope {
	if traceback == nil {
		traceback = []string{}
	}
	return &Envelope{
		Error:     true,
		Message:   message,
		Traceback: traceback,
		Result:    nil,
		Requester: requester,
		UID:       uid,
	}
}

// NewNotification builds the Service→notification shape (spec §6).
func NewNotification(service string, result interface{}) *Envelope {
	return &Envelope{
		Error:   false,
		Service: service,
		Result:  result,
		UID:     NotificationUID,
	}
}

// IdentityRequest is the handshake prompt the Manager sends immediately
// after the transport is ready (spec §4.2 step 3).
func IdentityRequest(managerAddress string) *Envelope {
	return &Envelope{
		Error:     false,
		Attribute: "identity",
		Args:      []interface{}{},
		Kwargs:    map[string]interface{}{},
		Requester: managerAddress,
		UID:       "",
	}
}

// Prompt builds a plain login-mode prompt ("username"/"password") sent
// during auth-pending (spec §4.2 step 4, login mode).
func Prompt(name string) *Envelope {
	return &Envelope{
		Error:     false,
		Attribute: name,
		Args:      []interface{}{},
		Kwargs:    map[string]interface{}{},
		UID:       "",
	}
}
