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

package rpcerr

// Code is a numeric error classification, similar in spirit to an HTTP
// status code. Blocks are 100-wide per concern so new members of a family
// can be inserted without renumbering neighbours.
type Code uint16

const (
	// Unknown is the fallback when no more specific code applies.
	Unknown Code = 0

	// Protocol errors: malformed JSON, wrong shape, oversized frame,
	// reserved uid abuse. Fatal to the offending session.
	ReservedUID  Code = 4001
	FrameTooLarge Code = 4002
	BadShape     Code = 4003
	BadJSON      Code = 4004

	// Handshake errors. Fatal to the offending session.
	IdentityTimeout Code = 4100
	IdentityMalformed Code = 4101

	// Authentication errors. Fatal to the offending session.
	AuthRejected Code = 4200
	AuthTooManyAttempts Code = 4201

	// Routing / link-table policy violations. Session survives.
	NoSuchService     Code = 4300
	MaxClientsReached Code = 4301
	LockedExclusive   Code = 4302
	NotLinked         Code = 4303
	DuplicateUID      Code = 4304

	// Admin authorization. Session survives.
	PermissionDenied Code = 4400

	// Counterpart vanished mid-flight. Synthetic, surfaced to the waiting peer.
	ServiceGone       Code = 4500
	PeerDisconnected  Code = 4501

	// The Service itself raised; forwarded as produced by the Service.
	ServiceException Code = 4600

	// Manager-side rejection during drain.
	Draining Code = 4700
)

// Fatal reports whether an error of this code must end the session that
// produced it, per spec.md §7's propagation policy.
func (c Code) Fatal() bool {
	switch c {
	case ReservedUID, FrameTooLarge, BadShape, BadJSON,
		IdentityTimeout, IdentityMalformed,
		AuthRejected, AuthTooManyAttempts:
		return true
	default:
		return false
	}
}

// String gives a short slug used both in log fields and, where the spec
// names it literally (e.g. "service-gone"), in the wire error message.
func (c Code) String() string {
	switch c {
	case ReservedUID:
		return "reserved-uid"
	case FrameTooLarge:
		return "frame-too-large"
	case BadShape:
		return "bad-shape"
	case BadJSON:
		return "bad-json"
	case IdentityTimeout:
		return "identity-error"
	case IdentityMalformed:
		return "identity-error"
	case AuthRejected:
		return "auth-error"
	case AuthTooManyAttempts:
		return "auth-error"
	case NoSuchService:
		return "no-such-service"
	case MaxClientsReached:
		return "max-clients-reached"
	case LockedExclusive:
		return "locked-exclusive"
	case NotLinked:
		return "not-linked"
	case DuplicateUID:
		return "duplicate-uid"
	case PermissionDenied:
		return "permission-denied"
	case ServiceGone:
		return "service-gone"
	case PeerDisconnected:
		return "peer-disconnected"
	case ServiceException:
		return "service-exception"
	case Draining:
		return "draining"
	default:
		return "unknown-error"
	}
}
