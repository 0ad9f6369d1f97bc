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

import (
	"fmt"
	"runtime"
)

// Error is the internal representation of a routable RPC failure. It
// carries the taxonomy Code, a human-readable message, an optional parent
// (the underlying cause, e.g. a Service's own panic), and a captured stack
// trace rendered lazily into the wire traceback on demand.
type Error struct {
	code    Code
	message string
	parent  error
	frames  []string
}

// New builds an Error of the given code, capturing the caller's stack at
// the point of creation (skip=2 frames: runtime.Callers and New itself).
func New(code Code, format string, args ...interface{}) *Error {
	e := &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
	}
	e.capture(2)
	return e
}

// Wrap annotates an existing error with a taxonomy code, preserving it as
// the parent so CodeErrorTrace-style rendering can show both.
func Wrap(code Code, parent error, format string, args ...interface{}) *Error {
	e := New(code, format, args...)
	e.parent = parent
	return e
}

func (e *Error) capture(skip int) {
	pc := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pc)
	if n == 0 {
		return
	}
	frames := runtime.CallersFrames(pc[:n])
	for {
		f, more := frames.Next()
		e.frames = append(e.frames, fmt.Sprintf("%s:%d %s", f.File, f.Line, f.Function))
		if !more {
			break
		}
	}
}

// Code returns the taxonomy code of this error.
func (e *Error) Code() Code {
	return e.code
}

// CodeOf extracts the taxonomy code from err, or Unknown if err is nil or
// not one produced by this package.
func CodeOf(err error) Code {
	if re, ok := err.(*Error); ok {
		return re.code
	}
	return Unknown
}

// Fatal reports whether this error must end the session that produced it.
func (e *Error) Fatal() bool {
	return e.code.Fatal()
}

// Error implements the error interface. The message embeds the taxonomy
// slug so callers grepping logs can recognise the family at a glance.
func (e *Error) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("%s: %s (%s)", e.code, e.message, e.parent.Error())
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Unwrap allows errors.Is/errors.As to traverse into the parent cause.
func (e *Error) Unwrap() error {
	return e.parent
}

// Message returns the message without the taxonomy slug, as placed in the
// wire error frame's "message" field.
func (e *Error) Message() string {
	return e.message
}

// Traceback renders the captured stack as the slice of strings carried in
// the wire error frame's "traceback" field. Best-effort: truthful to what
// the process could capture, never a fabricated trace.
func (e *Error) Traceback() []string {
	if e.frames == nil {
		return []string{}
	}
	out := make([]string, len(e.frames))
	copy(out, e.frames)
	return out
}
