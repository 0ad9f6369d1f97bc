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

import (
	"bufio"
	"errors"
	"io"

	"github.com/MSLNZ/msl-network/internal/jsoncodec"
	"github.com/MSLNZ/msl-network/internal/rpcerr"
)

// DefaultMaxFrameSize is the default read limit for a single frame (spec
// §4.1: "a configurable read limit (default large, e.g. 64 MiB)").
const DefaultMaxFrameSize = 64 * 1024 * 1024

// terminator is always emitted on output (spec §9 Open Question: "always
// emit \r\n" is the recommended, adopted behavior).
var terminator = []byte("\r\n")

// ErrClosed reports a closed frame reader. Reader itself does not return
// it: ReadFrame and ReadLine report a closed, fully drained stream as io.EOF.
var ErrClosed = errors.New("wire: frame reader closed")

// Reader decodes a byte stream into a sequence of complete frames,
// tolerating a lone "\n" terminator for backward compatibility (spec
// §4.1) and enforcing a configurable maximum frame size.
type Reader struct {
	scanner *bufio.Scanner
	codec   jsoncodec.Codec
}

// NewReader wraps r with a frame-oriented reader. maxFrame <= 0 selects
// DefaultMaxFrameSize.
func NewReader(r io.Reader, codec jsoncodec.Codec, maxFrame int) *Reader {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	s := bufio.NewScanner(r)
	initial := 4096
	if maxFrame < initial {
		initial = maxFrame
	}
	s.Buffer(make([]byte, initial), maxFrame)
	s.Split(splitOnTerminator)
	return &Reader{scanner: s, codec: codec}
}

// splitOnTerminator is a bufio.SplitFunc that yields tokens delimited by
// either "\r\n" or a lone "\n" (spec §4.1 backward compatibility note).
func splitOnTerminator(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := indexByte(data, '\n'); i >= 0 {
		end := i
		if end > 0 && data[end-1] == '\r' {
			end--
		}
		return i + 1, data[:end], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// ReadLine returns the next raw, terminator-stripped line, or io.EOF when
// the stream ended cleanly, or an *rpcerr.Error with code FrameTooLarge on
// a protocol violation. Used directly during the identify-pending
// handshake step, which must accept either a JSON identity object or a
// terminal shortcut line (spec §4.2 step 3) before any JSON decoding is
// attempted.
func (r *Reader) ReadLine() ([]byte, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return nil, rpcerr.New(rpcerr.FrameTooLarge, "frame exceeds maximum size")
			}
			return nil, err
		}
		return nil, io.EOF
	}

	tok := r.scanner.Bytes()
	if len(tok) == 0 {
		// Blank line: ignore and recurse for the next token.
		return r.ReadLine()
	}
	out := make([]byte, len(tok))
	copy(out, tok)
	return out, nil
}

// ReadFrame returns the next decoded envelope, or io.EOF when the stream
// ended cleanly, or an *rpcerr.Error with code FrameTooLarge/BadJSON on a
// protocol violation.
func (r *Reader) ReadFrame() (*Envelope, error) {
	tok, err := r.ReadLine()
	if err != nil {
		return nil, err
	}

	env := &Envelope{}
	if err := r.codec.Decode(tok, env); err != nil {
		return nil, rpcerr.Wrap(rpcerr.BadJSON, err, "malformed JSON frame")
	}
	return env, nil
}

// Writer encodes envelopes and terminates each with "\r\n", regardless of
// which terminator the peer used on input (spec §9 Open Question).
type Writer struct {
	w     io.Writer
	codec jsoncodec.Codec
}

// NewWriter wraps w with a frame-oriented writer.
func NewWriter(w io.Writer, codec jsoncodec.Codec) *Writer {
	return &Writer{w: w, codec: codec}
}

// WriteFrame encodes env as JSON and appends the terminator in a single
// Write call, so interleaved writers on the same connection cannot tear a
// frame in half.
func (w *Writer) WriteFrame(env *Envelope) error {
	b, err := w.codec.Encode(env)
	if err != nil {
		return rpcerr.Wrap(rpcerr.BadJSON, err, "failed to encode frame")
	}
	buf := make([]byte, 0, len(b)+len(terminator))
	buf = append(buf, b...)
	buf = append(buf, terminator...)
	_, err = w.w.Write(buf)
	return err
}
