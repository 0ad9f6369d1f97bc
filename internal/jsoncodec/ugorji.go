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

package jsoncodec

import "github.com/ugorji/go/codec"

type ugorjiCodec struct {
	h *codec.JsonHandle
}

// Ugorji is the UJSON backend, a higher-throughput alternative to
// encoding/json for large payloads (spec §6 MSL_NETWORK_JSON=UJSON).
var Ugorji Codec = newUgorji()

func newUgorji() Codec {
	h := &codec.JsonHandle{}
	h.Canonical = false
	return &ugorjiCodec{h: h}
}

func (u *ugorjiCodec) Encode(v interface{}) ([]byte, error) {
	var out []byte
	enc := codec.NewEncoderBytes(&out, u.h)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *ugorjiCodec) Decode(data []byte, v interface{}) error {
	dec := codec.NewDecoderBytes(data, u.h)
	return dec.Decode(v)
}
