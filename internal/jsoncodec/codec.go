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

// Package jsoncodec exposes a pluggable JSON backend behind a small
// Encode/Decode interface (spec §4.1, §9 "JSON backend plug-in"), selected
// at process start by the MSL_NETWORK_JSON environment variable (spec §6).
package jsoncodec

// Codec is the interface any JSON backend must satisfy. It mirrors the
// minimal {encode(value)->bytes, decode(bytes)->value} contract the spec
// calls for.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
}

// Backend names the selectable JSON implementations. BUILTIN is always
// the default (spec §9: "The default must be the standard library's JSON").
type Backend string

const (
	BUILTIN   Backend = "BUILTIN"
	UJSON     Backend = "UJSON"
	ORJSON    Backend = "ORJSON"
	RAPIDJSON Backend = "RAPIDJSON"
	SIMPLEJSON Backend = "SIMPLEJSON"
)

// EnvVar is the environment variable that selects the backend (spec §6).
const EnvVar = "MSL_NETWORK_JSON"
