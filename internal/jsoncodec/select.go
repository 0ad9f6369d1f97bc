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

import (
	"os"
	"strings"
)

// FromEnv resolves the Codec named by the MSL_NETWORK_JSON environment
// variable. ORJSON/RAPIDJSON/SIMPLEJSON are accepted as aliases of UJSON
// since no second pure-JSON library beyond ugorji/go/codec is available
// in this rewrite's dependency set (see DESIGN.md). An unrecognised or
// empty value selects Builtin, matching the spec's documented default.
func FromEnv() (Codec, Backend) {
	return Select(Backend(strings.ToUpper(strings.TrimSpace(os.Getenv(EnvVar)))))
}

// Select resolves a named Backend to its Codec.
func Select(name Backend) (Codec, Backend) {
	switch name {
	case UJSON, ORJSON, RAPIDJSON, SIMPLEJSON:
		return Ugorji, UJSON
	case BUILTIN, "":
		return Builtin, BUILTIN
	default:
		return Builtin, BUILTIN
	}
}
