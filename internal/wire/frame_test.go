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

package wire_test

import (
	"bytes"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MSLNZ/msl-network/internal/jsoncodec"
	"github.com/MSLNZ/msl-network/internal/rpcerr"
	"github.com/MSLNZ/msl-network/internal/wire"
)

var _ = Describe("frame codec", func() {
	It("round trips a request through Writer/Reader", func() {
		var buf bytes.Buffer
		w := wire.NewWriter(&buf, jsoncodec.Builtin)
		req := wire.NewRequest("dmm", "measure", []interface{}{"AUTO"}, nil, "abc123")
		Expect(w.WriteFrame(req)).To(Succeed())
		Expect(buf.Bytes()).To(HaveSuffix("\r\n"))

		r := wire.NewReader(&buf, jsoncodec.Builtin, 0)
		got, err := r.ReadFrame()
		Expect(err).ToNot(HaveOccurred())
		Expect(got.Service).To(Equal("dmm"))
		Expect(got.Attribute).To(Equal("measure"))
		Expect(got.UID).To(Equal("abc123"))
		Expect(got.IsRequest()).To(BeTrue())
	})

	It("accepts a lone \\n terminator on input", func() {
		in := `{"attribute":"identity","uid":""}` + "\n"
		r := wire.NewReader(strings.NewReader(in), jsoncodec.Builtin, 0)
		env, err := r.ReadFrame()
		Expect(err).ToNot(HaveOccurred())
		Expect(env.Attribute).To(Equal("identity"))
	})

	It("reports io.EOF once the stream is drained", func() {
		r := wire.NewReader(strings.NewReader(""), jsoncodec.Builtin, 0)
		_, err := r.ReadFrame()
		Expect(err).To(Equal(io.EOF))
	})

	It("rejects a frame larger than the configured maximum", func() {
		huge := strings.Repeat("x", 100) + "\r\n"
		r := wire.NewReader(strings.NewReader(huge), jsoncodec.Builtin, 16)
		_, err := r.ReadLine()
		Expect(rpcerr.CodeOf(err)).To(Equal(rpcerr.FrameTooLarge))
	})

	It("classifies a reply/error/notification by field presence", func() {
		reply := wire.NewReply(42, "10.0.0.1:5555", "uid-1")
		Expect(reply.IsReplyOrError()).To(BeTrue())
		Expect(reply.IsRequest()).To(BeFalse())

		notif := wire.NewNotification("dmm", map[string]interface{}{"reading": 1.23})
		Expect(notif.IsNotification()).To(BeTrue())
		Expect(notif.IsReplyOrError()).To(BeFalse())

		errFrame := wire.NewError("boom", nil, "10.0.0.1:5555", "uid-2")
		Expect(errFrame.Error).To(BeTrue())
		Expect(errFrame.IsReplyOrError()).To(BeTrue())
	})
})
