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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MSLNZ/msl-network/internal/wire"
)

var _ = Describe("terminal shortcut parsing", func() {
	It("parses a bare client identity line", func() {
		sc, ok := wire.ParseIdentityShortcut("client")
		Expect(ok).To(BeTrue())
		Expect(sc.Kind).To(Equal(wire.ShortcutIdentityClient))
		Expect(sc.Name).To(BeEmpty())
	})

	It("parses a named client identity line", func() {
		sc, ok := wire.ParseIdentityShortcut("client my laptop")
		Expect(ok).To(BeTrue())
		Expect(sc.Name).To(Equal("my laptop"))
	})

	It("parses a service identity line", func() {
		sc, ok := wire.ParseIdentityShortcut("service dmm")
		Expect(ok).To(BeTrue())
		Expect(sc.Kind).To(Equal(wire.ShortcutIdentityService))
		Expect(sc.Name).To(Equal("dmm"))
	})

	It("rejects a bare service line with no name", func() {
		_, ok := wire.ParseIdentityShortcut("service")
		Expect(ok).To(BeFalse())
	})

	It("parses a request shortcut with positional and keyword args", func() {
		sc, ok := wire.ParseRequestShortcut("dmm measure AUTO range=10")
		Expect(ok).To(BeTrue())
		Expect(sc.Kind).To(Equal(wire.ShortcutRequest))
		Expect(sc.Service).To(Equal("dmm"))
		Expect(sc.Attribute).To(Equal("measure"))
		Expect(sc.Args).To(ConsistOf("AUTO"))
		Expect(sc.Kwargs).To(HaveKeyWithValue("range", "10"))
	})

	It("parses disconnect and exit as the disconnect shortcut", func() {
		for _, line := range []string{"disconnect", "exit", "EXIT"} {
			sc, ok := wire.ParseRequestShortcut(line)
			Expect(ok).To(BeTrue())
			Expect(sc.Kind).To(Equal(wire.ShortcutDisconnect))
		}
	})

	It("parses bare identity as the Manager identity admin shortcut", func() {
		sc, ok := wire.ParseRequestShortcut("identity")
		Expect(ok).To(BeTrue())
		Expect(sc.Service).To(Equal(wire.ManagerService))
		Expect(sc.Attribute).To(Equal("identity"))
	})

	It("renders a shortcut into the JSON request envelope", func() {
		sc, _ := wire.ParseRequestShortcut("dmm measure")
		env := sc.ToEnvelope("uid-7")
		Expect(env.Service).To(Equal("dmm"))
		Expect(env.UID).To(Equal("uid-7"))
		Expect(env.IsRequest()).To(BeTrue())
	})
})
