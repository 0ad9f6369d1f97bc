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

package pending_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MSLNZ/msl-network/internal/pending"
	"github.com/MSLNZ/msl-network/internal/rpcerr"
)

var _ = Describe("Table", func() {
	var (
		tbl *pending.Table
		c   *fakeClient
	)

	BeforeEach(func() {
		tbl = pending.New()
		c = &fakeClient{addr: "10.0.0.2:6000"}
	})

	It("resolves a request back to the waiting client and clears the entry", func() {
		Expect(tbl.Open(c, "dmm", "uid-1")).To(Succeed())
		Expect(tbl.Len()).To(Equal(1))

		got, ok := tbl.Resolve(c.Address(), "uid-1")
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(ClientHandleEq(c)))
		Expect(tbl.Len()).To(Equal(0))
	})

	It("rejects a duplicate uid from the same client", func() {
		Expect(tbl.Open(c, "dmm", "uid-1")).To(Succeed())
		err := tbl.Open(c, "dmm", "uid-1")
		Expect(rpcerr.CodeOf(err)).To(Equal(rpcerr.DuplicateUID))
	})

	It("allows the same uid for different clients", func() {
		other := &fakeClient{addr: "10.0.0.3:7000"}
		Expect(tbl.Open(c, "dmm", "uid-1")).To(Succeed())
		Expect(tbl.Open(other, "dmm", "uid-1")).To(Succeed())
		Expect(tbl.Len()).To(Equal(2))
	})

	It("reports no match for an unknown (client, uid) pair", func() {
		_, ok := tbl.Resolve("nope", "uid-x")
		Expect(ok).To(BeFalse())
	})

	It("drops all entries for a departing client without synthesizing errors", func() {
		Expect(tbl.Open(c, "dmm", "uid-1")).To(Succeed())
		Expect(tbl.Open(c, "other", "uid-2")).To(Succeed())
		tbl.CancelForClient(c.Address())
		Expect(tbl.Len()).To(Equal(0))
		Expect(c.delivered).To(BeEmpty())
	})

	It("returns orphaned entries when a service disappears mid-flight", func() {
		other := &fakeClient{addr: "10.0.0.3:7000"}
		Expect(tbl.Open(c, "dmm", "uid-1")).To(Succeed())
		Expect(tbl.Open(other, "dmm", "uid-2")).To(Succeed())
		Expect(tbl.Open(c, "other-service", "uid-3")).To(Succeed())

		orphaned := tbl.CancelForService("dmm")
		Expect(orphaned).To(HaveLen(2))
		Expect(tbl.Len()).To(Equal(1))
	})
})

// ClientHandleEq exists only so Expect(got).To(Equal(...)) compares the
// fakeClient as a pending.ClientHandle, the type Resolve hands back.
func ClientHandleEq(c *fakeClient) pending.ClientHandle {
	return c
}
