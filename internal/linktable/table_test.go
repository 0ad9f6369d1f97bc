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

package linktable_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MSLNZ/msl-network/internal/identity"
	"github.com/MSLNZ/msl-network/internal/linktable"
	"github.com/MSLNZ/msl-network/internal/rpcerr"
)

var _ = Describe("Table", func() {
	var (
		tbl *linktable.Table
		svc fakeService
	)

	BeforeEach(func() {
		tbl = linktable.New()
		svc = fakeService{name: "dmm", addr: "10.0.0.1:5000", id: identity.NewService("dmm", nil, -1)}
	})

	It("rejects registering a duplicate service name", func() {
		Expect(tbl.Register(svc)).To(Succeed())
		err := tbl.Register(svc)
		Expect(err).To(HaveOccurred())
	})

	It("links a client and reports the service identity", func() {
		Expect(tbl.Register(svc)).To(Succeed())
		c := fakeClient{addr: "10.0.0.2:6000"}
		id, err := tbl.Link(c, "dmm")
		Expect(err).ToNot(HaveOccurred())
		Expect(id.Name).To(Equal("dmm"))
		Expect(tbl.IsLinked(c, "dmm")).To(BeTrue())
	})

	It("rejects linking to an unknown service", func() {
		_, err := tbl.Link(fakeClient{addr: "x"}, "nope")
		Expect(rpcerr.CodeOf(err)).To(Equal(rpcerr.NoSuchService))
	})

	It("enforces max_clients", func() {
		capped := fakeService{name: "capped", addr: "a", id: identity.NewService("capped", nil, 1)}
		Expect(tbl.Register(capped)).To(Succeed())

		_, err := tbl.Link(fakeClient{addr: "c1"}, "capped")
		Expect(err).ToNot(HaveOccurred())

		_, err = tbl.Link(fakeClient{addr: "c2"}, "capped")
		Expect(rpcerr.CodeOf(err)).To(Equal(rpcerr.MaxClientsReached))
	})

	It("allows unbounded clients when max_clients is -1", func() {
		Expect(tbl.Register(svc)).To(Succeed())
		for i := 0; i < 50; i++ {
			_, err := tbl.Link(fakeClient{addr: string(rune('a' + i))}, "dmm")
			Expect(err).ToNot(HaveOccurred())
		}
	})

	It("rejects an exclusive lock while other clients are linked", func() {
		Expect(tbl.Register(svc)).To(Succeed())
		holder := fakeClient{addr: "holder"}
		other := fakeClient{addr: "other"}
		_, err := tbl.Link(other, "dmm")
		Expect(err).ToNot(HaveOccurred())

		err = tbl.Lock(holder, "dmm", linktable.ModeExclusive)
		Expect(rpcerr.CodeOf(err)).To(Equal(rpcerr.LockedExclusive))
	})

	It("blocks new links while a service is exclusively locked by someone else", func() {
		Expect(tbl.Register(svc)).To(Succeed())
		holder := fakeClient{addr: "holder"}
		Expect(tbl.Lock(holder, "dmm", linktable.ModeExclusive)).To(Succeed())

		_, err := tbl.Link(fakeClient{addr: "intruder"}, "dmm")
		Expect(rpcerr.CodeOf(err)).To(Equal(rpcerr.LockedExclusive))
	})

	It("is idempotent when the same holder re-locks exclusively", func() {
		Expect(tbl.Register(svc)).To(Succeed())
		holder := fakeClient{addr: "holder"}
		Expect(tbl.Lock(holder, "dmm", linktable.ModeExclusive)).To(Succeed())
		Expect(tbl.Lock(holder, "dmm", linktable.ModeExclusive)).To(Succeed())
	})

	It("cascades Unregister to return the linked clients for fan-out", func() {
		Expect(tbl.Register(svc)).To(Succeed())
		c1 := fakeClient{addr: "c1"}
		c2 := fakeClient{addr: "c2"}
		_, _ = tbl.Link(c1, "dmm")
		_, _ = tbl.Link(c2, "dmm")

		linked := tbl.Unregister("dmm")
		Expect(linked).To(HaveLen(2))

		_, ok := tbl.Lookup("dmm")
		Expect(ok).To(BeFalse())
	})

	It("UnlinkAll releases every link and lock a client held", func() {
		other := fakeService{name: "other", addr: "b", id: identity.NewService("other", nil, -1)}
		Expect(tbl.Register(svc)).To(Succeed())
		Expect(tbl.Register(other)).To(Succeed())

		c := fakeClient{addr: "c"}
		_, _ = tbl.Link(c, "dmm")
		Expect(tbl.Lock(c, "other", linktable.ModeShared)).To(Succeed())

		touched := tbl.UnlinkAll(c)
		Expect(touched).To(ConsistOf("dmm", "other"))
		Expect(tbl.IsLinked(c, "dmm")).To(BeFalse())
	})

	It("lists services sorted by name with lock/link counts", func() {
		a := fakeService{name: "zzz", addr: "a", id: identity.NewService("zzz", nil, -1)}
		b := fakeService{name: "aaa", addr: "b", id: identity.NewService("aaa", nil, -1)}
		Expect(tbl.Register(a)).To(Succeed())
		Expect(tbl.Register(b)).To(Succeed())

		snaps := tbl.ListServices()
		Expect(snaps).To(HaveLen(2))
		Expect(snaps[0].Name).To(Equal("aaa"))
		Expect(snaps[1].Name).To(Equal("zzz"))
	})
})
