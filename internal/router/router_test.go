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

package router_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MSLNZ/msl-network/internal/identity"
	"github.com/MSLNZ/msl-network/internal/linktable"
	"github.com/MSLNZ/msl-network/internal/pending"
	"github.com/MSLNZ/msl-network/internal/router"
	"github.com/MSLNZ/msl-network/internal/wire"
)

var _ = Describe("Router", func() {
	var (
		links  *linktable.Table
		pend   *pending.Table
		r      *router.Router
		client *fakeClient
		svc    *fakeService
	)

	BeforeEach(func() {
		links = linktable.New()
		pend = pending.New()
		r = router.New(links, pend)

		client = &fakeClient{addr: "10.0.0.2:6000"}
		svc = &fakeService{name: "dmm", addr: "10.0.0.1:5000", id: identity.NewService("dmm", nil, -1)}
		Expect(links.Register(svc)).To(Succeed())
	})

	Describe("DispatchClient", func() {
		It("rejects a notification sent by a client", func() {
			env := wire.NewNotification("dmm", 1)
			Expect(r.DispatchClient(context.Background(), client, env)).To(Succeed())
			Expect(client.received).To(HaveLen(1))
			Expect(client.received[0].Error).To(BeTrue())
			Expect(client.received[0].Message).To(ContainSubstring("notifications"))
		})

		It("routes Manager-addressed requests through the admin table", func() {
			called := false
			r.Handle("identity", func(ctx context.Context, from router.ClientSession, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
				called = true
				return "manager", nil
			})

			env := wire.NewRequest(wire.ManagerService, "identity", nil, nil, "uid-1")
			Expect(r.DispatchClient(context.Background(), client, env)).To(Succeed())
			Expect(called).To(BeTrue())
			Expect(client.received).To(HaveLen(1))
			Expect(client.received[0].Result).To(Equal("manager"))
		})

		It("errors on an unknown Manager attribute", func() {
			env := wire.NewRequest(wire.ManagerService, "nope", nil, nil, "uid-1")
			Expect(r.DispatchClient(context.Background(), client, env)).To(Succeed())
			Expect(client.received[0].Error).To(BeTrue())
			Expect(client.received[0].Message).To(ContainSubstring("unknown manager attribute"))
		})

		It("rejects a service request from a client that is not linked", func() {
			env := wire.NewRequest("dmm", "measure", nil, nil, "uid-1")
			Expect(r.DispatchClient(context.Background(), client, env)).To(Succeed())
			Expect(client.received[0].Error).To(BeTrue())
			Expect(client.received[0].Message).To(ContainSubstring("not linked"))
		})

		It("forwards a linked client's request to the service and opens a pending entry", func() {
			_, err := links.Link(router.ClientRef{ClientSession: client}, "dmm")
			Expect(err).ToNot(HaveOccurred())

			env := wire.NewRequest("dmm", "measure", []interface{}{"AUTO"}, nil, "uid-1")
			Expect(r.DispatchClient(context.Background(), client, env)).To(Succeed())

			Expect(svc.received).To(HaveLen(1))
			Expect(svc.received[0].Attribute).To(Equal("measure"))
			Expect(svc.received[0].Requester).To(Equal(client.Address()))
			Expect(pend.Len()).To(Equal(1))
		})

		It("errors for a request to an unregistered service name", func() {
			env := wire.NewRequest("ghost", "measure", nil, nil, "uid-1")
			Expect(r.DispatchClient(context.Background(), client, env)).To(Succeed())
			Expect(client.received[0].Error).To(BeTrue())
			Expect(client.received[0].Message).To(ContainSubstring("not linked"))
		})
	})

	Describe("DispatchService", func() {
		It("resolves a reply back to the waiting client", func() {
			_, err := links.Link(router.ClientRef{ClientSession: client}, "dmm")
			Expect(err).ToNot(HaveOccurred())

			req := wire.NewRequest("dmm", "measure", nil, nil, "uid-1")
			Expect(r.DispatchClient(context.Background(), client, req)).To(Succeed())
			Expect(pend.Len()).To(Equal(1))

			reply := wire.NewReply(3.14, client.Address(), "uid-1")
			Expect(r.DispatchService(svc, reply)).To(Succeed())

			Expect(client.received).To(HaveLen(1))
			Expect(client.received[0].Result).To(Equal(3.14))
			Expect(pend.Len()).To(Equal(0))
		})

		It("silently drops a reply with no matching pending entry", func() {
			reply := wire.NewReply(1, "nobody", "uid-ghost")
			Expect(r.DispatchService(svc, reply)).To(Succeed())
		})

		It("fans a notification out to every linked client", func() {
			other := &fakeClient{addr: "10.0.0.3:7000"}
			_, _ = links.Link(router.ClientRef{ClientSession: client}, "dmm")
			_, _ = links.Link(router.ClientRef{ClientSession: other}, "dmm")

			note := wire.NewNotification("dmm", 42)
			Expect(r.DispatchService(svc, note)).To(Succeed())

			Expect(client.received).To(HaveLen(1))
			Expect(other.received).To(HaveLen(1))
			Expect(client.received[0].IsNotification()).To(BeTrue())
		})
	})

	Describe("ServiceGone", func() {
		It("synthesizes a service-gone error for every orphaned pending request", func() {
			_, err := links.Link(router.ClientRef{ClientSession: client}, "dmm")
			Expect(err).ToNot(HaveOccurred())

			req := wire.NewRequest("dmm", "measure", nil, nil, "uid-1")
			Expect(r.DispatchClient(context.Background(), client, req)).To(Succeed())
			Expect(pend.Len()).To(Equal(1))

			r.ServiceGone("dmm")

			Expect(pend.Len()).To(Equal(0))
			Expect(client.received).To(HaveLen(1))
			Expect(client.received[0].Error).To(BeTrue())
			Expect(client.received[0].Message).To(ContainSubstring("disconnected"))
		})
	})
})
