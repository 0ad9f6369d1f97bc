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

package manager_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/MSLNZ/msl-network/internal/wire"
)

var _ = Describe("Manager", func() {
	var stop func()
	var addr string

	AfterEach(func() {
		if stop != nil {
			stop()
		}
	})

	// S1: a Client links to a Service and a round-trip request/reply
	// completes end to end through the real handshake and router.
	It("routes a Client request to a linked Service and the reply back", func() {
		_, a, s := startManager()
		addr, stop = a, s

		svc := dialAndIdentify(addr, "service dmm")
		defer svc.close()

		cli := dialAndIdentify(addr, "client")
		defer cli.close()

		cli.send(wire.NewRequest(wire.ManagerService, "link", []interface{}{"dmm"}, nil, "link-1"))
		linkReply := cli.recv()
		Expect(linkReply.Error).To(BeFalse())

		cli.send(wire.NewRequest("dmm", "measure", []interface{}{"AUTO"}, nil, "req-1"))

		forwarded := svc.recv()
		Expect(forwarded.Service).To(Equal("dmm"))
		Expect(forwarded.Attribute).To(Equal("measure"))
		Expect(forwarded.UID).To(Equal("req-1"))

		svc.send(wire.NewReply(3.14, forwarded.Requester, forwarded.UID))

		reply := cli.recv()
		Expect(reply.Error).To(BeFalse())
		Expect(reply.Result).To(Equal(3.14))
	})

	// S2: a request to a Service name nobody has registered is rejected
	// without ever reaching a Service connection.
	It("rejects a request to an unknown Service", func() {
		_, a, s := startManager()
		addr, stop = a, s

		cli := dialAndIdentify(addr, "client")
		defer cli.close()

		cli.send(wire.NewRequest("ghost", "measure", nil, nil, "req-1"))
		reply := cli.recv()
		Expect(reply.Error).To(BeTrue())
	})

	// S3: max_clients is enforced across real connections, once the
	// Service announces its own identity with a bound via the full JSON
	// identity object (the terminal shortcut form has no slot for it).
	It("enforces a Service's own max_clients across linked Clients", func() {
		_, a, s := startManager()
		addr, stop = a, s

		svc := dialAndIdentifyJSON(addr, map[string]interface{}{
			"type": "service", "name": "capped", "max_clients": 1,
		})
		defer svc.close()

		c1 := dialAndIdentify(addr, "client")
		defer c1.close()
		c2 := dialAndIdentify(addr, "client")
		defer c2.close()

		c1.send(wire.NewRequest(wire.ManagerService, "link", []interface{}{"capped"}, nil, "l1"))
		Expect(c1.recv().Error).To(BeFalse())

		c2.send(wire.NewRequest(wire.ManagerService, "link", []interface{}{"capped"}, nil, "l2"))
		Expect(c2.recv().Error).To(BeTrue())
	})

	// S5: a Service disconnecting mid-flight resolves the waiting Client's
	// pending request with a synthetic error instead of hanging forever.
	It("resolves an in-flight request with a service-gone error when the Service disconnects", func() {
		_, a, s := startManager()
		addr, stop = a, s

		svc := dialAndIdentify(addr, "service dmm")

		cli := dialAndIdentify(addr, "client")
		defer cli.close()

		cli.send(wire.NewRequest(wire.ManagerService, "link", []interface{}{"dmm"}, nil, "link-1"))
		Expect(cli.recv().Error).To(BeFalse())

		cli.send(wire.NewRequest("dmm", "measure", nil, nil, "req-1"))
		_ = svc.recv() // the forwarded request; never answered.

		svc.close()

		reply := cli.recv()
		Expect(reply.Error).To(BeTrue())
		Expect(reply.Message).To(ContainSubstring("disconnected"))
	})

	// S6: shutdown_manager moves the Manager into draining, where new
	// Client requests are rejected but the Manager still answers the
	// shutdown call itself; an in-flight request keeps draining from
	// forcing every socket closed until it is resolved.
	It("rejects new requests once shutdown_manager has been invoked", func() {
		_, a, s := startManager()
		addr, stop = a, s

		svc := dialAndIdentify(addr, "service dmm")

		c1 := dialAndIdentify(addr, "client")
		c1.send(wire.NewRequest(wire.ManagerService, "link", []interface{}{"dmm"}, nil, "link-1"))
		Expect(c1.recv().Error).To(BeFalse())
		c1.send(wire.NewRequest("dmm", "measure", nil, nil, "req-in-flight"))
		forwarded := svc.recv()

		c2 := dialAndIdentify(addr, "client")
		defer c2.close()

		c2.send(wire.NewRequest(wire.ManagerService, "shutdown_manager", nil, nil, "shutdown-1"))
		Expect(c2.recv().Error).To(BeFalse())

		c2.send(wire.NewRequest("dmm", "measure", nil, nil, "req-after-drain"))
		reply := c2.recv()
		Expect(reply.Error).To(BeTrue())

		// Resolve the in-flight request so drain completes without waiting
		// out its full timeout.
		svc.send(wire.NewReply(1, forwarded.Requester, forwarded.UID))
		Expect(c1.recv().Error).To(BeFalse())

		svc.close()
		c1.close()
	})

	// S4: a Service notification fans out to every Client currently linked
	// to it, each receiving exactly one copy.
	It("fans a Service notification out to every linked Client", func() {
		_, a, s := startManager()
		addr, stop = a, s

		svc := dialAndIdentify(addr, "service dmm")
		defer svc.close()

		c1 := dialAndIdentify(addr, "client")
		defer c1.close()
		c2 := dialAndIdentify(addr, "client")
		defer c2.close()

		c1.send(wire.NewRequest(wire.ManagerService, "link", []interface{}{"dmm"}, nil, "l1"))
		Expect(c1.recv().Error).To(BeFalse())
		c2.send(wire.NewRequest(wire.ManagerService, "link", []interface{}{"dmm"}, nil, "l2"))
		Expect(c2.recv().Error).To(BeFalse())

		svc.send(wire.NewNotification("dmm", 42.0))

		n1 := c1.recv()
		Expect(n1.IsNotification()).To(BeTrue())
		Expect(n1.Result).To(Equal(42.0))

		n2 := c2.recv()
		Expect(n2.IsNotification()).To(BeTrue())
		Expect(n2.Result).To(Equal(42.0))
	})

	// TLS variant of S1: the same Client-links-to-Service round trip, this
	// time with the listener TLS-terminated (spec §4.2 steps 1-2).
	It("routes a request to a reply over a TLS-terminated connection", func() {
		_, a, clientTLS, s := startManagerTLS()
		addr, stop = a, s

		svc := dialAndIdentifyTLS(addr, "service dmm", clientTLS)
		defer svc.close()

		cli := dialAndIdentifyTLS(addr, "client", clientTLS)
		defer cli.close()

		cli.send(wire.NewRequest(wire.ManagerService, "link", []interface{}{"dmm"}, nil, "link-1"))
		Expect(cli.recv().Error).To(BeFalse())

		cli.send(wire.NewRequest("dmm", "measure", []interface{}{"AUTO"}, nil, "req-1"))
		forwarded := svc.recv()
		Expect(forwarded.Attribute).To(Equal("measure"))

		svc.send(wire.NewReply(3.14, forwarded.Requester, forwarded.UID))

		reply := cli.recv()
		Expect(reply.Error).To(BeFalse())
		Expect(reply.Result).To(Equal(3.14))
	})

	Describe("AuthLogin", func() {
		// spec §4.2 step 4, login mode: a correct username/password round
		// trip escalates the peer to admin and unblocks steady-state
		// requests.
		It("admits the peer after a correct username/password round trip", func() {
			_, a, s := startManagerLogin("alice", "hunter2")
			addr, stop = a, s

			cli := dialAndIdentify(addr, "client")
			defer cli.close()

			cli.answerLoginPrompt("alice")
			cli.answerLoginPrompt("hunter2")

			cli.send(wire.NewRequest(wire.ManagerService, "identity", nil, nil, "req-1"))
			reply := cli.recv()
			Expect(reply.Error).To(BeFalse())
		})

		// spec §4.2 step 4: "Three failures -> closed with auth-error."
		It("closes the session with auth-error after three failed attempts", func() {
			_, a, s := startManagerLogin("alice", "hunter2")
			addr, stop = a, s

			cli := dialAndIdentify(addr, "client")
			defer cli.close()

			for attempt := 0; attempt < 3; attempt++ {
				cli.answerLoginPrompt("alice")
				cli.answerLoginPrompt("wrong-password")

				rejected := cli.recv()
				Expect(rejected.Error).To(BeTrue())
			}

			_, err := cli.reader.ReadFrame()
			Expect(err).To(HaveOccurred())
		})
	})
})
