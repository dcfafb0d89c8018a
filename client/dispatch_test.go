package client_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/EtayOfir/bistro/client"
)

var _ = Describe("Registry", func() {
	It("dispatches a line to the handler registered under it's prefix", func() {
		registry := client.NewRegistry()

		var got string
		registry.Register("WAITING_LIST", func(rawLine string) { got = rawLine })

		Expect(registry.Dispatch("WAITING_LIST|EMPTY")).To(BeTrue())
		Expect(got).To(Equal("WAITING_LIST|EMPTY"))
	})

	It("does not deliver to handlers registered under other prefixes", func() {
		registry := client.NewRegistry()

		var waitingCalls, subscriberCalls int
		registry.Register("WAITING_LIST", func(string) { waitingCalls++ })
		registry.Register("SUBSCRIBERS_LIST", func(string) { subscriberCalls++ })

		registry.Dispatch("WAITING_LIST|EMPTY")

		Expect(waitingCalls).To(Equal(1))
		Expect(subscriberCalls).To(Equal(0))
	})

	It("replaces the prior handler when a prefix is registered again", func() {
		registry := client.NewRegistry()

		var first, second int
		registry.Register("ERROR", func(string) { first++ })
		registry.Register("ERROR", func(string) { second++ })

		registry.Dispatch("ERROR|nope")

		Expect(first).To(Equal(0))
		Expect(second).To(Equal(1))
	})

	It("is a no-op for a line with no registered handler", func() {
		registry := client.NewRegistry()
		registry.Register("WAITING_LIST", func(string) { Fail("should not be called") })

		Expect(registry.Dispatch("SOMETHING_ELSE|hi")).To(BeFalse())
	})

	It("stops dispatching after unregister", func() {
		registry := client.NewRegistry()

		calls := 0
		registry.Register("WAITING_LIST", func(string) { calls++ })
		registry.Unregister("WAITING_LIST")

		Expect(registry.Dispatch("WAITING_LIST|EMPTY")).To(BeFalse())
		Expect(calls).To(Equal(0))
	})

	It("matches bodyless signals by exact full-line prefix", func() {
		registry := client.NewRegistry()

		var got string
		registry.Register("UPDATE_SUBSCRIBER_SUCCESS", func(rawLine string) { got = rawLine })

		Expect(registry.Dispatch("UPDATE_SUBSCRIBER_SUCCESS")).To(BeTrue())
		Expect(got).To(Equal("UPDATE_SUBSCRIBER_SUCCESS"))
	})

	It("evaluates entries in registration order, first match wins", func() {
		registry := client.NewRegistry()

		var got string
		registry.Register("LOGIN", func(string) { got = "short" })
		registry.Register("LOGIN_FAILED", func(string) { got = "long" })

		registry.Dispatch("LOGIN_FAILED|wrong password")

		Expect(got).To(Equal("short"))
	})

	It("lets a handler re-register from inside dispatch", func() {
		registry := client.NewRegistry()

		calls := 0
		registry.Register("ERROR", func(string) {
			calls++
			registry.Unregister("ERROR")
		})

		Expect(func() { registry.Dispatch("ERROR|boom") }).NotTo(Panic())
		Expect(registry.Dispatch("ERROR|boom")).To(BeFalse())
		Expect(calls).To(Equal(1))
	})
})
