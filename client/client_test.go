package client_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/EtayOfir/bistro/client"
	"github.com/EtayOfir/bistro/transport"
)

// fakeTransport lets tests play the server: deliver() acts as the
// transport's read goroutine.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
	closed  bool
	handler transport.Handler
}

func (f *fakeTransport) Connect(ctx context.Context, h transport.Handler) error {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()

	h.OnConnected()
	return nil
}

func (f *fakeTransport) SendLine(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}

	f.sent = append(f.sent, line)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	return nil
}

func (f *fakeTransport) deliver(line string) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()

	h.OnLine(line)
}

func (f *fakeTransport) sentLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, len(f.sent))
	copy(lines, f.sent)

	return lines
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

func makeClient(options ...client.Option) (*client.Client, *fakeTransport) {
	ft := &fakeTransport{}
	c := client.New(ft, zap.NewNop(), options...)

	Expect(c.Connect(context.Background())).To(Succeed())

	return c, ft
}

var _ = Describe("Client", func() {
	Describe("SendCommand()", func() {
		It("transmits the line verbatim and returns immediately", func() {
			c, ft := makeClient()

			Expect(c.SendCommand("#SUBSCRIBE_WAITING_LIST")).To(Succeed())
			Expect(ft.sentLines()).To(Equal([]string{"#SUBSCRIBE_WAITING_LIST"}))
		})

		It("treats a send failure as terminal and closes the connection", func() {
			c, ft := makeClient()
			ft.sendErr = errors.New("broken pipe")

			err := c.SendCommand("#QUIT")
			Expect(err).To(HaveOccurred())
			Expect(ft.isClosed()).To(BeTrue())
		})
	})

	Describe("SendAndAwaitReply()", func() {
		It("returns the exact text of the next inbound line", func() {
			c, ft := makeClient()

			done := make(chan string, 1)
			go func() {
				defer GinkgoRecover()

				reply, err := c.SendAndAwaitReply(context.Background(), "#LOGIN dana hunter2")
				Expect(err).To(Succeed())
				done <- reply
			}()

			// Wait until the command went out, then answer it.
			Eventually(ft.sentLines).Should(ContainElement("#LOGIN dana hunter2"))
			ft.deliver("LOGIN_SUCCESS|HOST")

			Eventually(done).Should(Receive(Equal("LOGIN_SUCCESS|HOST")))
		})

		It("receives a line delivered before the wait begins (no lost wakeup)", func() {
			c, ft := makeClient()

			ft.deliver("LOGIN_SUCCESS|HOST")

			reply, err := c.SendAndAwaitReply(context.Background(), "#LOGIN dana hunter2")
			Expect(err).To(Succeed())
			Expect(reply).To(Equal("LOGIN_SUCCESS|HOST"))
		})

		It("clears the slot on read: a second call blocks instead of returning stale data", func() {
			c, ft := makeClient()

			ft.deliver("LOGIN_SUCCESS|HOST")

			_, err := c.SendAndAwaitReply(context.Background(), "#LOGIN dana hunter2")
			Expect(err).To(Succeed())

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err = c.SendAndAwaitReply(ctx, "#GET_WAITING_LIST")
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})

		It("returns only the last line of a burst that arrived before the read", func() {
			c, ft := makeClient()

			ft.deliver("WAITING_LIST|EMPTY")
			ft.deliver("WAITING_ADDED|482913")

			reply, err := c.SendAndAwaitReply(context.Background(), "#GET_WAITING_LIST")
			Expect(err).To(Succeed())
			Expect(reply).To(Equal("WAITING_ADDED|482913"))
		})

		It("honours context cancellation while waiting", func() {
			c, _ := makeClient()

			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() {
				_, err := c.SendAndAwaitReply(ctx, "#GET_WAITING_LIST")
				done <- err
			}()

			// Let the waiter park first.
			Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

			cancel()
			Eventually(done).Should(Receive(MatchError(context.Canceled)))
		})

		It("wakes with an error when the connection drops mid-wait", func() {
			c, ft := makeClient()

			done := make(chan error, 1)
			go func() {
				_, err := c.SendAndAwaitReply(context.Background(), "#GET_WAITING_LIST")
				done <- err
			}()

			Eventually(ft.sentLines).Should(ContainElement("#GET_WAITING_LIST"))
			ft.handler.OnDisconnected()

			Eventually(done).Should(Receive(MatchError(client.ErrClosed)))
		})
	})

	Describe("OnLine()", func() {
		It("delivers a line that satisfies a wait to the matching push handler too", func() {
			// Replies and pushes are indistinguishable on this wire, so a
			// line consumed by a waiter must still reach the open screen.
			c, ft := makeClient()

			pushed := make(chan string, 1)
			c.Register("WAITING_LIST", func(rawLine string) { pushed <- rawLine })

			done := make(chan string, 1)
			go func() {
				defer GinkgoRecover()

				reply, err := c.SendAndAwaitReply(context.Background(), "#GET_WAITING_LIST")
				Expect(err).To(Succeed())
				done <- reply
			}()

			Eventually(ft.sentLines).Should(ContainElement("#GET_WAITING_LIST"))
			ft.deliver("WAITING_LIST|EMPTY")

			Eventually(done).Should(Receive(Equal("WAITING_LIST|EMPTY")))
			Eventually(pushed).Should(Receive(Equal("WAITING_LIST|EMPTY")))
		})

		It("routes unmatched lines to the fallback handler", func() {
			fallback := make(chan string, 1)

			c, ft := makeClient(client.WithFallbackHandler(func(rawLine string) {
				fallback <- rawLine
			}))

			c.Register("WAITING_LIST", func(string) { Fail("should not be called") })
			ft.deliver("MOTD|welcome to the bistro")

			Eventually(fallback).Should(Receive(Equal("MOTD|welcome to the bistro")))
		})

		It("keeps offering every line of a burst to the registry", func() {
			c, ft := makeClient()

			var mu sync.Mutex
			var seen []string
			c.Register("WAITING_LIST", func(rawLine string) {
				mu.Lock()
				seen = append(seen, rawLine)
				mu.Unlock()
			})

			ft.deliver("WAITING_LIST|EMPTY")
			ft.deliver("WAITING_LIST|1,TmFtZT1Kb2hu,2,482913,,Waiting,")

			mu.Lock()
			defer mu.Unlock()
			Expect(seen).To(HaveLen(2))
		})
	})

	Describe("lifecycle", func() {
		It("forwards connection events to the registered observer", func() {
			ft := &fakeTransport{}
			c := client.New(ft, zap.NewNop())

			observer := &recordingObserver{}
			c.SetLifecycleObserver(observer)

			Expect(c.Connect(context.Background())).To(Succeed())
			ft.handler.OnConnectionError(errors.New("reset by peer"))
			ft.handler.OnDisconnected()

			Expect(observer.connects).To(Equal(1))
			Expect(observer.errors).To(Equal(1))
			Expect(observer.disconnects).To(Equal(1))
		})

		It("closes the transport exactly once even when closed twice", func() {
			c, ft := makeClient()

			Expect(c.Close()).To(Succeed())
			Expect(c.Close()).To(Succeed())
			Expect(ft.isClosed()).To(BeTrue())
		})
	})
})

type recordingObserver struct {
	connects    int
	disconnects int
	errors      int
}

func (r *recordingObserver) OnConnected()            { r.connects++ }
func (r *recordingObserver) OnDisconnected()         { r.disconnects++ }
func (r *recordingObserver) OnConnectionError(error) { r.errors++ }
