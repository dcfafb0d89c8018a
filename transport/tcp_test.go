package transport_test

import (
	"bufio"
	"context"
	"net"
	"time"

	reuseport "github.com/kavu/go_reuseport"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/EtayOfir/bistro/transport"
)

// recordingHandler collects everything the transport delivers so specs can
// assert on it asynchronously.
type recordingHandler struct {
	lines        chan string
	connected    chan struct{}
	disconnected chan struct{}
	errs         chan error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		lines:        make(chan string, 16),
		connected:    make(chan struct{}, 1),
		disconnected: make(chan struct{}, 1),
		errs:         make(chan error, 1),
	}
}

func (r *recordingHandler) OnLine(line string)          { r.lines <- line }
func (r *recordingHandler) OnConnected()                { r.connected <- struct{}{} }
func (r *recordingHandler) OnDisconnected()             { r.disconnected <- struct{}{} }
func (r *recordingHandler) OnConnectionError(err error) { r.errs <- err }

// makeStubServer listens like the real Bistro server would and hands the
// spec it's side of the first accepted connection.
func makeStubServer() (net.Listener, chan net.Conn) {
	listener, err := reuseport.Listen("tcp", "127.0.0.1:6683")
	Expect(err).To(Succeed())

	conns := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		conns <- conn
	}()

	return listener, conns
}

func makeTCP() *transport.TCP {
	log, err := zap.NewDevelopment()
	Expect(err).To(Succeed())

	return transport.NewTCP(transport.Options{
		Host:        "127.0.0.1",
		Port:        6683,
		DialTimeout: 3 * time.Second,
		Log:         log,
	})
}

var _ = Describe("transport", func() {
	Describe("TCP", func() {
		It("connects and notifies the handler", func() {
			listener, conns := makeStubServer()
			defer listener.Close()

			handler := newRecordingHandler()
			tcp := makeTCP()

			Expect(tcp.Connect(context.Background(), handler)).To(Succeed())
			defer func() {
				Expect(tcp.Close()).To(Succeed())
			}()

			Eventually(handler.connected).Should(Receive())
			Eventually(conns).Should(Receive())
		})

		It("refuses a second connect", func() {
			listener, _ := makeStubServer()
			defer listener.Close()

			handler := newRecordingHandler()
			tcp := makeTCP()

			Expect(tcp.Connect(context.Background(), handler)).To(Succeed())
			defer tcp.Close()

			Expect(tcp.Connect(context.Background(), handler)).To(MatchError(transport.ErrAlreadyConnected))
		})

		It("delivers inbound lines with the optional trailing CR stripped", func() {
			listener, conns := makeStubServer()
			defer listener.Close()

			handler := newRecordingHandler()
			tcp := makeTCP()

			Expect(tcp.Connect(context.Background(), handler)).To(Succeed())
			defer tcp.Close()

			var server net.Conn
			Eventually(conns).Should(Receive(&server))
			defer server.Close()

			_, err := server.Write([]byte("WAITING_LIST|EMPTY\r\nWAITING_ADDED|482913\n"))
			Expect(err).To(Succeed())

			Eventually(handler.lines).Should(Receive(Equal("WAITING_LIST|EMPTY")))
			Eventually(handler.lines).Should(Receive(Equal("WAITING_ADDED|482913")))
		})

		It("frames outbound lines with a newline", func() {
			listener, conns := makeStubServer()
			defer listener.Close()

			handler := newRecordingHandler()
			tcp := makeTCP()

			Expect(tcp.Connect(context.Background(), handler)).To(Succeed())
			defer tcp.Close()

			var server net.Conn
			Eventually(conns).Should(Receive(&server))
			defer server.Close()

			Expect(tcp.SendLine("#SUBSCRIBE_WAITING_LIST")).To(Succeed())

			line, err := bufio.NewReader(server).ReadString('\n')
			Expect(err).To(Succeed())
			Expect(line).To(Equal("#SUBSCRIBE_WAITING_LIST\n"))
		})

		It("notifies the handler when the server side closes", func() {
			listener, conns := makeStubServer()
			defer listener.Close()

			handler := newRecordingHandler()
			tcp := makeTCP()

			Expect(tcp.Connect(context.Background(), handler)).To(Succeed())
			defer tcp.Close()

			var server net.Conn
			Eventually(conns).Should(Receive(&server))
			Expect(server.Close()).To(Succeed())

			Eventually(handler.disconnected, 5*time.Second).Should(Receive())
		})

		It("fails to send before connecting", func() {
			tcp := makeTCP()
			Expect(tcp.SendLine("#QUIT")).To(MatchError(transport.ErrNotConnected))
		})

		It("does not panic when closed twice", func() {
			listener, _ := makeStubServer()
			defer listener.Close()

			handler := newRecordingHandler()
			tcp := makeTCP()

			Expect(tcp.Connect(context.Background(), handler)).To(Succeed())

			Expect(func() { tcp.Close() }).NotTo(Panic())
			Expect(func() { tcp.Close() }).NotTo(Panic())
		})
	})
})
