package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EtayOfir/bistro/client"
	"github.com/EtayOfir/bistro/internal/env"
	"github.com/EtayOfir/bistro/internal/metrics"
	"github.com/EtayOfir/bistro/protocol"
	"github.com/EtayOfir/bistro/screens"
	"github.com/EtayOfir/bistro/storage"
	"github.com/EtayOfir/bistro/transport"
)

var (
	// The server host to connect to
	host string

	// The server port to connect to
	port int

	// The port to serve the local status page on
	httpPort string

	// Optional toml config file
	configFile string
)

func init() {
	flags := StartCmd.PersistentFlags()

	flags.StringVarP(&host, "host", "a", "", "The server host to connect to")
	flags.IntVarP(&port, "port", "p", 0, "The server port to connect to")
	flags.StringVar(&httpPort, "http-port", "7362", "The port to serve the local status page on")
	flags.StringVarP(&configFile, "config", "c", "bistro.toml", "Path to the config file")
}

var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Connect to the Bistro server and run the client",
	Long: `Connect to the Bistro server and run the client

Usage
	bistro start

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		conf, err := env.LoadConfig(ctx, configFile)
		if err != nil {
			return err
		}

		if host != "" {
			conf.Host = host
		}
		if port != 0 {
			conf.Port = port
		}

		log, err := env.MakeLogger(conf.Trace)
		if err != nil {
			return err
		}

		cache := storage.NewCache()
		defer cache.Close()

		// The update feed drives the freshness metrics; the channel is
		// closed by cache.Close on shutdown.
		go func() {
			for update := range cache.Updates() {
				metrics.CacheUpdates.WithLabelValues(update.Kind).Inc()
				log.Debug("Cache updated", zap.String("kind", update.Kind))
			}
		}()

		tr := transport.New(transport.Options{
			Host:          conf.Host,
			Port:          conf.Port,
			UseWebsocket:  conf.UseWebsocket,
			WebsocketPath: conf.WebsocketPath,
			DialTimeout:   10 * time.Second,
			Trace:         conf.Trace,
			Log:           log.Named("transport"),
		})

		c := client.New(tr, log.Named("client"),
			client.WithFallbackHandler(func(rawLine string) {
				if prefix, body := protocol.SplitPrefix(rawLine); prefix == protocol.PrefixError {
					screens.RenderServerError(os.Stdout, body)
					return
				}

				// Anything else we don't recognise is shown to the user as-is.
				fmt.Println(rawLine)
			}))

		sessionCtx, sessionStop := context.WithCancel(ctx)
		defer sessionStop()

		watcher := &connectionWatcher{stop: sessionStop}
		c.SetLifecycleObserver(watcher)

		if err := c.Connect(ctx); err != nil {
			return err
		}

		router := setupRouter(conf.DebugHTTP, log)

		// Ping test
		router.GET("/ping", func(gc *gin.Context) {
			gc.String(http.StatusOK, "pong")
		})

		router.GET("/status", func(gc *gin.Context) {
			gc.JSON(http.StatusOK, gin.H{
				"connected": watcher.isConnected(),
				"server":    net.JoinHostPort(conf.Host, strconv.Itoa(conf.Port)),
				"cache":     json.RawMessage(cache.Document()),
			})
		})

		router.GET("/metrics", gin.WrapH(promhttp.Handler()))

		s := &http.Server{
			Addr:    net.JoinHostPort("127.0.0.1", httpPort),
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		log.Info("Connected to Bistro server",
			zap.String("host", conf.Host),
			zap.Int("port", conf.Port),
			zap.String("httpPort", httpPort))

		replDone := make(chan struct{})
		go func() {
			defer close(replDone)
			runSession(sessionCtx, c, cache, log)
		}()

		select {
		case <-sessionCtx.Done():
		case <-replDone:
		}

		// Restore default behavior on the interrupt signal.
		signalStop()
		log.Info("Shutting down")

		// The context gives the http server 5 seconds to finish the
		// request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		if err := c.Close(); err != nil {
			log.Error("Connection did not close cleanly", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

// connectionWatcher is the single lifecycle observer: it keeps the status
// page honest and ends the session on disconnect. No reconnect is
// attempted.
type connectionWatcher struct {
	connected int32
	stop      context.CancelFunc
}

func (w *connectionWatcher) OnConnected() {
	atomic.StoreInt32(&w.connected, 1)
}

func (w *connectionWatcher) OnDisconnected() {
	atomic.StoreInt32(&w.connected, 0)
	fmt.Println("Disconnected from server.")
	w.stop()
}

func (w *connectionWatcher) OnConnectionError(err error) {
	fmt.Printf("Connection error: %v\n", err)
}

func (w *connectionWatcher) isConnected() bool {
	return atomic.LoadInt32(&w.connected) == 1
}

// runSession is the interactive loop. It is the only goroutine that
// registers and unregisters screen handlers.
func runSession(ctx context.Context, c *client.Client, cache storage.Store, log *zap.Logger) {
	out := os.Stdout

	waiting := screens.NewWaitingList(c, cache, out, log.Named("waiting"))
	subscribers := screens.NewSubscribers(c, cache, out, log.Named("subscribers"))
	reservations := screens.NewReservations(c, cache, out, log.Named("reservations"))

	var active interface{ Detach() }

	activate := func(s interface {
		Attach()
		Detach()
	}) {
		if active != nil {
			active.Detach()
		}

		s.Attach()
		active = s
	}

	printHelp(out)

	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error

		switch fields[0] {
		case "login":
			if len(fields) != 3 {
				fmt.Fprintln(out, "usage: login <user> <pass>")
				continue
			}

			var role string
			if role, err = screens.Login(ctx, c, fields[1], fields[2]); err == nil {
				fmt.Fprintf(out, "Logged in as %s (%s)\n", fields[1], role)
				err = screens.Identify(c, fields[1], role)
			}

		case "waiting":
			activate(waiting)
			err = waiting.Refresh()

		case "subscribers":
			activate(subscribers)
			err = subscribers.Refresh()

		case "reservations":
			activate(reservations)
			err = reservations.Refresh()

		case "add":
			if len(fields) < 4 {
				fmt.Fprintln(out, "usage: add <diners> <code> <contact info...>")
				continue
			}

			var diners int64
			if diners, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
				fmt.Fprintln(out, "diners must be a number")
				continue
			}

			err = waiting.Add(diners, strings.Join(fields[3:], " "), fields[2])

		case "status":
			if len(fields) != 3 {
				fmt.Fprintln(out, "usage: status <code> <newStatus>")
				continue
			}

			err = waiting.UpdateStatus(fields[1], fields[2])

		case "remove":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: remove <code>")
				continue
			}

			err = waiting.Delete(fields[1])

		case "subscribe":
			err = waiting.Subscribe()

		case "update":
			if len(fields) != 5 {
				fmt.Fprintln(out, "usage: update <id> <name> <phone> <email>")
				continue
			}

			var id int64
			if id, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
				fmt.Fprintln(out, "id must be a number")
				continue
			}

			err = subscribers.Update(id, fields[2], fields[3], fields[4])

		case "help":
			printHelp(out)

		case "quit":
			if err := c.SendCommand(protocol.QuitCommand()); err != nil {
				log.Warn("Failed to send quit", zap.Error(err))
			}
			return

		default:
			fmt.Fprintf(out, "Unknown command %q, try 'help'\n", fields[0])
		}

		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func printHelp(out *os.File) {
	fmt.Fprint(out, `Commands:
  login <user> <pass>            authenticate
  waiting                        open the waiting list screen
  subscribers                    open the subscribers screen
  reservations                   open the reservations screen
  add <diners> <code> <contact>  add a party to the waiting list
  status <code> <newStatus>      update a waiting entry's status
  remove <code>                  delete a waiting entry
  subscribe                      request live waiting-list updates
  update <id> <name> <phone> <email>  update a subscriber
  quit                           disconnect and exit
`)
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))

	r.Use(ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}
