package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LinesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bistro_lines_received_total",
		Help: "Inbound lines delivered by the transport, by message prefix.",
	}, []string{"prefix"})

	CommandsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bistro_commands_sent_total",
		Help: "Outbound command lines transmitted to the server.",
	})

	CacheUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bistro_cache_updates_total",
		Help: "Snapshot replacements in the local cache, by list kind.",
	}, []string{"list"})

	RowsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bistro_rows_dropped_total",
		Help: "Snapshot rows silently dropped because they failed to decode.",
	}, []string{"list"})

	TransportErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bistro_transport_errors_total",
		Help: "Connection-level failures. These are terminal, there is no reconnect.",
	})
)
