package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the Prometheus registry for the chat server. The admin
// server exposes it on /metrics.
var Metrics = prometheus.NewRegistry()

var (
	metricConnectionsTotal = promauto.With(Metrics).NewCounter(
		prometheus.CounterOpts{
			Name: "chat_connections_total",
			Help: "Total number of accepted client connections",
		},
	)

	metricConnectionsActive = promauto.With(Metrics).NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connections_active",
			Help: "Number of currently open client connections",
		},
	)

	metricCommandsTotal = promauto.With(Metrics).NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_total",
			Help: "Total number of dispatched commands by kind",
		},
		[]string{"command"},
	)

	metricLinesSent = promauto.With(Metrics).NewCounter(
		prometheus.CounterOpts{
			Name: "chat_lines_sent_total",
			Help: "Total number of lines written to client connections",
		},
	)
)

// commandLabel maps a command kind to its metric label.
func commandLabel(kind CommandKind) string {
	switch kind {
	case CmdCapLs:
		return "CAP"
	case CmdNick:
		return "NICK"
	case CmdUser:
		return "USER"
	case CmdQuit:
		return "QUIT"
	case CmdJoin:
		return "JOIN"
	case CmdPart:
		return "PART"
	case CmdPrivMsg:
		return "PRIVMSG"
	case CmdMode:
		return "MODE"
	case CmdWho:
		return "WHO"
	case CmdNames:
		return "NAMES"
	case CmdOp:
		return "OP"
	case CmdDeop:
		return "DEOP"
	case CmdPing:
		return "PING"
	case CmdPong:
		return "PONG"
	}
	return "UNKNOWN"
}
