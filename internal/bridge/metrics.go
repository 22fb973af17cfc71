package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	framesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "k1bridge_frames_received_total",
			Help: "Status frames received over the websocket.",
		},
	)
	framesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "k1bridge_frames_dropped_total",
			Help: "Frames dropped because the payload did not decode.",
		},
	)
	reconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "k1bridge_ws_reconnects_total",
			Help: "Websocket connection attempts after a failure.",
		},
	)
	statesPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "k1bridge_states_published_total",
			Help: "Field state values published to the bus.",
		},
	)
	discoveryPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "k1bridge_discovery_published_total",
			Help: "Discovery records published to the bus.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		framesReceived,
		framesDropped,
		reconnects,
		statesPublished,
		discoveryPublished,
	)
}
