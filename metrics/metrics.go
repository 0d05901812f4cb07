package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bridge_relayer"

var (
	// RelayedEvents counts relay attempts by source chain and outcome status.
	RelayedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Source events handled by the relayer, by outcome.",
	}, []string{"chain", "status"})

	HeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "head_block",
		Help:      "Last observed head block per chain.",
	}, []string{"chain"})

	CheckpointBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "checkpoint_block",
		Help:      "Last block whose events were all relayed.",
	}, []string{"chain"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
