package mirror

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orarsync_fetches_total",
		Help: "Refresh attempts by outcome.",
	}, []string{"outcome"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orarsync_cache_hits_total",
		Help: "Refreshes that rendered from cache before the network round-trip.",
	})

	pollFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orarsync_poll_fallbacks_total",
		Help: "Degraded-mode polls fired while the live channel was down.",
	})

	liveUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orarsync_live_updates_total",
		Help: "Live-channel messages applied, by kind.",
	}, []string{"kind"})
)
