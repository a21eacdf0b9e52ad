package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersPlacedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "matchbook_orders_placed_total", Help: "Orders accepted by type and side"},
		[]string{"type", "side"},
	)
	OrdersRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matchbook_orders_rejected_total", Help: "Orders rejected by validation"},
	)
	OrdersMatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matchbook_orders_matched_total", Help: "Placements that touched at least one level"},
	)
	FillsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matchbook_fills_emitted_total", Help: "Fill events emitted"},
	)
	FillVolumeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matchbook_fill_volume_total", Help: "Total filled quantity"},
	)
	OutboxWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matchbook_outbox_writes_total", Help: "Fill records written to the outbox"},
	)
	TapePublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matchbook_tape_publish_errors_total", Help: "Failed tape publications"},
	)
)

// Init registers all engine collectors plus the standard runtime
// collectors on a fresh registry.
func Init() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		OrdersPlacedTotal, OrdersRejectedTotal, OrdersMatchedTotal,
		FillsEmittedTotal, FillVolumeTotal,
		OutboxWritesTotal, TapePublishErrorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
