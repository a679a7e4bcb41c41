package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records collection reloads, realtime traffic and active devices.
type Storefront struct {
	reloadDuration  *prometheus.HistogramVec
	reloadFailure   *prometheus.CounterVec
	realtimeEvents  *prometheus.CounterVec
	realtimeReloads prometheus.Counter
	coalesced       prometheus.Counter
	activeDevices   prometheus.Gauge
}

// NewStorefront registers the storefront metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	reloadDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_reload_duration_seconds",
		Help:    "Duration of cart and wishlist reloads in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection", "store"})
	reloadFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_reload_failures_total",
		Help: "Failed cart and wishlist reloads.",
	}, []string{"collection", "store"})
	realtimeEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_realtime_events_total",
		Help: "Cart change notifications received from the change feed.",
	}, []string{"type"})
	realtimeReloads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_realtime_reloads_total",
		Help: "Cart reloads triggered by change notifications after coalescing.",
	})
	coalesced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_realtime_coalesced_total",
		Help: "Change notifications folded into an already pending reload.",
	})
	activeDevices := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_active_devices",
		Help: "Device clients currently held by the registry.",
	})
	reg.MustRegister(reloadDuration, reloadFailure, realtimeEvents, realtimeReloads, coalesced, activeDevices)
	return &Storefront{
		reloadDuration:  reloadDuration,
		reloadFailure:   reloadFailure,
		realtimeEvents:  realtimeEvents,
		realtimeReloads: realtimeReloads,
		coalesced:       coalesced,
		activeDevices:   activeDevices,
	}
}

// ObserveReload records a reload of collection ("cart" or "wishlist") from store ("remote" or "local").
func (s *Storefront) ObserveReload(collection, store string, duration time.Duration, err error) {
	if s == nil || s.reloadDuration == nil {
		return
	}
	collection, store = normalizeLabel(collection), normalizeLabel(store)
	s.reloadDuration.WithLabelValues(collection, store).Observe(duration.Seconds())
	if err != nil {
		s.reloadFailure.WithLabelValues(collection, store).Inc()
	}
}

// IncRealtimeEvent counts one change notification.
func (s *Storefront) IncRealtimeEvent(eventType string) {
	if s == nil || s.realtimeEvents == nil {
		return
	}
	s.realtimeEvents.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncRealtimeReload counts one reload issued by the realtime listener.
func (s *Storefront) IncRealtimeReload() {
	if s == nil || s.realtimeReloads == nil {
		return
	}
	s.realtimeReloads.Inc()
}

// IncCoalesced counts one notification absorbed by a pending reload.
func (s *Storefront) IncCoalesced() {
	if s == nil || s.coalesced == nil {
		return
	}
	s.coalesced.Inc()
}

// SetActiveDevices sets the device gauge.
func (s *Storefront) SetActiveDevices(n int) {
	if s == nil || s.activeDevices == nil {
		return
	}
	s.activeDevices.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
