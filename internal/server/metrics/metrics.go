// Package metrics exposes Prometheus counters for the upload pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts upload-pipeline events.
type Metrics interface {
	IncUploadsIssued(class string)
	IncUploadsConfirmed(class string)
	IncUploadsRejected(reason string)
	IncAccessGranted(accessClass string)
	IncAssetsDeleted(class string)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncUploadsIssued(string)    {}
func (Noop) IncUploadsConfirmed(string) {}
func (Noop) IncUploadsRejected(string)  {}
func (Noop) IncAccessGranted(string)    {}
func (Noop) IncAssetsDeleted(string)    {}

// Prom implements Metrics backed by Prometheus counters.
type Prom struct {
	uploadsIssued    *prometheus.CounterVec
	uploadsConfirmed *prometheus.CounterVec
	uploadsRejected  *prometheus.CounterVec
	accessGranted    *prometheus.CounterVec
	assetsDeleted    *prometheus.CounterVec
	once             sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		uploadsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_issued_total",
			Help:      "Upload credentials issued by asset class",
		}, []string{"class"}),
		uploadsConfirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_confirmed_total",
			Help:      "Uploads confirmed by asset class",
		}, []string{"class"}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Upload requests rejected by reason",
		}, []string{"reason"}),
		accessGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_granted_total",
			Help:      "Read credentials granted by access class",
		}, []string{"access_class"}),
		assetsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_deleted_total",
			Help:      "Assets soft-deleted by asset class",
		}, []string{"class"}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.uploadsIssued, p.uploadsConfirmed, p.uploadsRejected, p.accessGranted, p.assetsDeleted)
	})
}

func (p *Prom) IncUploadsIssued(class string) {
	p.uploadsIssued.WithLabelValues(class).Inc()
}

func (p *Prom) IncUploadsConfirmed(class string) {
	p.uploadsConfirmed.WithLabelValues(class).Inc()
}

func (p *Prom) IncUploadsRejected(reason string) {
	p.uploadsRejected.WithLabelValues(reason).Inc()
}

func (p *Prom) IncAccessGranted(accessClass string) {
	p.accessGranted.WithLabelValues(accessClass).Inc()
}

func (p *Prom) IncAssetsDeleted(class string) {
	p.assetsDeleted.WithLabelValues(class).Inc()
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
