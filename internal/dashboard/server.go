// Package dashboard serves a read-only view over the runtime's output key.
// It is a pure consumer: it polls nothing, reads on request at its own
// cadence, and treats a missing or unparseable key as "no data", never as an
// error page.
package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server renders the latest handler output from the store.
type Server struct {
	store     ports.KeyValueStore
	outputKey string
	logger    *slog.Logger

	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	dataPresent prometheus.Gauge
}

// NewServer creates a dashboard over the given store and output key.
func NewServer(store ports.KeyValueStore, outputKey string, logger *slog.Logger) *Server {
	s := &Server{
		store:     store,
		outputKey: outputKey,
		logger:    logger,
		registry:  prometheus.NewRegistry(),
	}

	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tendril_dashboard_requests_total",
		Help: "Dashboard HTTP requests by route.",
	}, []string{"route"})
	s.dataPresent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tendril_dashboard_data_present",
		Help: "1 when the output key held a decodable payload at last read.",
	})
	s.registry.MustRegister(s.requests, s.dataPresent)

	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/api/metrics", s.handleMetrics)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// MetricsResponse is the /api/metrics payload.
type MetricsResponse struct {
	Available bool           `json:"available"`
	Key       string         `json:"key"`
	Metrics   map[string]any `json:"metrics,omitempty"`
	Summary   *Summary       `json:"summary,omitempty"`
}

// read fetches and decodes the output key. Any failure, missing key included,
// yields the "no data" response.
func (s *Server) read(r *http.Request) MetricsResponse {
	resp := MetricsResponse{Key: s.outputKey}

	raw, err := s.store.Get(r.Context(), s.outputKey)
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			s.logger.Warn("failed to read output key", "key", s.outputKey, "err", err)
		}
		s.dataPresent.Set(0)
		return resp
	}

	var metrics map[string]any
	if err := json.Unmarshal(raw, &metrics); err != nil || metrics == nil {
		s.logger.Warn("output key holds non-object data", "key", s.outputKey)
		s.dataPresent.Set(0)
		return resp
	}

	summary := Summarize(metrics)
	resp.Available = true
	resp.Metrics = metrics
	resp.Summary = &summary
	s.dataPresent.Set(1)
	return resp
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.requests.WithLabelValues("api_metrics").Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.read(r)); err != nil {
		s.logger.Error("failed to encode metrics response", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.requests.WithLabelValues("healthz").Inc()

	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "store unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.requests.WithLabelValues("index").Inc()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, s.read(r)); err != nil {
		s.logger.Error("failed to render dashboard", "err", err)
	}
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"pct": func(p *float64) string {
		if p == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.2f", *p)
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="5">
<title>tendril dashboard</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.3rem 0.8rem; text-align: left; }
.nodata { color: #888; }
</style>
</head>
<body>
<h1>tendril &mdash; {{.Key}}</h1>
{{if .Available}}
{{with .Summary}}
<ul>
{{if .NetworkEgressPercent}}<li>Network egress: {{pct .NetworkEgressPercent}}%</li>{{end}}
{{if .MemoryCachePercent}}<li>Memory cache: {{pct .MemoryCachePercent}}%</li>{{end}}
{{range .CPUs}}<li>CPU {{.Index}}: {{printf "%.2f" .Percent}}%</li>{{end}}
</ul>
{{end}}
<table>
<tr><th>Metric</th><th>Value</th></tr>
{{range $k, $v := .Metrics}}<tr><td>{{$k}}</td><td>{{$v}}</td></tr>{{end}}
</table>
{{else}}
<p class="nodata">No data yet &mdash; waiting for the runtime to publish.</p>
{{end}}
</body>
</html>
`))
