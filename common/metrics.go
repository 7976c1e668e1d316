// Copyright (c) 2024 The zlite developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

package common

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HeadersVerified and ChunksRejected count chain.Store activity across the
// process lifetime, grounded on the teacher's promhttp.Handler wiring in
// cmd/root.go's startHTTPServer (the gRPC handling-time histogram
// grpc_prometheus.EnableHandlingTimeHistogram registered has no server to
// instrument here and is dropped; see DESIGN.md).
var (
	HeadersVerified = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zlite_headers_verified_total",
		Help: "Total number of headers that passed chunk verification.",
	})
	ChunksRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zlite_chunks_rejected_total",
		Help: "Total number of header chunks rejected by the verifier.",
	})
)

func init() {
	prometheus.MustRegister(HeadersVerified, ChunksRejected)
}

// ServeMetrics blocks serving the Prometheus /metrics endpoint on addr.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
