package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/downfa11-org/fixedwidth/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(RetryAttempts, RetryExhausted)
	prometheus.MustRegister(UnitsProcessed, UnitsInFlight, UnitLatency)
	prometheus.MustRegister(ArtifactsWritten, ArtifactBytesWritten, ArtifactsMerged, BytesMerged)
	prometheus.MustRegister(RowsGenerated, RowsParsed, PhaseDuration)
}

// StartMetricsServer serves /metrics in the background. Close the returned
// server to stop it.
func StartMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		util.Info("[METRICS] Prometheus exporter listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			util.Error("[METRICS] Failed to start metrics server: %v", err)
		}
	}()
	return srv
}

// ObserveUnit records the outcome of one unit of work.
func ObserveUnit(pool string, elapsedSeconds float64, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	UnitsProcessed.WithLabelValues(pool, result).Inc()
	UnitLatency.WithLabelValues(pool).Observe(elapsedSeconds)
}

// ObserveArtifact records one persisted artifact of the given kind.
func ObserveArtifact(kind string, size int) {
	ArtifactsWritten.WithLabelValues(kind).Inc()
	ArtifactBytesWritten.WithLabelValues(kind).Add(float64(size))
}
