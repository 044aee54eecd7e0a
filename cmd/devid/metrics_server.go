package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

// startMetricsServer mounts /metrics on addr for the lifetime of one
// devid invocation, the way fenio-tns-csi/pkg/driver.go mounts its
// metrics endpoint for the lifetime of the driver process. addr == ""
// means metrics are not served; the returned stop func is always safe
// to call.
func startMetricsServer(addr string) (stop func()) {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		klog.Infof("devid: serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("devid: metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			klog.Errorf("devid: metrics server shutdown: %v", err)
		}
	}
}
