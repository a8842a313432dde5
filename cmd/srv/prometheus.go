package main

import (
	"net/http"

	"github.com/proofdrop-lab/backend/pkg/prometheus"
	"github.com/proofdrop-lab/backend/pkg/xcontext"
)

func (s *srv) startPrometheus() {
	cfg := xcontext.Configs(s.ctx)
	httpSrv := &http.Server{
		Addr:    cfg.PrometheusServer.Address(),
		Handler: prometheus.NewHandler(),
	}

	xcontext.Logger(s.ctx).Infof("Starting prometheus on port %s", cfg.PrometheusServer.Port)
	if err := httpSrv.ListenAndServe(); err != nil {
		panic(err)
	}
}
