// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/respond"
)

// probeTimeout bounds each dependency ping on /ready.
const probeTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck func(context context.Context) error

// HealthDependencies are the probes run by /ready. A nil probe means the
// dependency is not configured and is left out of the report.
type HealthDependencies struct {
	CheckDatabase HealthCheck
	CheckCache    HealthCheck
}

type probe struct {
	name  string
	check HealthCheck
}

type probeReport struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type readinessReport struct {
	Status string        `json:"status"`
	Checks []probeReport `json:"checks"`
}

// NewHealthHandlers returns the /health and /ready handlers.
//
// /health answers 200 while the process runs. /ready pings every configured
// dependency concurrently and answers 503 "degraded" if any fails.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	var probes []probe
	if deps.CheckDatabase != nil {
		probes = append(probes, probe{"postgres", deps.CheckDatabase})
	}
	if deps.CheckCache != nil {
		probes = append(probes, probe{"redis", deps.CheckCache})
	}

	liveness = func(writer http.ResponseWriter, _ *http.Request) {
		respond.OK(writer, map[string]string{"status": "ok"})
	}

	readiness = func(writer http.ResponseWriter, request *http.Request) {
		report := runProbes(request.Context(), probes, logger)

		status := http.StatusOK
		if report.Status != "ready" {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(writer, status, respond.SuccessEnvelope{Data: report})
	}

	return liveness, readiness
}

func runProbes(parent context.Context, probes []probe, logger *slog.Logger) readinessReport {
	report := readinessReport{Status: "ready", Checks: make([]probeReport, len(probes))}

	var group sync.WaitGroup
	for index, dependency := range probes {
		group.Add(1)
		go func() {
			defer group.Done()

			context, cancel := context.WithTimeout(parent, probeTimeout)
			defer cancel()

			result := probeReport{Name: dependency.name, OK: true}
			if err := dependency.check(context); err != nil {
				result = probeReport{Name: dependency.name, Error: err.Error()}
				logger.WarnContext(parent, "readiness_probe_failed",
					slog.String("dependency", dependency.name),
					slog.Any("error", err),
				)
			}
			report.Checks[index] = result
		}()
	}
	group.Wait()

	for _, check := range report.Checks {
		if !check.OK {
			report.Status = "degraded"
		}
	}
	return report
}
