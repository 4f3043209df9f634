package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/biomedkg/kgxchange/internal/localstore"
	"github.com/biomedkg/kgxchange/internal/reportstore"
	"github.com/google/uuid"
)

// openReportStore selects the run-report backend from config: pgx
// against Postgres for shared deployments, sqlite for local ones.
func openReportStore(ctx context.Context) (reportstore.Store, error) {
	if cfg.Report.Backend == "postgres" {
		return reportstore.NewPGStore(ctx, cfg.Report.PostgresDSN)
	}
	return localstore.New(cfg.Report.LocalPath)
}

// persistReports writes each (kind, payload) pair of a completed run
// to the configured report store under one freshly minted run id.
// Failures are logged, never fatal: the run's primary artifact is the
// sink output, not the report row.
func persistReports(ctx context.Context, payloads map[reportstore.Kind]any) string {
	runID := uuid.NewString()
	store, err := openReportStore(ctx)
	if err != nil {
		logger.WithError(err).Warn("report store unavailable; skipping run-report persistence")
		return runID
	}
	defer store.Close()
	for kind, v := range payloads {
		payload, err := json.Marshal(v)
		if err != nil {
			logger.WithError(err).Warnf("marshal %s report", kind)
			continue
		}
		r := reportstore.Report{RunID: runID, Kind: kind, CreatedAt: time.Now().UTC(), Payload: payload}
		if err := store.Save(ctx, r); err != nil {
			logger.WithError(err).Warnf("persist %s report", kind)
		}
	}
	return runID
}
