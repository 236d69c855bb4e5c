package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polypaper/internal/metrics"
	"github.com/alanyoungcy/polypaper/internal/pipeline"
	"github.com/alanyoungcy/polypaper/internal/server"
	"github.com/alanyoungcy/polypaper/internal/server/handler"
)

// PassMode runs a single pass and returns.
func (a *App) PassMode(ctx context.Context, deps *Dependencies) error {
	orch, err := deps.Orchestrator(a.cfg, nil, a.logger)
	if err != nil {
		return fmt.Errorf("pass mode: %w", err)
	}
	report, err := orch.RunPass(ctx)
	if err != nil {
		return fmt.Errorf("pass mode: %w", err)
	}
	a.logger.InfoContext(ctx, "pass summary",
		slog.String("pass_id", report.PassID),
		slog.Any("rejected", report.Rejected),
		slog.Any("decisions", report.Decisions),
		slog.Int("appended", len(report.Appended)),
	)
	return nil
}

// LoopMode runs passes on the configured interval, with the HTTP status API
// alongside when enabled, until the context is cancelled.
func (a *App) LoopMode(ctx context.Context, deps *Dependencies) error {
	trigger := make(chan struct{}, 1)
	orch, err := deps.Orchestrator(a.cfg, trigger, a.logger)
	if err != nil {
		return fmt.Errorf("loop mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return orch.RunLoop(ctx, a.cfg.PassInterval())
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, orch, trigger)
	}

	return g.Wait()
}

// FetchMode scrapes the candidate list once and stores it as the local
// snapshot, plus an S3 copy when object storage is enabled.
func (a *App) FetchMode(ctx context.Context, deps *Dependencies) error {
	candidates, err := deps.Scraper.Run(ctx)
	if err != nil {
		return fmt.Errorf("fetch mode: %w", err)
	}
	if err := deps.Snapshotter.Save(ctx, candidates); err != nil {
		return fmt.Errorf("fetch mode: %w", err)
	}
	a.logger.InfoContext(ctx, "candidate snapshot written",
		slog.String("path", deps.Snapshotter.Path()),
		slog.Int("candidates", len(candidates)),
	)

	if deps.Archiver != nil {
		key, err := deps.Archiver.ArchiveCandidates(ctx, candidates)
		if err != nil {
			a.logger.WarnContext(ctx, "candidate snapshot archive failed", slog.String("error", err.Error()))
		} else {
			a.logger.InfoContext(ctx, "candidate snapshot archived", slog.String("key", key))
		}
	}
	return nil
}

// newHTTPServer builds the status API over the wired dependencies.
func (a *App) newHTTPServer(deps *Dependencies, orch *pipeline.Orchestrator, trigger chan<- struct{}) *server.Server {
	return server.NewServer(server.Config{
		Addr:        a.cfg.Server.Addr,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, server.Handlers{
		Health:  handler.NewHealthHandler(deps.Probes, a.logger),
		Status:  handler.NewStatusHandler(a.cfg.Mode, time.Now(), orch),
		Ledger:  handler.NewLedgerHandler(deps.LedgerStore, a.logger),
		Pass:    handler.NewPassHandler(trigger, a.logger),
		Metrics: metrics.Handler(),
	}, a.logger)
}

// startHTTPServer adds the status API to g and shuts it down gracefully when
// ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, orch *pipeline.Orchestrator, trigger chan<- struct{}) {
	srv := a.newHTTPServer(deps, orch, trigger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
