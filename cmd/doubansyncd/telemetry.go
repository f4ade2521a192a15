package main

import (
	"context"
	"log/slog"

	"doubansync-backend/lib/restyutil"
	"doubansync-backend/lib/scrapers/douban/core"
	"doubansync-backend/lib/serviceutil"
	"doubansync-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "doubansyncd")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	core.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/douban_core"),
	)
}
