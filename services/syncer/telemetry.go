package syncer

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"doubansync-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("doubansync.services.syncer")

var meter = otel.Meter("doubansync.services.syncer")
var recordsSynced, _ = meter.Int64Counter("syncer.records_synced",
	metric.WithDescription("records upserted by sync sessions"))
var sessionsInterrupted, _ = meter.Int64Counter("syncer.sessions_interrupted",
	metric.WithDescription("sync sessions aborted by a terminal scrape error"))
