package transform

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"doubansync-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("doubansync.lib.transform")

// Transform converts a semi-structured scraped object into a
// spreadsheet-ready record. Per-field and per-repair problems are
// downgraded to warnings; the only inputs that produce a nearly empty
// result are an unknown content type and an empty source object.
func Transform(ctx context.Context, raw map[string]any, ct ContentType, opts Options) Result {
	ctx, span := tracer.Start(ctx, "Transform")
	defer span.End()
	span.SetAttributes(attribute.String("content_type", string(ct)))

	a := &arena{}

	fields, err := Descriptors(ct)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown content type")
		a.warnf("cannot transform: %v", err)
		return a.result(nil, raw, opts)
	}

	if len(raw) == 0 {
		a.warnf("nothing to transform: the source object is empty")
		return a.result(nil, raw, opts)
	}

	a.stats.TotalFields = uint(len(fields))
	data := mapFields(raw, fields, a)
	if !opts.DisableRepairs {
		repairFields(ctx, data, raw, ct, a)
	}
	if !opts.DisableValidation {
		validateFields(data, fields, ct, a)
	}

	span.SetAttributes(
		attribute.Int("fields.total", int(a.stats.TotalFields)),
		attribute.Int("fields.transformed", int(a.stats.TransformedFields)),
		attribute.Int("fields.repaired", int(a.stats.RepairedFields)),
		attribute.Int("fields.failed", int(a.stats.FailedFields)),
		attribute.Int("warnings", len(a.warnings)),
	)
	return a.result(data, raw, opts)
}
