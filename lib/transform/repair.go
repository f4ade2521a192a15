package transform

import (
	"context"
	"log/slog"
	"regexp"

	"doubansync-backend/lib/textutil"
)

// repairRule recovers one value from a string, usually the raw page
// markup. Rules for the same field run in declaration order and the
// first one to produce a non-empty value wins.
type repairRule struct {
	name    string
	pattern *regexp.Regexp
	extract func(m []string) string
}

func applyRules(rules []repairRule, input string) (value, rule string, ok bool) {
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(input)
		if len(m) == 0 {
			continue
		}
		if v := r.extract(m); v != "" {
			return v, r.name, true
		}
	}
	return "", "", false
}

// repairFields dispatches the per-content-type heuristics. Repairs
// only ever fill or normalize values; they never invalidate a field.
func repairFields(ctx context.Context, data map[string]any, raw map[string]any, ct ContentType, a *arena) {
	switch ct {
	case ContentTypeBooks:
		repairBooks(ctx, data, raw, a)
	case ContentTypeMovies, ContentTypeTV, ContentTypeDocumentary:
		repairMedia(ctx, data, raw, a)
	}
}

func recordRepair(ctx context.Context, a *arena, field, rule string) {
	a.stats.RepairedFields++
	slog.DebugContext(ctx, "repaired field", "field", field, "rule", rule)
}

func rawHtml(raw map[string]any) string {
	html, _ := raw[htmlKey].(string)
	return html
}

// isAbsent reports whether a mapped value still needs repairing. An
// empty string counts: it is what an empty source array collapses to.
func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// cleanLabelRun strips markup from a labeled info run and collapses
// the leftover whitespace.
func cleanLabelRun(s string) string {
	return textutil.CollapseWhitespace(tagPattern.ReplaceAllString(s, " "))
}
