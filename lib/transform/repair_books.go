package transform

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"doubansync-backend/lib/textutil"
)

// publishDateRules normalize the shapes 出版年 shows up in. Order
// matters: the year-month-day pattern must run before the year-month
// one or "2019年1月1日" would lose its day.
var publishDateRules = []repairRule{
	{
		name:    "year month day",
		pattern: regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日`),
		extract: func(m []string) string {
			return fmt.Sprintf("%s-%02d-%02d", m[1], atoi(m[2]), atoi(m[3]))
		},
	},
	{
		name:    "year month",
		pattern: regexp.MustCompile(`^(\d{4})年(\d{1,2})月`),
		extract: func(m []string) string {
			return fmt.Sprintf("%s-%02d", m[1], atoi(m[2]))
		},
	},
	{
		name:    "year only",
		pattern: regexp.MustCompile(`^(\d{4})年`),
		extract: func(m []string) string { return m[1] },
	},
	{
		name:    "truncate full date",
		pattern: regexp.MustCompile(`^(\d{4})-(\d{2})-\d{2}$`),
		extract: func(m []string) string { return m[1] + "-" + m[2] },
	},
	{
		name:    "zero pad dash date",
		pattern: regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:-\d{1,2})?$`),
		extract: func(m []string) string {
			return fmt.Sprintf("%s-%02d", m[1], atoi(m[2]))
		},
	},
}

// atoi is only called on regex-captured digit runs.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// repairPublishDate rewrites a publish date into the YYYY[-MM] form
// the spreadsheet column expects. Unrecognized shapes pass through
// untouched.
func repairPublishDate(value string) string {
	for _, rule := range publishDateRules {
		m := rule.pattern.FindStringSubmatch(value)
		if len(m) == 0 {
			continue
		}
		return rule.extract(m)
	}
	return value
}

// respaceJoinedNames rewrites a tightly packed multi-name string
// ("曹雪芹/高鹗") into the canonical joined form. Strings already
// carrying the canonical separator pass through.
func respaceJoinedNames(value string) string {
	if !strings.Contains(value, "/") || strings.Contains(value, joinSeparator) {
		return value
	}
	parts := strings.Split(value, "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, joinSeparator)
}

// publisherRegionSuffix matches a trailing "; 北京" style region tag
// some publisher lines carry.
var publisherRegionSuffix = regexp.MustCompile(`\s*;\s*[^;]*$`)

func repairPublisher(value string) string {
	value = publisherRegionSuffix.ReplaceAllString(value, "")
	value = respaceJoinedNames(value)
	return textutil.CollapseWhitespace(value)
}

var isbnLeadingDigits = regexp.MustCompile(`^(\d{10,13})`)

// repairIsbn drops binding annotations appended after the number
// itself, e.g. "9787020002207 (精装)".
func repairIsbn(value string) string {
	m := isbnLeadingDigits.FindStringSubmatch(strings.TrimSpace(value))
	if len(m) == 0 {
		return value
	}
	return m[1]
}

func repairBooks(ctx context.Context, data map[string]any, raw map[string]any, a *arena) {
	if value, ok := data["publishDate"].(string); ok && value != "" {
		if repaired := repairPublishDate(value); repaired != value {
			data["publishDate"] = repaired
			recordRepair(ctx, a, "publishDate", "date normalization")
		}
	}
	if value, ok := data["author"].(string); ok && value != "" {
		if repaired := respaceJoinedNames(value); repaired != value {
			data["author"] = repaired
			recordRepair(ctx, a, "author", "separator respacing")
		}
	}
	if value, ok := data["translator"].(string); ok && value != "" {
		if repaired := respaceJoinedNames(value); repaired != value {
			data["translator"] = repaired
			recordRepair(ctx, a, "translator", "separator respacing")
		}
	}
	if isAbsent(data["doubanRating"]) {
		nested := extractField(raw, FieldDescriptor{SourceName: "doubanRating", NestedPath: "rating.average"})
		if nested != nil {
			data["doubanRating"] = nested
			recordRepair(ctx, a, "doubanRating", "nested rating fallback")
		}
	}
	if value, ok := data["publisher"].(string); ok && value != "" {
		if repaired := repairPublisher(value); repaired != value {
			data["publisher"] = repaired
			recordRepair(ctx, a, "publisher", "region suffix strip")
		}
	}
	if value, ok := data["isbn"].(string); ok && value != "" {
		if repaired := repairIsbn(value); repaired != value {
			data["isbn"] = repaired
			recordRepair(ctx, a, "isbn", "leading digits")
		}
	}
}
