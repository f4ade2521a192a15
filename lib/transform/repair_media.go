package transform

import (
	"context"
	"regexp"
	"strings"
)

// durationRules recover 片长 from the subject markup, most structured
// shape first.
var durationRules = []repairRule{
	{
		name:    "runtime tag",
		pattern: regexp.MustCompile(`(?s)property="v:runtime"[^>]*>([^<]+)<`),
		extract: func(m []string) string { return strings.TrimSpace(m[1]) },
	},
	{
		name:    "labeled run",
		pattern: regexp.MustCompile(`(?s)片长:</span>(.*?)<br`),
		extract: func(m []string) string { return cleanLabelRun(m[1]) },
	},
	{
		name:    "bare minutes",
		pattern: regexp.MustCompile(`\d+分钟`),
		extract: func(m []string) string { return m[0] },
	},
	{
		name:    "minutes seconds",
		pattern: regexp.MustCompile(`\d+分\d+秒`),
		extract: func(m []string) string { return m[0] },
	},
}

var (
	releaseDateTags    = regexp.MustCompile(`property="v:initialReleaseDate" content="([^"]+)"`)
	releaseDateLabeled = regexp.MustCompile(`(?s)上映日期:</span>(.*?)<br`)
	bareDate           = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// repairReleaseDate keeps every release region: a film often opens on
// different dates per country and the tags carry all of them.
func repairReleaseDate(html string) (string, bool) {
	if tags := releaseDateTags.FindAllStringSubmatch(html, -1); len(tags) > 0 {
		dates := make([]string, 0, len(tags))
		for _, m := range tags {
			dates = append(dates, strings.TrimSpace(m[1]))
		}
		return strings.Join(dates, joinSeparator), true
	}
	if m := releaseDateLabeled.FindStringSubmatch(html); len(m) > 0 {
		if v := cleanLabelRun(m[1]); v != "" {
			return v, true
		}
	}
	if m := bareDate.FindString(html); m != "" {
		return m, true
	}
	return "", false
}

var countryRules = []repairRule{
	{
		name:    "labeled country",
		pattern: regexp.MustCompile(`制片国家/地区:</span>([^<]+)`),
		extract: func(m []string) string { return strings.TrimSpace(m[1]) },
	},
}

var languageRules = []repairRule{
	{
		name:    "labeled language",
		pattern: regexp.MustCompile(`语言:</span>([^<]+)`),
		extract: func(m []string) string { return strings.TrimSpace(m[1]) },
	},
}

// neighborLabels delimit an info run. A sloppy regex capture can
// swallow the next label's text, so region lists are truncated at the
// first one found.
var neighborLabels = []string{
	"语言:", "片长:", "又名:", "IMDb:", "上映日期:", "首播:", "官方网站:", "集数:", "单集片长:",
	"Language:", "Runtime:", "Also Known As:", "Release Date:", "Official Site:",
}

// localizedNames maps the English spellings that leak into region and
// language lists back to the localized ones the columns use.
var localizedNames = map[string]string{
	"USA":         "美国",
	"UK":          "英国",
	"France":      "法国",
	"Germany":     "德国",
	"Italy":       "意大利",
	"Japan":       "日本",
	"South Korea": "韩国",
	"Canada":      "加拿大",
	"Australia":   "澳大利亚",
	"India":       "印度",
	"Russia":      "俄罗斯",
	"Spain":       "西班牙",
	"English":     "英语",
	"French":      "法语",
	"German":      "德语",
	"Italian":     "意大利语",
	"Japanese":    "日语",
	"Korean":      "韩语",
	"Mandarin":    "普通话",
	"Cantonese":   "粤语",
	"Spanish":     "西班牙语",
	"Russian":     "俄语",
}

// cleanupRegionList truncates a captured run at the next info label,
// then normalizes each slash-separated entry.
func cleanupRegionList(value string) string {
	cut := len(value)
	for _, label := range neighborLabels {
		if i := strings.Index(value, label); i >= 0 && i < cut {
			cut = i
		}
	}
	value = value[:cut]

	parts := strings.Split(value, "/")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if localized, ok := localizedNames[part]; ok {
			part = localized
		}
		cleaned = append(cleaned, part)
	}
	return strings.Join(cleaned, joinSeparator)
}

func repairMedia(ctx context.Context, data map[string]any, raw map[string]any, a *arena) {
	html := rawHtml(raw)
	if html == "" {
		return
	}

	if isAbsent(data["duration"]) {
		if value, rule, ok := applyRules(durationRules, html); ok {
			data["duration"] = value
			recordRepair(ctx, a, "duration", rule)
		}
	}
	if isAbsent(data["releaseDate"]) {
		if value, ok := repairReleaseDate(html); ok {
			data["releaseDate"] = value
			recordRepair(ctx, a, "releaseDate", "release date rules")
		}
	}
	if isAbsent(data["country"]) {
		if value, rule, ok := applyRules(countryRules, html); ok {
			if cleaned := cleanupRegionList(value); cleaned != "" {
				data["country"] = cleaned
				recordRepair(ctx, a, "country", rule)
			}
		}
	}
	if isAbsent(data["language"]) {
		if value, rule, ok := applyRules(languageRules, html); ok {
			if cleaned := cleanupRegionList(value); cleaned != "" {
				data["language"] = cleaned
				recordRepair(ctx, a, "language", rule)
			}
		}
	}
}
