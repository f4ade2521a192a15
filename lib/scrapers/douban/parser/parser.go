// Package parser extracts semi-structured records from douban subject
// and shelf pages. It is deliberately thin: field shaping, repair and
// validation all live in lib/transform.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"doubansync-backend/lib/htmlutil"
	"doubansync-backend/lib/textutil"
	"doubansync-backend/lib/transform"
)

var subjectIdPattern = regexp.MustCompile(`/subject/(\d+)`)

// ParseSubject extracts the raw record from a subject page. The full
// markup rides along under the "html" key so downstream repair rules
// can recover fields this extraction misses.
func ParseSubject(pageHtml string, ct transform.ContentType) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHtml))
	if err != nil {
		return nil, fmt.Errorf("parse subject page: %w", err)
	}

	raw := map[string]any{"html": pageHtml}

	title := strings.TrimSpace(doc.Find(`h1 span[property="v:itemreviewed"]`).First().Text())
	setText(raw, "title", title)

	pageUrl := doc.Find(`meta[property="og:url"]`).First().AttrOr("content", "")
	if pageUrl == "" {
		pageUrl = doc.Find(`link[rel="canonical"]`).First().AttrOr("href", "")
	}
	setText(raw, "url", pageUrl)
	if m := subjectIdPattern.FindStringSubmatch(pageUrl); len(m) > 0 {
		raw["subjectId"] = m[1]
	}
	setText(raw, "coverUrl", doc.Find(`meta[property="og:image"]`).First().AttrOr("content", ""))

	if title == "" && raw["subjectId"] == nil {
		return nil, fmt.Errorf("not a subject page: no title or subject id found")
	}

	average := strings.TrimSpace(doc.Find(`[property="v:average"]`).First().Text())
	if value, err := strconv.ParseFloat(average, 64); err == nil {
		rating := map[string]any{"average": value}
		votes := strings.TrimSpace(doc.Find(`[property="v:votes"]`).First().Text())
		if count, err := strconv.Atoi(votes); err == nil {
			rating["numRaters"] = count
		}
		raw["rating"] = rating
	}

	info := doc.Find("#info")
	switch ct {
	case transform.ContentTypeBooks:
		parseBookInfo(info, raw)
	case transform.ContentTypeMovies, transform.ContentTypeTV, transform.ContentTypeDocumentary:
		parseMediaInfo(doc, info, raw, ct)
	}

	return raw, nil
}

func parseBookInfo(info *goquery.Selection, raw map[string]any) {
	setList(raw, "author", splitList(infoText(info, "作者")))
	setList(raw, "translator", splitList(infoText(info, "译者")))
	setText(raw, "publisher", infoText(info, "出版社"))
	setText(raw, "producer", infoText(info, "出品方"))
	setText(raw, "subtitle", infoText(info, "副标题"))
	setText(raw, "origTitle", infoText(info, "原作名"))
	setText(raw, "publishDate", infoText(info, "出版年"))
	setText(raw, "price", infoText(info, "定价"))
	setText(raw, "binding", infoText(info, "装帧"))
	setText(raw, "series", infoText(info, "丛书"))
	setText(raw, "isbn", infoText(info, "ISBN"))
	setNumberOrText(raw, "pages", infoText(info, "页数"))
}

func parseMediaInfo(doc *goquery.Document, info *goquery.Selection, raw map[string]any, ct transform.ContentType) {
	setList(raw, "director", eachText(info.Find(`a[rel="v:directedBy"]`)))
	setList(raw, "screenwriter", splitList(infoText(info, "编剧")))
	setList(raw, "cast", eachText(info.Find(`a[rel="v:starring"]`)))
	setList(raw, "genres", eachText(info.Find(`span[property="v:genre"]`)))
	setText(raw, "country", infoText(info, "制片国家/地区"))
	setText(raw, "language", infoText(info, "语言"))
	setText(raw, "imdb", infoText(info, "IMDb"))
	setList(raw, "aka", splitList(infoText(info, "又名")))

	var releaseDates []string
	doc.Find(`span[property="v:initialReleaseDate"]`).Each(func(_ int, s *goquery.Selection) {
		if date := strings.TrimSpace(s.AttrOr("content", s.Text())); date != "" {
			releaseDates = append(releaseDates, date)
		}
	})
	setList(raw, "releaseDate", releaseDates)

	duration := strings.TrimSpace(doc.Find(`span[property="v:runtime"]`).First().Text())
	if duration == "" {
		duration = infoText(info, "片长")
	}
	setText(raw, "duration", duration)

	if ct == transform.ContentTypeTV {
		setNumberOrText(raw, "episodes", infoText(info, "集数"))
	}
}

// infoText returns the text run following the given #info label,
// stopping at the first <br> or at the end of the label's wrapper.
func infoText(info *goquery.Selection, label string) string {
	var run string
	info.Find("span.pl").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name := strings.TrimSpace(s.Text())
		name = strings.TrimSuffix(name, ":")
		name = strings.TrimSuffix(name, "：")
		name = strings.TrimSpace(name)
		if name != label {
			return true
		}
		run = labelRunText(s)
		return false
	})
	run = strings.TrimSpace(run)
	run = strings.TrimPrefix(run, ":")
	run = strings.TrimPrefix(run, "：")
	return strings.TrimSpace(run)
}

func labelRunText(label *goquery.Selection) string {
	if len(label.Nodes) == 0 {
		return ""
	}
	var buffer strings.Builder
	for n := label.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "br" {
			break
		}
		buffer.WriteString(htmlutil.GetText(n))
	}
	return textutil.CollapseWhitespace(buffer.String())
}

func eachText(sel *goquery.Selection) []string {
	var values []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			values = append(values, text)
		}
	})
	return values
}

func splitList(run string) []string {
	if run == "" {
		return nil
	}
	parts := strings.Split(run, "/")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func setText(raw map[string]any, key, value string) {
	if value != "" {
		raw[key] = value
	}
}

func setList(raw map[string]any, key string, values []string) {
	if len(values) > 0 {
		raw[key] = values
	}
}

// setNumberOrText prefers a numeric value but keeps odd shapes like
// "全二册" as text rather than dropping them.
func setNumberOrText(raw map[string]any, key, value string) {
	if value == "" {
		return
	}
	if n, err := strconv.Atoi(value); err == nil {
		raw[key] = n
		return
	}
	raw[key] = value
}
