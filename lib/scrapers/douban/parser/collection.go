package parser

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"doubansync-backend/lib/htmlutil"
)

// CollectionEntry is one row of a user's shelf page. Status is
// stamped by the caller, which knows which shelf it is walking.
type CollectionEntry struct {
	SubjectURL string
	SubjectID  string
	Title      string
	Status     string
	MyRating   int
	Comment    string
	Tags       []string
	MarkDate   string
}

type CollectionPage struct {
	Entries  []CollectionEntry
	NextPage string
}

var (
	starClassPattern = regexp.MustCompile(`rating(\d)-t`)
	markDatePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// ParseCollection extracts the entries of one shelf page. Book and
// movie shelves use different item markup, both are handled. Relative
// links resolve against base when it is non-nil.
func ParseCollection(pageHtml string, base *url.URL, status string) (CollectionPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHtml))
	if err != nil {
		return CollectionPage{}, fmt.Errorf("parse collection page: %w", err)
	}

	var page CollectionPage
	doc.Find("li.subject-item, div.grid-view div.item, div.article div.item").Each(func(_ int, item *goquery.Selection) {
		entry := parseCollectionEntry(item, base, status)
		if entry.SubjectURL == "" {
			return
		}
		page.Entries = append(page.Entries, entry)
	})

	next := doc.Find(".paginator span.next a").First()
	if href := next.AttrOr("href", ""); href != "" {
		if link, err := url.Parse(href); err == nil {
			if base != nil {
				link = base.ResolveReference(link)
			}
			page.NextPage = link.String()
		}
	}

	return page, nil
}

func parseCollectionEntry(item *goquery.Selection, base *url.URL, status string) CollectionEntry {
	entry := CollectionEntry{Status: status}

	anchors := htmlutil.GetAnchors(context.Background(), item.Find(`a[href*="/subject/"]`), base)
	for _, anchor := range anchors {
		m := subjectIdPattern.FindStringSubmatch(anchor.Href)
		if len(m) == 0 {
			continue
		}
		entry.SubjectURL = anchor.Href
		entry.SubjectID = m[1]
		if anchor.Name != "" {
			entry.Title = anchor.Name
		}
		break
	}
	// the title attribute carries the clean name on book shelves
	if title := item.Find(`a[href*="/subject/"]`).First().AttrOr("title", ""); title != "" {
		entry.Title = title
	}

	item.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class := s.AttrOr("class", "")
		if m := starClassPattern.FindStringSubmatch(class); len(m) > 0 {
			entry.MyRating, _ = strconv.Atoi(m[1])
			return false
		}
		return true
	})

	if date := item.Find("span.date").First().Text(); date != "" {
		entry.MarkDate = markDatePattern.FindString(date)
	}

	if tags := strings.TrimSpace(item.Find("span.tags").First().Text()); tags != "" {
		tags = strings.TrimPrefix(tags, "标签:")
		tags = strings.TrimPrefix(tags, "标签：")
		entry.Tags = strings.Fields(tags)
	}

	comment := strings.TrimSpace(item.Find("p.comment").First().Text())
	if comment == "" {
		comment = strings.TrimSpace(item.Find("span.comment").First().Text())
	}
	entry.Comment = comment

	return entry
}
