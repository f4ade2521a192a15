package syncer

import (
	"context"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"

	"doubansync-backend/lib/textutil"
)

// SearchResult pairs a record with its title similarity to the query.
type SearchResult struct {
	Record     Record
	Similarity float64
}

// SearchRecords ranks the user's records by fuzzy title match across
// every content type. Substring hits are floored at 0.9 so an exact
// fragment always outranks a merely similar title. A zero limit means
// no cap.
func (s Service) SearchRecords(ctx context.Context, userID, query string, limit int) ([]SearchResult, error) {
	records, err := s.records.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	normalizedQuery := textutil.NormalizeName(query)
	results := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		title := textutil.NormalizeName(rec.Title)
		similarity := matchr.JaroWinkler(normalizedQuery, title, false)
		if normalizedQuery != "" && strings.Contains(title, normalizedQuery) && similarity < 0.9 {
			similarity = 0.9
		}
		results = append(results, SearchResult{Record: rec, Similarity: similarity})
	}

	slices.SortStableFunc(results, func(a, b SearchResult) int {
		if a.Similarity != b.Similarity {
			if a.Similarity > b.Similarity {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Record.Title, b.Record.Title)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
