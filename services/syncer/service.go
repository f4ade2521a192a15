// Package syncer walks a user's douban shelves, fetches and parses
// each subject page, runs the transform pipeline and persists the
// resulting records.
package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"doubansync-backend/lib/scrapers/douban/core"
	"doubansync-backend/lib/scrapers/douban/parser"
	"doubansync-backend/lib/timezone"
	"doubansync-backend/lib/transform"
	"doubansync-backend/services/keychain"
)

type Options struct {
	Pacing    core.PacingConfig
	Smtp      SmtpConfig
	ExportDir string
}

type Service struct {
	db       *sql.DB
	records  recordRepo
	keychain keychain.Service
	sessions *expirable.LRU[string, *core.Client]
	config   Options
}

func NewService(database *sql.DB, credentials keychain.Service, options Options) Service {
	return Service{
		db:       database,
		records:  recordRepo{db: database},
		keychain: credentials,
		sessions: expirable.NewLRU[string, *core.Client](256, nil, time.Minute*30),
		config:   options,
	}
}

// session returns the user's paced client, creating one on a cache
// miss. Reusing the client keeps one request counter and one cookie
// jar per credential no matter how many calls share the session.
func (s Service) session(ctx context.Context, userID string) (*core.Client, core.Credential, error) {
	cred, err := s.keychain.GetCredential(ctx, userID)
	if err != nil {
		return nil, core.Credential{}, err
	}
	if client, hit := s.sessions.Get(userID); hit {
		return client, cred, nil
	}

	client, err := core.NewClient(core.ClientOptions{Pacing: s.config.Pacing})
	if err != nil {
		return nil, core.Credential{}, err
	}
	s.sessions.Add(userID, client)
	return client, cred, nil
}

// CheckCredential probes whether the stored cookie still reaches the
// user's profile page.
func (s Service) CheckCredential(ctx context.Context, userID string) (core.CredentialStatus, error) {
	client, cred, err := s.session(ctx, userID)
	if err != nil {
		return core.CredentialStatus{}, err
	}
	return client.ValidateCredential(ctx, userID, cred), nil
}

func (s Service) GetRecord(ctx context.Context, userID string, ct transform.ContentType, subjectID string) (Record, error) {
	return s.records.Get(ctx, userID, ct, subjectID)
}

func (s Service) ListRecords(ctx context.Context, userID string, ct transform.ContentType) ([]Record, error) {
	return s.records.List(ctx, userID, ct)
}

// Report summarizes one sync session.
type Report struct {
	UserID      string
	Synced      map[transform.ContentType]int
	Skipped     int
	Failed      int
	Warnings    int
	Interrupted bool
	Reason      string
}

func (r Report) TotalSynced() int {
	total := 0
	for _, n := range r.Synced {
		total += n
	}
	return total
}

type shelf struct {
	path   string
	status string
}

// shelfWalk describes one site traversal. The movie site mixes
// movies, tv and documentaries in the same shelves, so those kinds
// share a walk and split after classification.
type shelfWalk struct {
	host    string
	shelves []shelf
	parseAs transform.ContentType
	keep    map[transform.ContentType]bool
}

func buildWalks(kinds []transform.ContentType) []shelfWalk {
	books := map[transform.ContentType]bool{}
	media := map[transform.ContentType]bool{}
	for _, kind := range kinds {
		if kind == transform.ContentTypeBooks {
			books[kind] = true
		} else {
			media[kind] = true
		}
	}

	var walks []shelfWalk
	if len(books) > 0 {
		walks = append(walks, shelfWalk{
			host:    "book.douban.com",
			shelves: []shelf{{"wish", "想读"}, {"do", "在读"}, {"collect", "读过"}},
			parseAs: transform.ContentTypeBooks,
			keep:    books,
		})
	}
	if len(media) > 0 {
		walks = append(walks, shelfWalk{
			host:    "movie.douban.com",
			shelves: []shelf{{"wish", "想看"}, {"collect", "看过"}},
			// tv parsing is a superset of the movie fields
			parseAs: transform.ContentTypeTV,
			keep:    media,
		})
	}
	return walks
}

// classifyKind tells the media kinds apart after parsing. The 纪录片
// genre wins over episode info so documentary series don't land in
// the tv bucket.
func classifyKind(walk shelfWalk, raw map[string]any) transform.ContentType {
	if walk.parseAs == transform.ContentTypeBooks {
		return transform.ContentTypeBooks
	}
	if genres, ok := raw["genres"].([]string); ok {
		for _, genre := range genres {
			if genre == "纪录片" {
				return transform.ContentTypeDocumentary
			}
		}
	}
	if _, ok := raw["episodes"]; ok {
		return transform.ContentTypeTV
	}
	return transform.ContentTypeMovies
}

// SyncUser walks the user's shelves for the requested kinds and
// upserts one record per subject. Retryable fetch failures skip the
// subject; terminal ones abort the session, fire an alert and mark
// the report interrupted. An empty kinds slice means every kind.
func (s Service) SyncUser(ctx context.Context, userID string, kinds []transform.ContentType) (Report, error) {
	ctx, span := tracer.Start(ctx, "SyncUser")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID))

	report := Report{
		UserID: userID,
		Synced: map[transform.ContentType]int{},
	}
	if len(kinds) == 0 {
		kinds = transform.ContentTypes()
	}

	client, cred, err := s.session(ctx, userID)
	if err != nil {
		return report, err
	}

	seen := map[string]bool{}
	for _, walk := range buildWalks(kinds) {
		if err := s.runWalk(ctx, userID, client, cred, walk, seen, &report); err != nil {
			report.Reason = err.Error()
			if core.IsTerminal(err) {
				report.Interrupted = true
				sessionsInterrupted.Add(ctx, 1)
				s.sendAlert(ctx, userID, err)
				span.RecordError(err)
				span.SetStatus(codes.Error, "session interrupted")
			}
			return report, err
		}
	}

	slog.InfoContext(ctx, "sync finished",
		"user_id", userID,
		"synced", report.TotalSynced(),
		"skipped", report.Skipped,
		"failed", report.Failed,
		"warnings", report.Warnings)
	return report, nil
}

func (s Service) runWalk(ctx context.Context, userID string, client *core.Client, cred core.Credential, walk shelfWalk, seen map[string]bool, report *Report) error {
	for _, sh := range walk.shelves {
		pageUrl := fmt.Sprintf("https://%s/people/%s/%s", walk.host, url.PathEscape(userID), sh.path)
		for pageUrl != "" {
			body, err := client.Fetch(ctx, pageUrl, cred, nil)
			if err != nil {
				if core.IsTerminal(err) || ctx.Err() != nil {
					return err
				}
				slog.WarnContext(ctx, "giving up on shelf", "url", pageUrl, "err", err)
				report.Failed++
				break
			}

			base, err := url.Parse(pageUrl)
			if err != nil {
				return err
			}
			page, err := parser.ParseCollection(body, base, sh.status)
			if err != nil {
				slog.WarnContext(ctx, "unparseable shelf page", "url", pageUrl, "err", err)
				report.Failed++
				break
			}

			for _, entry := range page.Entries {
				// book and movie subject ids are separate sequences,
				// dedupe per site
				key := walk.host + "/" + entry.SubjectID
				if seen[key] {
					continue
				}
				if err := s.syncEntry(ctx, userID, client, cred, walk, entry, report); err != nil {
					return err
				}
				seen[key] = true
			}
			pageUrl = page.NextPage
		}
	}
	return nil
}

func (s Service) syncEntry(ctx context.Context, userID string, client *core.Client, cred core.Credential, walk shelfWalk, entry parser.CollectionEntry, report *Report) error {
	body, err := client.Fetch(ctx, entry.SubjectURL, cred, nil)
	if err != nil {
		if core.IsTerminal(err) || ctx.Err() != nil {
			return err
		}
		slog.WarnContext(ctx, "skipping subject", "subject_id", entry.SubjectID, "err", err)
		report.Failed++
		return nil
	}

	raw, err := parser.ParseSubject(body, walk.parseAs)
	if err != nil {
		slog.WarnContext(ctx, "unparseable subject page", "subject_id", entry.SubjectID, "err", err)
		report.Failed++
		return nil
	}

	kind := classifyKind(walk, raw)
	if !walk.keep[kind] {
		report.Skipped++
		return nil
	}

	mergeShelfEntry(raw, entry)

	res := transform.Transform(ctx, raw, kind, transform.Options{})

	title, _ := res.Data["title"].(string)
	if title == "" {
		title = entry.Title
	}
	status, _ := res.Data["status"].(string)

	rec := Record{
		UserID:      userID,
		ContentType: kind,
		SubjectID:   entry.SubjectID,
		Title:       title,
		Status:      status,
		Data:        res.Data,
		Stats:       res.Statistics,
		Warnings:    res.Warnings,
		SyncedAt:    timezone.Now(),
	}
	if err := s.records.Upsert(ctx, rec); err != nil {
		return err
	}

	report.Synced[kind]++
	report.Warnings += len(res.Warnings)
	recordsSynced.Add(ctx, 1, metric.WithAttributes(attribute.String("content_type", string(kind))))
	return nil
}

// mergeShelfEntry adds the user-owned fields that only exist on the
// shelf page to the subject's raw object.
func mergeShelfEntry(raw map[string]any, entry parser.CollectionEntry) {
	raw["status"] = entry.Status
	if entry.MyRating > 0 {
		raw["myRating"] = entry.MyRating
	}
	if entry.Comment != "" {
		raw["comment"] = entry.Comment
	}
	if len(entry.Tags) > 0 {
		raw["tags"] = entry.Tags
	}
	if entry.MarkDate != "" {
		raw["markDate"] = entry.MarkDate
	}
	if raw["url"] == nil && entry.SubjectURL != "" {
		raw["url"] = entry.SubjectURL
	}
	if raw["subjectId"] == nil && entry.SubjectID != "" {
		raw["subjectId"] = entry.SubjectID
	}
}
