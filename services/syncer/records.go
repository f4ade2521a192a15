package syncer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"doubansync-backend/lib/timezone"
	"doubansync-backend/lib/transform"
)

// ErrRecordNotFound is returned when a (user, type, subject) triple
// has never been synced.
var ErrRecordNotFound = errors.New("record not found")

// Record is one synced shelf item plus the provenance of its
// transformation.
type Record struct {
	UserID      string                `json:"userId"`
	ContentType transform.ContentType `json:"contentType"`
	SubjectID   string                `json:"subjectId"`
	Title       string                `json:"title"`
	Status      string                `json:"status"`
	Data        map[string]any        `json:"data"`
	Stats       transform.Stats       `json:"stats"`
	Warnings    []string              `json:"warnings,omitempty"`
	SyncedAt    time.Time             `json:"syncedAt"`
}

type recordRepo struct {
	db *sql.DB
}

func (r recordRepo) Upsert(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal record data: %w", err)
	}
	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("marshal record stats: %w", err)
	}
	warnings, err := json.Marshal(rec.Warnings)
	if err != nil {
		return fmt.Errorf("marshal record warnings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO record (user_id, content_type, subject_id, title, status, data, stats, warnings, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, content_type, subject_id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			data = excluded.data,
			stats = excluded.stats,
			warnings = excluded.warnings,
			synced_at = excluded.synced_at
	`, rec.UserID, string(rec.ContentType), rec.SubjectID, rec.Title, rec.Status,
		string(data), string(stats), string(warnings), rec.SyncedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (r recordRepo) Get(ctx context.Context, userID string, ct transform.ContentType, subjectID string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, content_type, subject_id, title, status, data, stats, warnings, synced_at
		FROM record
		WHERE user_id = ? AND content_type = ? AND subject_id = ?
	`, userID, string(ct), subjectID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// List returns a user's records, newest first. An empty content type
// lists every kind.
func (r recordRepo) List(ctx context.Context, userID string, ct transform.ContentType) ([]Record, error) {
	query := `
		SELECT user_id, content_type, subject_id, title, status, data, stats, warnings, synced_at
		FROM record
		WHERE user_id = ?
	`
	args := []any{userID}
	if ct != "" {
		query += ` AND content_type = ?`
		args = append(args, string(ct))
	}
	query += ` ORDER BY synced_at DESC, subject_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows records: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var ct, data, stats, warnings string
	var syncedAt int64

	err := row.Scan(&rec.UserID, &ct, &rec.SubjectID, &rec.Title, &rec.Status,
		&data, &stats, &warnings, &syncedAt)
	if err != nil {
		return Record{}, err
	}

	rec.ContentType = transform.ContentType(ct)
	rec.SyncedAt = time.Unix(syncedAt, 0).In(timezone.Location)
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return Record{}, fmt.Errorf("unmarshal record data: %w", err)
	}
	if err := json.Unmarshal([]byte(stats), &rec.Stats); err != nil {
		return Record{}, fmt.Errorf("unmarshal record stats: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &rec.Warnings); err != nil {
		return Record{}, fmt.Errorf("unmarshal record warnings: %w", err)
	}
	return rec, nil
}
