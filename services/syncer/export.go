package syncer

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"doubansync-backend/lib/transform"
)

// ExportCSV writes the user's records of one content type as a CSV
// table, one column per field in display-name order. It returns the
// number of rows written.
func (s Service) ExportCSV(ctx context.Context, userID string, ct transform.ContentType, path string) (int, error) {
	fields, err := transform.Descriptors(ct)
	if err != nil {
		return 0, err
	}
	records, err := s.records.List(ctx, userID, ct)
	if err != nil {
		return 0, err
	}
	if err := ensureDir(path); err != nil {
		return 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := make([]string, 0, len(fields))
	for _, field := range fields {
		header = append(header, field.DisplayName)
	}
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		row := make([]string, 0, len(fields))
		for _, field := range fields {
			row = append(row, formatCell(rec.Data[field.SourceName]))
		}
		if err := writer.Write(row); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(records), nil
}

// ExportJSONL writes one record per line, stats and warnings
// included. An empty content type exports every kind.
func (s Service) ExportJSONL(ctx context.Context, userID string, ct transform.ContentType, path string) (int, error) {
	records, err := s.records.List(ctx, userID, ct)
	if err != nil {
		return 0, err
	}
	if err := ensureDir(path); err != nil {
		return 0, err
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	buffered := bufio.NewWriter(file)
	encoder := json.NewEncoder(buffered)
	for _, rec := range records {
		if err := encoder.Encode(rec); err != nil {
			return 0, fmt.Errorf("encode record: %w", err)
		}
	}
	if err := buffered.Flush(); err != nil {
		return 0, fmt.Errorf("flush export file: %w", err)
	}
	return len(records), nil
}

// ExportPath is the default location for an export under the
// configured directory.
func (s Service) ExportPath(userID string, ct transform.ContentType, format string) string {
	name := fmt.Sprintf("%s-%s.%s", userID, ct, format)
	if ct == "" {
		name = fmt.Sprintf("%s.%s", userID, format)
	}
	dir := s.config.ExportDir
	if dir == "" {
		dir = "exports"
	}
	return filepath.Join(dir, name)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// formatCell renders a transformed value for a CSV cell. Persisted
// data comes back from JSON, so numbers arrive as float64.
func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
