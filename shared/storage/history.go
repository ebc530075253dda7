package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"comment-insights/internal/models"
	"comment-insights/shared/config"
)

// DefaultHistoryLimit is the number of records ListRecent returns when the
// caller does not ask for a positive limit.
const DefaultHistoryLimit = 10

// HistoryStore is an append-only log of analysis results backed by SQLite
// or PostgreSQL.
type HistoryStore struct {
	db      *sql.DB
	dialect dialect
}

// dialect holds the statements that differ between drivers.
type dialect struct {
	driverName string
	schema     string
	insert     string
	listRecent string
	count      string
}

var sqliteDialect = dialect{
	driverName: "sqlite",
	schema: `
CREATE TABLE IF NOT EXISTS analysis_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	video_id TEXT NOT NULL,
	title TEXT,
	thumbnail TEXT,
	channel_title TEXT,
	language TEXT NOT NULL DEFAULT 'en',
	analysis_json TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_analysis_history_video_id ON analysis_history (video_id);
CREATE INDEX IF NOT EXISTS idx_analysis_history_created_at ON analysis_history (created_at);
`,
	insert: `INSERT INTO analysis_history (video_id, title, thumbnail, channel_title, language, analysis_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
	listRecent: `SELECT id, video_id, title, thumbnail, channel_title, language, analysis_json, created_at
		FROM analysis_history ORDER BY created_at DESC, id DESC LIMIT ?`,
	count: `SELECT COUNT(*) FROM analysis_history`,
}

var postgresDialect = dialect{
	driverName: "pgx",
	schema: `
CREATE TABLE IF NOT EXISTS analysis_history (
	id BIGSERIAL PRIMARY KEY,
	video_id TEXT NOT NULL,
	title TEXT,
	thumbnail TEXT,
	channel_title TEXT,
	language TEXT NOT NULL DEFAULT 'en',
	analysis_json JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_analysis_history_video_id ON analysis_history (video_id);
CREATE INDEX IF NOT EXISTS idx_analysis_history_created_at ON analysis_history (created_at);
`,
	insert: `INSERT INTO analysis_history (video_id, title, thumbnail, channel_title, language, analysis_json)
		VALUES ($1, $2, $3, $4, $5, $6)`,
	listRecent: `SELECT id, video_id, title, thumbnail, channel_title, language, analysis_json::text, created_at
		FROM analysis_history ORDER BY created_at DESC, id DESC LIMIT $1`,
	count: `SELECT COUNT(*) FROM analysis_history`,
}

// Open connects to the configured database and creates the history table
// if it does not exist.
func Open(ctx context.Context, cfg *config.StorageConfig) (*HistoryStore, error) {
	var d dialect
	switch cfg.Driver {
	case config.DriverSQLite, "":
		d = sqliteDialect
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	case config.DriverPostgres:
		d = postgresDialect
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	db, err := sql.Open(d.driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if d.driverName == sqliteDialect.driverName {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set WAL mode: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}

	return &HistoryStore{db: db, dialect: d}, nil
}

// Append writes one record. ID and CreatedAt on rec are ignored; the
// database assigns both.
func (s *HistoryStore) Append(ctx context.Context, rec *models.AnalysisHistoryRecord) error {
	analysis := rec.Analysis
	analysis.Normalize()
	encoded, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis for %s: %w", rec.VideoID, err)
	}

	language := rec.Language
	if language == "" {
		language = models.DefaultLanguage
	}

	_, err = s.db.ExecContext(ctx, s.dialect.insert,
		string(rec.VideoID), rec.Title, rec.Thumbnail, rec.ChannelTitle, string(language), string(encoded))
	if err != nil {
		return fmt.Errorf("failed to insert history for %s: %w", rec.VideoID, err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (s *HistoryStore) ListRecent(ctx context.Context, limit int) ([]models.AnalysisHistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.listRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := make([]models.AnalysisHistoryRecord, 0, limit)
	for rows.Next() {
		var (
			rec                         models.AnalysisHistoryRecord
			videoID, language, analysis string
			title, thumbnail, channel   sql.NullString
			createdAt                   timestamp
		)
		if err := rows.Scan(&rec.ID, &videoID, &title, &thumbnail, &channel, &language, &analysis, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if err := json.Unmarshal([]byte(analysis), &rec.Analysis); err != nil {
			return nil, fmt.Errorf("failed to decode analysis of history row %d: %w", rec.ID, err)
		}
		rec.Analysis.Normalize()
		rec.VideoID = models.VideoIdentifier(videoID)
		rec.Title = title.String
		rec.Thumbnail = thumbnail.String
		rec.ChannelTitle = channel.String
		rec.Language = models.Language(language)
		rec.CreatedAt = createdAt.Time
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}

	return records, nil
}

// Count returns the number of stored records.
func (s *HistoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.count).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

func (s *HistoryStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// timestamp scans created_at from either driver: PostgreSQL yields a
// time.Time, SQLite the ISO-8601 text written by the column default.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
