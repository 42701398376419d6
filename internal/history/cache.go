package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	_ "modernc.org/sqlite"

	"github.com/vistral/vistral/internal/viewmodel"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Cache is a local SQLite store of normalized, completed video records.
// Details load from it when the backend is unreachable, and every
// successful load refreshes it. Single writer, WAL mode, one connection;
// the UI loop is the only caller.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (and migrates) the cache database at path, creating the
// parent directory when needed.
func OpenCache(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	cache := &Cache{db: db}
	if err := cache.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) init(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		version, err := migrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var applied int
		err = c.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM schema_migrations WHERE version = ?", version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		script, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := c.db.ExecContext(ctx, string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := c.db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %d: %w", version, err)
		}
	}
	return nil
}

func migrationVersion(name string) (int, error) {
	base := strings.SplitN(strings.TrimSuffix(name, ".sql"), "_", 2)[0]
	version, err := strconv.Atoi(base)
	if err != nil {
		return 0, fmt.Errorf("migration %q has no numeric version prefix", name)
	}
	return version, nil
}

// Put stores or refreshes a normalized record.
func (c *Cache) Put(ctx context.Context, record *viewmodel.VideoRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record with a video id is required")
	}
	keyframes, err := json.Marshal(record.Keyframes)
	if err != nil {
		return fmt.Errorf("encode keyframes: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `INSERT INTO video_records
		(video_id, title, duration, summary, transcript, language, keyframes, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(video_id) DO UPDATE SET
			title = excluded.title,
			duration = excluded.duration,
			summary = excluded.summary,
			transcript = excluded.transcript,
			language = excluded.language,
			keyframes = excluded.keyframes,
			cached_at = CURRENT_TIMESTAMP`,
		record.ID, record.Title, record.Duration, record.Summary,
		record.Transcript, record.Language.String(), string(keyframes))
	if err != nil {
		return fmt.Errorf("store record %s: %w", record.ID, err)
	}
	return nil
}

// Get loads a cached record, reporting false when the id is unknown.
func (c *Cache) Get(ctx context.Context, videoID string) (*viewmodel.VideoRecord, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT title, duration, summary, transcript, language, keyframes
		FROM video_records WHERE video_id = ?`, videoID)

	record := &viewmodel.VideoRecord{ID: videoID}
	var langTag, keyframes string
	err := row.Scan(&record.Title, &record.Duration, &record.Summary,
		&record.Transcript, &langTag, &keyframes)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load record %s: %w", videoID, err)
	}

	if err := json.Unmarshal([]byte(keyframes), &record.Keyframes); err != nil {
		return nil, false, fmt.Errorf("decode keyframes for %s: %w", videoID, err)
	}
	record.Language = language.Make(langTag)
	return record, true, nil
}
