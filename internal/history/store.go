package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/screentrans/internal/logging"
	"codeberg.org/snonux/screentrans/internal/pipeline"
)

// Record is one stored job result
type Record struct {
	ID             int64
	JobID          string
	CreatedAt      time.Time
	State          string
	SourceText     string
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
	Provider       string
	FromCache      bool
	Error          string
}

// Summary aggregates the stored records
type Summary struct {
	Total    int
	Failed   int
	Cached   int
	ByTarget map[string]int
}

// Store records finished jobs. It implements pipeline.Presenter.
type Store struct {
	db  *sql.DB
	log *logging.Logger
	now func() time.Time
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL,
		state TEXT NOT NULL,
		source_text TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		provider TEXT NOT NULL,
		from_cache INTEGER NOT NULL,
		error TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_results_created ON results (created_at)`,
}

// DefaultPath returns the database location below the user's state directory
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "screentrans", "history.db")
}

// Open opens or creates the database at path
func Open(path string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection serializes writers
	db.SetMaxOpenConns(1)

	for _, query := range schema {
		if _, err := db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create history schema: %w", err)
		}
	}

	return &Store{db: db, log: log, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// OnJobUpdate stores Done jobs with text and all Failed jobs
func (s *Store) OnJobUpdate(jobID string, state pipeline.State, payload *pipeline.Payload) {
	if payload == nil {
		return
	}
	switch state {
	case pipeline.StateDone:
		if payload.SourceText() == "" {
			return
		}
	case pipeline.StateFailed:
	default:
		return
	}

	rec := Record{
		JobID:          jobID,
		CreatedAt:      s.now(),
		State:          state.String(),
		SourceText:     payload.SourceText(),
		TranslatedText: payload.TranslatedText(),
		FromCache:      payload.FromCache,
	}
	if payload.Recognition != nil {
		rec.SourceLanguage = payload.Recognition.Language
	}
	if tr := payload.Translation; tr != nil {
		rec.TargetLanguage = tr.TargetLanguage
		rec.Provider = tr.Provider
	}
	if payload.Err != nil {
		rec.Error = payload.Err.Error()
	}

	if err := s.Add(rec); err != nil {
		s.log.Warn("failed to store history record", "job", jobID, "error", err)
	}
}

// Add inserts rec. A record for an already stored job is ignored.
func (s *Store) Add(rec Record) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO results
		(job_id, created_at, state, source_text, translated_text, source_lang, target_lang, provider, from_cache, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobID, rec.CreatedAt.UnixMilli(), rec.State, rec.SourceText, rec.TranslatedText,
		rec.SourceLanguage, rec.TargetLanguage, rec.Provider, rec.FromCache, rec.Error)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (s *Store) Recent(limit int) ([]Record, error) {
	rows, err := s.db.Query(`SELECT id, job_id, created_at, state, source_text, translated_text,
		source_lang, target_lang, provider, from_cache, error
		FROM results ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var created int64
		if err := rows.Scan(&rec.ID, &rec.JobID, &created, &rec.State, &rec.SourceText, &rec.TranslatedText,
			&rec.SourceLanguage, &rec.TargetLanguage, &rec.Provider, &rec.FromCache, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to read history record: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(created)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Summary counts the stored records
func (s *Store) Summary() (Summary, error) {
	sum := Summary{ByTarget: make(map[string]int)}

	err := s.db.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(from_cache), 0)
		FROM results`, pipeline.StateFailed.String()).Scan(&sum.Total, &sum.Failed, &sum.Cached)
	if err != nil {
		return sum, fmt.Errorf("failed to summarize history: %w", err)
	}

	rows, err := s.db.Query(`SELECT target_lang, COUNT(*) FROM results
		WHERE target_lang != '' GROUP BY target_lang`)
	if err != nil {
		return sum, fmt.Errorf("failed to summarize history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return sum, fmt.Errorf("failed to read history summary: %w", err)
		}
		sum.ByTarget[lang] = n
	}
	return sum, rows.Err()
}
