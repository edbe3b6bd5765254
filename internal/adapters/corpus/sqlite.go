package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"musebot/internal/core/domain"
)

// Store is the local reference-lyrics corpus, backed by SQLite. Search is
// lexical: rows are ranked by normalized token overlap with the query.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open corpus db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS lyrics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL,
        singer TEXT NOT NULL,
        text TEXT NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("create lyrics table: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts one reference lyric into the corpus.
func (s *Store) Add(ctx context.Context, title, singer, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lyrics (title, singer, text) VALUES (?, ?, ?)`,
		title, singer, text)
	if err != nil {
		return fmt.Errorf("insert lyric: %w", err)
	}

	return nil
}

// Count returns the number of lyrics in the corpus.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lyrics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lyrics: %w", err)
	}

	return n, nil
}

// Search returns up to k lyrics ranked by token overlap with the query.
// Rows sharing no token with the query are not returned.
func (s *Store) Search(ctx context.Context, query string, k int) ([]domain.CorpusHit, error) {
	want := tokenize(query)
	if len(want) == 0 || k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT title, singer, text FROM lyrics`)
	if err != nil {
		return nil, fmt.Errorf("query lyrics: %w", err)
	}
	defer rows.Close()

	var hits []domain.CorpusHit
	for rows.Next() {
		var hit domain.CorpusHit
		if err := rows.Scan(&hit.Title, &hit.Singer, &hit.Text); err != nil {
			return nil, fmt.Errorf("scan lyric: %w", err)
		}

		have := tokenize(hit.Title + " " + hit.Singer + " " + hit.Text)
		overlap := 0
		for token := range want {
			if _, ok := have[token]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		hit.Score = float64(overlap) / float64(len(want))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lyrics: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}

	return hits, nil
}

var reToken = regexp.MustCompile(`[\p{L}\p{N}]+`)

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range reToken.FindAllString(strings.ToLower(s), -1) {
		tokens[token] = struct{}{}
	}

	return tokens
}
