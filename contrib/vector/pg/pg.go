package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "github.com/lib/pq"
	errorskg "github.com/sweetpotato0/nyaya/errors"
	"github.com/sweetpotato0/nyaya/vector"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Config holds pgvector configuration
type Config struct {
	DSN string
	// TablePrefix is prepended to each collection name (default: "nyaya_").
	TablePrefix string
}

// Store implements vector.Store using PostgreSQL with the pgvector extension.
// Each collection is one table holding id, embedding and a JSONB payload.
type Store struct {
	db     *sql.DB
	prefix string

	mu   sync.RWMutex
	dims map[string]int
}

// New opens a connection and enables the pgvector extension.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("pgvector dsn: %w", errorskg.ErrInvalidInput)
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vector extension: %w", err)
	}
	return NewWithDB(db, cfg.TablePrefix), nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB, prefix string) *Store {
	if prefix == "" {
		prefix = "nyaya_"
	}
	return &Store{db: db, prefix: prefix, dims: make(map[string]int)}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) table(collection string) (string, error) {
	name := s.prefix + collection
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("collection %q is not a valid table name: %w", collection, errorskg.ErrInvalidInput)
	}
	return name, nil
}

func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int) error {
	table, err := s.table(name)
	if err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("collection %s: dimension must be positive: %w", name, errorskg.ErrInvalidInput)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		embedding vector(%d) NOT NULL,
		payload JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, table, dimension)
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	indexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_domain_idx ON %s ((payload->>'domain'))`, table, table)
	if _, err := s.db.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("failed to create domain index on %s: %w", table, err)
	}

	s.mu.Lock()
	s.dims[name] = dimension
	s.mu.Unlock()
	return nil
}

func (s *Store) Upsert(ctx context.Context, collection string, points ...vector.Point) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	s.mu.RLock()
	dim := s.dims[collection]
	s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
	INSERT INTO %s (id, embedding, payload)
	VALUES ($1, $2::vector, $3::jsonb)
	ON CONFLICT (id) DO UPDATE SET
		embedding = EXCLUDED.embedding,
		payload = EXCLUDED.payload,
		created_at = CURRENT_TIMESTAMP
	`, table)

	for _, p := range points {
		if p.ID == "" {
			return fmt.Errorf("point ID cannot be empty: %w", errorskg.ErrInvalidInput)
		}
		if dim > 0 && len(p.Vector) != dim {
			return fmt.Errorf("point %s: dimension mismatch: expected %d, got %d: %w", p.ID, dim, len(p.Vector), errorskg.ErrInvalidInput)
		}
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for %s: %w", p.ID, err)
		}
		if p.Payload == nil {
			payload = []byte("{}")
		}
		if _, err := tx.ExecContext(ctx, query, p.ID, vectorLiteral(p.Vector), string(payload)); err != nil {
			return fmt.Errorf("failed to upsert point %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// Search ranks rows by cosine similarity, computed as 1 - cosine distance.
func (s *Store) Search(ctx context.Context, collection string, req vector.SearchRequest) ([]vector.ScoredPoint, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty: %w", errorskg.ErrInvalidInput)
	}
	query, args := buildSearch(table, req)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}
	defer rows.Close()

	var out []vector.ScoredPoint
	for rows.Next() {
		var (
			id    string
			score float64
			raw   []byte
		)
		if err := rows.Scan(&id, &score, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		payload := vector.Payload{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return nil, fmt.Errorf("decode payload for %s: %w", id, err)
			}
		}
		out = append(out, vector.ScoredPoint{ID: id, Score: score, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hits: %w", err)
	}
	return out, nil
}

func buildSearch(table string, req vector.SearchRequest) (string, []any) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	args := []any{vectorLiteral(req.Vector), req.ScoreThreshold}
	var where []string
	where = append(where, "1 - (embedding <=> $1::vector) >= $2")

	keys := make([]string, 0, len(req.Filter))
	for k := range req.Filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k, req.Filter[k])
		where = append(where, fmt.Sprintf("payload->>$%d = $%d", len(args)-1, len(args)))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
	SELECT id, 1 - (embedding <=> $1::vector) AS score, payload
	FROM %s
	WHERE %s
	ORDER BY embedding <=> $1::vector
	LIMIT $%d
	`, table, strings.Join(where, " AND "), len(args))
	return query, args
}

// vectorLiteral renders a pgvector text literal: [1,2,3]
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
