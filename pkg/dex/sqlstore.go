package dex

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cpunion/dexbot/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS creatures (
	name        TEXT PRIMARY KEY,
	dex_id      INTEGER NOT NULL,
	types       TEXT NOT NULL,
	profile     TEXT NOT NULL,
	imported_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_creatures_dex_id ON creatures(dex_id);
`

// SQLStore keeps the roster in SQLite. Profiles are stored as JSON with
// derived fields already filled in.
type SQLStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

type creatureRow struct {
	Name       string `db:"name"`
	DexID      int    `db:"dex_id"`
	Types      string `db:"types"`
	Profile    string `db:"profile"`
	ImportedAt string `db:"imported_at"`
}

// OpenSQLStore opens (creating if needed) the database at path and
// migrates its schema. ":memory:" opens a private in-memory database.
func OpenSQLStore(path string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dex: create data dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dex: open database: %w", err)
	}
	if memory {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("dex: pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("dex: migration: %w", err)
	}
	return &SQLStore{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Import upserts profiles in a single transaction. Profiles should already
// carry derived fields (see Prepare).
func (s *SQLStore) Import(ctx context.Context, profiles []*types.CreatureProfile) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range profiles {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode %s: %w", p.Key(), err)
		}
		names := make([]string, len(p.Identity.Types))
		for i, t := range p.Identity.Types {
			names[i] = string(t)
		}
		row := creatureRow{
			Name:       p.Key(),
			DexID:      p.Identity.ID,
			Types:      strings.Join(names, ","),
			Profile:    string(data),
			ImportedAt: now,
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO creatures (name, dex_id, types, profile, imported_at)
			VALUES (:name, :dex_id, :types, :profile, :imported_at)
			ON CONFLICT(name) DO UPDATE SET
				dex_id = excluded.dex_id,
				types = excluded.types,
				profile = excluded.profile,
				imported_at = excluded.imported_at
		`, row); err != nil {
			return fmt.Errorf("import %s: %w", row.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("roster imported", zap.Int("creatures", len(profiles)))
	return nil
}

func (s *SQLStore) Get(ctx context.Context, name string) (*types.CreatureProfile, error) {
	key := types.NormalizeName(name)
	var row creatureRow
	err := s.db.GetContext(ctx, &row, `
		SELECT name, dex_id, types, profile, imported_at
		FROM creatures
		WHERE name = ?
	`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Name: key}
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(row)
}

func (s *SQLStore) Bulk(ctx context.Context) ([]*types.CreatureProfile, error) {
	var rows []creatureRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT name, dex_id, types, profile, imported_at
		FROM creatures
		ORDER BY dex_id, name
	`); err != nil {
		return nil, err
	}
	out := make([]*types.CreatureProfile, 0, len(rows))
	for _, row := range rows {
		p, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Count returns the number of stored creatures.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM creatures`)
	return n, err
}

func decodeRow(row creatureRow) (*types.CreatureProfile, error) {
	var p types.CreatureProfile
	if err := json.Unmarshal([]byte(row.Profile), &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", row.Name, err)
	}
	return &p, nil
}
