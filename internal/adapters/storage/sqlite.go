package storage

// sqlite.go — registro de auditoría de copias.
//
// Estrategia:
//   - `copies`: una fila por fill de la ballena procesado, con la decisión
//     y el estado terminal de la cadena. event_key es UNIQUE: la tabla es
//     también la fuente del dedup entre reinicios.
//   - `attempts`: una fila por envío al CLOB dentro de cada cadena. Con las
//     dos tablas se reconstruye por qué una copia terminó como terminó.
//   - Prune automático al arrancar: copies (y sus attempts) > 7d.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/whalebot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por fill de la ballena procesado
CREATE TABLE IF NOT EXISTS copies (
    id           TEXT PRIMARY KEY,
    event_key    TEXT NOT NULL UNIQUE,
    token_id     TEXT NOT NULL,
    side         TEXT NOT NULL,
    slug         TEXT,
    whale_shares REAL NOT NULL,
    whale_price  REAL NOT NULL,
    copy_size    REAL NOT NULL DEFAULT 0,
    limit_price  REAL NOT NULL DEFAULT 0,
    filled_size  REAL NOT NULL DEFAULT 0,
    attempts     INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    created_at   DATETIME NOT NULL,
    closed_at    DATETIME
);

-- Una fila por envío al CLOB dentro de una cadena
CREATE TABLE IF NOT EXISTS attempts (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    copy_id      TEXT NOT NULL REFERENCES copies(id),
    number       INTEGER NOT NULL,
    price        REAL NOT NULL,
    size         REAL NOT NULL,
    order_type   TEXT NOT NULL,
    filled_size  REAL NOT NULL DEFAULT 0,
    order_id     TEXT,
    err          TEXT,
    submitted_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_copies_created ON copies(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_copies_token   ON copies(token_id);
CREATE INDEX IF NOT EXISTS idx_attempts_copy  ON attempts(copy_id);
`

const (
	retentionCopies = 7 * 24 * time.Hour
	seenWindow      = 24 * time.Hour // claves a precalentar para el dedup
)

// SQLiteStorage implementa ports.CopyStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SeenKeys devuelve las claves de dedup de las copias recientes.
func (s *SQLiteStorage) SeenKeys(ctx context.Context) ([]string, error) {
	cutoff := time.Now().UTC().Add(-seenWindow)
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_key FROM copies WHERE created_at >= ?`, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.SeenKeys: query: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("storage.SeenKeys: scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SaveCopy inserta o actualiza el registro agregado de una copia. La misma
// fila se escribe dos veces en el camino feliz: al encolar (status vacío aún
// no, se escribe al cerrar) — en la práctica una vez por estado terminal, y
// el upsert cubre reintentos del worker.
func (s *SQLiteStorage) SaveCopy(ctx context.Context, c domain.CopyOrder) error {
	var closedAt *time.Time
	if !c.ClosedAt.IsZero() {
		t := c.ClosedAt.UTC()
		closedAt = &t
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO copies
			(id, event_key, token_id, side, slug, whale_shares, whale_price,
			 copy_size, limit_price, filled_size, attempts, status, created_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_key) DO UPDATE SET
			slug        = excluded.slug,
			copy_size   = excluded.copy_size,
			limit_price = excluded.limit_price,
			filled_size = excluded.filled_size,
			attempts    = excluded.attempts,
			status      = excluded.status,
			closed_at   = excluded.closed_at
	`,
		c.ID, c.EventKey, c.TokenID, string(c.Side), c.Slug,
		c.WhaleShares, c.WhalePrice, c.CopySize, c.LimitPrice,
		c.FilledSize, c.Attempts, c.Status, c.CreatedAt.UTC(), closedAt,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveCopy: upsert %s: %w", c.EventKey, err)
	}
	return nil
}

// SaveAttempt registra un envío individual dentro de la cadena de una copia.
func (s *SQLiteStorage) SaveAttempt(ctx context.Context, copyID string, a domain.OrderAttempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts
			(copy_id, number, price, size, order_type, filled_size, order_id, err, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		copyID, a.Number, a.Price, a.Size, string(a.Type),
		a.FilledSize, a.OrderID, a.Err, a.SubmittedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveAttempt: insert %s#%d: %w", copyID, a.Number, err)
	}
	return nil
}

// RecentCopies devuelve las últimas copias, más reciente primero.
func (s *SQLiteStorage) RecentCopies(ctx context.Context, limit int) ([]domain.CopyOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_key, token_id, side, slug, whale_shares, whale_price,
		       copy_size, limit_price, filled_size, attempts, status, created_at, closed_at
		FROM copies
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentCopies: query: %w", err)
	}
	defer rows.Close()

	var copies []domain.CopyOrder
	for rows.Next() {
		var c domain.CopyOrder
		var side string
		var closedAt sql.NullTime
		if err := rows.Scan(
			&c.ID, &c.EventKey, &c.TokenID, &side, &c.Slug,
			&c.WhaleShares, &c.WhalePrice, &c.CopySize, &c.LimitPrice,
			&c.FilledSize, &c.Attempts, &c.Status, &c.CreatedAt, &closedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentCopies: scan: %w", err)
		}
		c.Side = domain.Side(side)
		if closedAt.Valid {
			c.ClosedAt = closedAt.Time
		}
		copies = append(copies, c)
	}
	return copies, rows.Err()
}

// Stats agrega los contadores sobre toda la tabla de copias. Los estados con
// parámetros se clasifican en Go; SQLite solo devuelve las filas crudas.
func (s *SQLiteStorage) Stats(ctx context.Context) (domain.CopyStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, filled_size, filled_size * limit_price FROM copies`,
	)
	if err != nil {
		return domain.CopyStats{}, fmt.Errorf("storage.Stats: query: %w", err)
	}
	defer rows.Close()

	var stats domain.CopyStats
	for rows.Next() {
		var status string
		var filled, notional float64
		if err := rows.Scan(&status, &filled, &notional); err != nil {
			return domain.CopyStats{}, fmt.Errorf("storage.Stats: scan: %w", err)
		}

		stats.Total++
		stats.FilledShares += filled
		stats.NotionalUSD += notional

		switch {
		case domain.IsSuccess(status):
			stats.Successes++
		case status == domain.StatusResting:
			stats.Resting++
		case domain.IsSkipped(status):
			stats.Skipped++
		case domain.IsPartial(status):
			stats.Partials++
		default:
			stats.Failed++
		}
	}
	return stats, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionCopies)
	s.db.ExecContext(ctx,
		`DELETE FROM attempts WHERE copy_id IN (SELECT id FROM copies WHERE created_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM copies WHERE created_at < ?`, cutoff)
}
