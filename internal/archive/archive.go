package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/subtech/mina-dashboard/internal/monitor"
	"github.com/subtech/mina-dashboard/internal/tags"
	"github.com/subtech/mina-dashboard/internal/views"
)

const schema = `
CREATE TABLE IF NOT EXISTS tag_snapshots (
	snapshot_id  TEXT PRIMARY KEY,
	version      BIGINT NOT NULL,
	captured_at  TIMESTAMPTZ NOT NULL,
	records      INTEGER NOT NULL,
	latest       INTEGER NOT NULL,
	interior     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tag_snapshot_entries (
	snapshot_id  TEXT NOT NULL REFERENCES tag_snapshots(snapshot_id) ON DELETE CASCADE,
	etiqueta     TEXT NOT NULL,
	tag_id       TEXT NOT NULL,
	categoria    TEXT NOT NULL,
	ubicacion    TEXT NOT NULL,
	timestap     BIGINT NOT NULL,
	payload      JSONB NOT NULL,
	PRIMARY KEY (snapshot_id, etiqueta)
);
CREATE INDEX IF NOT EXISTS idx_tag_snapshots_captured_at ON tag_snapshots (captured_at DESC);
`

// Record is one archived snapshot: its summary and the latest record of
// each etiqueta.
type Record struct {
	SnapshotID string        `json:"snapshot_id"`
	Version    uint64        `json:"version"`
	CapturedAt time.Time     `json:"captured_at"`
	Summary    views.Summary `json:"summary"`
	Latest     []tags.Tag    `json:"latest"`
}

// SnapshotRow is a tag_snapshots row.
type SnapshotRow struct {
	SnapshotID string    `json:"snapshot_id"`
	Version    uint64    `json:"version"`
	CapturedAt time.Time `json:"captured_at"`
	Records    int       `json:"records"`
	Latest     int       `json:"latest"`
	Interior   int       `json:"interior"`
}

func NewRecord(s monitor.Snapshot) Record {
	captured := s.UpdatedAt
	if captured.IsZero() {
		captured = time.Now()
	}
	return Record{
		SnapshotID: uuid.NewString(),
		Version:    s.Version,
		CapturedAt: captured,
		Summary:    views.Summarize(s.Tags),
		Latest:     tags.LatestPerEtiqueta(s.Tags),
	}
}

// PostgresArchive stores reconciled snapshots. When a spool is attached,
// records that fail to write are spooled and replayed later.
type PostgresArchive struct {
	DB      *sql.DB
	Spool   *Spool
	Timeout time.Duration
}

func New(db *sql.DB, spool *Spool) *PostgresArchive {
	return &PostgresArchive{DB: db, Spool: spool, Timeout: 5 * time.Second}
}

// Open connects with the lib/pq driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive db: %w", err)
	}
	return db, nil
}

func (a *PostgresArchive) EnsureSchema(ctx context.Context) error {
	_, err := a.DB.ExecContext(ctx, schema)
	return err
}

// Write stores rec in one transaction. Re-writing the same snapshot is a
// no-op.
func (a *PostgresArchive) Write(ctx context.Context, rec Record) error {
	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tag_snapshots (snapshot_id, version, captured_at, records, latest, interior)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (snapshot_id) DO NOTHING`,
		rec.SnapshotID, int64(rec.Version), rec.CapturedAt,
		rec.Summary.Records, rec.Summary.Latest, rec.Summary.Interior,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tag_snapshot_entries (snapshot_id, etiqueta, tag_id, categoria, ubicacion, timestap, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("prepare entries: %w", err)
	}
	defer stmt.Close()

	for _, t := range rec.Latest {
		payload, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, rec.SnapshotID, t.Etiqueta, t.ID, t.Categoria, t.Ubicacion, t.Timestap, payload); err != nil {
			return fmt.Errorf("insert entry %q: %w", t.Etiqueta, err)
		}
	}
	return tx.Commit()
}

// Save writes rec, falling back to the spool on failure.
func (a *PostgresArchive) Save(ctx context.Context, rec Record) error {
	err := a.Write(ctx, rec)
	if err == nil {
		return nil
	}
	if a.Spool == nil {
		return err
	}
	log.Printf("[WARN] Snapshot Archive: write failed: %v. Spooling snapshot %s", err, rec.SnapshotID)
	if spoolErr := a.Spool.Append(rec); spoolErr != nil {
		return fmt.Errorf("archive critical failure: %w", spoolErr)
	}
	return nil
}

// HandleSnapshot is a monitor.Listener.
func (a *PostgresArchive) HandleSnapshot(s monitor.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), a.Timeout)
	defer cancel()
	if err := a.Save(ctx, NewRecord(s)); err != nil {
		log.Printf("[ERROR] Snapshot Archive: %v", err)
	}
}

// Recent lists the newest archived snapshots.
func (a *PostgresArchive) Recent(ctx context.Context, limit int) ([]SnapshotRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := a.DB.QueryContext(ctx, `
		SELECT snapshot_id, version, captured_at, records, latest, interior
		FROM tag_snapshots
		ORDER BY captured_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SnapshotRow, 0)
	for rows.Next() {
		var r SnapshotRow
		var version int64
		if err := rows.Scan(&r.SnapshotID, &version, &r.CapturedAt, &r.Records, &r.Latest, &r.Interior); err != nil {
			return nil, err
		}
		r.Version = uint64(version)
		out = append(out, r)
	}
	return out, rows.Err()
}
