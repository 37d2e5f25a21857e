package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bubble-model/src/helpers"
	"bubble-model/src/logger"
	"bubble-model/src/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config models.MStorageConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg models.MStorageConfig, log *logger.Logger) *SQLiteDB {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	// Open DB
	db, err := sql.Open("sqlite", d.Config.DBPath)
	if err != nil {
		return helpers.NewDatabaseError("failed to open sqlite database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("failed to reach sqlite database", err)
	}

	// One writer at a time; sweeps save from several goroutines.
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			params TEXT NOT NULL,
			points INTEGER NOT NULL,
			final_price REAL,
			degenerate INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			fit TEXT,
			warnings TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);`,
		`CREATE TABLE IF NOT EXISTS trajectory_points (
			run_id TEXT NOT NULL REFERENCES runs (run_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			time INTEGER NOT NULL,
			integer_time INTEGER NOT NULL,
			price REAL,
			noise REAL NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
	}
	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return helpers.NewDatabaseError("failed to create sqlite tables", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveRun(ctx context.Context, result *models.MSimulationResult) error {
	rec, err := newRunRecord(result)
	if err != nil {
		return helpers.NewDatabaseError("failed to encode run", err)
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return helpers.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Params), rec.Points, rec.FinalPrice, rec.Degenerate,
		rec.StartedAt, rec.ElapsedNs, jsonArg(rec.Fit), jsonArg(rec.Warnings))
	if err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to insert run %s", rec.ID), err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trajectory_points (run_id, position, time, integer_time, price, noise)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return helpers.NewDatabaseError("failed to prepare point insert", err)
	}
	defer stmt.Close()

	for _, p := range pointRows(result) {
		if _, err := stmt.ExecContext(ctx, rec.ID, p.Position, p.Time, p.IntegerTime, p.Price, p.Noise); err != nil {
			return helpers.NewDatabaseError(fmt.Sprintf("failed to insert point %d of run %s", p.Position, rec.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("failed to commit run", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ListRuns(ctx context.Context, limit int) ([]models.MRunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helpers.NewDatabaseError("failed to list runs", err)
	}
	defer rows.Close()

	var out []models.MRunSummary
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, helpers.NewDatabaseError("failed to scan run", err)
		}
		s, err := rec.summary()
		if err != nil {
			return nil, helpers.NewDatabaseError("failed to decode run", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("failed to list runs", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetRun(ctx context.Context, id uuid.UUID) (*models.MSimulationResult, error) {
	rec, err := scanRun(d.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helpers.NewDatabaseError(fmt.Sprintf("failed to load run %s", id), err)
	}

	rows, err := d.DB.QueryContext(ctx, `
		SELECT position, time, integer_time, price, noise
		FROM trajectory_points WHERE run_id = ? ORDER BY position
	`, id.String())
	if err != nil {
		return nil, helpers.NewDatabaseError(fmt.Sprintf("failed to load trajectory of %s", id), err)
	}
	defer rows.Close()

	points, err := scanPoints(rows)
	if err != nil {
		return nil, helpers.NewDatabaseError(fmt.Sprintf("failed to load trajectory of %s", id), err)
	}

	result, err := rec.result(points)
	if err != nil {
		return nil, helpers.NewDatabaseError(fmt.Sprintf("failed to decode run %s", id), err)
	}
	return result, nil
}

// -----------------------------------------------------------------------------

// CleanupOldRuns deletes runs started before the cutoff with their trajectories.
func (d *SQLiteDB) CleanupOldRuns(ctx context.Context, before time.Time) (int64, error) {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	cutoff := before.UnixNano()
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM trajectory_points
		WHERE run_id IN (SELECT run_id FROM runs WHERE started_at < ?)
	`, cutoff); err != nil {
		return 0, helpers.NewDatabaseError("failed to delete old trajectories", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to delete old runs", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, helpers.NewDatabaseError("failed to commit cleanup", err)
	}

	n, _ := res.RowsAffected()
	d.Logger.Info("Cleanup removed %d runs started before %s", n, before.Format(time.DateTime))
	return n, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

func scanPoints(rows *sql.Rows) ([]pointRow, error) {
	var points []pointRow
	for rows.Next() {
		var p pointRow
		if err := rows.Scan(&p.Position, &p.Time, &p.IntegerTime, &p.Price, &p.Noise); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
