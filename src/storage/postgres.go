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
	"github.com/lib/pq"
)

const defaultSchema = "bubble_model"

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config models.MStorageConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg models.MStorageConfig, log *logger.Logger) *PostgresDB {
	schema := cfg.Schema
	if schema == "" {
		schema = defaultSchema
	}
	return &PostgresDB{
		Config: cfg,
		Schema: schema,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.Config.DBConnectionString)
	if err != nil {
		return helpers.NewDatabaseError("failed to open postgres connection", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("failed to reach postgres", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pq.QuoteIdentifier(d.Schema))); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to create schema %s", d.Schema), err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) table(name string) string {
	return pq.QuoteIdentifier(d.Schema) + "." + pq.QuoteIdentifier(name)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	queries := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				params JSONB NOT NULL,
				points INTEGER NOT NULL,
				final_price DOUBLE PRECISION,
				degenerate BOOLEAN NOT NULL,
				started_at BIGINT NOT NULL,
				elapsed_ns BIGINT NOT NULL,
				fit JSONB,
				warnings JSONB
			);
		`, d.table("runs")),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL REFERENCES %s (run_id) ON DELETE CASCADE,
				position INTEGER NOT NULL,
				time BIGINT NOT NULL,
				integer_time INTEGER NOT NULL,
				price DOUBLE PRECISION,
				noise DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, position)
			);
		`, d.table("trajectory_points"), d.table("runs")),
	}
	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return helpers.NewDatabaseError("failed to create postgres tables", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// SaveRun inserts the run header, then streams the trajectory with COPY.
func (d *PostgresDB) SaveRun(ctx context.Context, result *models.MSimulationResult) error {
	rec, err := newRunRecord(result)
	if err != nil {
		return helpers.NewDatabaseError("failed to encode run", err)
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return helpers.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, d.table("runs"), runColumns), rec.ID, string(rec.Params), rec.Points, rec.FinalPrice, rec.Degenerate,
		rec.StartedAt, rec.ElapsedNs, jsonArg(rec.Fit), jsonArg(rec.Warnings))
	if err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("failed to insert run %s", rec.ID), err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(d.Schema, "trajectory_points",
		"run_id", "position", "time", "integer_time", "price", "noise"))
	if err != nil {
		return helpers.NewDatabaseError("failed to prepare copy", err)
	}

	for _, p := range pointRows(result) {
		if _, err := stmt.ExecContext(ctx, rec.ID, p.Position, p.Time, p.IntegerTime, p.Price, p.Noise); err != nil {
			stmt.Close()
			return helpers.NewDatabaseError(fmt.Sprintf("failed to copy point %d of run %s", p.Position, rec.ID), err)
		}
	}
	// Flush the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return helpers.NewDatabaseError("failed to flush copy", err)
	}
	if err := stmt.Close(); err != nil {
		return helpers.NewDatabaseError("failed to close copy", err)
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("failed to commit run", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ListRuns(ctx context.Context, limit int) ([]models.MRunSummary, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY started_at DESC, run_id`, runColumns, d.table("runs"))
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
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

func (d *PostgresDB) GetRun(ctx context.Context, id uuid.UUID) (*models.MSimulationResult, error) {
	row := d.DB.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE run_id = $1`, runColumns, d.table("runs")), id.String())
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helpers.NewDatabaseError(fmt.Sprintf("failed to load run %s", id), err)
	}

	rows, err := d.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT position, time, integer_time, price, noise
		FROM %s WHERE run_id = $1 ORDER BY position
	`, d.table("trajectory_points")), id.String())
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

// CleanupOldRuns deletes runs started before the cutoff; trajectories cascade.
func (d *PostgresDB) CleanupOldRuns(ctx context.Context, before time.Time) (int64, error) {
	res, err := d.DB.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE started_at < $1`, d.table("runs")), before.UnixNano())
	if err != nil {
		return 0, helpers.NewDatabaseError("failed to delete old runs", err)
	}
	n, _ := res.RowsAffected()
	d.Logger.Info("Cleanup removed %d runs started before %s", n, before.Format(time.DateTime))
	return n, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
