package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tokenforge/liquidity/pkg/types"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrent performance
	dsn := fmt.Sprintf("%s?_journal=WAL&_sync=NORMAL&_cache_size=10000&_foreign_keys=ON", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStorage{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		chain_id INTEGER NOT NULL,
		dex TEXT NOT NULL,
		token_address TEXT NOT NULL,
		pairing_mode TEXT NOT NULL,
		token_amount TEXT NOT NULL,
		pairing_amount TEXT NOT NULL,
		fee_tier INTEGER DEFAULT 0,
		tx_hash TEXT,
		position_id TEXT,
		phases TEXT NOT NULL,
		error_kind TEXT,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_started ON attempts(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_attempts_token ON attempts(token_address);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveAttempt persists a resolved attempt.
func (s *SQLiteStorage) SaveAttempt(ctx context.Context, record *types.AttemptRecord) error {
	phasesJSON, err := json.Marshal(record.Phases)
	if err != nil {
		return fmt.Errorf("failed to marshal phases: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (
			id, started_at, completed_at, chain_id, dex, token_address,
			pairing_mode, token_amount, pairing_amount, fee_tier,
			tx_hash, position_id, phases, error_kind, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.StartedAt, record.CompletedAt, record.ChainID, string(record.Dex),
		record.TokenAddress, string(record.PairingMode), record.TokenAmount, record.PairingAmount,
		uint32(record.FeeTier), record.TxHash, record.PositionID, string(phasesJSON),
		string(record.ErrorKind), record.ErrorMessage)

	return err
}

// GetAttempt returns one attempt by id, or nil if absent.
func (s *SQLiteStorage) GetAttempt(ctx context.Context, id string) (*types.AttemptRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, completed_at, chain_id, dex, token_address,
			pairing_mode, token_amount, pairing_amount, fee_tier,
			tx_hash, position_id, phases, error_kind, error_message
		FROM attempts WHERE id = ?
	`, id)

	record, err := scanAttempt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// ListAttempts returns the most recent attempts, newest first.
func (s *SQLiteStorage) ListAttempts(ctx context.Context, limit, offset int) ([]*types.AttemptRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, chain_id, dex, token_address,
			pairing_mode, token_amount, pairing_amount, fee_tier,
			tx_hash, position_id, phases, error_kind, error_message
		FROM attempts
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*types.AttemptRecord
	for rows.Next() {
		record, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// scannable covers both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanAttempt(row scannable) (*types.AttemptRecord, error) {
	var (
		record       types.AttemptRecord
		dex          string
		pairingMode  string
		feeTier      uint32
		txHash       sql.NullString
		positionID   sql.NullString
		phasesJSON   string
		errorKind    sql.NullString
		errorMessage sql.NullString
	)

	err := row.Scan(&record.ID, &record.StartedAt, &record.CompletedAt, &record.ChainID,
		&dex, &record.TokenAddress, &pairingMode, &record.TokenAmount, &record.PairingAmount,
		&feeTier, &txHash, &positionID, &phasesJSON, &errorKind, &errorMessage)
	if err != nil {
		return nil, err
	}

	record.Dex = types.DexVariant(dex)
	record.PairingMode = types.PairingMode(pairingMode)
	record.FeeTier = types.FeeTier(feeTier)
	record.TxHash = txHash.String
	record.PositionID = positionID.String
	record.ErrorKind = types.ErrorKind(errorKind.String)
	record.ErrorMessage = errorMessage.String

	// Phase snapshots are non-critical; tolerate corruption instead of
	// failing the whole query.
	if err := json.Unmarshal([]byte(phasesJSON), &record.Phases); err != nil {
		slog.Warn("failed to unmarshal phases",
			"attemptId", record.ID,
			"error", err.Error(),
		)
		record.Phases = types.NewPhaseStatus()
	}

	return &record, nil
}
