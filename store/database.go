// Package store database for animated asset metadata and the
// quarantine log
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	// Create tables if they don't exist
	if err := database.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return database, nil
}

func (d *Database) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS assets (
		asset_name TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		width      INTEGER NOT NULL,
		height     INTEGER NOT NULL,
		validated  INTEGER NOT NULL,
		"order"    INTEGER NOT NULL,
		PRIMARY KEY (asset_name)
	);
	CREATE INDEX IF NOT EXISTS idx_assets_order ON assets("order");
	CREATE TABLE IF NOT EXISTS quarantine (
		asset_name     TEXT NOT NULL,
		reason         TEXT NOT NULL,
		quarantined_at TEXT NOT NULL
	);
	`
	_, err := d.db.Exec(query)
	return err
}

func (d *Database) InsertAsset(a Asset) error {
	query := `INSERT INTO assets (asset_name, size_bytes, width, height, validated, "order") VALUES (?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query, a.AssetName, a.SizeBytes, a.Width, a.Height, boolToInt(a.Validated), a.Order)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	return nil
}

func (d *Database) GetAssets() ([]Asset, error) {
	query := `
		SELECT asset_name, size_bytes, width, height, validated, "order"
		FROM assets
		ORDER BY "order" ASC
	`
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		var validated int
		if err := rows.Scan(&a.AssetName, &a.SizeBytes, &a.Width, &a.Height, &validated, &a.Order); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		a.Validated = validated != 0
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return assets, nil
}

func (d *Database) GetAssetCount() (int, error) {
	query := `SELECT COUNT(*) FROM assets`
	var count int
	err := d.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get asset count: %w", err)
	}
	return count, nil
}

func (d *Database) DeleteAsset(name string) error {
	query := `DELETE FROM assets WHERE asset_name = ?`
	result, err := d.db.Exec(query, name)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("asset not found: %s", name)
	}

	return nil
}

func (d *Database) GetMaxOrder() (int, error) {
	query := `SELECT COALESCE(MAX("order"), -1) FROM assets`
	var maxOrder int
	err := d.db.QueryRow(query).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to get max order: %w", err)
	}
	return maxOrder + 1, nil
}

func (d *Database) AssetExists(name string) (bool, error) {
	query := `SELECT COUNT(*) FROM assets WHERE asset_name = ?`
	var count int
	err := d.db.QueryRow(query, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check asset existence: %w", err)
	}
	return count > 0, nil
}

func (d *Database) MarkValidated(name string) error {
	query := `UPDATE assets SET validated = 1 WHERE asset_name = ?`
	result, err := d.db.Exec(query, name)
	if err != nil {
		return fmt.Errorf("failed to mark asset validated: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("asset not found: %s", name)
	}

	return nil
}

// RecordQuarantine logs a rejected or poisoned asset. It also drops the
// asset's registry row if one exists.
func (d *Database) RecordQuarantine(name, reason string) error {
	query := `INSERT INTO quarantine (asset_name, reason, quarantined_at) VALUES (?, ?, ?)`
	_, err := d.db.Exec(query, name, reason, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record quarantine: %w", err)
	}

	if _, err := d.db.Exec(`DELETE FROM assets WHERE asset_name = ?`, name); err != nil {
		return fmt.Errorf("failed to drop quarantined asset: %w", err)
	}
	return nil
}

func (d *Database) GetQuarantine() ([]QuarantineEntry, error) {
	query := `
		SELECT asset_name, reason, quarantined_at
		FROM quarantine
		ORDER BY quarantined_at DESC
	`
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarantine: %w", err)
	}
	defer rows.Close()

	var entries []QuarantineEntry
	for rows.Next() {
		var e QuarantineEntry
		var at string
		if err := rows.Scan(&e.AssetName, &e.Reason, &at); err != nil {
			return nil, fmt.Errorf("failed to scan quarantine entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			e.QuarantinedAt = t
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// IsQuarantined reports whether an asset name has ever been
// quarantined, so sync never re-downloads a known-bad file.
func (d *Database) IsQuarantined(name string) (bool, error) {
	query := `SELECT COUNT(*) FROM quarantine WHERE asset_name = ?`
	var count int
	err := d.db.QueryRow(query, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check quarantine: %w", err)
	}
	return count > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (d *Database) Close() error {
	return d.db.Close()
}
