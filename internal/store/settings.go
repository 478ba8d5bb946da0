package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"librarium/internal/model"
)

// GetSettings loads the full vocabulary snapshot. Missing keys come back as
// empty lists so callers never see nil slices.
func GetSettings(ctx context.Context, db *sql.DB) (*model.Settings, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT setting_key, setting_value FROM settings`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	defer rows.Close()

	s := &model.Settings{
		Authors:             []string{},
		Categories:          []string{},
		Genres:              []string{},
		Publishers:          []string{},
		Racks:               []string{},
		Shelves:             []string{},
		WithdrawalReasons:   []string{},
		LenderTypes:         []model.LenderType{},
		ReturnFilterOptions: []model.ReturnFilterOption{},
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		if err := decodeSetting(s, key, value); err != nil {
			return nil, err
		}
	}
	return s, rows.Err()
}

// decodeSetting unmarshals one vocabulary list into its tagged field. The
// switch is exhaustive over the configured kinds; unknown keys (like the
// jwt_secret row) are skipped.
func decodeSetting(s *model.Settings, key, value string) error {
	var target any
	switch key {
	case model.VocabAuthors:
		target = &s.Authors
	case model.VocabCategories:
		target = &s.Categories
	case model.VocabGenres:
		target = &s.Genres
	case model.VocabPublishers:
		target = &s.Publishers
	case model.VocabRacks:
		target = &s.Racks
	case model.VocabShelves:
		target = &s.Shelves
	case model.VocabWithdrawalReasons:
		target = &s.WithdrawalReasons
	case model.VocabLenderTypes:
		target = &s.LenderTypes
	case model.VocabReturnFilterOptions:
		target = &s.ReturnFilterOptions
	default:
		return nil
	}
	if err := json.Unmarshal([]byte(value), target); err != nil {
		return fmt.Errorf("decoding setting %q: %w", key, err)
	}
	return nil
}

// SaveSettings writes the full vocabulary snapshot in one transaction.
func SaveSettings(ctx context.Context, db *sql.DB, s *model.Settings) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	entries := map[string]any{
		model.VocabAuthors:             s.Authors,
		model.VocabCategories:          s.Categories,
		model.VocabGenres:              s.Genres,
		model.VocabPublishers:          s.Publishers,
		model.VocabRacks:               s.Racks,
		model.VocabShelves:             s.Shelves,
		model.VocabWithdrawalReasons:   s.WithdrawalReasons,
		model.VocabLenderTypes:         s.LenderTypes,
		model.VocabReturnFilterOptions: s.ReturnFilterOptions,
	}
	for key, list := range entries {
		value, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("encoding setting %q: %w", key, err)
		}
		if err := PutSettingRaw(ctx, tx, key, string(value)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// SeedSettings inserts the default vocabularies without overwriting existing
// values.
func SeedSettings(ctx context.Context, db *sql.DB) error {
	defaults := model.DefaultSettings()
	entries := map[string]any{
		model.VocabAuthors:             defaults.Authors,
		model.VocabCategories:          defaults.Categories,
		model.VocabGenres:              defaults.Genres,
		model.VocabPublishers:          defaults.Publishers,
		model.VocabRacks:               defaults.Racks,
		model.VocabShelves:             defaults.Shelves,
		model.VocabWithdrawalReasons:   defaults.WithdrawalReasons,
		model.VocabLenderTypes:         defaults.LenderTypes,
		model.VocabReturnFilterOptions: defaults.ReturnFilterOptions,
	}
	for key, list := range entries {
		value, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("encoding setting %q: %w", key, err)
		}
		_, err = db.ExecContext(ctx,
			`INSERT OR IGNORE INTO settings (setting_key, setting_value) VALUES (?, ?)`,
			key, string(value),
		)
		if err != nil {
			return fmt.Errorf("seeding setting %q: %w", key, err)
		}
	}
	return nil
}

// GetSettingRaw returns the stored JSON for one vocabulary key, or "" when
// the key does not exist.
func GetSettingRaw(ctx context.Context, db Querier, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT setting_value FROM settings WHERE setting_key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, nil
}

// PutSettingRaw upserts the stored JSON for one vocabulary key.
func PutSettingRaw(ctx context.Context, db Execer, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)
		 ON CONFLICT (setting_key) DO UPDATE SET setting_value = excluded.setting_value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}

// GetJWTSecret retrieves the token signing secret from the settings table,
// generating and persisting one on first use. INSERT OR IGNORE + re-SELECT
// avoids a TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (setting_key, setting_value) VALUES ('jwt_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT setting_value FROM settings WHERE setting_key = 'jwt_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying jwt_secret: %w", err)
	}

	return secret, nil
}
