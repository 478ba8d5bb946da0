package circulation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"librarium/internal/model"
	"librarium/internal/store"
)

// RenameVocabulary renames one entry of a configured vocabulary and cascades
// the change through the catalog in the same transaction, so a half-renamed
// state is never visible. Authors and categories rewrite every book's list,
// genre/publisher/rack/shelf are single-column updates, and lender types,
// return filter presets, and withdrawal reasons touch only the vocabulary
// itself. Borrower roles and past loan records are historical snapshots and
// are left alone.
func RenameVocabulary(ctx context.Context, db *sql.DB, vocab, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: new name must not be empty", ErrValidation)
	}
	if newName == oldName {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	raw, err := store.GetSettingRaw(ctx, tx, vocab)
	if err != nil {
		return err
	}

	switch vocab {
	case model.VocabAuthors, model.VocabCategories, model.VocabGenres,
		model.VocabPublishers, model.VocabRacks, model.VocabShelves,
		model.VocabWithdrawalReasons:
		if err := renameInStringList(ctx, tx, vocab, raw, oldName, newName); err != nil {
			return err
		}
	case model.VocabLenderTypes:
		if err := renameLenderType(ctx, tx, raw, oldName, newName); err != nil {
			return err
		}
	case model.VocabReturnFilterOptions:
		if err := renameReturnFilterOption(ctx, tx, raw, oldName, newName); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown vocabulary %q", ErrValidation, vocab)
	}

	switch vocab {
	case model.VocabAuthors:
		err = cascadeBookList(ctx, tx, "authors", oldName, newName)
	case model.VocabCategories:
		err = cascadeBookList(ctx, tx, "categories", oldName, newName)
	case model.VocabGenres:
		err = cascadeBookColumn(ctx, tx, "genre", oldName, newName)
	case model.VocabPublishers:
		err = cascadeBookColumn(ctx, tx, "publisher", oldName, newName)
	case model.VocabRacks:
		err = cascadeBookColumn(ctx, tx, "rack", oldName, newName)
	case model.VocabShelves:
		err = cascadeBookColumn(ctx, tx, "shelf", oldName, newName)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rename: %w", err)
	}
	return nil
}

func renameInStringList(ctx context.Context, tx *sql.Tx, vocab, raw, oldName, newName string) error {
	var list []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return fmt.Errorf("decoding vocabulary %q: %w", vocab, err)
		}
	}

	idx := -1
	for i, entry := range list {
		if entry == newName {
			return fmt.Errorf("%w: %q already exists in %s", ErrValidation, newName, vocab)
		}
		if entry == oldName {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q in %s", ErrNotFound, oldName, vocab)
	}
	list[idx] = newName

	return putSettingJSON(ctx, tx, vocab, list)
}

func renameLenderType(ctx context.Context, tx *sql.Tx, raw, oldName, newName string) error {
	var types []model.LenderType
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &types); err != nil {
			return fmt.Errorf("decoding lender types: %w", err)
		}
	}

	idx := -1
	for i, lt := range types {
		if lt.Name == newName {
			return fmt.Errorf("%w: lender type %q already exists", ErrValidation, newName)
		}
		if lt.Name == oldName {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: lender type %q", ErrNotFound, oldName)
	}
	types[idx].Name = newName

	return putSettingJSON(ctx, tx, model.VocabLenderTypes, types)
}

func renameReturnFilterOption(ctx context.Context, tx *sql.Tx, raw, oldLabel, newLabel string) error {
	var options []model.ReturnFilterOption
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &options); err != nil {
			return fmt.Errorf("decoding return filter options: %w", err)
		}
	}

	idx := -1
	for i, opt := range options {
		if opt.Label == newLabel {
			return fmt.Errorf("%w: filter option %q already exists", ErrValidation, newLabel)
		}
		if opt.Label == oldLabel {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: filter option %q", ErrNotFound, oldLabel)
	}
	options[idx].Label = newLabel

	return putSettingJSON(ctx, tx, model.VocabReturnFilterOptions, options)
}

// cascadeBookList rewrites one JSON list column (authors or categories) in
// every book that references the old name, preserving list order. Matching
// happens on the decoded values, not the stored text: json.Marshal escapes
// characters like '&', so a raw LIKE against the column would miss them.
func cascadeBookList(ctx context.Context, tx *sql.Tx, column, oldName, newName string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, `+column+` FROM books`)
	if err != nil {
		return fmt.Errorf("reading book %s: %w", column, err)
	}
	defer rows.Close()

	updates := map[string]string{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("scanning book %s: %w", column, err)
		}

		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return fmt.Errorf("decoding book %s: %w", column, err)
		}
		changed := false
		for i, entry := range list {
			if entry == oldName {
				list[i] = newName
				changed = true
			}
		}
		if !changed {
			continue
		}

		encoded, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("encoding book %s: %w", column, err)
		}
		updates[id] = string(encoded)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading book %s: %w", column, err)
	}

	for id, encoded := range updates {
		if _, err := tx.ExecContext(ctx,
			`UPDATE books SET `+column+` = ? WHERE id = ?`, encoded, id,
		); err != nil {
			return fmt.Errorf("updating book %s: %w", column, err)
		}
	}
	return nil
}

func cascadeBookColumn(ctx context.Context, tx *sql.Tx, column, oldName, newName string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE books SET `+column+` = ? WHERE `+column+` = ?`, newName, oldName,
	)
	if err != nil {
		return fmt.Errorf("updating book %s: %w", column, err)
	}
	return nil
}

func putSettingJSON(ctx context.Context, tx *sql.Tx, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding vocabulary %q: %w", key, err)
	}
	return store.PutSettingRaw(ctx, tx, key, string(encoded))
}
