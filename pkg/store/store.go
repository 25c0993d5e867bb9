package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

const (
	// KindChain marks a saved fixed-order chain.
	KindChain = "chain"
	// KindBackoff marks a saved backing-off composite.
	KindBackoff = "backoff"
)

// ErrModelNotFound is returned when no saved model has the requested name.
var ErrModelNotFound = errors.New("store: model not found")

// ModelInfo is the metadata row for one saved model.
type ModelInfo struct {
	ID                string
	Name              string
	Kind              string // KindChain or KindBackoff
	Order             int    // chain order, or maximum order for a composite
	DesiredNextStates int    // backoff threshold; 0 for plain chains
}

// ModelStats holds aggregate counts for one saved model.
type ModelStats struct {
	Transitions int // distinct (window, next token) rows
	TotalWeight int // sum of all transition weights
	Terminals   int // windows with a terminal weight
}

// SetupSchema initializes the store's tables in the provided database. It is
// idempotent and should be called once before any other operation.
func SetupSchema(db *sql.DB) error {
	const (
		schemaModels = `
CREATE TABLE IF NOT EXISTS markov_models (
    model_id TEXT PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    model_kind TEXT NOT NULL,
    model_order INTEGER NOT NULL,
    desired_next INTEGER NOT NULL DEFAULT 0
);
`
		schemaVocab = `
CREATE TABLE IF NOT EXISTS markov_vocabulary (
    model_id TEXT NOT NULL,
    token_id INTEGER NOT NULL,
    token_text TEXT NOT NULL,
    PRIMARY KEY (model_id, token_id)
);
`
		schemaTransitions = `
CREATE TABLE IF NOT EXISTS markov_transitions (
    model_id TEXT NOT NULL,
    state_text TEXT NOT NULL,
    next_token_id INTEGER NOT NULL,
    weight INTEGER NOT NULL,
    PRIMARY KEY (model_id, state_text, next_token_id)
);
`
		schemaTerminals = `
CREATE TABLE IF NOT EXISTS markov_terminals (
    model_id TEXT NOT NULL,
    state_text TEXT NOT NULL,
    weight INTEGER NOT NULL,
    PRIMARY KEY (model_id, state_text)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, ddl := range []string{schemaModels, schemaVocab, schemaTransitions, schemaTerminals} {
		if _, err = tx.Exec(ddl); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// Store reads and writes model snapshots for one symbol type. It holds the
// database connection, the symbol codec, and prepared statements for the hot
// queries.
type Store[T comparable] struct {
	db    *sql.DB
	codec Codec[T]

	stmtGetModel    *sql.Stmt
	stmtModels      *sql.Stmt
	stmtInsertModel *sql.Stmt
	stmtInsertVocab *sql.Stmt
	stmtInsertTrans *sql.Stmt
	stmtInsertTerm  *sql.Stmt
	stmtGetVocab    *sql.Stmt
	stmtGetTrans    *sql.Stmt
	stmtGetTerms    *sql.Stmt
	stmtCountTrans  *sql.Stmt
	stmtSumWeight   *sql.Stmt
	stmtCountTerms  *sql.Stmt

	logger *slog.Logger
}

// New creates a Store over an initialized database. It pre-compiles all
// statements, returning an error if any preparation fails.
func New[T comparable](db *sql.DB, codec Codec[T]) (*Store[T], error) {
	s := &Store[T]{
		db:     db,
		codec:  codec,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, stmt := range []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtGetModel, `SELECT model_id, model_kind, model_order, desired_next FROM markov_models WHERE model_name = ?;`},
		{&s.stmtModels, `SELECT model_id, model_name, model_kind, model_order, desired_next FROM markov_models;`},
		{&s.stmtInsertModel, `INSERT INTO markov_models (model_id, model_name, model_kind, model_order, desired_next) VALUES (?, ?, ?, ?, ?);`},
		{&s.stmtInsertVocab, `INSERT INTO markov_vocabulary (model_id, token_id, token_text) VALUES (?, ?, ?);`},
		{&s.stmtInsertTrans, `INSERT INTO markov_transitions (model_id, state_text, next_token_id, weight) VALUES (?, ?, ?, ?);`},
		{&s.stmtInsertTerm, `INSERT INTO markov_terminals (model_id, state_text, weight) VALUES (?, ?, ?);`},
		{&s.stmtGetVocab, `SELECT token_id, token_text FROM markov_vocabulary WHERE model_id = ?;`},
		{&s.stmtGetTrans, `SELECT state_text, next_token_id, weight FROM markov_transitions WHERE model_id = ?;`},
		{&s.stmtGetTerms, `SELECT state_text, weight FROM markov_terminals WHERE model_id = ?;`},
		{&s.stmtCountTrans, `SELECT COUNT(*) FROM markov_transitions WHERE model_id = ?;`},
		{&s.stmtSumWeight, `SELECT coalesce(SUM(weight), 0) FROM markov_transitions WHERE model_id = ?;`},
		{&s.stmtCountTerms, `SELECT COUNT(*) FROM markov_terminals WHERE model_id = ?;`},
	} {
		prepared, err := db.Prepare(stmt.query)
		if err != nil {
			return nil, err
		}
		*stmt.dst = prepared
	}

	return s, nil
}

// Close releases all prepared statements held by the Store.
func (s *Store[T]) Close() {
	_ = s.stmtGetModel.Close()
	_ = s.stmtModels.Close()
	_ = s.stmtInsertModel.Close()
	_ = s.stmtInsertVocab.Close()
	_ = s.stmtInsertTrans.Close()
	_ = s.stmtInsertTerm.Close()
	_ = s.stmtGetVocab.Close()
	_ = s.stmtGetTrans.Close()
	_ = s.stmtGetTerms.Close()
	_ = s.stmtCountTrans.Close()
	_ = s.stmtSumWeight.Close()
	_ = s.stmtCountTerms.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store[T]) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Model retrieves the metadata for a single saved model by name.
func (s *Store[T]) Model(ctx context.Context, name string) (ModelInfo, error) {
	info := ModelInfo{Name: name}
	err := s.stmtGetModel.QueryRowContext(ctx, name).Scan(&info.ID, &info.Kind, &info.Order, &info.DesiredNextStates)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelInfo{}, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if err != nil {
		return ModelInfo{}, err
	}
	return info, nil
}

// Models retrieves metadata for every saved model.
func (s *Store[T]) Models(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.stmtModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var models []ModelInfo
	for rows.Next() {
		var info ModelInfo
		if err = rows.Scan(&info.ID, &info.Name, &info.Kind, &info.Order, &info.DesiredNextStates); err != nil {
			return nil, err
		}
		models = append(models, info)
	}
	return models, rows.Err()
}

// DeleteModel removes a saved model and all of its rows. Deleting a name that
// was never saved is not an error.
func (s *Store[T]) DeleteModel(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	deleted, err := deleteByName(ctx, tx, name)
	if err != nil {
		return err
	}
	if deleted {
		s.logger.InfoContext(ctx, "Model deleted", slog.String("model_name", name))
	}
	return tx.Commit()
}

// Stats returns aggregate counts for one saved model.
func (s *Store[T]) Stats(ctx context.Context, name string) (ModelStats, error) {
	info, err := s.Model(ctx, name)
	if err != nil {
		return ModelStats{}, err
	}

	var stats ModelStats
	if err = s.stmtCountTrans.QueryRowContext(ctx, info.ID).Scan(&stats.Transitions); err != nil {
		return ModelStats{}, err
	}
	if err = s.stmtSumWeight.QueryRowContext(ctx, info.ID).Scan(&stats.TotalWeight); err != nil {
		return ModelStats{}, err
	}
	if err = s.stmtCountTerms.QueryRowContext(ctx, info.ID).Scan(&stats.Terminals); err != nil {
		return ModelStats{}, err
	}
	return stats, nil
}

// deleteByName removes a model row and its children inside tx, reporting
// whether anything existed.
func deleteByName(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT model_id FROM markov_models WHERE model_name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, table := range []string{"markov_transitions", "markov_terminals", "markov_vocabulary", "markov_models"} {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE model_id = ?", table), id); err != nil {
			return false, fmt.Errorf("failed to delete from %s for model %s: %w", table, id, err)
		}
	}
	return true, nil
}
