package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// ExportedModel is the serializable representation of a saved model, used for
// JSON-based import and export.
type ExportedModel struct {
	Name              string               `json:"name"`
	Kind              string               `json:"kind"`
	Order             int                  `json:"order"`
	DesiredNextStates int                  `json:"desired_next_states,omitempty"`
	Vocabulary        map[string]int       `json:"vocabulary"` // token_text -> token_id
	Transitions       []ExportedTransition `json:"transitions"`
	Terminals         []ExportedTerminal   `json:"terminals"`
}

// ExportedTransition is one weighted (window, next token) row within an
// ExportedModel.
type ExportedTransition struct {
	State       string `json:"state"`
	NextTokenID int    `json:"next_token_id"`
	Weight      int    `json:"weight"`
}

// ExportedTerminal is one terminal-weight row within an ExportedModel.
type ExportedTerminal struct {
	State  string `json:"state"`
	Weight int    `json:"weight"`
}

// ExportModel serializes a saved model to JSON and writes it to w. This is
// useful for backups or for transferring models between databases.
func (s *Store[T]) ExportModel(ctx context.Context, name string, w io.Writer) error {
	info, err := s.Model(ctx, name)
	if err != nil {
		return err
	}

	exported := ExportedModel{
		Name:              info.Name,
		Kind:              info.Kind,
		Order:             info.Order,
		DesiredNextStates: info.DesiredNextStates,
		Vocabulary:        make(map[string]int),
	}

	rows, err := s.stmtGetVocab.QueryContext(ctx, info.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id int
		var text string
		if err = rows.Scan(&id, &text); err != nil {
			_ = rows.Close()
			return err
		}
		exported.Vocabulary[text] = id
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return err
	}

	tRows, err := s.stmtGetTrans.QueryContext(ctx, info.ID)
	if err != nil {
		return err
	}
	for tRows.Next() {
		var row ExportedTransition
		if err = tRows.Scan(&row.State, &row.NextTokenID, &row.Weight); err != nil {
			_ = tRows.Close()
			return err
		}
		exported.Transitions = append(exported.Transitions, row)
	}
	_ = tRows.Close()
	if err = tRows.Err(); err != nil {
		return err
	}

	eRows, err := s.stmtGetTerms.QueryContext(ctx, info.ID)
	if err != nil {
		return err
	}
	for eRows.Next() {
		var row ExportedTerminal
		if err = eRows.Scan(&row.State, &row.Weight); err != nil {
			_ = eRows.Close()
			return err
		}
		exported.Terminals = append(exported.Terminals, row)
	}
	_ = eRows.Close()
	if err = eRows.Err(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Model exported",
		slog.String("model_name", info.Name),
		slog.String("model_id", info.ID),
		slog.Int("vocab_items_exported", len(exported.Vocabulary)),
		slog.Int("transitions_exported", len(exported.Transitions)),
		slog.Int("terminals_exported", len(exported.Terminals)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// ExportFile writes a saved model's JSON representation to path atomically:
// the file either contains the complete export or is left untouched.
func (s *Store[T]) ExportFile(ctx context.Context, name, path string) error {
	var buf bytes.Buffer
	if err := s.ExportModel(ctx, name, &buf); err != nil {
		return err
	}
	return atomic.WriteFile(path, &buf)
}

// ImportModel reads a JSON model representation from r and saves it,
// replacing any model previously saved under the same name.
func (s *Store[T]) ImportModel(ctx context.Context, r io.Reader) error {
	var imported ExportedModel
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return fmt.Errorf("failed to decode json model: %w", err)
	}
	if imported.Kind != KindChain && imported.Kind != KindBackoff {
		return fmt.Errorf("store: unknown model kind '%s'", imported.Kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for import: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = deleteByName(ctx, tx, imported.Name); err != nil {
		return err
	}

	id := uuid.NewString()
	stmtInsertModel := tx.StmtContext(ctx, s.stmtInsertModel)
	stmtInsertVocab := tx.StmtContext(ctx, s.stmtInsertVocab)
	stmtInsertTrans := tx.StmtContext(ctx, s.stmtInsertTrans)
	stmtInsertTerm := tx.StmtContext(ctx, s.stmtInsertTerm)

	if _, err = stmtInsertModel.ExecContext(ctx, id, imported.Name, imported.Kind, imported.Order, imported.DesiredNextStates); err != nil {
		return fmt.Errorf("failed to insert model '%s': %w", imported.Name, err)
	}
	for text, tokenID := range imported.Vocabulary {
		if _, err = stmtInsertVocab.ExecContext(ctx, id, tokenID, text); err != nil {
			return fmt.Errorf("failed to insert vocabulary entry '%s': %w", text, err)
		}
	}
	for _, row := range imported.Transitions {
		if _, err = stmtInsertTrans.ExecContext(ctx, id, row.State, row.NextTokenID, row.Weight); err != nil {
			return fmt.Errorf("failed to insert transition for state '%s': %w", row.State, err)
		}
	}
	for _, row := range imported.Terminals {
		if _, err = stmtInsertTerm.ExecContext(ctx, id, row.State, row.Weight); err != nil {
			return fmt.Errorf("failed to insert terminal for state '%s': %w", row.State, err)
		}
	}

	s.logger.InfoContext(ctx, "Model imported",
		slog.String("model_name", imported.Name),
		slog.String("model_id", id),
		slog.Int("vocab_items_merged", len(imported.Vocabulary)),
		slog.Int("transitions_merged", len(imported.Transitions)),
		slog.Int("terminals_merged", len(imported.Terminals)),
	)

	return tx.Commit()
}
