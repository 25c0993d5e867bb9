package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/otac0n/markov/pkg/markov"
)

// SaveChain snapshots a fixed-order chain under the given name, replacing any
// model previously saved under it.
func (s *Store[T]) SaveChain(ctx context.Context, name string, c *markov.Chain[T]) error {
	info := ModelInfo{Name: name, Kind: KindChain, Order: c.Order()}
	return s.save(ctx, info, c)
}

// SaveBackoffChain snapshots a backing-off composite under the given name,
// replacing any model previously saved under it. Only the primary chain's
// rows are stored; the lower orders are derived views and are rebuilt by
// fan-out on load.
func (s *Store[T]) SaveBackoffChain(ctx context.Context, name string, b *markov.BackoffChain[T]) error {
	info := ModelInfo{
		Name:              name,
		Kind:              KindBackoff,
		Order:             b.Order(),
		DesiredNextStates: b.DesiredNextStates(),
	}
	return s.save(ctx, info, b.Primary())
}

func (s *Store[T]) save(ctx context.Context, info ModelInfo, c *markov.Chain[T]) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = deleteByName(ctx, tx, info.Name); err != nil {
		return err
	}

	info.ID = uuid.NewString()
	stmtInsertModel := tx.StmtContext(ctx, s.stmtInsertModel)
	stmtInsertVocab := tx.StmtContext(ctx, s.stmtInsertVocab)
	stmtInsertTrans := tx.StmtContext(ctx, s.stmtInsertTrans)
	stmtInsertTerm := tx.StmtContext(ctx, s.stmtInsertTerm)

	if _, err = stmtInsertModel.ExecContext(ctx, info.ID, info.Name, info.Kind, info.Order, info.DesiredNextStates); err != nil {
		return fmt.Errorf("failed to insert model '%s': %w", info.Name, err)
	}

	// Token ids are assigned as symbols are first encountered; the encoded
	// text doubles as the dedup key, which is why Codec.Encode must be
	// injective.
	tokenIDs := make(map[string]int)
	tokenID := func(sym T) (int, error) {
		text := s.codec.Encode(sym)
		if id, ok := tokenIDs[text]; ok {
			return id, nil
		}
		id := len(tokenIDs)
		if _, err := stmtInsertVocab.ExecContext(ctx, info.ID, id, text); err != nil {
			return 0, fmt.Errorf("failed to insert vocabulary entry '%s': %w", text, err)
		}
		tokenIDs[text] = id
		return id, nil
	}

	stateKey := func(state markov.ChainState[T]) (string, error) {
		var buf []byte
		for i, sym := range state.Items() {
			id, err := tokenID(sym)
			if err != nil {
				return "", err
			}
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendInt(buf, int64(id), 10)
		}
		return string(buf), nil
	}

	var transitions, terminals int
	for _, state := range c.States() {
		key, err := stateKey(state)
		if err != nil {
			return err
		}
		for sym, weight := range c.NextStates(state) {
			id, err := tokenID(sym)
			if err != nil {
				return err
			}
			if _, err = stmtInsertTrans.ExecContext(ctx, info.ID, key, id, weight); err != nil {
				return fmt.Errorf("failed to insert transition for state '%s': %w", key, err)
			}
			transitions++
		}
		if weight := c.TerminalWeight(state); weight > 0 {
			if _, err = stmtInsertTerm.ExecContext(ctx, info.ID, key, weight); err != nil {
				return fmt.Errorf("failed to insert terminal for state '%s': %w", key, err)
			}
			terminals++
		}
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", info.Name),
		slog.String("model_id", info.ID),
		slog.String("model_kind", info.Kind),
		slog.Int("vocab_size", len(tokenIDs)),
		slog.Int("transitions", transitions),
		slog.Int("terminals", terminals),
	)

	return tx.Commit()
}
