package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otac0n/markov/pkg/markov"
)

// LoadChain rebuilds a fixed-order chain saved under the given name.
func (s *Store[T]) LoadChain(ctx context.Context, name string) (*markov.Chain[T], error) {
	info, err := s.Model(ctx, name)
	if err != nil {
		return nil, err
	}
	if info.Kind != KindChain {
		return nil, fmt.Errorf("store: model '%s' is a %s, not a %s", name, info.Kind, KindChain)
	}

	c, err := markov.NewChain[T](info.Order)
	if err != nil {
		return nil, err
	}
	if err = s.load(ctx, info, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadBackoffChain rebuilds a backing-off composite saved under the given
// name. The stored rows are the primary chain's; replaying them through the
// composite's fan-out writes reconstructs every lower order exactly, because
// right-truncating an already max-order-truncated window equals truncating
// the original.
func (s *Store[T]) LoadBackoffChain(ctx context.Context, name string) (*markov.BackoffChain[T], error) {
	info, err := s.Model(ctx, name)
	if err != nil {
		return nil, err
	}
	if info.Kind != KindBackoff {
		return nil, fmt.Errorf("store: model '%s' is a %s, not a %s", name, info.Kind, KindBackoff)
	}

	b, err := markov.NewBackoffChain[T](info.Order, info.DesiredNextStates)
	if err != nil {
		return nil, err
	}
	if err = s.load(ctx, info, b); err != nil {
		return nil, err
	}
	return b, nil
}

// load replays a saved model's rows into m through the Model write surface.
func (s *Store[T]) load(ctx context.Context, info ModelInfo, m markov.Model[T]) error {
	vocab, err := s.loadVocabulary(ctx, info.ID)
	if err != nil {
		return err
	}

	decodeState := func(text string) (markov.ChainState[T], error) {
		if text == "" {
			return markov.NewChainState[T](nil), nil
		}
		parts := strings.Split(text, " ")
		items := make([]T, len(parts))
		for i, part := range parts {
			id, err := strconv.Atoi(part)
			if err != nil {
				return markov.ChainState[T]{}, fmt.Errorf("store: malformed state '%s': %w", text, err)
			}
			sym, ok := vocab[id]
			if !ok {
				return markov.ChainState[T]{}, fmt.Errorf("store: consistency error: token id %d in state '%s' not in vocabulary", id, text)
			}
			items[i] = sym
		}
		return markov.NewChainState(items), nil
	}

	rows, err := s.stmtGetTrans.QueryContext(ctx, info.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var stateText string
		var tokenID, weight int
		if err = rows.Scan(&stateText, &tokenID, &weight); err != nil {
			_ = rows.Close()
			return err
		}
		state, err := decodeState(stateText)
		if err != nil {
			_ = rows.Close()
			return err
		}
		sym, ok := vocab[tokenID]
		if !ok {
			_ = rows.Close()
			return fmt.Errorf("store: consistency error: next token id %d not in vocabulary", tokenID)
		}
		m.AddEdge(state, sym, weight)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return err
	}

	tRows, err := s.stmtGetTerms.QueryContext(ctx, info.ID)
	if err != nil {
		return err
	}
	for tRows.Next() {
		var stateText string
		var weight int
		if err = tRows.Scan(&stateText, &weight); err != nil {
			_ = tRows.Close()
			return err
		}
		state, err := decodeState(stateText)
		if err != nil {
			_ = tRows.Close()
			return err
		}
		m.AddTerminal(state, weight)
	}
	_ = tRows.Close()
	return tRows.Err()
}

func (s *Store[T]) loadVocabulary(ctx context.Context, modelID string) (map[int]T, error) {
	rows, err := s.stmtGetVocab.QueryContext(ctx, modelID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	vocab := make(map[int]T)
	for rows.Next() {
		var id int
		var text string
		if err = rows.Scan(&id, &text); err != nil {
			return nil, err
		}
		sym, err := s.codec.Decode(text)
		if err != nil {
			return nil, fmt.Errorf("store: failed to decode vocabulary entry '%s': %w", text, err)
		}
		vocab[id] = sym
	}
	return vocab, rows.Err()
}
