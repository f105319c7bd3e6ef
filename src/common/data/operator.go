package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jackc/pgx/v5"
)

// OperatorLookup names train operating companies.
type OperatorLookup interface {
	OperatorByCode(ctx context.Context, code string) (*types.Operator, error)
}

func (dc *DataClient) OperatorByCode(ctx context.Context, code string) (*types.Operator, error) {
	op := types.Operator{Code: code}
	err := dc.pg.QueryRow(ctx, `SELECT name FROM reference_toc WHERE code = $1`, code).Scan(&op.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query operator %s: %w", code, err)
	}
	return &op, nil
}

// ReplaceOperators swaps the whole operator list in one transaction.
func (dc *DataClient) ReplaceOperators(ctx context.Context, ops []types.Operator) error {
	return pgx.BeginFunc(ctx, dc.pg, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE TABLE reference_toc`); err != nil {
			return err
		}
		rows := make([][]any, 0, len(ops))
		for _, op := range ops {
			rows = append(rows, []any{op.Code, op.Name})
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"reference_toc"}, []string{"code", "name"}, pgx.CopyFromRows(rows))
		return err
	})
}

func (m *MemoryStore) OperatorByCode(_ context.Context, code string) (*types.Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name, ok := m.operators[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &types.Operator{Code: code, Name: name}, nil
}

func (m *MemoryStore) ReplaceOperators(_ context.Context, ops []types.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.operators = make(map[string]string, len(ops))
	for _, op := range ops {
		m.operators[op.Code] = op.Name
	}
	return nil
}
