package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jack-barr3tt/gbr-tsdb/src/common/types"
	"github.com/jackc/pgx/v5"
)

func scanTiploc(row pgx.Row) (*types.Tiploc, error) {
	var t types.Tiploc
	var nalco, stanox, crs, description, tpsDescription sql.NullString
	if err := row.Scan(&t.TiplocCode, &nalco, &stanox, &crs, &description, &tpsDescription); err != nil {
		return nil, err
	}
	t.Nalco = nalco.String
	t.Stanox = stanox.String
	t.CRSCode = crs.String
	t.Description = description.String
	t.TPSDescription = tpsDescription.String
	return &t, nil
}

func (dc *DataClient) TiplocByCode(ctx context.Context, code string) (*types.Tiploc, error) {
	t, err := scanTiploc(dc.pg.QueryRow(ctx, `
		SELECT tiploc_code, nalco, stanox, crs_code, description, tps_description
		FROM tiploc WHERE tiploc_code = $1
	`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tiploc %s: %w", code, err)
	}
	return t, nil
}

// TiplocsByStanox returns every TIPLOC sharing the area code, ordered by code.
func (dc *DataClient) TiplocsByStanox(ctx context.Context, stanox string) ([]types.Tiploc, error) {
	rows, err := dc.pg.Query(ctx, `
		SELECT tiploc_code, nalco, stanox, crs_code, description, tps_description
		FROM tiploc WHERE stanox = $1
		ORDER BY tiploc_code
	`, stanox)
	if err != nil {
		return nil, fmt.Errorf("failed to query stanox %s: %w", stanox, err)
	}
	defer rows.Close()

	var tiplocs []types.Tiploc
	for rows.Next() {
		t, err := scanTiploc(rows)
		if err != nil {
			return nil, err
		}
		tiplocs = append(tiplocs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tiplocs, nil
}

func (dc *DataClient) InsertTiploc(ctx context.Context, t types.Tiploc) error {
	_, err := dc.pg.Exec(ctx, `
		INSERT INTO tiploc (tiploc_code, nalco, stanox, crs_code, description, tps_description)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tiploc_code) DO UPDATE SET
			nalco = EXCLUDED.nalco, stanox = EXCLUDED.stanox, crs_code = EXCLUDED.crs_code,
			description = EXCLUDED.description, tps_description = EXCLUDED.tps_description
	`, t.TiplocCode, t.Nalco, t.Stanox, t.CRSCode, t.Description, t.TPSDescription)
	if err != nil {
		return fmt.Errorf("failed to insert tiploc %s: %w", t.TiplocCode, err)
	}
	return nil
}

func (dc *DataClient) GetStanoxByCRS(ctx context.Context, crsCode string) (string, error) {
	var stanox sql.NullString
	err := dc.pg.QueryRow(ctx, `
		SELECT stanox FROM tiploc
		WHERE crs_code = $1
		LIMIT 1
	`, crsCode).Scan(&stanox)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !stanox.Valid) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return stanox.String, nil
}

// GetStanoxByLocationName picks the area whose description is closest in
// length to name among those containing it.
func (dc *DataClient) GetStanoxByLocationName(ctx context.Context, name string) (string, error) {
	rows, err := dc.pg.Query(ctx, `
		SELECT stanox, description, tps_description FROM tiploc
		WHERE description ILIKE $1 OR tps_description ILIKE $1
	`, "%"+name+"%")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	best, bestDiff := "", -1
	for rows.Next() {
		var stanox, description, tpsDescription sql.NullString
		if err := rows.Scan(&stanox, &description, &tpsDescription); err != nil {
			return "", err
		}
		if !stanox.Valid {
			continue
		}

		matched := description.String
		if matched == "" {
			matched = tpsDescription.String
		}
		if matched == "" {
			continue
		}

		diff := len(matched) - len(name)
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = stanox.String, diff
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if bestDiff < 0 {
		return "", ErrNotFound
	}
	return best, nil
}
