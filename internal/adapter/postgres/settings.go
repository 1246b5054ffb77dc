package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saucecodee/praise/internal/domain"
)

const settingColumns = `id, key, value, type, label, description, period_id`

type SettingRepo struct {
	pool *pgxpool.Pool
}

func NewSettingRepo(pool *pgxpool.Pool) *SettingRepo {
	return &SettingRepo{pool: pool}
}

func scanSetting(row pgx.Row) (*domain.Setting, error) {
	var s domain.Setting
	var typ string
	if err := row.Scan(&s.ID, &s.Key, &s.Value, &typ, &s.Label, &s.Description, &s.PeriodID); err != nil {
		return nil, err
	}
	s.Type = domain.SettingType(typ)
	return &s, nil
}

func (r *SettingRepo) Get(ctx context.Context, key string, periodID uuid.NullUUID) (*domain.Setting, error) {
	s, err := scanSetting(r.pool.QueryRow(ctx, `
		SELECT `+settingColumns+` FROM settings
		WHERE key = $1 AND period_id IS NOT DISTINCT FROM $2`, key, periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSettingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return s, nil
}

func (r *SettingRepo) List(ctx context.Context, periodID uuid.NullUUID) ([]domain.Setting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+settingColumns+` FROM settings
		WHERE period_id IS NOT DISTINCT FROM $1
		ORDER BY key`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var out []domain.Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SettingRepo) SetValue(ctx context.Context, key string, periodID uuid.NullUUID, value string) (*domain.Setting, error) {
	s, err := scanSetting(r.pool.QueryRow(ctx, `
		UPDATE settings SET value = $3
		WHERE key = $1 AND period_id IS NOT DISTINCT FROM $2
		RETURNING `+settingColumns, key, periodID, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSettingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}
	return s, nil
}

func (r *SettingRepo) InsertIfAbsent(ctx context.Context, settings []domain.Setting) (int, error) {
	if len(settings) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, s := range settings {
		batch.Queue(`
			INSERT INTO settings (id, key, value, type, label, description)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (key) WHERE period_id IS NULL DO NOTHING`,
			uuid.New(), s.Key, s.Value, string(s.Type), s.Label, s.Description)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close() //nolint:errcheck

	inserted := 0
	for range settings {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert setting: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
