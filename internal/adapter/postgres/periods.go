package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saucecodee/praise/internal/domain"
)

const periodColumns = `id, name, status, end_date, created_at, updated_at`

type PeriodRepo struct {
	pool *pgxpool.Pool
}

func NewPeriodRepo(pool *pgxpool.Pool) *PeriodRepo {
	return &PeriodRepo{pool: pool}
}

func scanPeriod(row pgx.Row) (*domain.Period, error) {
	var p domain.Period
	var status string
	if err := row.Scan(&p.ID, &p.Name, &status, &p.EndDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, ok := domain.ParsePeriodStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown period status %q", status)
	}
	p.Status = parsed
	return &p, nil
}

func (r *PeriodRepo) Create(ctx context.Context, np domain.NewPeriod) (*domain.Period, error) {
	var created *domain.Period
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Serialise creators so the end date check below sees every committed period.
		if _, err := tx.Exec(ctx, `LOCK TABLE periods IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock periods: %w", err)
		}

		var overlaps bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM periods WHERE end_date >= $1)`, np.EndDate).Scan(&overlaps); err != nil {
			return fmt.Errorf("failed to check period overlap: %w", err)
		}
		if overlaps {
			return domain.ErrPeriodOverlap
		}

		p, err := scanPeriod(tx.QueryRow(ctx, `
			INSERT INTO periods (id, name, end_date)
			VALUES ($1, $2, $3)
			RETURNING `+periodColumns,
			uuid.New(), np.Name, np.EndDate))
		if err != nil {
			return fmt.Errorf("failed to insert period: %w", err)
		}

		batch := &pgx.Batch{}
		for _, s := range np.Settings {
			batch.Queue(`
				INSERT INTO settings (id, key, value, type, label, description, period_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.New(), s.Key, s.Value, string(s.Type), s.Label, s.Description, p.ID)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to copy period settings: %w", err)
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PeriodRepo) GetByID(ctx context.Context, periodID uuid.UUID) (*domain.Period, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id = $1`, periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPeriodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get period: %w", err)
	}
	return p, nil
}

func (r *PeriodRepo) List(ctx context.Context) ([]domain.Period, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM periods ORDER BY end_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var out []domain.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PeriodRepo) GetByDate(ctx context.Context, t time.Time) (*domain.Period, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx, `
		SELECT `+periodColumns+` FROM periods
		WHERE end_date >= $1
		ORDER BY end_date ASC
		LIMIT 1`, t))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPeriodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get period by date: %w", err)
	}
	return p, nil
}

func (r *PeriodRepo) Previous(ctx context.Context, periodID uuid.UUID) (*domain.Period, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx, `
		SELECT `+periodColumns+` FROM periods
		WHERE end_date < (SELECT end_date FROM periods WHERE id = $1)
		ORDER BY end_date DESC
		LIMIT 1`, periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPeriodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get previous period: %w", err)
	}
	return p, nil
}

func (r *PeriodRepo) Update(ctx context.Context, periodID uuid.UUID, name string, endDate time.Time) (*domain.Period, error) {
	var updated *domain.Period
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE periods IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock periods: %w", err)
		}

		current, err := scanPeriod(tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id = $1`, periodID))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrPeriodNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get period: %w", err)
		}
		if current.Status != domain.PeriodOpen {
			return domain.ErrPeriodNotOpen
		}

		// The new end date must stay strictly between the neighbouring periods.
		var conflict bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM periods
				WHERE id <> $1
				  AND ((end_date < $2 AND end_date >= $3) OR (end_date > $2 AND end_date <= $3))
			)`, periodID, current.EndDate, endDate).Scan(&conflict)
		if err != nil {
			return fmt.Errorf("failed to check period overlap: %w", err)
		}
		if conflict {
			return domain.ErrPeriodOverlap
		}

		updated, err = scanPeriod(tx.QueryRow(ctx, `
			UPDATE periods SET name = $2, end_date = $3, updated_at = now()
			WHERE id = $1
			RETURNING `+periodColumns,
			periodID, name, endDate))
		if err != nil {
			return fmt.Errorf("failed to update period: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// StartQuantify flips the status with a compare-and-set from OPEN, checks the
// assignments still cover the window and writes them in the same transaction.
func (r *PeriodRepo) StartQuantify(ctx context.Context, periodID uuid.UUID, window domain.Window, assignments []domain.Quantification) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE periods SET status = 'QUANTIFY', updated_at = now()
			WHERE id = $1 AND status = 'OPEN'`, periodID)
		if err != nil {
			return fmt.Errorf("failed to update period status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return transitionError(ctx, tx, periodID)
		}

		// Inserts hold the period row FOR SHARE, so every praise that will ever
		// land in this window is visible once the status flip has its lock.
		rows, err := tx.Query(ctx, `
			SELECT id FROM praise WHERE created_at > $1 AND created_at <= $2`,
			window.Start, window.End)
		if err != nil {
			return fmt.Errorf("failed to list period praise: %w", err)
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("failed to scan period praise: %w", err)
		}
		if !domain.AssignmentsCover(assignments, ids) {
			return domain.ErrPeriodPraiseChanged
		}

		// Rows left over from an aborted attempt are discarded.
		_, err = tx.Exec(ctx, `
			DELETE FROM quantifications q
			USING praise p
			WHERE q.praise_id = p.id AND p.created_at > $1 AND p.created_at <= $2`,
			window.Start, window.End)
		if err != nil {
			return fmt.Errorf("failed to clear stale quantifications: %w", err)
		}

		copyRows := make([][]any, len(assignments))
		for i, a := range assignments {
			copyRows[i] = []any{a.PraiseID, a.QuantifierID}
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"quantifications"},
			[]string{"praise_id", "quantifier_id"},
			pgx.CopyFromRows(copyRows))
		if err != nil {
			return fmt.Errorf("failed to insert quantifications: %w", err)
		}
		return nil
	})
}

// Close locks the period row, so no submission can interleave with the
// completeness check.
func (r *PeriodRepo) Close(ctx context.Context, periodID uuid.UUID, window domain.Window) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM periods WHERE id = $1 FOR UPDATE`, periodID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrPeriodNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock period: %w", err)
		}
		if !domain.PeriodStatus(status).CanTransitionTo(domain.PeriodClosed) {
			return domain.ErrInvalidTransition
		}

		rows, err := tx.Query(ctx, `
			SELECT DISTINCT q.quantifier_id
			FROM quantifications q
			JOIN praise p ON p.id = q.praise_id
			WHERE p.created_at > $1 AND p.created_at <= $2
			  AND q.score IS NULL AND NOT q.dismissed AND q.duplicate_praise_id IS NULL
			ORDER BY q.quantifier_id`, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("failed to check unfinished quantifications: %w", err)
		}
		unfinished, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("failed to scan unfinished quantifiers: %w", err)
		}
		if len(unfinished) > 0 {
			return &domain.IncompleteError{QuantifierIDs: unfinished}
		}

		if _, err := tx.Exec(ctx, `UPDATE periods SET status = 'CLOSED', updated_at = now() WHERE id = $1`, periodID); err != nil {
			return fmt.Errorf("failed to close period: %w", err)
		}
		return nil
	})
}

func transitionError(ctx context.Context, tx pgx.Tx, periodID uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM periods WHERE id = $1)`, periodID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check period: %w", err)
	}
	if !exists {
		return domain.ErrPeriodNotFound
	}
	return domain.ErrInvalidTransition
}
