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

const praiseColumns = `id, giver_id, receiver_id, forwarder_id, reason, reason_realized, source_id, source_name, score, created_at`

const quantificationColumns = `praise_id, quantifier_id, score, dismissed, duplicate_praise_id, created_at, updated_at`

type PraiseRepo struct {
	pool *pgxpool.Pool
}

func NewPraiseRepo(pool *pgxpool.Pool) *PraiseRepo {
	return &PraiseRepo{pool: pool}
}

func scanPraise(row pgx.Row) (*domain.Praise, error) {
	var p domain.Praise
	err := row.Scan(&p.ID, &p.GiverID, &p.ReceiverID, &p.ForwarderID, &p.Reason, &p.ReasonRealized,
		&p.SourceID, &p.SourceName, &p.Score, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanQuantification(row pgx.Row) (*domain.Quantification, error) {
	var q domain.Quantification
	err := row.Scan(&q.PraiseID, &q.QuantifierID, &q.Score, &q.Dismissed, &q.DuplicatePraiseID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create inserts only while the period row, held FOR SHARE, is OPEN. The
// status flip to QUANTIFY waits for the insert and vice versa.
func (r *PraiseRepo) Create(ctx context.Context, np domain.NewPraise) (*domain.Praise, error) {
	if !np.PeriodID.Valid {
		p, err := scanPraise(r.pool.QueryRow(ctx, `
			INSERT INTO praise (id, giver_id, receiver_id, forwarder_id, reason, reason_realized, source_id, source_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+praiseColumns,
			uuid.New(), np.GiverID, np.ReceiverID, np.ForwarderID, np.Reason, np.ReasonRealized, np.SourceID, np.SourceName))
		if err != nil {
			return nil, fmt.Errorf("failed to insert praise: %w", err)
		}
		return p, nil
	}

	p, err := scanPraise(r.pool.QueryRow(ctx, `
		WITH period AS (
			SELECT id FROM periods WHERE id = $1 AND status = 'OPEN' FOR SHARE
		)
		INSERT INTO praise (id, giver_id, receiver_id, forwarder_id, reason, reason_realized, source_id, source_name)
		SELECT $2::uuid, $3::uuid, $4::uuid, $5::uuid, $6::text, $7::text, $8::text, $9::text FROM period
		RETURNING `+praiseColumns,
		np.PeriodID.UUID, uuid.New(), np.GiverID, np.ReceiverID, np.ForwarderID, np.Reason, np.ReasonRealized, np.SourceID, np.SourceName))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to insert praise: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM periods WHERE id = $1)`, np.PeriodID.UUID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check period: %w", err)
	}
	if !exists {
		return nil, domain.ErrPeriodNotFound
	}
	return nil, domain.ErrPeriodNotOpen
}

func (r *PraiseRepo) GetByID(ctx context.Context, praiseID uuid.UUID) (*domain.Praise, error) {
	p, err := scanPraise(r.pool.QueryRow(ctx, `SELECT `+praiseColumns+` FROM praise WHERE id = $1`, praiseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPraiseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get praise: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+quantificationColumns+` FROM quantifications
		WHERE praise_id = $1
		ORDER BY quantifier_id`, praiseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quantifications: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		q, err := scanQuantification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quantification: %w", err)
		}
		p.Quantifications = append(p.Quantifications, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quantifications: %w", err)
	}
	return p, nil
}

// ListByWindow reads praise and quantifications from a single snapshot so a
// concurrent submission cannot be half visible.
func (r *PraiseRepo) ListByWindow(ctx context.Context, window domain.Window) ([]domain.Praise, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	out, err := listWindow(ctx, tx, window, uuid.NullUUID{})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to end snapshot: %w", err)
	}
	return out, nil
}

// listWindow loads the praise in window, optionally for one receiver, with
// their quantifications.
func listWindow(ctx context.Context, tx pgx.Tx, window domain.Window, receiverID uuid.NullUUID) ([]domain.Praise, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+praiseColumns+` FROM praise
		WHERE created_at > $1 AND created_at <= $2
		  AND ($3::uuid IS NULL OR receiver_id = $3)
		ORDER BY created_at, id`, window.Start, window.End, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list praise: %w", err)
	}
	var out []domain.Praise
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		p, err := scanPraise(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan praise: %w", err)
		}
		index[p.ID] = len(out)
		out = append(out, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read praise: %w", err)
	}

	rows, err = tx.Query(ctx, `
		SELECT q.praise_id, q.quantifier_id, q.score, q.dismissed, q.duplicate_praise_id, q.created_at, q.updated_at
		FROM quantifications q
		JOIN praise p ON p.id = q.praise_id
		WHERE p.created_at > $1 AND p.created_at <= $2
		  AND ($3::uuid IS NULL OR p.receiver_id = $3)
		ORDER BY q.praise_id, q.quantifier_id`, window.Start, window.End, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quantifications: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		q, err := scanQuantification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quantification: %w", err)
		}
		if i, ok := index[q.PraiseID]; ok {
			out[i].Quantifications = append(out[i].Quantifications, *q)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quantifications: %w", err)
	}
	return out, nil
}

func (r *PraiseRepo) UpdateScores(ctx context.Context, scores map[uuid.UUID]float64) error {
	if len(scores) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for id, score := range scores {
		batch.Queue(`UPDATE praise SET score = $2 WHERE id = $1`, id, score)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to update praise scores: %w", err)
	}
	return nil
}

type QuantificationRepo struct {
	pool *pgxpool.Pool
}

func NewQuantificationRepo(pool *pgxpool.Pool) *QuantificationRepo {
	return &QuantificationRepo{pool: pool}
}

// Submit overwrites the row only while the period row is held in QUANTIFY, so
// it cannot race a concurrent Close. With a duplicate check the write runs in a
// transaction holding a per-receiver advisory lock, so two marks for the same
// receiver see each other's edges.
func (r *QuantificationRepo) Submit(ctx context.Context, periodID, praiseID, quantifierID uuid.UUID, outcome domain.Outcome, check *domain.DuplicateCheck) (*domain.Quantification, error) {
	if _, err := outcome.Kind(); err != nil {
		return nil, err
	}
	if check == nil {
		return r.submit(ctx, r.pool, periodID, praiseID, quantifierID, outcome)
	}

	var q *domain.Quantification
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var receiverID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT receiver_id FROM praise WHERE id = $1`, praiseID).Scan(&receiverID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrPraiseNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get praise receiver: %w", err)
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "duplicate:"+receiverID.String()); err != nil {
			return fmt.Errorf("failed to lock receiver: %w", err)
		}

		receiverPraise, err := listWindow(ctx, tx, check.Window, domain.ValidID(receiverID))
		if err != nil {
			return err
		}
		if err := check.Validate(receiverPraise); err != nil {
			return err
		}

		q, err = r.submit(ctx, tx, periodID, praiseID, quantifierID, outcome)
		return err
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *QuantificationRepo) submit(ctx context.Context, db querier, periodID, praiseID, quantifierID uuid.UUID, outcome domain.Outcome) (*domain.Quantification, error) {
	q, err := scanQuantification(db.QueryRow(ctx, `
		WITH period AS (
			SELECT id FROM periods WHERE id = $1 AND status = 'QUANTIFY' FOR SHARE
		)
		UPDATE quantifications
		SET score = $4, dismissed = $5, duplicate_praise_id = $6, updated_at = now()
		WHERE praise_id = $2 AND quantifier_id = $3 AND EXISTS (SELECT 1 FROM period)
		RETURNING `+quantificationColumns,
		periodID, praiseID, quantifierID, outcome.Score, outcome.Dismissed, outcome.DuplicateOf))
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to submit quantification: %w", err)
	}

	var status string
	err = db.QueryRow(ctx, `SELECT status FROM periods WHERE id = $1`, periodID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPeriodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get period: %w", err)
	}
	if domain.PeriodStatus(status) != domain.PeriodQuantify {
		return nil, domain.ErrPeriodNotQuantifying
	}
	return nil, domain.ErrNotAssigned
}
