package family

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const connectionColumns = `
	id, requester_id, recipient_id, relationship, status,
	can_view_medicine, created_at, updated_at`

func scanConnection(row pgx.Row) (*Connection, error) {
	var c Connection

	err := row.Scan(
		&c.ID,
		&c.RequesterID,
		&c.RecipientID,
		&c.Relationship,
		&c.Status,
		&c.CanViewMedicine,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}

	return &c, nil
}

func collectConnections(rows pgx.Rows) ([]Connection, error) {
	defer rows.Close()

	var result []Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateConnection(ctx context.Context, c Connection) (*Connection, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO family_connections (
			id, requester_id, recipient_id, relationship, status,
			can_view_medicine, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+connectionColumns,
		c.ID, c.RequesterID, c.RecipientID, c.Relationship, c.Status, c.CanViewMedicine,
	)

	created, err := scanConnection(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrDuplicateConnection
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetConnection(ctx context.Context, id uuid.UUID) (*Connection, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+connectionColumns+`
		FROM family_connections
		WHERE id = $1
	`, id)
	return scanConnection(row)
}

func (r *PgRepository) FindBetween(ctx context.Context, a, b uuid.UUID) (*Connection, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+connectionColumns+`
		FROM family_connections
		WHERE (requester_id = $1 AND recipient_id = $2)
		   OR (requester_id = $2 AND recipient_id = $1)
		LIMIT 1
	`, a, b)
	return scanConnection(row)
}

func (r *PgRepository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]Connection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+connectionColumns+`
		FROM family_connections
		WHERE (requester_id = $1 OR recipient_id = $1)
		  AND status = 'accepted'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectConnections(rows)
}

func (r *PgRepository) ListPendingReceived(ctx context.Context, userID uuid.UUID) ([]Connection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+connectionColumns+`
		FROM family_connections
		WHERE recipient_id = $1
		  AND status = 'pending'
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectConnections(rows)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Connection, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE family_connections
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+connectionColumns,
		id, status,
	)
	return scanConnection(row)
}

func (r *PgRepository) DeleteConnection(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM family_connections
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConnectionNotFound
	}
	return nil
}
