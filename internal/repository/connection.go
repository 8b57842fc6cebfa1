package repository

import (
	"context"
	"errors"
	"time"

	"beeja-hrm-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConnectionRepository struct {
	pool *pgxpool.Pool
}

func NewConnectionRepository(pool *pgxpool.Pool) *ConnectionRepository {
	return &ConnectionRepository{pool: pool}
}

const requestColumns = `
	id, requester_id, recipient_id, COALESCE(message, ''), status,
	created_at, responded_at, COALESCE(response_message, '')
`

func scanRequest(row pgx.Row) (*model.ConnectionRequest, error) {
	var req model.ConnectionRequest
	err := row.Scan(
		&req.ID, &req.RequesterID, &req.RecipientID, &req.Message, &req.Status,
		&req.CreatedAt, &req.RespondedAt, &req.ResponseMessage,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a pending request. The partial unique index on the
// normalized pair rejects a concurrent duplicate with a unique violation.
func (r *ConnectionRepository) Create(ctx context.Context, req *model.ConnectionRequest) error {
	a, b := model.NormalizePair(req.RequesterID, req.RecipientID)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO connection_requests
			(id, requester_id, recipient_id, pair_a, pair_b, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, req.ID, req.RequesterID, req.RecipientID, a, b, req.Message, req.Status, req.CreatedAt)
	return err
}

func (r *ConnectionRepository) Get(ctx context.Context, id string) (*model.ConnectionRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM connection_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *ConnectionRepository) FindPendingByPair(ctx context.Context, userA, userB string) (*model.ConnectionRequest, error) {
	a, b := model.NormalizePair(userA, userB)
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM connection_requests
		WHERE pair_a = $1 AND pair_b = $2 AND status = 'pending'
	`, a, b)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

func (r *ConnectionRepository) HasApprovedPair(ctx context.Context, userA, userB string) (bool, error) {
	a, b := model.NormalizePair(userA, userB)
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM connection_requests
			WHERE pair_a = $1 AND pair_b = $2 AND status = 'approved'
		)
	`, a, b).Scan(&exists)
	return exists, err
}

func (r *ConnectionRepository) ListPendingForRecipient(ctx context.Context, recipientID string) ([]*model.ConnectionRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+` FROM connection_requests
		WHERE recipient_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*model.ConnectionRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// Resolve flips a pending request to its terminal status. The WHERE on
// status makes the transition conditional: a lost race returns no row.
func (r *ConnectionRepository) Resolve(ctx context.Context, id string, status model.ConnectionRequestStatus, responseMessage string) (*model.ConnectionRequest, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE connection_requests
		SET status = $2, responded_at = $3, response_message = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING `+requestColumns,
		id, status, time.Now().UTC(), responseMessage)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

// PairStates reports, per counterpart of userID, the strongest request
// state for the pair: approved wins over pending, rejected pairs are
// omitted (a fresh request stays possible).
func (r *ConnectionRepository) PairStates(ctx context.Context, userID string) (map[string]model.ConnectionRequestStatus, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT CASE WHEN requester_id = $1 THEN recipient_id ELSE requester_id END, status
		FROM connection_requests
		WHERE (requester_id = $1 OR recipient_id = $1) AND status IN ('pending', 'approved')
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make(map[string]model.ConnectionRequestStatus)
	for rows.Next() {
		var otherID string
		var status model.ConnectionRequestStatus
		if err := rows.Scan(&otherID, &status); err != nil {
			return nil, err
		}
		if states[otherID] != model.ConnectionApproved {
			states[otherID] = status
		}
	}
	return states, rows.Err()
}
