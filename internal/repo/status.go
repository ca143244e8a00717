package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/detour/internal/domain"
)

// StatusRepo stores the processing status of each travel request, keyed by the
// form provider's response id. Updates to different keys never interfere.
type StatusRepo interface {
	// Set creates or replaces the status for s.ResponseID and returns the
	// stored record with UpdatedAt populated.
	Set(ctx context.Context, s domain.ProcessingStatus) (domain.ProcessingStatus, error)

	// Get returns the status for responseID.
	// Returns domain.ErrNotFound if none has been recorded.
	Get(ctx context.Context, responseID string) (domain.ProcessingStatus, error)

	// LatestActive returns the most recently updated pending or processing
	// status. Returns domain.ErrNotFound if nothing is in flight.
	LatestActive(ctx context.Context) (domain.ProcessingStatus, error)
}

// pgStatusRepo is the Postgres implementation of StatusRepo.
type pgStatusRepo struct {
	db db
}

// NewStatusRepo constructs a StatusRepo backed by the provided db connection.
func NewStatusRepo(db db) StatusRepo {
	return &pgStatusRepo{db: db}
}

// Set upserts the status row for s.ResponseID.
func (r *pgStatusRepo) Set(ctx context.Context, s domain.ProcessingStatus) (domain.ProcessingStatus, error) {
	const q = `
		INSERT INTO statuses (response_id, status, result_id, error_message)
		VALUES (@response_id, @status, @result_id, @error_message)
		ON CONFLICT (response_id) DO UPDATE
		SET status        = EXCLUDED.status,
		    result_id     = EXCLUDED.result_id,
		    error_message = EXCLUDED.error_message,
		    updated_at    = now()
		RETURNING response_id, status, result_id, error_message, updated_at`

	var resultID *uuid.UUID
	if s.ResultID != nil {
		id, err := uuid.Parse(*s.ResultID)
		if err != nil {
			return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.Set: %w: result id %q", domain.ErrValidation, *s.ResultID)
		}
		resultID = &id
	}

	args := pgx.NamedArgs{
		"response_id":   s.ResponseID,
		"status":        string(s.Status),
		"result_id":     resultID, // nil becomes NULL
		"error_message": s.ErrorMessage,
	}

	got, err := scanStatus(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.Set: %w", err)
	}
	return got, nil
}

// Get retrieves a status by response id.
func (r *pgStatusRepo) Get(ctx context.Context, responseID string) (domain.ProcessingStatus, error) {
	const q = `
		SELECT response_id, status, result_id, error_message, updated_at
		FROM statuses
		WHERE response_id = @response_id`

	got, err := scanStatus(r.db.QueryRow(ctx, q, pgx.NamedArgs{"response_id": responseID}))
	if err != nil {
		return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.Get: %w", err)
	}
	return got, nil
}

// LatestActive returns the newest in-flight status.
func (r *pgStatusRepo) LatestActive(ctx context.Context) (domain.ProcessingStatus, error) {
	const q = `
		SELECT response_id, status, result_id, error_message, updated_at
		FROM statuses
		WHERE status IN ('pending', 'processing')
		ORDER BY updated_at DESC
		LIMIT 1`

	got, err := scanStatus(r.db.QueryRow(ctx, q))
	if err != nil {
		return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.LatestActive: %w", err)
	}
	return got, nil
}

// scanStatus maps a single database row into a domain.ProcessingStatus.
func scanStatus(s scanner) (domain.ProcessingStatus, error) {
	var (
		st       domain.ProcessingStatus
		status   string
		resultID pgtype.UUID
	)

	err := s.Scan(&st.ResponseID, &status, &resultID, &st.ErrorMessage, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProcessingStatus{}, domain.ErrNotFound
		}
		return domain.ProcessingStatus{}, err
	}

	st.Status = domain.Status(status)
	if resultID.Valid {
		id := uuid.UUID(resultID.Bytes).String()
		st.ResultID = &id
	}
	return st, nil
}
