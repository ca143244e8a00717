package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/detour/internal/domain"
)

// ResultRepo stores recommendation results.
type ResultRepo interface {
	// Save assigns a fresh UUIDv4 and a creation time to r, stores it and
	// returns the persisted record.
	Save(ctx context.Context, r domain.RecommendationResult) (domain.RecommendationResult, error)

	// Get returns the result with resultID. Ids that are not UUIDv4 are
	// reported as domain.ErrNotFound without touching storage.
	Get(ctx context.Context, resultID string) (domain.RecommendationResult, error)

	// ListPaged returns one page of results, newest first, and the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.RecommendationResult, int64, error)
}

// pgResultRepo is the Postgres implementation of ResultRepo.
type pgResultRepo struct {
	db db
}

// NewResultRepo constructs a ResultRepo backed by the provided db connection.
func NewResultRepo(db db) ResultRepo {
	return &pgResultRepo{db: db}
}

const resultColumns = `result_id, response_id, origin, destination, transport_type, provider,
		       departure_time, arrival_time, duration_minutes, price, currency, transfers,
		       checkout_url, score, score_explain, created_at, expires_at, original_request`

// Save inserts a new result row with a Go-generated UUIDv4.
func (r *pgResultRepo) Save(ctx context.Context, res domain.RecommendationResult) (domain.RecommendationResult, error) {
	q := `
		INSERT INTO results (result_id, response_id, origin, destination, transport_type, provider,
		                     departure_time, arrival_time, duration_minutes, price, currency, transfers,
		                     checkout_url, score, score_explain, expires_at, original_request)
		VALUES (@result_id, @response_id, @origin, @destination, @transport_type, @provider,
		        @departure_time, @arrival_time, @duration_minutes, @price, @currency, @transfers,
		        @checkout_url, @score, @score_explain, @expires_at, @original_request)
		RETURNING ` + resultColumns

	var original []byte
	if res.OriginalRequest != nil {
		b, err := json.Marshal(res.OriginalRequest)
		if err != nil {
			return domain.RecommendationResult{}, fmt.Errorf("repo.ResultRepo.Save: encode request: %w", err)
		}
		original = b
	}

	args := pgx.NamedArgs{
		"result_id":        uuid.New(),
		"response_id":      res.ResponseID,
		"origin":           res.Origin,
		"destination":      res.Destination,
		"transport_type":   string(res.TransportType),
		"provider":         res.Provider,
		"departure_time":   res.DepartureTime,
		"arrival_time":     res.ArrivalTime,
		"duration_minutes": res.DurationMinutes,
		"price":            res.Price,
		"currency":         res.Currency,
		"transfers":        res.Transfers,
		"checkout_url":     res.CheckoutURL,
		"score":            res.Score,
		"score_explain":    res.ScoreExplain,
		"expires_at":       res.ExpiresAt, // nil becomes NULL
		"original_request": original,
	}

	got, err := scanResult(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("repo.ResultRepo.Save: %w", err)
	}
	return got, nil
}

// Get retrieves a result by id.
func (r *pgResultRepo) Get(ctx context.Context, resultID string) (domain.RecommendationResult, error) {
	if !ValidResultID(resultID) {
		return domain.RecommendationResult{}, fmt.Errorf("repo.ResultRepo.Get: %w", domain.ErrNotFound)
	}
	q := `SELECT ` + resultColumns + ` FROM results WHERE result_id = @result_id`

	got, err := scanResult(r.db.QueryRow(ctx, q, pgx.NamedArgs{"result_id": uuid.MustParse(resultID)}))
	if err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("repo.ResultRepo.Get: %w", err)
	}
	return got, nil
}

// ListPaged returns one page of results ordered by created_at descending.
// COUNT(*) OVER () carries the total on every row so one query serves both.
func (r *pgResultRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.RecommendationResult, int64, error) {
	q := `
		SELECT ` + resultColumns + `, COUNT(*) OVER () AS total
		FROM results
		ORDER BY created_at DESC, result_id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ResultRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	results := []domain.RecommendationResult{}
	var total int64
	for rows.Next() {
		res, err := scanResult(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ResultRepo.ListPaged: scan: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ResultRepo.ListPaged: rows: %w", err)
	}

	// An offset past the end returns no rows, and so no total.
	if len(results) == 0 && p.Offset() > 0 {
		const countQ = `SELECT COUNT(*) FROM results`
		if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("repo.ResultRepo.ListPaged: count: %w", err)
		}
	}
	return results, total, nil
}

// scanResult maps a single database row into a domain.RecommendationResult.
// extra receives any columns selected after the result columns.
func scanResult(s scanner, extra ...any) (domain.RecommendationResult, error) {
	var (
		res           domain.RecommendationResult
		id            pgtype.UUID
		transportType string
		expiresAt     pgtype.Timestamptz
		original      []byte
	)

	dest := []any{
		&id, &res.ResponseID, &res.Origin, &res.Destination, &transportType, &res.Provider,
		&res.DepartureTime, &res.ArrivalTime, &res.DurationMinutes, &res.Price, &res.Currency, &res.Transfers,
		&res.CheckoutURL, &res.Score, &res.ScoreExplain, &res.CreatedAt, &expiresAt, &original,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RecommendationResult{}, domain.ErrNotFound
		}
		return domain.RecommendationResult{}, err
	}

	res.ResultID = uuid.UUID(id.Bytes).String()
	res.TransportType = domain.TransportType(transportType)
	if expiresAt.Valid {
		t := expiresAt.Time
		res.ExpiresAt = &t
	}
	if len(original) > 0 {
		var req domain.TravelRequest
		if err := json.Unmarshal(original, &req); err != nil {
			return domain.RecommendationResult{}, fmt.Errorf("decode original_request: %w", err)
		}
		res.OriginalRequest = &req
	}
	return res, nil
}
