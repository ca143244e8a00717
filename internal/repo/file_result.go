package repo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/detour/internal/domain"
)

// fileResultRepo stores each result as <dir>/<result_id>.json.
type fileResultRepo struct {
	dir   string
	now   func() time.Time
	newID func() uuid.UUID
}

// NewFileResultRepo returns a ResultRepo writing to dir, creating it if needed.
func NewFileResultRepo(dir string) (ResultRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("repo.NewFileResultRepo: %w", err)
	}
	return &fileResultRepo{dir: dir, now: time.Now, newID: uuid.New}, nil
}

func (r *fileResultRepo) Save(_ context.Context, res domain.RecommendationResult) (domain.RecommendationResult, error) {
	res.ResultID = r.newID().String()
	res.CreatedAt = r.now().UTC()

	if err := writeJSONAtomic(filepath.Join(r.dir, res.ResultID+".json"), res); err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("repo.ResultRepo.Save: %w", err)
	}
	return res, nil
}

func (r *fileResultRepo) Get(_ context.Context, resultID string) (domain.RecommendationResult, error) {
	if !ValidResultID(resultID) {
		return domain.RecommendationResult{}, fmt.Errorf("repo.ResultRepo.Get: %w", domain.ErrNotFound)
	}
	var res domain.RecommendationResult
	if err := readJSON(filepath.Join(r.dir, strings.ToLower(resultID)+".json"), &res); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.RecommendationResult{}, fmt.Errorf("repo.ResultRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.RecommendationResult{}, fmt.Errorf("repo.ResultRepo.Get: %w", err)
	}
	return res, nil
}

func (r *fileResultRepo) ListPaged(_ context.Context, p domain.PaginationParams) ([]domain.RecommendationResult, int64, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ResultRepo.ListPaged: %w", err)
	}

	all := []domain.RecommendationResult{}
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok || !ValidResultID(id) {
			continue
		}
		var res domain.RecommendationResult
		if err := readJSON(filepath.Join(r.dir, e.Name()), &res); err != nil {
			continue
		}
		all = append(all, res)
	}

	slices.SortFunc(all, func(a, b domain.RecommendationResult) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ResultID, b.ResultID)
	})

	total := int64(len(all))
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], total, nil
}
