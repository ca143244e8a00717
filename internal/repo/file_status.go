package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkordes/detour/internal/domain"
)

// fileStatusRepo stores one JSON document per response id under dir.
type fileStatusRepo struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

// NewFileStatusRepo returns a StatusRepo writing to dir, creating it if needed.
func NewFileStatusRepo(dir string) (StatusRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("repo.NewFileStatusRepo: %w", err)
	}
	return &fileStatusRepo{dir: dir, now: time.Now}, nil
}

// path maps a response id onto a file name. Ids are opaque strings from the
// form provider, so anything that could leave dir is rejected.
func (r *fileStatusRepo) path(responseID string) (string, bool) {
	if responseID == "" || responseID == "." || responseID == ".." ||
		strings.ContainsAny(responseID, `/\`) || strings.ContainsRune(responseID, 0) {
		return "", false
	}
	return filepath.Join(r.dir, responseID+".json"), true
}

func (r *fileStatusRepo) Set(_ context.Context, s domain.ProcessingStatus) (domain.ProcessingStatus, error) {
	path, ok := r.path(s.ResponseID)
	if !ok {
		return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.Set: %w: response id %q", domain.ErrValidation, s.ResponseID)
	}
	s.UpdatedAt = r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := writeJSONAtomic(path, s); err != nil {
		return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.Set: %w", err)
	}
	return s, nil
}

func (r *fileStatusRepo) Get(_ context.Context, responseID string) (domain.ProcessingStatus, error) {
	path, ok := r.path(responseID)
	if !ok {
		return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.Get: %w", domain.ErrNotFound)
	}
	var s domain.ProcessingStatus
	if err := readJSON(path, &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.Get: %w", err)
	}
	return s, nil
}

func (r *fileStatusRepo) LatestActive(_ context.Context) (domain.ProcessingStatus, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.LatestActive: %w", err)
	}

	var (
		latest domain.ProcessingStatus
		found  bool
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		var s domain.ProcessingStatus
		if err := readJSON(filepath.Join(r.dir, e.Name()), &s); err != nil {
			// removed or replaced mid-scan
			continue
		}
		if !s.Status.Active() {
			continue
		}
		if !found || s.UpdatedAt.After(latest.UpdatedAt) {
			latest, found = s, true
		}
	}
	if !found {
		return domain.ProcessingStatus{}, fmt.Errorf("repo.StatusRepo.LatestActive: %w", domain.ErrNotFound)
	}
	return latest, nil
}
