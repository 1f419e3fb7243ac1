package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tundeafolabi/indicert-backend/pkg/config"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

// Store persists certificate artifacts on the local filesystem under a
// single root directory. Paths handed back to callers are always relative
// to that root so database rows stay portable across hosts.
type Store struct {
	root        string
	readTimeout time.Duration
	logg        *logger.Logger
}

// New prepares the artifact root and returns a store.
func New(cfg config.CertificatesConfig, logg *logger.Logger) (*Store, error) {
	if cfg.ArtifactsDir == "" {
		return nil, errors.New("artifacts dir is required")
	}
	if err := os.MkdirAll(cfg.ArtifactsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifacts dir: %w", err)
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Store{
		root:        cfg.ArtifactsDir,
		readTimeout: timeout,
		logg:        logg,
	}, nil
}

// Write stores data under the given relative name and returns the relative path.
func (s *Store) Write(ctx context.Context, name string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("artifact store not initialized")
	}
	rel, err := s.safeRel(name)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating artifact subdir: %w", err)
	}

	// write-then-rename so readers never observe a partial file
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact %q: %w", rel, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalizing artifact %q: %w", rel, err)
	}

	return rel, nil
}

// Read loads the artifact at the given relative path, bounded by the
// configured read timeout on top of any caller deadline.
func (s *Store) Read(ctx context.Context, rel string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("artifact store not initialized")
	}
	rel, err := s.safeRel(rel)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(filepath.Join(s.root, rel))
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("reading artifact %q: %w", rel, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("reading artifact %q: %w", rel, res.err)
		}
		return res.data, nil
	}
}

// Exists reports whether the artifact at the given relative path is present.
func (s *Store) Exists(rel string) (bool, error) {
	if s == nil {
		return false, errors.New("artifact store not initialized")
	}
	rel, err := s.safeRel(rel)
	if err != nil {
		return false, err
	}
	_, statErr := os.Stat(filepath.Join(s.root, rel))
	if statErr == nil {
		return true, nil
	}
	if errors.Is(statErr, os.ErrNotExist) {
		return false, nil
	}
	return false, statErr
}

// Root returns the configured artifact root directory.
func (s *Store) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

func (s *Store) safeRel(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("artifact name is required")
	}
	rel := filepath.Clean(name)
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact name %q escapes the store root", name)
	}
	return rel, nil
}
