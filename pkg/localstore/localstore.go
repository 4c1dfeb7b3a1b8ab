package localstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config describes where the store keeps uploaded binaries.
type Config struct {
	// Root is the base uploads directory. Stored paths are relative to it.
	Root string
	// TempDir is the subdirectory for temporary uploads swept by Cleanup.
	TempDir string
}

// Store persists uploaded files on local disk. Paths returned by Save are
// relative to the root so database rows stay valid when the root moves.
type Store struct {
	root    string
	tempDir string
	logger  zerolog.Logger
}

// New constructs a local disk store, creating the directories when absent.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("uploads root must be provided")
	}
	if cfg.TempDir == "" {
		cfg.TempDir = "temp"
	}

	if err := os.MkdirAll(filepath.Join(cfg.Root, cfg.TempDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return &Store{
		root:    cfg.Root,
		tempDir: cfg.TempDir,
		logger:  logger.With().Str("component", "localstore").Logger(),
	}, nil
}

// Save writes the reader's content under a unique name and returns the
// relative storage path.
func (s *Store) Save(ctx context.Context, name string, reader io.Reader) (string, error) {
	return s.save(ctx, "", name, reader)
}

// SaveTemp writes the reader's content into the temporary area. Temp files
// are subject to the cleanup sweep.
func (s *Store) SaveTemp(ctx context.Context, name string, reader io.Reader) (string, error) {
	return s.save(ctx, s.tempDir, name, reader)
}

func (s *Store) save(ctx context.Context, dir, name string, reader io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	relative := filepath.Join(dir, uniqueName(name))
	target := filepath.Join(s.root, relative)

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	s.logger.Info().Str("path", relative).Msg("file stored")

	return relative, nil
}

// Read returns the content of a previously stored file.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, path))
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}

	return data, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.root, path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stored file: %w", err)
	}

	return nil
}

// CleanupTemp deletes temporary files older than maxAge and returns how many
// were removed.
func (s *Store) CleanupTemp(maxAge time.Duration) (int, error) {
	dir := filepath.Join(s.root, s.tempDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list temp directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("failed to delete temp file")
				continue
			}
			removed++
			s.logger.Info().Str("file", entry.Name()).Msg("deleted stale temp file")
		}
	}

	return removed, nil
}

// StartCleanup launches the periodic temp-file sweep. The returned stop
// function terminates the loop.
func (s *Store) StartCleanup(interval, maxAge time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if _, err := s.CleanupTemp(maxAge); err != nil {
					s.logger.Warn().Err(err).Msg("temp cleanup sweep failed")
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

func uniqueName(name string) string {
	return fmt.Sprintf("%s-%s", uuid.NewString(), sanitizeFileName(name))
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}

	return base + ext
}
