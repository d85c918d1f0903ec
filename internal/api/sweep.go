package api

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SweepReports removes generated reports and leftover uploads older than ttl.
// It returns the number of files removed.
func (h *Handler) SweepReports(now time.Time, ttl time.Duration) (int, error) {
	removed := 0
	var errs []error
	for _, dir := range []string{h.ReportDir, filepath.Join(h.ReportDir, "uploads")} {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !isSweepable(e.Name()) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if now.Sub(info.ModTime()) < ttl {
				continue
			}
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	return removed, errors.Join(errs...)
}

// RunSweeper calls SweepReports every interval until ctx is done.
func (h *Handler) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := h.SweepReports(now, ttl)
			if err != nil {
				h.Log.Warn().Err(err).Msg("report sweep incomplete")
			}
			if n > 0 {
				h.Log.Info().Int("removed", n).Msg("expired reports removed")
			}
		}
	}
}

func isSweepable(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".pdf"
}
