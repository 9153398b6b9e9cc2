package lyrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File reads lyrics from a local .lrc file.
type File struct{}

func (File) Name() string { return "file" }

func (f File) Fetch(ctx context.Context, q Query) (*Result, error) {
	if q.Path == "" {
		return nil, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(q.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, q.Path)
		}
		return nil, fmt.Errorf("failed to read lyrics file: %w", err)
	}

	result := &Result{
		Source: f.Name(),
		Artist: q.Artist,
		Title:  q.Title,
		Synced: string(raw),
	}
	if result.Title == "" {
		result.Title = strings.TrimSuffix(filepath.Base(q.Path), filepath.Ext(q.Path))
	}
	return result, nil
}
