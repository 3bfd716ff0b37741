package repository

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileKV stores each key as one file under dir, the on-device storage of the app.
// File names are the hex encoding of the key, so any key is a valid name.
type FileKV struct {
	dir string
}

func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is empty")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("os.MkdirAll: %w", err)
	}

	return &FileKV{dir: dir}, nil
}

func (f *FileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("key is empty")
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("os.ReadFile: %w", err)
	}

	return string(data), true, nil
}

// Set replaces the file atomically: readers see the old or the new value, never a torn write.
func (f *FileKV) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := filepath.Join(f.dir, fmt.Sprintf(".%s.%s.tmp", hex.EncodeToString([]byte(key)), uuid.NewString()))
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return fmt.Errorf("os.WriteFile: %w", err)
	}

	if err := os.Rename(tmp, f.path(key)); err != nil {
		removeErr := os.Remove(tmp)
		if removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("os.Remove: %w", removeErr))
		}
		return fmt.Errorf("os.Rename: %w", err)
	}

	return nil
}

func (f *FileKV) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("os.Remove: %w", err)
	}

	return nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(key)))
}
