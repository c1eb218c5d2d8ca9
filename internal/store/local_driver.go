package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalDriver keeps one <name>.json file per collection under Dir.
type LocalDriver struct {
	Dir       string
	ephemeral bool
}

// NewLocalDriver creates dir if needed.
func NewLocalDriver(dir string) (*LocalDriver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &LocalDriver{Dir: dir}, nil
}

// NewEphemeralDriver roots a LocalDriver in a fresh temp directory that is
// removed on Close.
func NewEphemeralDriver() (*LocalDriver, error) {
	dir, err := os.MkdirTemp("", "invoice-store-")
	if err != nil {
		return nil, fmt.Errorf("create temp storage dir: %w", err)
	}
	return &LocalDriver{Dir: dir, ephemeral: true}, nil
}

func (d *LocalDriver) path(collection string) (string, error) {
	if collection == "" || strings.ContainsAny(collection, `/\`) || strings.HasPrefix(collection, ".") {
		return "", fmt.Errorf("invalid collection name %q", collection)
	}
	return filepath.Join(d.Dir, collection+".json"), nil
}

func (d *LocalDriver) Read(_ context.Context, collection string) ([]byte, error) {
	p, err := d.path(collection)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Write replaces the file atomically: temp file in the same directory, then rename.
func (d *LocalDriver) Write(_ context.Context, collection string, data []byte) error {
	p, err := d.path(collection)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.Dir, "."+collection+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (d *LocalDriver) Ping(_ context.Context) error {
	info, err := os.Stat(d.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", d.Dir)
	}
	return nil
}

func (d *LocalDriver) Close() error {
	if d.ephemeral {
		return os.RemoveAll(d.Dir)
	}
	return nil
}
