package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/docvault/internal/core"
)

const tempDirName = ".tmp"

var (
	ErrEmptyName   = errors.New("blob name cannot be empty")
	ErrInvalidName = errors.New("blob name contains invalid characters")
	ErrBlobExists  = errors.New("blob already exists")
)

var _ core.BlobStore = (*FSClient)(nil)

// FSClient stores blobs as flat files under one root directory. Writes land in
// root/.tmp first and are linked into place only once complete, so a reader
// never observes a partial blob and an existing blob is never overwritten.
type FSClient struct {
	root string
}

func NewFSClient(root string) (*FSClient, error) {
	if root == "" {
		return nil, fmt.Errorf("UPLOAD_DIR is empty")
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(filepath.Join(root, tempDirName), 0o750); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &FSClient{root: root}, nil
}

func (c *FSClient) Put(ctx context.Context, name string, r io.Reader, _ string) error {
	if err := validateName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Join(c.root, tempDirName), "upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write blob %q: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync blob %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close blob %q: %w", name, err)
	}

	if err := os.Link(tmp.Name(), filepath.Join(c.root, name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("blob %q: %w", name, ErrBlobExists)
		}
		return fmt.Errorf("commit blob %q: %w", name, err)
	}
	return nil
}

func (c *FSClient) Exists(_ context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	st, err := os.Stat(filepath.Join(c.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return st.Mode().IsRegular(), nil
}

// Open returns the *os.File itself so extractors can read it at random.
func (c *FSClient) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(c.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %q: %w", name, core.ErrNotFound)
		}
		return nil, fmt.Errorf("open blob %q: %w", name, err)
	}
	return f, nil
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if name == "." || name == ".." || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`+"\x00") || filepath.Base(name) != name {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
