package objectclient

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docvault/internal/core"
)

type failingReader struct{ after int }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, errors.New("connection reset")
	}
	n := min(len(p), f.after)
	for i := range n {
		p[i] = 'x'
	}
	f.after -= n
	return n, nil
}

func newFS(t *testing.T) (*FSClient, string) {
	t.Helper()
	root := t.TempDir()
	c, err := NewFSClient(root)
	require.NoError(t, err)
	return c, root
}

func tempEntries(t *testing.T, root string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, tempDirName))
	require.NoError(t, err)
	return entries
}

func TestFSClientRoundTrip(t *testing.T) {
	c, root := newFS(t)
	ctx := context.Background()

	ok, err := c.Exists(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "a.txt", strings.NewReader("hello"), "text/plain"))

	ok, err = c.Exists(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := c.Open(ctx, "a.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, isFile := rc.(*os.File)
	assert.True(t, isFile)
	assert.Empty(t, tempEntries(t, root))
}

func TestFSClientOpenMissing(t *testing.T) {
	c, _ := newFS(t)
	_, err := c.Open(context.Background(), "nope.pdf")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestFSClientRefusesOverwrite(t *testing.T) {
	c, _ := newFS(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a.txt", strings.NewReader("first"), "text/plain"))
	err := c.Put(ctx, "a.txt", strings.NewReader("second"), "text/plain")
	require.ErrorIs(t, err, ErrBlobExists)

	rc, err := c.Open(ctx, "a.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "first", string(data))
}

func TestFSClientInterruptedWriteLeavesNothing(t *testing.T) {
	c, root := newFS(t)
	ctx := context.Background()

	err := c.Put(ctx, "broken.txt", &failingReader{after: 100 << 10}, "text/plain")
	require.Error(t, err)

	ok, err := c.Exists(ctx, "broken.txt")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, tempEntries(t, root))
}

func TestFSClientCancelledWriteLeavesNothing(t *testing.T) {
	c, root := newFS(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Put(ctx, "gone.txt", strings.NewReader("hello"), "text/plain")
	require.ErrorIs(t, err, context.Canceled)

	ok, err := c.Exists(context.Background(), "gone.txt")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, tempEntries(t, root))
}

func TestFSClientRejectsUnsafeNames(t *testing.T) {
	c, _ := newFS(t)
	ctx := context.Background()

	for _, name := range []string{"../x.txt", "a/b.txt", `a\b.txt`, "..", ".tmp", ".hidden"} {
		err := c.Put(ctx, name, strings.NewReader("x"), "text/plain")
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
	assert.ErrorIs(t, c.Put(ctx, "", strings.NewReader("x"), "text/plain"), ErrEmptyName)
}
