package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docvault/internal/core"
	"github.com/markdave123-py/docvault/internal/models"
)

var errInjected = errors.New("injected fault")

type memMeta struct {
	mu      sync.Mutex
	files   map[string]models.StoredFile
	users   map[string]models.User
	lookups int

	failInsert bool
	failLookup bool
	failList   bool
}

func newMemMeta() *memMeta {
	return &memMeta{files: map[string]models.StoredFile{}, users: map[string]models.User{}}
}

func (m *memMeta) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (m *memMeta) InsertFile(_ context.Context, f *models.StoredFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert {
		return errInjected
	}
	now := time.Now().UTC()
	f.ID = uuid.NewString()
	f.CreatedAt, f.UpdatedAt = now, now
	m.files[f.ID] = *f
	return nil
}

func (m *memMeta) GetFileByID(_ context.Context, id string) (*models.StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.failLookup {
		return nil, errInjected
	}
	f, ok := m.files[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (m *memMeta) ListFilesByOwner(_ context.Context, ownerID string) ([]models.StoredFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, errInjected
	}
	var out []models.StoredFile
	for _, f := range m.files {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memMeta) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return core.ErrDuplicateUser
		}
	}
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *memMeta) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memMeta) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memMeta) fileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

func (m *memMeta) lookupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
	calls int

	failPut bool
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: map[string][]byte{}}
}

func (b *memBlobs) Put(_ context.Context, name string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.failPut {
		return errInjected
	}
	if err != nil {
		return err
	}
	if _, ok := b.blobs[name]; ok {
		return errors.New("blob exists")
	}
	b.blobs[name] = data
	return nil
}

func (b *memBlobs) Exists(_ context.Context, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	_, ok := b.blobs[name]
	return ok, nil
}

func (b *memBlobs) Open(_ context.Context, name string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	data, ok := b.blobs[name]
	if !ok {
		return nil, core.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBlobs) delete(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, name)
}

func (b *memBlobs) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.blobs))
	for n := range b.blobs {
		out = append(out, n)
	}
	return out
}

func (b *memBlobs) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type stubSummarizer struct {
	out string
	err error
	got string
}

func (s *stubSummarizer) Summarize(_ context.Context, text string) (string, error) {
	s.got = text
	return s.out, s.err
}
