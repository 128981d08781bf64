package media

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryUploader keeps uploaded files in memory. It's used in tests and
// local development.
type MemoryUploader struct {
	mu    sync.Mutex
	seq   int
	Files map[string][]byte
}

func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{
		Files: make(map[string][]byte),
	}
}

func (u *MemoryUploader) Upload(_ context.Context, filename string, r io.Reader) (Upload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to read upload: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.seq++
	publicID := fmt.Sprintf("memory/%d-%s", u.seq, filename)
	u.Files[publicID] = data

	return Upload{
		URL:      "memory://" + publicID,
		PublicID: publicID,
	}, nil
}
