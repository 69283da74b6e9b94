package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
)

// FileReplayStore saves a finished game's assembled replay document as
// a gzip-compressed, atomically-renamed file under dir. It implements
// replay.Store without importing that package, the same inversion
// eventrouter.Dispatcher uses to keep the connection layer out of
// msgrouter's import graph.
type FileReplayStore struct {
	dir string
}

func NewFileReplayStore(dir string) *FileReplayStore {
	return &FileReplayStore{dir: dir}
}

func (s *FileReplayStore) Path(gameID string) string {
	return filepath.Join(s.dir, gameID+".txt.gz")
}

func (s *FileReplayStore) SaveReplay(_ context.Context, gameID string, content string) error {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(content)); err != nil {
		gw.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	return writeFileAtomic(s.Path(gameID), buf.Bytes(), 0o600)
}

// LoadReplay decompresses a previously saved replay document back into
// plain text, ready for replay.LoadFromString.
func (s *FileReplayStore) LoadReplay(gameID string) (string, error) {
	raw, err := os.ReadFile(s.Path(gameID))
	if err != nil {
		return "", err
	}
	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	defer gr.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(gr); err != nil {
		return "", err
	}
	return out.String(), nil
}
