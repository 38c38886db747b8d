package session

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileStore keeps the token in a file, so a CLI login or another process
// can hand the session over. External edits are picked up by Watch.
type FileStore struct {
	notifier
	path string

	mu       sync.Mutex
	lastSeen string
}

func NewFileStore(path string) *FileStore {
	s := &FileStore{path: path}
	s.lastSeen, _ = s.read()
	return s
}

func (s *FileStore) read() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *FileStore) Get(ctx context.Context) (string, error) {
	return s.read()
}

func (s *FileStore) Save(ctx context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := writeAtomic(s.path, []byte(token)); err != nil {
		return err
	}
	s.publishIfChanged(token)
	return nil
}

// writeAtomic replaces path through a temp file in the same directory, so
// a reader never sees a truncated token.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *FileStore) Remove(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.publishIfChanged("")
	return nil
}

// publishIfChanged swallows the echo of our own writes coming back
// through the watcher.
func (s *FileStore) publishIfChanged(token string) {
	s.mu.Lock()
	if token == s.lastSeen {
		s.mu.Unlock()
		return
	}
	s.lastSeen = token
	s.mu.Unlock()
	s.publish(Event{Present: token != ""})
}

// Watch follows the token file's directory until ctx is done. The file
// itself may not exist yet, so the directory is watched.
func (s *FileStore) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				token, err := s.read()
				switch {
				case err == nil:
				case errors.Is(err, ErrNoToken):
					// An empty file that still exists is a write in progress.
					// Only a missing file ends the session.
					if _, statErr := os.Stat(s.path); statErr == nil {
						continue
					}
					token = ""
				default:
					log.Printf("[WARN] Session File Watcher: read %s: %v", s.path, err)
					continue
				}
				s.publishIfChanged(token)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WARN] Session File Watcher Error: %v", err)
			}
		}
	}()
	return nil
}

var _ Store = (*FileStore)(nil)
