package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const spoolFile = "archive_spool.log"

// Spool is an append-only JSON-lines file of records that could not be
// written to the database.
type Spool struct {
	Dir      string
	MaxBytes int64

	mu sync.Mutex
}

func NewSpool(dir string, maxMB int64) (*Spool, error) {
	if maxMB <= 0 {
		maxMB = 256
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, err
	}
	return &Spool{Dir: dir, MaxBytes: maxMB * 1024 * 1024}, nil
}

// Append adds rec to the spool. A full spool rejects new records.
func (s *Spool) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size() >= s.MaxBytes {
		return fmt.Errorf("spool full (%d bytes)", s.MaxBytes)
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.Dir, spoolFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

func (s *Spool) size() int64 {
	var size int64
	filepath.WalkDir(s.Dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}

// Replay moves the spool aside and feeds every record to save. Records
// that fail again go back through save, which re-spools them.
func (s *Spool) Replay(ctx context.Context, save func(context.Context, Record) error) int {
	s.mu.Lock()
	filename := filepath.Join(s.Dir, spoolFile)
	info, err := os.Stat(filename)
	if err != nil || info.Size() == 0 {
		s.mu.Unlock()
		return 0
	}
	replayFile := filepath.Join(s.Dir, fmt.Sprintf("replay_%d.log", time.Now().UnixNano()))
	err = os.Rename(filename, replayFile)
	s.mu.Unlock()
	if err != nil {
		log.Printf("[ERROR] Snapshot Archive: failed to rotate spool for replay: %v", err)
		return 0
	}
	defer os.Remove(replayFile)

	f, err := os.Open(replayFile)
	if err != nil {
		return 0
	}
	defer f.Close()

	flushed := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			log.Printf("[WARN] Snapshot Archive: dropping corrupt spool line: %v", err)
			continue
		}
		if err := save(ctx, rec); err == nil {
			flushed++
		}
	}
	if flushed > 0 {
		log.Printf("[INFO] Snapshot Archive: %d spooled snapshots flushed", flushed)
	}
	return flushed
}

// StartReplayer replays the spool every interval until ctx ends.
func (a *PostgresArchive) StartReplayer(ctx context.Context, interval time.Duration) {
	if a.Spool == nil {
		return
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.Spool.Replay(ctx, a.Save)
			}
		}
	}()
}
