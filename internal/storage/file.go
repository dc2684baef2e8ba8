package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileRecorder writes one JSON object per line. The file stays open for
// appends; reads open it separately.
type FileRecorder struct {
	path string

	mu  sync.Mutex
	out *os.File
	enc *json.Encoder
}

func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open turn log: %w", err)
	}
	return &FileRecorder{path: path, out: f, enc: json.NewEncoder(f)}, nil
}

func (r *FileRecorder) AppendInteraction(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return fmt.Errorf("turn log %s is closed", r.path)
	}
	if err := r.enc.Encode(event); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// LoadInteractions returns every readable event in file order. Lines that do
// not decode are skipped.
func (r *FileRecorder) LoadInteractions() ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open turn log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		events  []Event
		skipped int
	)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read turn log: %w", err)
	}
	if skipped > 0 {
		log.Printf("⚠️ skipped %d malformed lines in %s", skipped, r.path)
	}
	return events, nil
}

func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return nil
	}
	err := r.out.Close()
	r.out = nil
	return err
}
