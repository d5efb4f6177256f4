package interactive

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/compository/app/common"
)

const maxHistoryEntries = 100

type EventKind string

const (
	EventGenerated EventKind = "generated"
	EventInstalled EventKind = "installed"
	EventSaved     EventKind = "saved"
)

type HistoryEntry struct {
	ID      int64     `yaml:"id"`
	Kind    EventKind `yaml:"kind"`
	Name    string    `yaml:"name"`
	DnaHash string    `yaml:"dna_hash,omitempty"`
	Detail  string    `yaml:"detail,omitempty"`
	Time    time.Time `yaml:"time"`
}

// History is the persisted list of what this console generated and installed, newest first.
type History struct {
	filename string
	mu       sync.RWMutex
	Entries  []HistoryEntry `yaml:"entries"`
}

// LoadHistory reads the history file; a missing file is an empty history.
func LoadHistory(filename string) (*History, error) {
	result := &History{filename: filename, Entries: []HistoryEntry{}}
	content, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return result, err
	}
	if err := yaml.Unmarshal(content, result); err != nil {
		return result, err
	}
	return result, nil
}

func (h *History) Save() error {
	h.mu.RLock()
	content, err := yaml.Marshal(h)
	h.mu.RUnlock()
	if err != nil {
		return err
	}
	if _, err := common.EnsureDirectory(filepath.Dir(h.filename)); err != nil {
		return err
	}
	return os.WriteFile(h.filename, content, 0o640)
}

// Add records an event and persists the history; a failed save is only logged.
func (h *History) Add(entry HistoryEntry) HistoryEntry {
	h.mu.Lock()
	maxID := int64(0)
	for _, existing := range h.Entries {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	entry.ID = maxID + 1
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	h.Entries = append([]HistoryEntry{entry}, h.Entries...)
	if len(h.Entries) > maxHistoryEntries {
		h.Entries = h.Entries[:maxHistoryEntries]
	}
	h.mu.Unlock()

	common.Uncritical("history save", h.Save())
	return entry
}

func (h *History) Latest(n int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > len(h.Entries) || n < 0 {
		n = len(h.Entries)
	}
	result := make([]HistoryEntry, n)
	copy(result, h.Entries[:n])
	return result
}

func (h *History) Clear() {
	h.mu.Lock()
	h.Entries = []HistoryEntry{}
	h.mu.Unlock()
	common.Uncritical("history save", h.Save())
}
