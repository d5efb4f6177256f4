// Package logbuf keeps the most recent console log lines in memory for the
// logs view, tagged with the level and the part of the console that wrote them.
package logbuf

import (
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	LogTrace LogLevel = iota
	LogDebug
	LogInfo
	LogWarn
	LogError
)

var icons = map[LogLevel]string{
	LogTrace: "·",
	LogDebug: "○",
	LogInfo:  "●",
	LogWarn:  "▲",
	LogError: "✗",
}

func (l LogLevel) Icon() string {
	if icon, ok := icons[l]; ok {
		return icon
	}
	return "?"
}

type LogEntry struct {
	Time    time.Time
	Level   LogLevel
	Source  string
	Message string
}

// LogBuffer is a bounded, goroutine-safe tail of log entries.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	limit   int
}

func NewLogBuffer(limit int) *LogBuffer {
	if limit < 10 {
		limit = 10
	}
	return &LogBuffer{
		entries: make([]LogEntry, 0, limit),
		limit:   limit,
	}
}

func (lb *LogBuffer) Add(level LogLevel, source, message string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.entries = append(lb.entries, LogEntry{
		Time:    time.Now(),
		Level:   level,
		Source:  source,
		Message: strings.TrimSpace(message),
	})
	if len(lb.entries) > lb.limit {
		lb.entries = lb.entries[len(lb.entries)-lb.limit:]
	}
}

// sources maps fragments of the console's own log lines to short tags.
var sources = []struct {
	fragment string
	tag      string
}{
	{"conductor", "conductor"},
	{"websocket", "conductor"},
	{"compose", "compose"},
	{"generate dna", "compose"},
	{"install", "install"},
	{"settings", "settings"},
}

var prefixes = []struct {
	prefix string
	level  LogLevel
	strip  bool
}{
	{"[T] ", LogTrace, true},
	{"[D] ", LogDebug, true},
	{"Error [", LogError, false},
	{"Fatal [", LogError, false},
	{"Warning [", LogWarn, false},
}

// AddLine adds a line as written by the common logger, detecting level and source from it.
func (lb *LogBuffer) AddLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	level := LogInfo
	for _, candidate := range prefixes {
		if strings.HasPrefix(line, candidate.prefix) {
			level = candidate.level
			if candidate.strip {
				line = strings.TrimPrefix(line, candidate.prefix)
			}
			break
		}
	}
	source := ""
	lower := strings.ToLower(line)
	for _, candidate := range sources {
		if strings.Contains(lower, candidate.fragment) {
			source = candidate.tag
			break
		}
	}
	lb.Add(level, source, line)
}

// All returns a copy of the buffered entries, oldest first.
func (lb *LogBuffer) All() []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return append([]LogEntry(nil), lb.entries...)
}

func (lb *LogBuffer) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return len(lb.entries)
}

func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.entries = lb.entries[:0]
}

type LogStats struct {
	Total  int
	Errors int
	Warns  int
	Debugs int
}

// Stats counts entries per level; trace lines count as debug.
func (lb *LogBuffer) Stats() LogStats {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	stats := LogStats{Total: len(lb.entries)}
	for _, entry := range lb.entries {
		switch entry.Level {
		case LogError:
			stats.Errors++
		case LogWarn:
			stats.Warns++
		case LogDebug, LogTrace:
			stats.Debugs++
		}
	}
	return stats
}
