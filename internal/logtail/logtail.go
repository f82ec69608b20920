// Package logtail reads the end of sticky's log file for the logs command.
package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Filter selects lines to keep. A zero Filter keeps everything.
type Filter struct {
	// MinLevel drops entries less severe than this level. Lines whose level
	// cannot be determined are kept.
	MinLevel  logrus.Level
	Component string
}

func (f Filter) active() bool {
	return f.MinLevel != 0 || f.Component != ""
}

// Read returns at most maxLines matching lines from the end of the file at
// path. A missing file yields no lines.
func Read(path string, maxLines int, filter Filter) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()
	return Tail(file, maxLines, filter)
}

// Tail is Read over an arbitrary reader.
func Tail(r io.Reader, maxLines int, filter Filter) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, idx := 0, 0
	for scanner.Scan() {
		line := scanner.Text()
		if filter.active() && !filter.keep(parse(line)) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

type entry struct {
	level     logrus.Level
	hasLevel  bool
	component string
}

func (f Filter) keep(e entry) bool {
	if f.MinLevel != 0 && e.hasLevel && e.level > f.MinLevel {
		return false
	}
	if f.Component != "" && e.component != f.Component {
		return false
	}
	return true
}

// parse understands both formats the logging package writes: JSON objects
// and logfmt-style text.
func parse(line string) entry {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		var fields struct {
			Level     string `json:"level"`
			Component string `json:"component"`
		}
		if json.Unmarshal([]byte(trimmed), &fields) == nil {
			return newEntry(fields.Level, fields.Component)
		}
	}
	var level, component string
	for _, tok := range strings.Fields(trimmed) {
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		switch key {
		case "level":
			level = strings.Trim(value, `"`)
		case "component":
			component = strings.Trim(value, `"`)
		}
	}
	return newEntry(level, component)
}

func newEntry(level, component string) entry {
	e := entry{component: component}
	if lvl, err := logrus.ParseLevel(level); err == nil {
		e.level, e.hasLevel = lvl, true
	}
	return e
}
