package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
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
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Attr is one key=value pair of a log line.
type Attr struct {
	Key   string
	Value string
}

// Entry is a parsed slog text line.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	Attrs     []Attr
	Raw       string
}

// Parse splits a slog text handler line into its fields. Lines that do not
// look like key=value pairs come back with only Raw and Message set.
func Parse(line string) Entry {
	e := Entry{Raw: line}
	pairs, ok := splitPairs(line)
	if !ok {
		e.Message = line
		return e
	}
	for _, p := range pairs {
		switch p.Key {
		case "time":
			if t, err := time.Parse(time.RFC3339Nano, p.Value); err == nil {
				e.Time = t
			}
		case "level":
			e.Level = strings.ToUpper(p.Value)
		case "msg":
			e.Message = p.Value
		case "component":
			e.Component = p.Value
		default:
			e.Attrs = append(e.Attrs, p)
		}
	}
	return e
}

// ParseLines parses each line.
func ParseLines(lines []string) []Entry {
	out := make([]Entry, len(lines))
	for i, l := range lines {
		out[i] = Parse(l)
	}
	return out
}

// Format renders e on one line: clock, level, component, message, attrs.
func Format(e Entry) string {
	if e.Level == "" && e.Time.IsZero() {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", e.Level)
	if e.Component != "" {
		b.WriteString(" [" + e.Component + "]")
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)
	for _, a := range e.Attrs {
		b.WriteString(" " + a.Key + "=" + a.Value)
	}
	return b.String()
}

func splitPairs(line string) ([]Attr, bool) {
	var out []Attr
	rest := strings.TrimSpace(line)
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \"") {
			return nil, false
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, false
			}
			value, _ = strconv.Unquote(quoted)
			rest = rest[len(quoted):]
		} else if sp := strings.IndexByte(rest, ' '); sp >= 0 {
			value = rest[:sp]
			rest = rest[sp:]
		} else {
			value = rest
			rest = ""
		}
		out = append(out, Attr{Key: key, Value: value})
		rest = strings.TrimLeft(rest, " ")
	}
	return out, len(out) > 0
}
