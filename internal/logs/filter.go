package logs

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"marquee/internal/logging"
)

// Record is the subset of a log line Filter inspects.
type Record struct {
	Level      slog.Level
	LevelKnown bool
	Component  string
	UserID     string
}

// Filter selects log lines. Empty Component and UserID match every line;
// the zero MinLevel is info.
type Filter struct {
	MinLevel  slog.Level
	Component string
	UserID    string
}

// Match reports whether line passes the filter. Lines whose level cannot be
// determined, such as continuation lines, pass the level check.
func (f Filter) Match(line string) bool {
	rec := ParseLine(line)
	if rec.LevelKnown && rec.Level < f.MinLevel {
		return false
	}
	if f.Component != "" && !strings.EqualFold(rec.Component, f.Component) {
		return false
	}
	if f.UserID != "" && rec.UserID != f.UserID {
		return false
	}
	return true
}

// ParseLine extracts the level, component and user from a JSON or console
// formatted log line.
func ParseLine(line string) Record {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "{") {
		return parseJSONLine(trimmed)
	}
	return parseConsoleLine(trimmed)
}

func parseJSONLine(line string) Record {
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		return Record{}
	}
	var rec Record
	if raw, ok := payload["level"].(string); ok {
		rec.Level, rec.LevelKnown = ParseLevel(raw)
	}
	rec.Component = stringField(payload, logging.FieldComponent)
	rec.UserID = stringField(payload, logging.FieldUserID)
	return rec
}

func stringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Console lines read "2006-01-02 15:04:05 LEVEL component: message key=value".
func parseConsoleLine(line string) Record {
	tokens := strings.Fields(line)
	if len(tokens) < 3 {
		return Record{}
	}
	var rec Record
	rec.Level, rec.LevelKnown = ParseLevel(tokens[2])
	if !rec.LevelKnown {
		return Record{}
	}
	if len(tokens) > 3 && strings.HasSuffix(tokens[3], ":") {
		rec.Component = strings.TrimSuffix(tokens[3], ":")
	}
	prefix := logging.FieldUserID + "="
	for _, token := range tokens[3:] {
		if value, ok := strings.CutPrefix(token, prefix); ok {
			rec.UserID = strings.Trim(value, `"`)
			break
		}
	}
	return rec
}

// ParseLevel maps debug, info, warn and error labels, in any case, to slog
// levels.
func ParseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
