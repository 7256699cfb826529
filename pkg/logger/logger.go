// Package logger is the application-layer logger of the learning tracker:
// leveled messages with typed fields, written as JSON lines or key=value text.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError

	// levelOff disables output.
	levelOff
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
// Anything else is info.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LevelWarn
	}
	for level, n := range levelNames {
		if n == name {
			return level
		}
	}
	return LevelInfo
}

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat parses a string into a Format, defaulting to JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// ══════════════════════════════════════════════════════════════════════════════
// FIELDS
// ══════════════════════════════════════════════════════════════════════════════

// Field is one key-value pair attached to a message.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Err is a nil-safe "error" field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration renders d as a string such as "1.5s".
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.String()}
}

// Time renders t as RFC 3339.
func Time(key string, t time.Time) Field {
	return Field{Key: key, Value: t.Format(time.RFC3339)}
}

// CorrelationIDKey is the field key used to trace one command through
// handlers, events and storage.
const CorrelationIDKey = "correlation_id"

func GoalID(id fmt.Stringer) Field  { return String("goal_id", id.String()) }
func EntryID(id fmt.Stringer) Field { return String("entry_id", id.String()) }
func EventID(id fmt.Stringer) Field { return String("event_id", id.String()) }
func BadgeID(id string) Field       { return String("badge_id", id) }
func Hours(h float64) Field         { return Float64("hours", h) }
func Day(key string) Field          { return String("day", key) }
func Component(name string) Field   { return String("component", name) }
func Operation(name string) Field   { return String("operation", name) }

// ══════════════════════════════════════════════════════════════════════════════
// LOGGER
// ══════════════════════════════════════════════════════════════════════════════

// LogEntry is the JSON shape of one line.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Caller    string         `json:"caller,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// sink is shared by a logger and everything derived from it with With.
type sink struct {
	mu     sync.Mutex
	out    io.Writer
	encode func(LogEntry) []byte
}

func (s *sink) write(entry LogEntry) {
	line := s.encode(entry)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.out.Write(line)
}

// Logger is immutable; With returns a child.
type Logger struct {
	sink      *sink
	level     Level
	fields    []Field
	addCaller bool
	now       func() time.Time
}

// Options configures the logger. A nil Output means stderr.
type Options struct {
	Output    io.Writer
	Level     Level
	Format    Format
	AddCaller bool
}

func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	encode := encodeJSON
	if opts.Format == FormatText {
		encode = encodeText
	}
	return &Logger{
		sink:      &sink{out: opts.Output, encode: encode},
		level:     opts.Level,
		addCaller: opts.AddCaller,
		now:       time.Now,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Options{Output: io.Discard, Level: levelOff})
}

// With returns a child logger carrying extra fields.
func (l *Logger) With(fields ...Field) *Logger {
	child := *l
	child.fields = append(append(make([]Field, 0, len(l.fields)+len(fields)), l.fields...), fields...)
	return &child
}

// WithCorrelationID is With(String(CorrelationIDKey, id)).
func (l *Logger) WithCorrelationID(id string) *Logger {
	return l.With(String(CorrelationIDKey, id))
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
	}
	if l.addCaller {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry.Caller = fmt.Sprintf("%s:%d", file[strings.LastIndex(file, "/")+1:], line)
		}
	}

	// Call-site fields win over inherited ones.
	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, set := range [][]Field{l.fields, fields} {
			for _, f := range set {
				entry.Fields[f.Key] = f.Value
			}
		}
	}

	l.sink.write(entry)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENCODERS
// ══════════════════════════════════════════════════════════════════════════════

func encodeJSON(entry LogEntry) []byte {
	data, err := json.Marshal(entry)
	if err != nil {
		return []byte(fmt.Sprintf("%s [%s] %s (fields dropped: %v)\n", entry.Timestamp, entry.Level, entry.Message, err))
	}
	return append(data, '\n')
}

// encodeText renders "TIMESTAMP LEVEL message key=value ..." with keys sorted.
func encodeText(entry LogEntry) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", entry.Timestamp, entry.Level, entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	if entry.Caller != "" {
		fmt.Fprintf(&b, " caller=%s", entry.Caller)
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
