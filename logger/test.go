package logger

import "sync"

// TestLogEntry is a single captured log record.
type TestLogEntry struct {
	Level     string
	Message   string
	Arguments []interface{}
}

// TestLogger captures log entries in memory for assertions in tests.
// It is safe for concurrent use.
type TestLogger struct {
	metadata map[string]interface{}
	logs     *[]TestLogEntry
	logsMu   *sync.Mutex
}

var _ Logger = (*TestLogger)(nil)

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	return &TestLogger{metadata: kv, logs: c.logs, logsMu: c.logsMu}
}

// WithPrefix will return a new logger with a prefix prepended to the message
func (c *TestLogger) WithPrefix(prefix string) Logger {
	return c
}

func (c *TestLogger) IsLevelEnabled(level LogLevel) bool {
	return true
}

// Logs returns a copy of all entries captured so far.
func (c *TestLogger) Logs() []TestLogEntry {
	c.logsMu.Lock()
	defer c.logsMu.Unlock()
	out := make([]TestLogEntry, len(*c.logs))
	copy(out, *c.logs)
	return out
}

func (c *TestLogger) log(level string, msg string, args ...interface{}) {
	c.logsMu.Lock()
	defer c.logsMu.Unlock()
	*c.logs = append(*c.logs, TestLogEntry{level, msg, args})
}

func (c *TestLogger) Trace(msg string, args ...interface{}) {
	c.log("TRACE", msg, args...)
}

func (c *TestLogger) Debug(msg string, args ...interface{}) {
	c.log("DEBUG", msg, args...)
}

func (c *TestLogger) Info(msg string, args ...interface{}) {
	c.log("INFO", msg, args...)
}

func (c *TestLogger) Warn(msg string, args ...interface{}) {
	c.log("WARNING", msg, args...)
}

func (c *TestLogger) Error(msg string, args ...interface{}) {
	c.log("ERROR", msg, args...)
}

// NewTestLogger returns a new Logger instance useful for testing
func NewTestLogger() *TestLogger {
	logs := make([]TestLogEntry, 0)
	return &TestLogger{
		logs:   &logs,
		logsMu: &sync.Mutex{},
	}
}
