package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	reset      = "\033[0m"
	red        = "\033[31m"
	green      = "\033[32m"
	gray       = "\033[1;90m"
	blueBold   = "\033[34;1m"
	yellowBold = "\033[33;1m"
	redBold    = "\033[31;1m"
	cyanBold   = "\033[36;1m"
)

type consoleLogger struct {
	prefixes []string
	metadata map[string]interface{}
	writer   io.Writer
	mu       *sync.Mutex
	logLevel LogLevel
}

var _ Logger = (*consoleLogger)(nil)

func (c *consoleLogger) clone() *consoleLogger {
	prefixes := make([]string, len(c.prefixes))
	copy(prefixes, c.prefixes)
	metadata := make(map[string]interface{}, len(c.metadata))
	for k, v := range c.metadata {
		metadata[k] = v
	}
	return &consoleLogger{
		prefixes: prefixes,
		metadata: metadata,
		writer:   c.writer,
		mu:       c.mu,
		logLevel: c.logLevel,
	}
}

// WithPrefix will return a new logger with a prefix prepended to the message
func (c *consoleLogger) WithPrefix(prefix string) Logger {
	l := c.clone()
	if !slices.Contains(l.prefixes, prefix) {
		l.prefixes = append(l.prefixes, prefix)
	}
	return l
}

func (c *consoleLogger) With(metadata map[string]interface{}) Logger {
	l := c.clone()
	for k, v := range metadata {
		l.metadata[k] = v
	}
	return l
}

func (c *consoleLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.logLevel
}

func (c *consoleLogger) metadataSuffix() string {
	if len(c.metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.metadata))
	for k := range c.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		buf, _ := json.Marshal(c.metadata[k])
		parts = append(parts, fmt.Sprintf("%s=%s", k, string(buf)))
	}
	return " " + color(gray) + strings.Join(parts, " ") + color(reset)
}

func (c *consoleLogger) log(level LogLevel, levelColor string, label string, messageColor string, msg string, args ...interface{}) {
	if level < c.logLevel {
		return
	}
	message := msg
	if len(args) > 0 {
		message = fmt.Sprintf(msg, args...)
	}
	var prefix string
	if len(c.prefixes) > 0 {
		prefix = color(cyanBold) + strings.Join(c.prefixes, " ") + color(reset) + " "
	}
	line := fmt.Sprintf("%s %s[%s]%s %s%s%s%s%s\n",
		time.Now().Format("2006-01-02T15:04:05.000Z07:00"),
		color(levelColor), label, color(reset),
		prefix,
		color(messageColor), message, color(reset),
		c.metadataSuffix(),
	)
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(c.writer, line)
}

func (c *consoleLogger) Trace(msg string, args ...interface{}) {
	c.log(LevelTrace, cyanBold, "TRACE", gray, msg, args...)
}

func (c *consoleLogger) Debug(msg string, args ...interface{}) {
	c.log(LevelDebug, blueBold, "DEBUG", green, msg, args...)
}

func (c *consoleLogger) Info(msg string, args ...interface{}) {
	c.log(LevelInfo, yellowBold, "INFO ", "", msg, args...)
}

func (c *consoleLogger) Warn(msg string, args ...interface{}) {
	c.log(LevelWarn, yellowBold, "WARN ", "", msg, args...)
}

func (c *consoleLogger) Error(msg string, args ...interface{}) {
	c.log(LevelError, redBold, "ERROR", red, msg, args...)
}

// NewConsoleLogger returns a new Logger that writes human-readable lines to stderr.
func NewConsoleLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &consoleLogger{
		metadata: map[string]interface{}{},
		writer:   os.Stderr,
		mu:       &sync.Mutex{},
		logLevel: level,
	}
}
