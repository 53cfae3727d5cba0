package courier

import (
	"fmt"
	"sync"
)

// recordingLogger captures diagnostic emissions so tests can assert on
// them instead of scraping console output.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := level + " " + msg
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		line += fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	l.entries = append(l.entries, line)
}

func (l *recordingLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.record("DEBUG", msg, keysAndValues...)
}

func (l *recordingLogger) Info(msg string, keysAndValues ...interface{}) {
	l.record("INFO", msg, keysAndValues...)
}

func (l *recordingLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.record("WARN", msg, keysAndValues...)
}

func (l *recordingLogger) Error(msg string, keysAndValues ...interface{}) {
	l.record("ERROR", msg, keysAndValues...)
}

func (l *recordingLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}
