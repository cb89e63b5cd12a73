package mocks

import (
	"sync"

	"github.com/kevin07696/payments-admin/internal/domain/ports"
)

// LogEntry is one captured log line
type LogEntry struct {
	Level   string
	Message string
	Fields  []ports.Field
}

// MockLogger records log lines so tests can assert on them
type MockLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) Debug(msg string, fields ...ports.Field) { m.record("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...ports.Field)  { m.record("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...ports.Field)  { m.record("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...ports.Field) { m.record("error", msg, fields) }

func (m *MockLogger) record(level, msg string, fields []ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, LogEntry{Level: level, Message: msg, Fields: fields})
}

// Entries returns a copy of the lines logged at level; empty level returns all
func (m *MockLogger) Entries(level string) []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LogEntry
	for _, e := range m.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (m *MockLogger) HasError(msg string) bool { return m.has("error", msg) }
func (m *MockLogger) HasWarn(msg string) bool  { return m.has("warn", msg) }

func (m *MockLogger) has(level, msg string) bool {
	for _, e := range m.Entries(level) {
		if e.Message == msg {
			return true
		}
	}
	return false
}
