package app

import (
	"sync"
)

// Message is one notification of a session.
type Message struct {
	Text  string
	Error bool
}

// MessageLog is an execctx.Notifier that keeps the most recent messages
// and logs them. It is safe for concurrent use.
type MessageLog struct {
	mu    sync.Mutex
	log   *Logger
	limit int
	msgs  []Message
	total int
}

// NewMessageLog keeps up to limit messages; zero keeps 100.
func NewMessageLog(log *Logger, limit int) *MessageLog {
	if log == nil {
		log = NullLogger
	}
	if limit <= 0 {
		limit = 100
	}
	return &MessageLog{log: log, limit: limit}
}

// ReportError records an error message.
func (m *MessageLog) ReportError(msg string) {
	m.log.Debug("error: %s", msg)
	m.add(Message{Text: msg, Error: true})
}

// StatusMessage records an informational message.
func (m *MessageLog) StatusMessage(msg string) {
	m.log.Debug("message: %s", msg)
	m.add(Message{Text: msg})
}

func (m *MessageLog) add(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	m.total++
	if over := len(m.msgs) - m.limit; over > 0 {
		m.msgs = append(m.msgs[:0], m.msgs[over:]...)
	}
}

// Messages returns the recorded messages, oldest first.
func (m *MessageLog) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.msgs...)
}

// Last returns the most recent message.
func (m *MessageLog) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.msgs) == 0 {
		return Message{}, false
	}
	return m.msgs[len(m.msgs)-1], true
}

// Total returns the number of messages recorded so far, including those
// dropped by the limit or Clear.
func (m *MessageLog) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Clear drops every message.
func (m *MessageLog) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = nil
}
