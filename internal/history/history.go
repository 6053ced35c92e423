// Package history keeps the session's conversation log in memory.
//
// The log lives only for the process lifetime: it is rendered on request and
// cleared explicitly, never written to disk.
package history

import (
	"fmt"
	"strings"
	"sync"
)

// Turn is one user/assistant exchange.
type Turn struct {
	User      string
	Assistant string
}

// Log is an ordered, session-scoped conversation log.
type Log struct {
	mu    sync.Mutex
	turns []Turn
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Append records one completed exchange.
func (l *Log) Append(user, assistant string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = append(l.turns, Turn{User: user, Assistant: assistant})
}

// Len returns the number of recorded turns.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// Clear drops all recorded turns.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns = nil
}

// Render formats the log for display.
func (l *Log) Render() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.turns) == 0 {
		return "No conversation history yet."
	}
	var b strings.Builder
	b.WriteString("Conversation history:\n")
	for i, t := range l.turns {
		fmt.Fprintf(&b, "%d. You: %s\n", i+1, t.User)
		fmt.Fprintf(&b, "   Agent: %s\n", t.Assistant)
	}
	return b.String()
}
