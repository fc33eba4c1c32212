package worker

import (
	"bytes"
	"sync"

	"github.com/sirupsen/logrus"
)

const tailLines = 20

// lineLogger forwards worker output to the logger one line at a time and
// remembers the last few lines.
type lineLogger struct {
	mu      sync.Mutex
	entry   *logrus.Entry
	pending []byte
	keep    int
	tail    []string
}

func newLineLogger(entry *logrus.Entry, keep int) *lineLogger {
	return &lineLogger{entry: entry, keep: keep}
}

func (w *lineLogger) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.emit(string(bytes.TrimRight(w.pending[:i], "\r")))
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

// Flush emits a trailing line without newline.
func (w *lineLogger) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) > 0 {
		w.emit(string(w.pending))
		w.pending = nil
	}
}

// Tail returns a copy of the remembered lines.
func (w *lineLogger) Tail() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.tail...)
}

func (w *lineLogger) emit(line string) {
	w.entry.Debug(line)
	if w.keep <= 0 {
		return
	}
	w.tail = append(w.tail, line)
	if len(w.tail) > w.keep {
		w.tail = w.tail[len(w.tail)-w.keep:]
	}
}
