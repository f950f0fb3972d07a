package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap/zapcore"
)

const logBufferSize = 1000

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	AppID   string
	Level   zapcore.Level
	Logger  string
	Message string
	Caller  string // Function name
	Fields  map[string]any
	Time    time.Time
}

// LogSink persists one entry.
type LogSink interface {
	WriteLog(ctx context.Context, entry LogEntry) error
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	sink    LogSink
	logChan chan LogEntry
	appID   string

	dropped atomic.Int64
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewDBLogWriter starts the background worker immediately.
func NewDBLogWriter(sink LogSink, appID string) *DBLogWriter {
	writer := &DBLogWriter{
		sink:    sink,
		logChan: make(chan LogEntry, logBufferSize),
		appID:   appID,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go writer.processLogs()

	return writer
}

// AddLog is called by our Zap hook. It never blocks.
func (w *DBLogWriter) AddLog(entry LogEntry) {
	entry.AppID = w.appID
	select {
	case w.logChan <- entry:
	default:
		// Channel full: drop log to prevent blocking a sync run
		if w.dropped.Add(1) == 1 {
			fmt.Fprintln(os.Stderr, "DB log channel full, dropping:", entry.Message)
		}
	}
}

// Dropped is the number of entries discarded because the buffer was full.
func (w *DBLogWriter) Dropped() int64 {
	return w.dropped.Load()
}

// Close writes whatever is buffered and stops the worker.
func (w *DBLogWriter) Close() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}

func (w *DBLogWriter) processLogs() {
	defer close(w.done)
	for {
		select {
		case entry := <-w.logChan:
			w.write(entry)
		case <-w.quit:
			for {
				select {
				case entry := <-w.logChan:
					w.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (w *DBLogWriter) write(entry LogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Errors are ignored to keep the app running
	_ = w.sink.WriteLog(ctx, entry)
}
