// Package logger implements an async text sink: callers enqueue
// formatted lines and a single background worker drains them in FIFO
// order. The worker's lifecycle is managed with a buffered channel plus
// gopkg.in/tomb.v2 rather than a busy-polling loop.
package logger

import (
	"bufio"
	"io"

	tomb "gopkg.in/tomb.v2"
)

// defaultQueueSize bounds the channel buffer; once full, Print blocks
// the caller until the worker drains a slot or the logger is stopped.
const defaultQueueSize = 4096

// Logger is a single-producer/single-consumer FIFO text sink.
type Logger struct {
	lines chan string
	t     tomb.Tomb
	w     *bufio.Writer
}

// New starts the background worker that drains lines to w.
func New(w io.Writer) *Logger {
	l := &Logger{
		lines: make(chan string, defaultQueueSize),
		w:     bufio.NewWriter(w),
	}
	l.t.Go(func() error {
		return l.run()
	})
	return l
}

// Print enqueues line for later emission and returns without waiting
// for it to be written. It blocks only while the queue is full; after
// Stop the line may be dropped.
func (l *Logger) Print(line string) {
	select {
	case l.lines <- line:
	case <-l.t.Dying():
	}
}

// run is the worker loop: drain lines until told to die, then drain
// whatever remains before returning, ensuring every line sent before
// Stop is eventually written.
func (l *Logger) run() error {
	for {
		select {
		case line := <-l.lines:
			l.w.WriteString(line)
		case <-l.t.Dying():
			l.drain()
			return nil
		}
	}
}

// drain flushes any lines still queued at shutdown time.
func (l *Logger) drain() {
	for {
		select {
		case line := <-l.lines:
			l.w.WriteString(line)
		default:
			l.w.Flush()
			return
		}
	}
}

// Stop signals the worker to exit, waits for the remaining queue to
// drain, and joins the worker goroutine.
func (l *Logger) Stop() {
	l.t.Kill(nil)
	l.t.Wait()
}
