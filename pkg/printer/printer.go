// Package printer provides the text sinks that hyperbench reports are written to.
//
// Reports are built from lines. A Printer may receive a partial line through Print
// (the harness announces a trial before running it) and completes it with Println.
// Where the text ends up is the Printer's business: a terminal, a file, an
// in-memory buffer or a structured logger are all valid.
package printer

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Printer receives report text.
type Printer interface {
	// Print writes text without terminating the current line.
	Print(text string)
	// Println writes text and terminates the current line.
	Println(line string)
}

// WriterPrinter writes report text to an io.Writer. Write errors are dropped,
// matching fmt.Print on a console.
type WriterPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterPrinter returns a Printer writing to w.
func NewWriterPrinter(w io.Writer) *WriterPrinter {
	return &WriterPrinter{w: w}
}

// Stdout returns a Printer writing to standard output.
func Stdout() *WriterPrinter {
	return NewWriterPrinter(os.Stdout)
}

// Print implements Printer.
func (p *WriterPrinter) Print(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = io.WriteString(p.w, text)
}

// Println implements Printer.
func (p *WriterPrinter) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = io.WriteString(p.w, line+"\n")
}

// BufferPrinter keeps report text in memory.
type BufferPrinter struct {
	mu  sync.Mutex
	buf strings.Builder
}

// NewBufferPrinter returns an empty in-memory Printer.
func NewBufferPrinter() *BufferPrinter {
	return &BufferPrinter{}
}

// Print implements Printer.
func (p *BufferPrinter) Print(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.WriteString(text)
}

// Println implements Printer.
func (p *BufferPrinter) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.WriteString(line)
	p.buf.WriteByte('\n')
}

// String returns everything printed so far.
func (p *BufferPrinter) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.buf.String()
}

// Lines returns the completed lines printed so far.
func (p *BufferPrinter) Lines() []string {
	text := p.String()
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	} else {
		return nil
	}

	return strings.Split(text, "\n")
}

// LogPrinter emits each completed line as a zerolog event.
// Partial text passed to Print is held until the line is completed.
type LogPrinter struct {
	mu      sync.Mutex
	logger  zerolog.Logger
	level   zerolog.Level
	pending strings.Builder
}

// NewLogPrinter returns a Printer logging every line at the given level.
func NewLogPrinter(logger zerolog.Logger, level zerolog.Level) *LogPrinter {
	return &LogPrinter{logger: logger, level: level}
}

// Print implements Printer.
func (p *LogPrinter) Print(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending.WriteString(text)
}

// Println implements Printer.
func (p *LogPrinter) Println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending.WriteString(line)
	p.logger.WithLevel(p.level).Msg(p.pending.String())
	p.pending.Reset()
}
