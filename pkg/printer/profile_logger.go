package printer

import (
	"fmt"
	"sync"
	"time"
)

// Mode selects which timestamp a ProfileLogger prefixes to each line.
type Mode int

const (
	// Epoch stamps lines with the milliseconds since the logger was created.
	Epoch Mode = iota
	// Delta stamps lines with the milliseconds since the previous line.
	Delta
	// Off drops every line.
	Off
)

// String returns the lower case name of the mode.
func (m Mode) String() string {
	switch m {
	case Epoch:
		return "epoch"
	case Delta:
		return "delta"
	case Off:
		return "off"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ProfileLogger logs lines with timestamps, either absolute or relative to the last line.
type ProfileLogger struct {
	mu      sync.Mutex
	printer Printer
	mode    Mode
	now     func() time.Time
	epoch   time.Time
}

// NewProfileLogger returns a logger writing to p in the given mode.
func NewProfileLogger(p Printer, mode Mode) *ProfileLogger {
	return newProfileLogger(p, mode, time.Now)
}

func newProfileLogger(p Printer, mode Mode, now func() time.Time) *ProfileLogger {
	return &ProfileLogger{printer: p, mode: mode, now: now, epoch: now()}
}

// SetMode switches the timestamp mode for subsequent lines.
func (l *ProfileLogger) SetMode(mode Mode) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mode = mode
}

// Log writes txt prefixed by a "%04d ms" timestamp.
func (l *ProfileLogger) Log(txt string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.mode {
	case Epoch:
		elapsed := l.now().Sub(l.epoch).Milliseconds()
		l.printer.Println(fmt.Sprintf("%04d ms %s", elapsed, txt))
	case Delta:
		now := l.now()
		elapsed := now.Sub(l.epoch).Milliseconds()
		l.epoch = now
		l.printer.Println(fmt.Sprintf("%04d ms %s", elapsed, txt))
	case Off:
	default:
		panic("printer: unknown profile logger mode " + l.mode.String())
	}
}
