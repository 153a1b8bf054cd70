package transfer

import (
	"github.com/crcloud/crdeploy/fmte"
)

// EventKind labels one remote/local operation for progress reporting.
type EventKind int8

const (
	// EventMkdir is a directory creation
	EventMkdir EventKind = iota
	// EventPut is a file upload
	EventPut
	// EventGet is a file download
	EventGet
	// EventSkip is an entry skipped with notice (unknown remote type)
	EventSkip
)

func (k EventKind) String() string {
	switch k {
	case EventMkdir:
		return "MKDIR"
	case EventPut:
		return "PUT"
	case EventGet:
		return "GET"
	default:
		return "SKIP"
	}
}

// ProgressSink receives granular transfer progress. The engine calls Event
// before performing each operation and Advance after each plan item; the
// progress unit is the item count, not bytes.
type ProgressSink interface {
	Begin(total int)
	Event(kind EventKind, relPath string)
	Advance()
	End()
}

// NopSink discards all progress.
type NopSink struct{}

func (NopSink) Begin(int)               {}
func (NopSink) Event(EventKind, string) {}
func (NopSink) Advance()                {}
func (NopSink) End()                    {}

// ConsoleSink prints one line per operation and a running count for larger
// transfers.
type ConsoleSink struct {
	total int
	done  int
}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{}
}

func (c *ConsoleSink) Begin(total int) {
	c.total = total
	c.done = 0
}

func (c *ConsoleSink) Event(kind EventKind, relPath string) {
	fmte.Printf("%-5s %s\n", kind, relPath)
}

func (c *ConsoleSink) Advance() {
	c.done++
	if c.total >= 200 && c.done%100 == 0 {
		fmte.Printf("%d/%d items done\n", c.done, c.total)
	}
}

func (c *ConsoleSink) End() {
	if c.total > 0 {
		fmte.PrintfV("%d/%d items done\n", c.done, c.total)
	}
}
