// Package progress reports how many tasks of a run have finished.
package progress

import (
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter is advanced once per finished task. Implementations must be safe
// for concurrent use.
type Reporter interface {
	Add(n int)
	Finish()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Add(int) {}
func (Nop) Finish() {}

type bar struct {
	mu sync.Mutex
	pb *progressbar.ProgressBar
}

// NewBar draws a console bar of total steps on w.
func NewBar(w io.Writer, total int, description string) Reporter {
	return &bar{pb: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(18),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)}
}

func (b *bar) Add(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.pb.Add(n)
}

func (b *bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.pb.Finish()
}

// ForTerminal returns a bar on stderr when it is attached to a terminal and
// enabled is set, Nop otherwise.
func ForTerminal(enabled bool, total int, description string) Reporter {
	if !enabled || !IsTerminal(os.Stderr) {
		return Nop{}
	}
	return NewBar(os.Stderr, total, description)
}

func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Counter counts steps. Tests use it to observe a run.
type Counter struct {
	mu       sync.Mutex
	n        int
	finished bool
}

func (c *Counter) Add(n int) {
	c.mu.Lock()
	c.n += n
	c.mu.Unlock()
}

func (c *Counter) Finish() {
	c.mu.Lock()
	c.finished = true
	c.mu.Unlock()
}

func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *Counter) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}
