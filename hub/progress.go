package hub

import (
	"fmt"
	"io"
	"sync"

	humanize "github.com/dustin/go-humanize"
	mpbv8 "github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ProgressBar renders one bar per in-flight checkpoint download. A nil
// *ProgressBar is valid and renders nothing, which is how DisableProgress
// is implemented.
type ProgressBar struct {
	mu   sync.RWMutex
	mpb  *mpbv8.Progress
	bars map[string]*progressBar
}

type progressBar struct {
	*mpbv8.Bar
	size int64
	msg  string
}

// NewProgressBar creates an empty progress renderer.
func NewProgressBar() *ProgressBar {
	return &ProgressBar{
		mpb:  mpbv8.New(mpbv8.WithWidth(60)),
		bars: make(map[string]*progressBar),
	}
}

// Attach registers a bar for the named artifact and returns a reader that
// advances it. Re-attaching an in-flight name returns the reader unchanged.
func (p *ProgressBar) Attach(name string, size int64, reader io.Reader) io.Reader {
	if p == nil {
		return reader
	}

	p.mu.RLock()
	oldBar := p.bars[name]
	p.mu.RUnlock()

	if oldBar != nil {
		return reader
	}

	bar := p.mpb.New(size,
		mpbv8.BarStyle(),
		mpbv8.BarFillerOnComplete("|"),
		mpbv8.PrependDecorators(
			decor.Any(func(s decor.Statistics) string {
				p.mu.RLock()
				defer p.mu.RUnlock()

				bar, ok := p.bars[name]
				if ok && bar.msg != "" {
					return bar.msg
				}

				return fmt.Sprintf("Fetching %s", name)
			}, decor.WCSyncSpaceR),
		),
		mpbv8.AppendDecorators(
			decor.OnComplete(decor.Counters(decor.SizeB1024(0), "% .2f / % .2f"), humanize.Bytes(uint64(size))),
			decor.OnComplete(decor.Name(" | ", decor.WCSyncWidthR), " | "),
			decor.OnComplete(
				decor.AverageSpeed(decor.SizeB1024(0), "% .2f", decor.WCSyncWidthR), "done",
			),
		),
	)

	p.mu.Lock()
	p.bars[name] = &progressBar{Bar: bar, size: size}
	p.mu.Unlock()

	return bar.ProxyReader(reader)
}

// Complete fills the named bar and replaces its label, e.g. after a cache
// hit made the transfer unnecessary.
func (p *ProgressBar) Complete(name, msg string) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	bar, ok := p.bars[name]
	if ok {
		bar.msg = msg
		bar.Bar.SetCurrent(bar.size)
	}
}

// Abort drops the named bar without filling it.
func (p *ProgressBar) Abort(name string) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if bar, ok := p.bars[name]; ok {
		bar.Bar.Abort(true)
		delete(p.bars, name)
	}
}

// Wait blocks until every bar has rendered its final state.
func (p *ProgressBar) Wait() {
	if p == nil {
		return
	}
	p.mpb.Wait()
}
